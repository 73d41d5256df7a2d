package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/bi-import/pkg/config"
	"github.com/shunichi-ikebuchi/bi-import/pkg/db"
	"github.com/shunichi-ikebuchi/bi-import/pkg/pathutil"
)

var statsRuns int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display document and import statistics",
	Long: `Display statistics about stored documents and past imports.

Shows:
- Total number of invoices and bills, and how many are posted
- Total number of line items
- Number of import runs and the most recent ones

Example:
  bi-import stats
  bi-import stats --runs 10`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsRuns, "runs", 5, "Number of recent import runs to list")
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"paths", "root"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := pathutil.New(pathutil.Config{
		DataRoot:     cfg.Paths.Root,
		DatabasePath: cfg.Paths.DBPath,
		JournalDir:   cfg.Paths.JournalDir,
	})

	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewImportHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Import Statistics ===")
	fmt.Printf("Invoices:      %d\n", stats.TotalInvoices)
	fmt.Printf("Bills:         %d\n", stats.TotalBills)
	fmt.Printf("Posted:        %d\n", stats.PostedTotal)
	fmt.Printf("Line items:    %d\n", stats.TotalEntries)
	fmt.Printf("Import runs:   %d\n", stats.TotalRuns)

	if stats.LastImport.Valid {
		fmt.Printf("Last import:   %s\n", stats.LastImport.String)
	} else {
		fmt.Printf("Last import:   (never)\n")
	}

	if statsRuns > 0 && stats.TotalRuns > 0 {
		runs, err := history.RecentRuns(statsRuns)
		exitOnError(err, "failed to get import runs")

		fmt.Println("\n=== Recent Imports ===")
		for _, run := range runs {
			fmt.Printf("%s  %-7s %-15s imported=%d ignored=%d created=%d updated=%d posted=%d  %s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04"),
				run.DocType,
				run.Result,
				run.Imported,
				run.Ignored,
				run.Created,
				run.Updated,
				run.Posted,
				run.SourceFile,
			)
		}
	}

	fmt.Println()

	slog.Info("Statistics displayed successfully")
}
