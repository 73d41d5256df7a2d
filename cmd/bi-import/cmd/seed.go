package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/bi-import/pkg/config"
	"github.com/shunichi-ikebuchi/bi-import/pkg/db"
	"github.com/shunichi-ikebuchi/bi-import/pkg/directory"
	"github.com/shunichi-ikebuchi/bi-import/pkg/pathutil"
)

var seedFile string

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load customers, vendors and accounts into the database",
	Long: `Load currencies, customers, vendors, accounts and tax tables from a
YAML directory file into the database. Existing entries are updated.

Example:
  bi-import seed --file directory.yaml`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Directory file (YAML) (required)")
	seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) {
	slog.Info("Loading directory file", "file", seedFile)

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"paths", "root"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	file, err := directory.Load(seedFile)
	exitOnError(err, "failed to load directory file")

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

	err = file.Apply(db.NewBook(conn))
	exitOnError(err, "failed to seed database")

	fmt.Println("\n=== Directory Loaded ===")
	fmt.Printf("Currencies: %d\n", len(file.Currencies))
	fmt.Printf("Customers:  %d\n", len(file.Customers))
	fmt.Printf("Vendors:    %d\n", len(file.Vendors))
	fmt.Printf("Accounts:   %d\n", len(file.Accounts))
	fmt.Printf("Tax tables: %d\n", len(file.TaxTables))
	fmt.Println()

	slog.Info("Directory loaded successfully", "database", dbPath)
}
