package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/bi-import/pkg/config"
	"github.com/shunichi-ikebuchi/bi-import/pkg/db"
	"github.com/shunichi-ikebuchi/bi-import/pkg/directory"
	"github.com/shunichi-ikebuchi/bi-import/pkg/extract"
	"github.com/shunichi-ikebuchi/bi-import/pkg/journal"
	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
	"github.com/shunichi-ikebuchi/bi-import/pkg/parse"
	"github.com/shunichi-ikebuchi/bi-import/pkg/pathutil"
	"github.com/shunichi-ikebuchi/bi-import/pkg/reconcile"
	"github.com/shunichi-ikebuchi/bi-import/pkg/rows"
	"github.com/shunichi-ikebuchi/bi-import/pkg/validate"
)

var (
	importType      string
	importFile      string
	importFormat    string
	importPattern   string
	importMaxRows   int
	importOpen      string
	importYes       bool
	importDryRun    bool
	importDirectory string
	importNoJournal bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import bills or invoices from a text file",
	Long: `Import bills or invoices from a delimited text file.

This command:
1. Extracts one row per matching line, using a built-in or custom pattern
2. Repairs missing quantities and dates, and drops documents that cannot be imported
3. Creates new documents and adds line items to existing, unposted ones
4. Posts documents whose first row carries a posting date and account
5. Exports posted documents to monthly Beancount journal files
6. Writes a report of ignored lines and diagnostics, and records the run

Example:
  bi-import import --type invoice --file invoices.txt
  bi-import import --type bill --file bills.csv --format comma --open NOT_POSTED
  bi-import import --type invoice --file invoices.txt --dry-run --directory directory.yaml`,
	Run: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importType, "type", "", "Document type: invoice or bill (required)")
	importCmd.Flags().StringVar(&importFile, "file", "", "Source file (required)")
	importCmd.Flags().StringVar(&importFormat, "format", "semicolon", "Line format: semicolon, comma or custom")
	importCmd.Flags().StringVar(&importPattern, "pattern", "", "Line pattern with named groups (custom format)")
	importCmd.Flags().IntVar(&importMaxRows, "max-rows", 0, "Stop after this many lines (0 reads all)")
	importCmd.Flags().StringVar(&importOpen, "open", "", "Documents to open after import: ALL, NOT_POSTED or NO (default from BI_IMPORT_OPEN_MODE)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Update existing documents without asking")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Dry run mode against an in-memory book (no writes)")
	importCmd.Flags().StringVar(&importDirectory, "directory", "", "Directory file seeding the in-memory book (required with --dry-run)")
	importCmd.Flags().BoolVar(&importNoJournal, "no-journal", false, "Do not export posted documents to journal files")

	importCmd.MarkFlagRequired("type")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) {
	slog.Info("Starting import", "type", importType, "file", importFile, "dry_run", importDryRun)

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"paths", "root"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	docType, err := ledger.ParseDocType(importType)
	exitOnError(err, "invalid --type")

	pattern, err := linePattern(importFormat, importPattern, cmd.Flags().Changed("format"))
	exitOnError(err, "invalid line format")

	dateFormat, err := parse.ParseDateFormat(cfg.Import.DateFormat)
	exitOnError(err, "invalid BI_IMPORT_DATE_FORMAT")

	openSetting := cfg.Import.OpenMode
	if importOpen != "" {
		openSetting = importOpen
	}
	openMode, err := reconcile.ParseOpenMode(openSetting)
	exitOnError(err, "invalid open mode")

	pathResolver := pathutil.New(pathutil.Config{
		DataRoot:     cfg.Paths.Root,
		DatabasePath: cfg.Paths.DBPath,
		JournalDir:   cfg.Paths.JournalDir,
	})

	// Choose the book: in memory for dry runs, SQLite otherwise
	var store ledger.Store
	var dir ledger.Directory
	var history *db.ImportHistory

	if importDryRun {
		if importDirectory == "" {
			exitOnError(errors.New("--directory is required with --dry-run"), "invalid flags")
		}
		file, err := directory.Load(importDirectory)
		exitOnError(err, "failed to load directory file")

		book := file.Book()
		store, dir = book, book
	} else {
		dbPath := pathResolver.GetDatabasePath()
		slog.Debug("Opening database", "path", dbPath)

		conn, err := db.Open(dbPath)
		exitOnError(err, "failed to open database")
		defer conn.Close()

		book := db.NewBook(conn)
		store = book
		dir = directory.NewCached(book, cfg.Import.CacheTTL)
		history = db.NewImportHistory(conn)
	}

	run := &db.ImportRun{
		ID:         uuid.NewString(),
		DocType:    string(docType),
		SourceFile: importFile,
		StartedAt:  time.Now(),
	}
	logger := slog.Default().With("run", run.ID)

	// Extract
	table := rows.NewTable()
	stats := &extract.Stats{}
	extractor := extract.New(extract.Config{
		Pattern:  pattern,
		MaxRows:  importMaxRows,
		Encoding: cfg.Import.Encoding,
		Logger:   logger,
	})

	if err := extractor.ReadFile(importFile, table, stats); err != nil {
		run.Result = extract.ResultOf(err).String()
		finishRun(history, run, stats, reconcile.Result{})
		exitOnError(err, "failed to read source file")
	}
	logger.Info("Lines extracted", "imported", stats.Imported, "ignored", stats.Ignored)

	// Validate
	validator := validate.New(validate.Config{
		Type:       docType,
		DateFormat: dateFormat,
		Directory:  dir,
		Logger:     logger,
	})
	report := validator.Validate(table)
	stats.Fixed = report.Fixed
	stats.Deleted = report.Deleted
	stats.Info = append(stats.Info, report.Info...)
	logger.Info("Rows validated", "fixed", report.Fixed, "deleted", report.Deleted, "remaining", table.Len())

	// Reconcile
	reconciler := reconcile.New(reconcile.Config{
		Type:       docType,
		Store:      store,
		Directory:  dir,
		DateFormat: dateFormat,
		AutoPay: reconcile.AutoPay{
			Invoice: cfg.Import.AutoPayInvoice,
			Bill:    cfg.Import.AutoPayBill,
		},
		OpenMode: openMode,
		Confirm:  confirmUpdate(os.Stdin, os.Stdout, docType, importYes),
		Open:     printDocument(os.Stdout),
		Logger:   logger,
	})

	result, err := reconciler.Run(table)
	stats.Info = append(stats.Info, result.Info...)

	switch {
	case errors.Is(err, reconcile.ErrUpdateDeclined):
		run.Result = "DECLINED"
		fmt.Println("Update of existing documents declined; import stopped.")
	case err != nil:
		run.Result = "FAILED"
		finishRun(history, run, stats, result)
		exitOnError(err, "failed to import documents")
	default:
		run.Result = extract.ResultOK.String()
	}
	logger.Info("Documents reconciled", "created", result.Created, "updated", result.Updated, "posted", len(result.Posted))

	if importDryRun {
		fmt.Println("\n=== Dry run: nothing was written ===")
		writeReport(os.Stdout, run, stats, result)
		return
	}

	// Export posted documents
	if !importNoJournal && len(result.Posted) > 0 {
		exporter := journal.NewExporter(journal.NewFileSystemRepository(pathResolver), logger)
		files, err := exporter.Export(result.Posted)
		exitOnError(err, "failed to export journal")
		for _, f := range files {
			fmt.Printf("Journal updated: %s\n", f)
		}
	}

	finishRun(history, run, stats, result)

	reportPath := pathResolver.GetReportPath(run.StartedAt, run.ID)
	if err := pathResolver.EnsureParentDir(reportPath); err != nil {
		exitOnError(err, "failed to create report directory")
	}
	f, err := os.Create(reportPath)
	exitOnError(err, "failed to create report file")
	writeReport(f, run, stats, result)
	exitOnError(f.Close(), "failed to write report file")

	printSummary(run, stats, result)
	fmt.Printf("Report: %s\n", reportPath)

	logger.Info("Import completed", "result", run.Result)
}

// linePattern resolves the --format and --pattern flags to a line pattern.
// A pattern implies the custom format unless another format was asked for.
func linePattern(formatName, pattern string, formatSet bool) (string, error) {
	format, err := extract.ParseFormat(formatName)
	if err != nil {
		return "", err
	}

	if pattern != "" {
		if formatSet && format != extract.FormatCustom {
			return "", fmt.Errorf("--pattern needs --format custom, got %s", format)
		}
		return pattern, nil
	}

	return format.Pattern()
}

// finishRun records the run unless there is no history (dry run).
func finishRun(history *db.ImportHistory, run *db.ImportRun, stats *extract.Stats, result reconcile.Result) {
	run.FinishedAt = time.Now()
	run.Imported = stats.Imported
	run.Ignored = stats.Ignored
	run.Fixed = stats.Fixed
	run.Deleted = stats.Deleted
	run.Created = result.Created
	run.Updated = result.Updated
	run.Posted = len(result.Posted)

	if history == nil {
		return
	}
	if err := history.RecordRun(run); err != nil {
		slog.Warn("Failed to record import run", "run", run.ID, "error", err)
	}
}

func printSummary(run *db.ImportRun, stats *extract.Stats, result reconcile.Result) {
	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Result:           %s\n", run.Result)
	fmt.Printf("Lines imported:   %d\n", stats.Imported)
	fmt.Printf("Lines ignored:    %d\n", stats.Ignored)
	fmt.Printf("Rows fixed:       %d\n", stats.Fixed)
	fmt.Printf("Rows deleted:     %d\n", stats.Deleted)
	fmt.Printf("Documents created: %d\n", result.Created)
	fmt.Printf("Documents updated: %d\n", result.Updated)
	fmt.Printf("Documents posted:  %d\n", len(result.Posted))
	fmt.Println()
}
