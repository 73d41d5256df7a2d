// Package pathutil provides centralized path management for the data root,
// the database, journal files and import reports.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PathResolver manages paths below the data root.
type PathResolver struct {
	dataRoot     string
	databasePath string
	journalDir   string
	reportsDir   string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the root directory for everything bi-import writes (e.g., ./books)
	DataRoot string
	// DatabasePath is the path to the SQLite document store
	DatabasePath string
	// JournalDir is the directory for exported Beancount journal files
	JournalDir string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataRoot}/.bi-import/bi-import.db
// If JournalDir is empty, it defaults to {DataRoot}/journal
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataRoot, ".bi-import", "bi-import.db")
	}

	journalDir := config.JournalDir
	if journalDir == "" {
		journalDir = filepath.Join(config.DataRoot, "journal")
	}

	return &PathResolver{
		dataRoot:     config.DataRoot,
		databasePath: dbPath,
		journalDir:   journalDir,
		reportsDir:   filepath.Join(config.DataRoot, "reports"),
	}
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetJournalDir returns the journal directory.
func (p *PathResolver) GetJournalDir() string {
	return p.journalDir
}

// GetYearDir returns the journal directory path for a year.
// Example: ./books/journal/2024
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.journalDir, year)
}

// GetMonthFilePath returns the journal file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: ./books/journal/2024/2024-01.beancount
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	year := parts[0]
	yearDir := p.GetYearDir(year)
	filename := fmt.Sprintf("%s.beancount", yearMonth)

	return filepath.Join(yearDir, filename), nil
}

// GetReportPath returns the report file path of an import run.
// Example: ./books/reports/2024/2024-06-15T093000-3f2a9c1e.txt
func (p *PathResolver) GetReportPath(startedAt time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s-%s.txt", startedAt.Format("2006-01-02T150405"), short)
	return filepath.Join(p.reportsDir, startedAt.Format("2006"), name)
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
