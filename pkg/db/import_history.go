package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportRun is one recorded import run.
type ImportRun struct {
	ID         string
	DocType    string
	SourceFile string
	Result     string
	Imported   int
	Ignored    int
	Fixed      int
	Deleted    int
	Created    int
	Updated    int
	Posted     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// ImportHistory manages the import run history.
type ImportHistory struct {
	conn *Connection
}

// NewImportHistory creates a new ImportHistory instance.
func NewImportHistory(conn *Connection) *ImportHistory {
	return &ImportHistory{conn: conn}
}

// RecordRun stores a run. A run without an ID gets a new random one,
// which is written back to run.
func (h *ImportHistory) RecordRun(run *ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	query := `
		INSERT INTO import_runs (id, doc_type, source_file, result, imported, ignored, fixed, deleted,
			created, updated, posted, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			result = excluded.result,
			imported = excluded.imported,
			ignored = excluded.ignored,
			fixed = excluded.fixed,
			deleted = excluded.deleted,
			created = excluded.created,
			updated = excluded.updated,
			posted = excluded.posted,
			finished_at = excluded.finished_at
	`

	_, err := h.conn.Exec(query,
		run.ID,
		run.DocType,
		run.SourceFile,
		run.Result,
		run.Imported,
		run.Ignored,
		run.Fixed,
		run.Deleted,
		run.Created,
		run.Updated,
		run.Posted,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}

	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (h *ImportHistory) RecentRuns(limit int) ([]ImportRun, error) {
	query := `
		SELECT id, doc_type, source_file, result, imported, ignored, fixed, deleted,
			created, updated, posted, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := h.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(
			&run.ID,
			&run.DocType,
			&run.SourceFile,
			&run.Result,
			&run.Imported,
			&run.Ignored,
			&run.Fixed,
			&run.Deleted,
			&run.Created,
			&run.Updated,
			&run.Posted,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Stats represents document and import statistics.
type Stats struct {
	TotalInvoices int
	TotalBills    int
	PostedTotal   int
	TotalEntries  int
	TotalRuns     int
	LastImport    sql.NullString
}

// GetStats retrieves document and import statistics.
func (h *ImportHistory) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`SELECT COUNT(*) FROM documents WHERE doc_type = 'INVOICE'`).Scan(&stats.TotalInvoices)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM documents WHERE doc_type = 'BILL'`).Scan(&stats.TotalBills)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM documents WHERE posted = 1`).Scan(&stats.PostedTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to get posted count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM line_items`).Scan(&stats.TotalEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to get line item count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM import_runs`).Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get import run count: %w", err)
	}

	// MAX over a TIMESTAMP column comes back as plain text.
	err = h.conn.QueryRow(`SELECT MAX(started_at) FROM import_runs`).Scan(&stats.LastImport)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last import time: %w", err)
	}

	return &stats, nil
}
