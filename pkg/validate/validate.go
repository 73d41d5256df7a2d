// Package validate checks imported rows document by document, repairs
// recoverable defects in place and drops documents that cannot be imported.
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
	"github.com/shunichi-ikebuchi/bi-import/pkg/parse"
	"github.com/shunichi-ikebuchi/bi-import/pkg/rows"
)

// Config configures a Validator.
type Config struct {
	Type       ledger.DocType
	DateFormat parse.DateFormat
	Directory  ledger.Directory
	// Now returns the current time; defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Report summarizes a validation pass.
type Report struct {
	// Fixed counts repaired rows of documents that were kept.
	Fixed int
	// Deleted counts rows removed with rejected documents.
	Deleted int
	// Info holds one message per rejected document.
	Info []string
}

// Validator validates and repairs a row table.
type Validator struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// New creates a new Validator.
func New(cfg Config) *Validator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = parse.DateUS
	}
	return &Validator{cfg: cfg, now: now, logger: logger}
}

// Validate walks the table one document group at a time. Repairs are made
// in place; a group failing any check is removed as a whole and its repairs
// are not counted. Surviving rows get their effective document id filled in.
func (v *Validator) Validate(table *rows.Table) Report {
	var report Report
	var rejected []rows.Group

	groups := rows.Groups(table)
	for _, g := range groups {
		fixed, reason := v.checkGroup(table, g)
		if reason != "" {
			report.Info = append(report.Info, reason)
			report.Deleted += g.Len()
			rejected = append(rejected, g)
			v.logger.Debug("Document rejected", "id", g.ID, "rows", g.Len())
			continue
		}
		report.Fixed += fixed
		v.logger.Debug("Document validated", "id", g.ID, "rows", g.Len(), "fixed", fixed)
	}

	rows.FillIDs(table, groups)
	for i := len(rejected) - 1; i >= 0; i-- {
		table.RemoveRange(rejected[i].Start, rejected[i].End)
	}

	return report
}

// checkGroup validates one group. It returns the number of repaired rows,
// or a non-empty rejection message.
func (v *Validator) checkGroup(table *rows.Table, g rows.Group) (int, string) {
	now := v.now()
	id := g.ID
	first := table.At(g.Start)
	rowNo := g.Start + 1

	reject := func(row int, format string, args ...any) (int, string) {
		return 0, fmt.Sprintf("Row %d: invoice %s ignored, ", row, id) + fmt.Sprintf(format, args...) + "."
	}

	if id == "" {
		return 0, fmt.Sprintf("Row %d: invoice ignored, invoice ID not set.", rowNo)
	}

	ownerID := first.Get(rows.OwnerID)
	if ownerID == "" {
		return reject(rowNo, "owner not set")
	}
	kind := v.cfg.Type.OwnerKind()
	if _, err := v.cfg.Directory.Owner(ownerID, kind); err != nil {
		v.warnLookup(err, "owner", ownerID)
		return reject(rowNo, "%s %s does not exist", kind, ownerID)
	}

	headerFixed := false
	if datePosted := first.Get(rows.DatePosted); datePosted != "" {
		if !v.cfg.DateFormat.Valid(datePosted, now) {
			return reject(rowNo, "%s is not a valid posting date", datePosted)
		}

		accountPosted := first.Get(rows.AccountPosted)
		acc, err := v.cfg.Directory.Account(accountPosted)
		if err != nil {
			v.warnLookup(err, "account", accountPosted)
			return reject(rowNo, "account %s does not exist", accountPosted)
		}
		if want := v.cfg.Type.PostingAccountType(); acc.Type != want {
			return reject(rowNo, "account %s is not of type %s", accountPosted, want.Label())
		}

		if !v.cfg.DateFormat.Valid(first.Get(rows.DueDate), now) {
			first.Set(rows.DueDate, datePosted)
			headerFixed = true
		}
	}

	dateOpened := first.Get(rows.DateOpened)
	if !v.cfg.DateFormat.Valid(dateOpened, now) {
		dateOpened = v.cfg.DateFormat.Format(now)
		first.Set(rows.DateOpened, dateOpened)
		headerFixed = true
	}

	fixed := 0
	for i := g.Start; i < g.End; i++ {
		row := table.At(i)
		rowFixed := i == g.Start && headerFixed

		if row.Get(rows.Price) == "" {
			return reject(i+1, "price not set")
		}

		account := row.Get(rows.Account)
		if _, err := v.cfg.Directory.Account(account); err != nil {
			v.warnLookup(err, "account", account)
			return reject(i+1, "account %s does not exist", account)
		}

		if row.Get(rows.Quantity) == "" {
			row.Set(rows.Quantity, "1")
			rowFixed = true
		}

		if !v.cfg.DateFormat.Valid(row.Get(rows.Date), now) {
			row.Set(rows.Date, dateOpened)
			rowFixed = true
		}

		if rowFixed {
			fixed++
		}
	}

	return fixed, ""
}

// warnLookup logs directory failures other than a plain miss.
func (v *Validator) warnLookup(err error, what, id string) {
	if !errors.Is(err, ledger.ErrNotFound) {
		v.logger.Warn("Directory lookup failed", "kind", what, "id", id, "error", err)
	}
}
