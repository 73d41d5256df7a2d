// Package reconcile turns validated rows into documents and line items in a
// ledger store and auto-posts documents that ask for it.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
	"github.com/shunichi-ikebuchi/bi-import/pkg/parse"
	"github.com/shunichi-ikebuchi/bi-import/pkg/rows"
)

// ErrUpdateDeclined is returned when the user declines updating documents
// that already existed before the run.
var ErrUpdateDeclined = errors.New("update of existing documents declined")

// OpenMode selects which documents are handed to the opener after import.
type OpenMode string

const (
	OpenAll       OpenMode = "ALL"
	OpenNotPosted OpenMode = "NOT_POSTED"
	OpenNone      OpenMode = "NO"
)

// ParseOpenMode parses an open mode case-insensitively. Blank means OpenNone.
func ParseOpenMode(s string) (OpenMode, error) {
	switch m := OpenMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case OpenAll, OpenNotPosted, OpenNone:
		return m, nil
	case "":
		return OpenNone, nil
	}
	return "", fmt.Errorf("unknown open mode %q (expected ALL, NOT_POSTED or NO)", s)
}

// AutoPay holds the auto-pay preference per document type.
type AutoPay struct {
	Invoice bool
	Bill    bool
}

// For returns the preference for a document type.
func (a AutoPay) For(t ledger.DocType) bool {
	if t == ledger.DocTypeBill {
		return a.Bill
	}
	return a.Invoice
}

// Config configures a Reconciler.
type Config struct {
	Type       ledger.DocType
	Store      ledger.Store
	Directory  ledger.Directory
	DateFormat parse.DateFormat
	AutoPay    AutoPay
	OpenMode   OpenMode

	// Confirm is asked at most once per run, before the first update of a
	// document that existed before the run. A nil Confirm always agrees.
	Confirm func() bool
	// Open receives each document selected by OpenMode.
	Open func(doc *ledger.Document)

	Now    func() time.Time
	Logger *slog.Logger
}

// Result summarizes a reconcile run.
type Result struct {
	Created int
	Updated int
	// Posted lists the documents posted during the run.
	Posted []*ledger.Document
	Info   []string
}

// Reconciler creates and updates documents from a row table.
type Reconciler struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// New creates a new Reconciler.
func New(cfg Config) *Reconciler {
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
	if cfg.OpenMode == "" {
		cfg.OpenMode = OpenNone
	}
	return &Reconciler{cfg: cfg, now: now, logger: logger}
}

// Run processes the table group by group. It stops early with
// ErrUpdateDeclined if Confirm refuses an update, or with the store error if
// the store fails; the returned Result covers the work done until then.
func (r *Reconciler) Run(table *rows.Table) (Result, error) {
	var res Result
	confirmed := false
	created := make(map[string]bool)

	for _, g := range rows.Groups(table) {
		if g.ID == "" {
			res.Info = append(res.Info, fmt.Sprintf("Row %d: rows without invoice ID skipped.", g.Start+1))
			continue
		}
		first := table.At(g.Start)

		doc, err := r.cfg.Store.FindDocument(g.ID, r.cfg.Type)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			doc, err = r.create(g.ID, first)
			if errors.Is(err, ledger.ErrNotFound) {
				res.Info = append(res.Info, fmt.Sprintf("Invoice %s NOT imported because owner %s does not exist.", g.ID, first.Get(rows.OwnerID)))
				continue
			}
			if err != nil {
				return res, err
			}
			created[g.ID] = true
			res.Created++
			r.logger.Debug("Document created", "type", r.cfg.Type, "id", g.ID)

		case err != nil:
			return res, fmt.Errorf("failed to look up %s %s: %w", r.cfg.Type, g.ID, err)

		case doc.Posted:
			res.Info = append(res.Info, fmt.Sprintf("Invoice %s is already posted, %d row(s) skipped.", g.ID, g.Len()))
			r.logger.Debug("Posted document skipped", "id", g.ID, "rows", g.Len())
			continue

		default:
			if !created[g.ID] && !confirmed {
				if r.cfg.Confirm != nil && !r.cfg.Confirm() {
					r.logger.Info("Update of existing documents declined", "id", g.ID)
					return res, ErrUpdateDeclined
				}
				confirmed = true
			}
			res.Updated++
			r.logger.Debug("Document updated", "type", r.cfg.Type, "id", g.ID)
		}

		for i := g.Start; i < g.End; i++ {
			item := r.lineItem(doc, table.At(i))
			if err := r.cfg.Store.AddLineItem(doc, item); err != nil {
				return res, fmt.Errorf("failed to add line item of row %d to %s %s: %w", i+1, r.cfg.Type, g.ID, err)
			}
		}

		posted, err := r.autoPost(doc, first, &res)
		if err != nil {
			return res, err
		}

		if r.cfg.Open != nil && (r.cfg.OpenMode == OpenAll || r.cfg.OpenMode == OpenNotPosted && !posted) {
			r.cfg.Open(doc)
		}
	}

	return res, nil
}

// create makes a new document from the header fields of row.
func (r *Reconciler) create(id string, row *rows.Row) (*ledger.Document, error) {
	owner, err := r.cfg.Directory.Owner(row.Get(rows.OwnerID), r.cfg.Type.OwnerKind())
	if err != nil {
		return nil, err
	}

	opened, ok := r.cfg.DateFormat.Scan(row.Get(rows.DateOpened), r.now())
	if !ok {
		opened = dateOnly(r.now())
	}

	doc := &ledger.Document{
		ID:         id,
		Type:       r.cfg.Type,
		Owner:      owner,
		Currency:   owner.Currency,
		DateOpened: opened,
		BillingID:  row.Get(rows.BillingID),
		Notes:      parse.Unescape(row.Get(rows.Notes)),
		Active:     true,
	}
	if err := r.cfg.Store.CreateDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to create %s %s: %w", r.cfg.Type, id, err)
	}
	return doc, nil
}

// lineItem builds the line item of one row.
func (r *Reconciler) lineItem(doc *ledger.Document, row *rows.Row) *ledger.LineItem {
	now := r.now()
	denom := doc.Currency.EntryDenom()

	date, ok := r.cfg.DateFormat.Scan(row.Get(rows.Date), now)
	if !ok {
		date = doc.DateOpened
	}

	item := &ledger.LineItem{
		Date:        date,
		DateEntered: now,
		Description: parse.Unescape(row.Get(rows.Desc)),
		Notes:       parse.Unescape(row.Get(rows.Notes)),
		Action:      row.Get(rows.Action),
		Quantity:    r.amount(row, rows.Quantity, denom),
		Price:       r.amount(row, rows.Price, denom),
		Taxable:     parse.Bool(row.Get(rows.Taxable)),
		TaxIncluded: parse.Bool(row.Get(rows.TaxIncluded)),
	}

	if name := row.Get(rows.Account); name != "" {
		acc, err := r.cfg.Directory.Account(name)
		if err != nil {
			r.logger.Warn("Line account not found", "id", doc.ID, "account", name, "error", err)
		}
		item.Account = acc
	}

	if name := row.Get(rows.TaxTable); name != "" {
		tt, err := r.cfg.Directory.TaxTable(name)
		if err != nil {
			r.logger.Debug("Tax table not found", "id", doc.ID, "tax_table", name)
		}
		item.TaxTable = tt
	}

	if r.cfg.Type == ledger.DocTypeInvoice {
		item.Discount = r.amount(row, rows.Discount, denom)
		item.DiscountType = parse.DiscountType(row.Get(rows.DiscType))
		item.DiscountHow = parse.DiscountHow(row.Get(rows.DiscHow))
	}

	return item
}

// amount evaluates a numeric field in the entry denominator. Anything that
// does not parse or needs rounding becomes zero.
func (r *Reconciler) amount(row *rows.Row, f rows.Field, denom int64) ledger.Numeric {
	text := row.Get(f)
	if text == "" {
		return ledger.Zero(denom)
	}

	v, err := parse.Expression(text)
	if err != nil {
		r.logger.Debug("Amount not parsed", "field", f.String(), "value", text, "error", err)
		return ledger.Zero(denom)
	}

	n, err := ledger.Rescale(v, denom)
	if err != nil {
		r.logger.Debug("Amount not representable", "field", f.String(), "value", text, "error", err)
		return ledger.Zero(denom)
	}
	return n
}

// autoPost posts doc if its first row carries posting directives and the
// currencies allow it. It reports whether the document was posted.
func (r *Reconciler) autoPost(doc *ledger.Document, first *rows.Row, res *Result) (bool, error) {
	datePosted := first.Get(rows.DatePosted)
	if datePosted == "" {
		r.logger.Debug("Document not marked for posting", "id", doc.ID)
		res.Info = append(res.Info, fmt.Sprintf("Invoice %s is NOT marked for posting.", doc.ID))
		return false, nil
	}

	autoPay := r.cfg.AutoPay.For(r.cfg.Type)

	foreign, err := r.cfg.Store.ForeignCurrencies(doc)
	if err != nil {
		return false, fmt.Errorf("failed to get currencies of %s %s: %w", r.cfg.Type, doc.ID, err)
	}
	if len(foreign) > 0 {
		r.logger.Warn("Document not posted, currency conversion required", "id", doc.ID, "currencies", foreign)
		res.Info = append(res.Info, fmt.Sprintf("Invoice %s NOT posted because it requires currency conversion.", doc.ID))
		return false, nil
	}

	accountName := first.Get(rows.AccountPosted)
	acc, err := r.cfg.Directory.Account(accountName)
	if err != nil {
		r.logger.Warn("Document not posted, posting account not found", "id", doc.ID, "account", accountName, "error", err)
		res.Info = append(res.Info, fmt.Sprintf("Invoice %s NOT posted because account %s does not exist.", doc.ID, accountName))
		return false, nil
	}
	if acc.Currency.Code != doc.Currency.Code {
		r.logger.Warn("Document not posted, currencies don't match", "id", doc.ID, "document", doc.Currency.Code, "account", acc.Currency.Code)
		res.Info = append(res.Info, fmt.Sprintf("Invoice %s NOT posted because currencies don't match.", doc.ID))
		return false, nil
	}

	now := r.now()
	postDate, ok := r.cfg.DateFormat.Scan(datePosted, now)
	if !ok {
		postDate = dateOnly(now)
	}
	dueDate, ok := r.cfg.DateFormat.Scan(first.Get(rows.DueDate), now)
	if !ok {
		dueDate = postDate
	}

	opts := ledger.PostOptions{
		Account:          acc,
		PostDate:         postDate,
		DueDate:          dueDate,
		Memo:             first.Get(rows.MemoPosted),
		AccumulateSplits: parse.Bool(first.Get(rows.AccuSplits)),
		AutoPay:          autoPay,
	}
	if err := r.cfg.Store.PostDocument(doc, opts); err != nil {
		return false, fmt.Errorf("failed to post %s %s: %w", r.cfg.Type, doc.ID, err)
	}

	r.logger.Info("Document posted", "type", r.cfg.Type, "id", doc.ID, "account", acc.Name)
	res.Info = append(res.Info, fmt.Sprintf("Invoice %s posted.", doc.ID))
	res.Posted = append(res.Posted, doc)
	return true, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
