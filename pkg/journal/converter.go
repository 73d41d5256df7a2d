package journal

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
)

var hundred = decimal.NewFromInt(100)

// ConvertDocument converts a posted document to a Beancount transaction.
// Invoices debit the posting account and credit each line account; bills
// do the reverse. Taxes are not computed.
func ConvertDocument(doc *ledger.Document) (Transaction, error) {
	if !doc.Posted || doc.PostedAccount == nil {
		return Transaction{}, fmt.Errorf("%s %s is not posted", doc.Type, doc.ID)
	}

	places := decimalPlaces(doc.Currency.Fraction)

	// Lines are credits on invoices and debits on bills.
	sign := decimal.NewFromInt(1)
	fallback := "Expenses:Unmapped"
	if doc.Type == ledger.DocTypeInvoice {
		sign = sign.Neg()
		fallback = "Income:Unmapped"
	}

	var postings []Posting
	total := decimal.Zero
	for _, item := range doc.Entries {
		amount := LineAmount(item, doc.Type).Round(places)
		total = total.Add(amount)

		account := fallback
		if item.Account != nil {
			account = sanitizeAccountName(item.Account.Name)
		}
		postings = append(postings, Posting{
			Account:  account,
			Amount:   amount.Mul(sign),
			Currency: doc.Currency.Code,
			Comment:  item.Description,
		})
	}

	balancing := Posting{
		Account:  sanitizeAccountName(doc.PostedAccount.Name),
		Amount:   total.Mul(sign).Neg(),
		Currency: doc.Currency.Code,
	}
	postings = append([]Posting{balancing}, postings...)

	metadata := map[string]string{
		"due": doc.DueDate.Format("2006-01-02"),
	}
	if doc.BillingID != "" {
		metadata["billing-id"] = doc.BillingID
	}

	return Transaction{
		Date:      doc.DatePosted.Format("2006-01-02"),
		Payee:     payee(doc),
		Narration: narration(doc),
		Tags:      []string{strings.ToLower(string(doc.Type))},
		Links:     []string{sanitizeLink(doc.ID)},
		Metadata:  metadata,
		Postings:  postings,
	}, nil
}

// LineAmount returns quantity × price, less the discount on invoice lines.
// Percent discounts are taken from the undiscounted amount.
func LineAmount(item *ledger.LineItem, docType ledger.DocType) decimal.Decimal {
	amount := item.Quantity.Decimal().Mul(item.Price.Decimal())
	if docType != ledger.DocTypeInvoice || item.Discount.IsZero() {
		return amount
	}

	discount := item.Discount.Decimal()
	if item.DiscountType != ledger.DiscountValue {
		discount = amount.Mul(discount).Div(hundred)
	}
	return amount.Sub(discount)
}

// FormatTransaction formats a Beancount transaction as a string.
func FormatTransaction(txn Transaction) string {
	var sb strings.Builder

	sb.WriteString(txn.Date)
	sb.WriteString(" *")
	if txn.Payee != "" {
		sb.WriteString(fmt.Sprintf(" %q", txn.Payee))
	}
	sb.WriteString(fmt.Sprintf(" %q", txn.Narration))
	for _, tag := range txn.Tags {
		sb.WriteString(" #" + tag)
	}
	for _, link := range txn.Links {
		sb.WriteString(" ^" + link)
	}
	sb.WriteString("\n")

	keys := make([]string, 0, len(txn.Metadata))
	for k := range txn.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %q\n", k, txn.Metadata[k]))
	}

	for _, posting := range txn.Postings {
		sb.WriteString("  ")
		sb.WriteString(posting.Account)

		// Right-align amount (typical Beancount style)
		amount := posting.Amount.String()
		if exp := posting.Amount.Exponent(); exp < 0 {
			amount = posting.Amount.StringFixed(-exp)
		}
		spaces := max(1, 60-len(posting.Account)-len(amount))
		sb.WriteString(strings.Repeat(" ", spaces))
		sb.WriteString(amount + " " + posting.Currency)

		if posting.Comment != "" {
			sb.WriteString(fmt.Sprintf(" ; %s", posting.Comment))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// Exporter appends posted documents to monthly journal files.
type Exporter struct {
	repo   Repository
	logger *slog.Logger
}

// NewExporter creates a new Exporter.
func NewExporter(repo Repository, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{repo: repo, logger: logger}
}

// Export writes every posted document in docs to the file of its posting
// month and returns the files written, in first-use order. Unposted
// documents are skipped.
func (e *Exporter) Export(docs []*ledger.Document) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, doc := range docs {
		if !doc.Posted {
			e.logger.Debug("Skipping unposted document", "id", doc.ID)
			continue
		}

		txn, err := ConvertDocument(doc)
		if err != nil {
			return files, err
		}

		yearMonth := doc.DatePosted.Format("2006-01")
		comment := fmt.Sprintf("%s %s", strings.ToLower(string(doc.Type)), doc.ID)
		if err := e.repo.AppendTransaction(yearMonth, FormatTransaction(txn), comment); err != nil {
			return files, fmt.Errorf("failed to export %s %s: %w", doc.Type, doc.ID, err)
		}

		path, err := e.repo.MonthFilePath(yearMonth)
		if err != nil {
			return files, err
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		e.logger.Debug("Document exported", "id", doc.ID, "file", path)
	}

	return files, nil
}

func payee(doc *ledger.Document) string {
	if doc.Owner == nil {
		return ""
	}
	if doc.Owner.Name != "" {
		return doc.Owner.Name
	}
	return doc.Owner.ID
}

func narration(doc *ledger.Document) string {
	label := "Invoice"
	if doc.Type == ledger.DocTypeBill {
		label = "Bill"
	}
	if doc.PostMemo != "" {
		return fmt.Sprintf("%s %s: %s", label, doc.ID, doc.PostMemo)
	}
	return fmt.Sprintf("%s %s", label, doc.ID)
}

// decimalPlaces returns the number of decimals of a currency fraction
// (100 -> 2, 1 -> 0).
func decimalPlaces(fraction int64) int32 {
	var places int32
	for f := fraction; f > 1; f /= 10 {
		places++
	}
	return places
}

func sanitizeAccountName(name string) string {
	// Beancount account components cannot contain spaces
	return strings.ReplaceAll(name, " ", "")
}

func sanitizeLink(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '/':
			return r
		}
		return '-'
	}, id)
}
