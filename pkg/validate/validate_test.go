package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger/ledgertest"
	"github.com/shunichi-ikebuchi/bi-import/pkg/parse"
	"github.com/shunichi-ikebuchi/bi-import/pkg/rows"
)

var today = time.Date(2024, 6, 15, 9, 30, 0, 0, time.Local)

func newValidator(docType ledger.DocType) *Validator {
	return New(Config{
		Type:       docType,
		DateFormat: parse.DateUS,
		Directory:  ledgertest.NewBook(),
		Now:        func() time.Time { return today },
	})
}

// line builds an invoice row; pairs override fields.
func line(id string, pairs ...string) *rows.Row {
	r := rows.NewRow(map[rows.Field]string{
		rows.ID:         id,
		rows.DateOpened: "06/01/2024",
		rows.OwnerID:    "cust1",
		rows.Date:       "06/02/2024",
		rows.Account:    ledgertest.Sales,
		rows.Quantity:   "2",
		rows.Price:      "10.00",
	})
	for i := 0; i+1 < len(pairs); i += 2 {
		f, ok := rows.FieldByName(pairs[i])
		if !ok {
			panic("unknown field " + pairs[i])
		}
		r.Set(f, pairs[i+1])
	}
	return r
}

func ids(t *rows.Table) []string {
	var out []string
	for _, r := range t.Rows() {
		out = append(out, r.Get(rows.ID))
	}
	return out
}

func TestScenarioQuantityRepaired(t *testing.T) {
	table := rows.NewTable(line("INV1", "quantity", "", "date", "01/01/2024"))

	report := newValidator(ledger.DocTypeInvoice).Validate(table)

	assert.Equal(t, 1, report.Fixed)
	assert.Equal(t, 0, report.Deleted)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "1", table.Get(0, rows.Quantity))
}

func TestPriceNotSetDeletesWholeGroup(t *testing.T) {
	table := rows.NewTable(
		line("INV1", "quantity", ""),
		line("", "price", ""),
		line("", "date", "garbage"),
		line("INV2"),
	)

	report := newValidator(ledger.DocTypeInvoice).Validate(table)

	assert.Equal(t, 3, report.Deleted)
	assert.Equal(t, 0, report.Fixed, "repairs of rejected groups are not counted")
	require.Len(t, report.Info, 1)
	assert.Equal(t, "Row 2: invoice INV1 ignored, price not set.", report.Info[0])
	assert.Equal(t, []string{"INV2"}, ids(table))
}

func TestBlankIDsInheritPreviousID(t *testing.T) {
	table := rows.NewTable(line("INV1"), line(""), line("INV2"), line(""))

	report := newValidator(ledger.DocTypeInvoice).Validate(table)

	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, []string{"INV1", "INV1", "INV2", "INV2"}, ids(table))
}

func TestHeaderRejections(t *testing.T) {
	tests := []struct {
		name    string
		docType ledger.DocType
		row     *rows.Row
		message string
	}{
		{
			"id not set",
			ledger.DocTypeInvoice,
			line(""),
			"Row 1: invoice ignored, invoice ID not set.",
		},
		{
			"owner not set",
			ledger.DocTypeInvoice,
			line("INV1", "owner_id", ""),
			"Row 1: invoice INV1 ignored, owner not set.",
		},
		{
			"customer does not exist",
			ledger.DocTypeInvoice,
			line("INV1", "owner_id", "nobody"),
			"Row 1: invoice INV1 ignored, customer nobody does not exist.",
		},
		{
			"vendor used as customer",
			ledger.DocTypeInvoice,
			line("INV1", "owner_id", "vend1"),
			"Row 1: invoice INV1 ignored, customer vend1 does not exist.",
		},
		{
			"customer used as vendor",
			ledger.DocTypeBill,
			line("B1", "owner_id", "cust1", "account", ledgertest.Supplies),
			"Row 1: invoice B1 ignored, vendor cust1 does not exist.",
		},
		{
			"invalid posting date",
			ledger.DocTypeInvoice,
			line("INV1", "date_posted", "13/45/2024", "account_posted", ledgertest.Receivable),
			"Row 1: invoice INV1 ignored, 13/45/2024 is not a valid posting date.",
		},
		{
			"posting account missing",
			ledger.DocTypeInvoice,
			line("INV1", "date_posted", "06/30/2024", "account_posted", "Assets:Nowhere"),
			"Row 1: invoice INV1 ignored, account Assets:Nowhere does not exist.",
		},
		{
			"invoice posted to payable",
			ledger.DocTypeInvoice,
			line("INV1", "date_posted", "06/30/2024", "account_posted", ledgertest.Payable),
			"Row 1: invoice INV1 ignored, account " + ledgertest.Payable + " is not of type Accounts Receivable.",
		},
		{
			"bill posted to receivable",
			ledger.DocTypeBill,
			line("B1", "owner_id", "vend1", "date_posted", "06/30/2024", "account_posted", ledgertest.Receivable),
			"Row 1: invoice B1 ignored, account " + ledgertest.Receivable + " is not of type Accounts Payable.",
		},
		{
			"line account missing",
			ledger.DocTypeInvoice,
			line("INV1", "account", "Income:Unknown"),
			"Row 1: invoice INV1 ignored, account Income:Unknown does not exist.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := rows.NewTable(tt.row)
			report := newValidator(tt.docType).Validate(table)

			assert.Equal(t, 0, table.Len())
			assert.Equal(t, 1, report.Deleted)
			assert.Equal(t, []string{tt.message}, report.Info)
		})
	}
}

func TestHeaderRepairs(t *testing.T) {
	table := rows.NewTable(
		line("INV1",
			"date_opened", "not a date",
			"date_posted", "06/30/2024",
			"due_date", "",
			"account_posted", "1200",
			"date", "",
		),
		line("", "date", ""),
		line("", "quantity", "3"),
	)

	report := newValidator(ledger.DocTypeInvoice).Validate(table)

	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, 2, report.Fixed, "first row counts once for all its repairs")
	assert.Equal(t, "06/15/2024", table.Get(0, rows.DateOpened))
	assert.Equal(t, "06/30/2024", table.Get(0, rows.DueDate))
	assert.Equal(t, "06/15/2024", table.Get(0, rows.Date), "invalid line date takes the repaired opened date")
	assert.Equal(t, "06/15/2024", table.Get(1, rows.Date))
	assert.Equal(t, "06/02/2024", table.Get(2, rows.Date))
}

func TestRowNumbersRefersToOriginalPositions(t *testing.T) {
	table := rows.NewTable(
		line("INV1", "owner_id", ""),
		line(""),
		line("INV2"),
		line("", "account", "Nowhere"),
	)

	report := newValidator(ledger.DocTypeInvoice).Validate(table)

	assert.Equal(t, 4, report.Deleted)
	assert.Equal(t, []string{
		"Row 1: invoice INV1 ignored, owner not set.",
		"Row 4: invoice INV2 ignored, account Nowhere does not exist.",
	}, report.Info)
}

func TestRevalidationIsNoop(t *testing.T) {
	table := rows.NewTable(
		line("INV1", "date_opened", "", "quantity", ""),
		line("", "date", "bad"),
		line("INV2", "price", ""),
		line("INV3", "date_posted", "06/30/2024", "account_posted", ledgertest.Receivable, "due_date", "x"),
		line(""),
	)

	v := newValidator(ledger.DocTypeInvoice)
	first := v.Validate(table)
	require.Equal(t, 1, first.Deleted)
	require.Equal(t, 3, first.Fixed)

	before := snapshot(table)
	second := v.Validate(table)

	assert.Equal(t, 0, second.Fixed)
	assert.Equal(t, 0, second.Deleted)
	assert.Empty(t, second.Info)
	assert.Equal(t, before, snapshot(table))
}

func TestGroupsStayContiguous(t *testing.T) {
	table := rows.NewTable(
		line("A"), line(""), line("B", "price", ""), line(""), line("C"), line(""), line(""),
	)

	newValidator(ledger.DocTypeInvoice).Validate(table)

	groups := rows.Groups(table)
	seen := make(map[string]bool)
	for _, g := range groups {
		assert.False(t, seen[g.ID], "group %s split", g.ID)
		seen[g.ID] = true
		for i := g.Start; i < g.End; i++ {
			assert.Equal(t, g.ID, table.Get(i, rows.ID))
		}
	}
	assert.Equal(t, []string{"A", "A", "C", "C", "C"}, ids(table))
}

func snapshot(t *rows.Table) string {
	var sb strings.Builder
	for _, r := range t.Rows() {
		for _, f := range rows.Fields() {
			sb.WriteString(r.Get(f))
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
