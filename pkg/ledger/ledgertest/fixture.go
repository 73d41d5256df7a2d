// Package ledgertest provides a seeded in-memory book for tests.
package ledgertest

import "github.com/shunichi-ikebuchi/bi-import/pkg/ledger"

var (
	USD = ledger.Currency{Code: "USD", Fraction: 100}
	EUR = ledger.Currency{Code: "EUR", Fraction: 100}
)

// Account names seeded by NewBook.
const (
	Receivable    = "Assets:Accounts Receivable"
	ReceivableEUR = "Assets:Accounts Receivable EUR"
	Payable       = "Liabilities:Accounts Payable"
	Sales         = "Income:Sales"
	SalesEU       = "Income:Sales EU"
	Supplies      = "Expenses:Supplies"
	Bank          = "Assets:Bank"
)

// NewBook returns a book with customers cust1 (USD) and cust2 (EUR),
// vendor vend1 (USD), receivable/payable/income/expense accounts and a
// "VAT" tax table.
func NewBook() *ledger.Book {
	b := ledger.NewBook()

	b.AddOwner(&ledger.Owner{ID: "cust1", Name: "Customer One", Kind: ledger.OwnerCustomer, Currency: USD})
	b.AddOwner(&ledger.Owner{ID: "cust2", Name: "Customer Two", Kind: ledger.OwnerCustomer, Currency: EUR})
	b.AddOwner(&ledger.Owner{ID: "vend1", Name: "Vendor One", Kind: ledger.OwnerVendor, Currency: USD})

	b.AddAccount(&ledger.Account{Name: Receivable, Code: "1200", Type: ledger.AccountReceivable, Currency: USD})
	b.AddAccount(&ledger.Account{Name: ReceivableEUR, Code: "1210", Type: ledger.AccountReceivable, Currency: EUR})
	b.AddAccount(&ledger.Account{Name: Payable, Code: "2100", Type: ledger.AccountPayable, Currency: USD})
	b.AddAccount(&ledger.Account{Name: Sales, Code: "4000", Type: ledger.AccountIncome, Currency: USD})
	b.AddAccount(&ledger.Account{Name: SalesEU, Code: "4100", Type: ledger.AccountIncome, Currency: EUR})
	b.AddAccount(&ledger.Account{Name: Supplies, Code: "6000", Type: ledger.AccountExpense, Currency: USD})
	b.AddAccount(&ledger.Account{Name: Bank, Code: "1000", Type: ledger.AccountBank, Currency: USD})

	b.AddTaxTable(&ledger.TaxTable{Name: "VAT"})

	return b
}
