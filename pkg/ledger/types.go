// Package ledger defines the accounting book entities touched by an import:
// owners, accounts, tax tables, documents (invoices and bills) and their line items.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by lookups when the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPosted is returned when a mutation targets a posted document.
	ErrPosted = errors.New("document already posted")
)

// DocType discriminates between customer invoices and vendor bills.
type DocType string

const (
	DocTypeBill    DocType = "BILL"
	DocTypeInvoice DocType = "INVOICE"
)

// ParseDocType parses a document type case-insensitively.
func ParseDocType(s string) (DocType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(DocTypeBill):
		return DocTypeBill, nil
	case string(DocTypeInvoice):
		return DocTypeInvoice, nil
	}
	return "", fmt.Errorf("unknown document type %q (expected BILL or INVOICE)", s)
}

// OwnerKind returns the kind of owner documents of this type are issued to or from.
func (t DocType) OwnerKind() OwnerKind {
	if t == DocTypeBill {
		return OwnerVendor
	}
	return OwnerCustomer
}

// PostingAccountType returns the account type a document of this type must be posted to.
func (t DocType) PostingAccountType() AccountType {
	if t == DocTypeBill {
		return AccountPayable
	}
	return AccountReceivable
}

// OwnerKind is either customer or vendor.
type OwnerKind string

const (
	OwnerCustomer OwnerKind = "customer"
	OwnerVendor   OwnerKind = "vendor"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountAsset      AccountType = "ASSET"
	AccountBank       AccountType = "BANK"
	AccountCash       AccountType = "CASH"
	AccountCredit     AccountType = "CREDIT"
	AccountLiability  AccountType = "LIABILITY"
	AccountEquity     AccountType = "EQUITY"
	AccountIncome     AccountType = "INCOME"
	AccountExpense    AccountType = "EXPENSE"
	AccountReceivable AccountType = "RECEIVABLE"
	AccountPayable    AccountType = "PAYABLE"
)

// Label returns the human-readable account type name used in diagnostics.
func (t AccountType) Label() string {
	switch t {
	case AccountReceivable:
		return "Accounts Receivable"
	case AccountPayable:
		return "Accounts Payable"
	}
	return strings.ToLower(string(t))
}

// Currency is an ISO currency with its smallest fraction (100 for cents).
type Currency struct {
	Code     string
	Fraction int64
}

// EntryDenom returns the denominator line item amounts are kept in.
// It is two decimal places finer than the currency itself so unit prices
// like 0.125 survive without rounding.
func (c Currency) EntryDenom() int64 {
	if c.Fraction <= 0 {
		return 100 * 100
	}
	return c.Fraction * 100
}

// Owner is a customer or a vendor.
type Owner struct {
	ID       string
	Name     string
	Kind     OwnerKind
	Currency Currency
}

// Account is a ledger account, addressable by full name or code.
type Account struct {
	Name     string
	Code     string
	Type     AccountType
	Currency Currency
}

// TaxTable is a named tax table.
type TaxTable struct {
	Name string
}

// DiscountType tells whether a discount is a percentage or an absolute value.
type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountValue   DiscountType = "VALUE"
)

// DiscountHow tells when a discount is applied relative to taxes.
type DiscountHow string

const (
	DiscountPreTax   DiscountHow = "PRETAX"
	DiscountSameTime DiscountHow = "SAMETIME"
	DiscountPostTax  DiscountHow = "POSTTAX"
)

// LineItem is one billable row of a document.
type LineItem struct {
	Date        time.Time
	DateEntered time.Time
	Description string
	Notes       string
	Action      string
	Quantity    Numeric
	Account     *Account
	Price       Numeric
	Taxable     bool
	TaxIncluded bool
	TaxTable    *TaxTable

	// Invoice lines only.
	Discount     Numeric
	DiscountType DiscountType
	DiscountHow  DiscountHow
}

// Document is an invoice or a bill.
type Document struct {
	ID         string
	Type       DocType
	Owner      *Owner
	Currency   Currency
	DateOpened time.Time
	BillingID  string
	Notes      string
	Active     bool
	Entries    []*LineItem

	Posted           bool
	PostedAccount    *Account
	DatePosted       time.Time
	DueDate          time.Time
	PostMemo         string
	AccumulateSplits bool
	AutoPay          bool
}

// ForeignCurrencies returns the distinct currencies, other than the document
// currency, of the accounts its entries are booked to.
func (d *Document) ForeignCurrencies() []string {
	seen := make(map[string]bool)
	for _, e := range d.Entries {
		if e.Account == nil || e.Account.Currency.Code == "" {
			continue
		}
		if e.Account.Currency.Code != d.Currency.Code {
			seen[e.Account.Currency.Code] = true
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PostOptions carries the parameters of posting a document.
type PostOptions struct {
	Account          *Account
	PostDate         time.Time
	DueDate          time.Time
	Memo             string
	AccumulateSplits bool
	AutoPay          bool
}

// Directory resolves owners, accounts and tax tables by identifier.
type Directory interface {
	Owner(id string, kind OwnerKind) (*Owner, error)
	Account(name string) (*Account, error)
	TaxTable(name string) (*TaxTable, error)
}

// Store persists documents and their line items.
// FindDocument returns ErrNotFound when no document of that type has the id.
type Store interface {
	FindDocument(id string, docType DocType) (*Document, error)
	CreateDocument(doc *Document) error
	AddLineItem(doc *Document, item *LineItem) error
	ForeignCurrencies(doc *Document) ([]string, error)
	PostDocument(doc *Document, opts PostOptions) error
}
