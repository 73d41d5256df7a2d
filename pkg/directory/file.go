// Package directory loads the owner/account directory from a YAML file and
// provides a caching wrapper around any ledger.Directory.
package directory

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
)

// CurrencyEntry is a currency in the directory file.
type CurrencyEntry struct {
	Code     string `yaml:"code"`
	Fraction int64  `yaml:"fraction"`
}

// OwnerEntry is a customer or vendor in the directory file.
type OwnerEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// AccountEntry is an account in the directory file.
type AccountEntry struct {
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Type     string `yaml:"type"`
	Currency string `yaml:"currency"`
}

// File is the directory file layout.
//
//	default_currency: USD
//	currencies:
//	  - {code: USD, fraction: 100}
//	customers:
//	  - {id: cust1, name: Customer One}
//	vendors:
//	  - {id: vend1, name: Vendor One, currency: EUR}
//	accounts:
//	  - {name: "Assets:Accounts Receivable", code: "1200", type: receivable}
//	tax_tables: [VAT]
type File struct {
	DefaultCurrency string          `yaml:"default_currency"`
	Currencies      []CurrencyEntry `yaml:"currencies"`
	Customers       []OwnerEntry    `yaml:"customers"`
	Vendors         []OwnerEntry    `yaml:"vendors"`
	Accounts        []AccountEntry  `yaml:"accounts"`
	TaxTables       []string        `yaml:"tax_tables"`
}

// Seeder receives the entries of a directory file.
type Seeder interface {
	SaveCurrency(c ledger.Currency) error
	SaveOwner(o *ledger.Owner) error
	SaveAccount(a *ledger.Account) error
	SaveTaxTable(t *ledger.TaxTable) error
}

// Load reads and checks a directory file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	return Parse(data)
}

// Parse parses and checks directory YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) check() error {
	known := make(map[string]bool)
	for _, c := range f.Currencies {
		if c.Code == "" {
			return fmt.Errorf("currency without code")
		}
		known[strings.ToUpper(c.Code)] = true
	}

	if f.DefaultCurrency != "" && !known[strings.ToUpper(f.DefaultCurrency)] {
		return fmt.Errorf("default currency %s is not listed under currencies", f.DefaultCurrency)
	}

	checkOwners := func(kind string, owners []OwnerEntry) error {
		for _, o := range owners {
			if o.ID == "" {
				return fmt.Errorf("%s without id", kind)
			}
			if code := f.currencyCode(o.Currency); !known[code] {
				return fmt.Errorf("%s %s: unknown currency %q", kind, o.ID, code)
			}
		}
		return nil
	}
	if err := checkOwners("customer", f.Customers); err != nil {
		return err
	}
	if err := checkOwners("vendor", f.Vendors); err != nil {
		return err
	}

	for _, a := range f.Accounts {
		if a.Name == "" {
			return fmt.Errorf("account without name")
		}
		if _, err := ParseAccountType(a.Type); err != nil {
			return fmt.Errorf("account %s: %w", a.Name, err)
		}
		if code := f.currencyCode(a.Currency); !known[code] {
			return fmt.Errorf("account %s: unknown currency %q", a.Name, code)
		}
	}

	return nil
}

// currencyCode resolves a possibly blank currency to a code.
func (f *File) currencyCode(code string) string {
	if code == "" {
		code = f.DefaultCurrency
	}
	return strings.ToUpper(code)
}

func (f *File) currency(code string) ledger.Currency {
	code = f.currencyCode(code)
	for _, c := range f.Currencies {
		if strings.EqualFold(c.Code, code) {
			fraction := c.Fraction
			if fraction <= 0 {
				fraction = 100
			}
			return ledger.Currency{Code: code, Fraction: fraction}
		}
	}
	return ledger.Currency{Code: code, Fraction: 100}
}

// Apply hands every entry to s: currencies first, then owners, accounts
// and tax tables. It stops at the first error.
func (f *File) Apply(s Seeder) error {
	for _, c := range f.Currencies {
		if err := s.SaveCurrency(f.currency(c.Code)); err != nil {
			return err
		}
	}

	for _, o := range f.Customers {
		if err := s.SaveOwner(&ledger.Owner{ID: o.ID, Name: o.Name, Kind: ledger.OwnerCustomer, Currency: f.currency(o.Currency)}); err != nil {
			return err
		}
	}
	for _, o := range f.Vendors {
		if err := s.SaveOwner(&ledger.Owner{ID: o.ID, Name: o.Name, Kind: ledger.OwnerVendor, Currency: f.currency(o.Currency)}); err != nil {
			return err
		}
	}

	for _, a := range f.Accounts {
		accountType, _ := ParseAccountType(a.Type)
		if err := s.SaveAccount(&ledger.Account{Name: a.Name, Code: a.Code, Type: accountType, Currency: f.currency(a.Currency)}); err != nil {
			return err
		}
	}

	for _, name := range f.TaxTables {
		if err := s.SaveTaxTable(&ledger.TaxTable{Name: name}); err != nil {
			return err
		}
	}

	return nil
}

// Book builds an in-memory book holding the file's entries.
func (f *File) Book() *ledger.Book {
	b := ledger.NewBook()
	// bookSeeder never fails.
	_ = f.Apply(bookSeeder{b})
	return b
}

// bookSeeder adapts ledger.Book to Seeder.
type bookSeeder struct {
	b *ledger.Book
}

func (s bookSeeder) SaveCurrency(ledger.Currency) error { return nil }

func (s bookSeeder) SaveOwner(o *ledger.Owner) error {
	s.b.AddOwner(o)
	return nil
}

func (s bookSeeder) SaveAccount(a *ledger.Account) error {
	s.b.AddAccount(a)
	return nil
}

func (s bookSeeder) SaveTaxTable(t *ledger.TaxTable) error {
	s.b.AddTaxTable(t)
	return nil
}

var accountTypes = map[string]ledger.AccountType{
	"asset":      ledger.AccountAsset,
	"bank":       ledger.AccountBank,
	"cash":       ledger.AccountCash,
	"credit":     ledger.AccountCredit,
	"liability":  ledger.AccountLiability,
	"equity":     ledger.AccountEquity,
	"income":     ledger.AccountIncome,
	"expense":    ledger.AccountExpense,
	"receivable": ledger.AccountReceivable,
	"payable":    ledger.AccountPayable,
}

// ParseAccountType parses an account type name case-insensitively.
func ParseAccountType(s string) (ledger.AccountType, error) {
	if t, ok := accountTypes[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}
