package ledger

import (
	"fmt"
	"sync"
)

// Book is an in-memory accounting book. It implements both Directory and
// Store and backs dry runs and tests.
type Book struct {
	mu        sync.Mutex
	owners    map[OwnerKind]map[string]*Owner
	accounts  map[string]*Account
	codes     map[string]*Account
	taxTables map[string]*TaxTable
	documents map[DocType]map[string]*Document
}

// NewBook creates an empty Book.
func NewBook() *Book {
	return &Book{
		owners: map[OwnerKind]map[string]*Owner{
			OwnerCustomer: {},
			OwnerVendor:   {},
		},
		accounts:  make(map[string]*Account),
		codes:     make(map[string]*Account),
		taxTables: make(map[string]*TaxTable),
		documents: map[DocType]map[string]*Document{
			DocTypeBill:    {},
			DocTypeInvoice: {},
		},
	}
}

// AddOwner registers a customer or vendor.
func (b *Book) AddOwner(o *Owner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.owners[o.Kind][o.ID] = o
}

// AddAccount registers an account under its name and, if set, its code.
func (b *Book) AddAccount(a *Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[a.Name] = a
	if a.Code != "" {
		b.codes[a.Code] = a
	}
}

// AddTaxTable registers a tax table.
func (b *Book) AddTaxTable(t *TaxTable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.taxTables[t.Name] = t
}

// Owner implements Directory.
func (b *Book) Owner(id string, kind OwnerKind) (*Owner, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o, ok := b.owners[kind][id]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Account implements Directory. Names take precedence over codes.
func (b *Book) Account(name string) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[name]; ok {
		return a, nil
	}
	if a, ok := b.codes[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("account %s: %w", name, ErrNotFound)
}

// TaxTable implements Directory.
func (b *Book) TaxTable(name string) (*TaxTable, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.taxTables[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tax table %s: %w", name, ErrNotFound)
}

// FindDocument implements Store.
func (b *Book) FindDocument(id string, docType DocType) (*Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.documents[docType][id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%s %s: %w", docType, id, ErrNotFound)
}

// CreateDocument implements Store.
func (b *Book) CreateDocument(doc *Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, ok := b.documents[doc.Type]
	if !ok {
		return fmt.Errorf("unknown document type %q", doc.Type)
	}
	if _, exists := docs[doc.ID]; exists {
		return fmt.Errorf("%s %s already exists", doc.Type, doc.ID)
	}
	docs[doc.ID] = doc
	return nil
}

// AddLineItem implements Store.
func (b *Book) AddLineItem(doc *Document, item *LineItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if doc.Posted {
		return fmt.Errorf("%s %s: %w", doc.Type, doc.ID, ErrPosted)
	}
	doc.Entries = append(doc.Entries, item)
	return nil
}

// ForeignCurrencies implements Store.
func (b *Book) ForeignCurrencies(doc *Document) ([]string, error) {
	return doc.ForeignCurrencies(), nil
}

// PostDocument implements Store.
func (b *Book) PostDocument(doc *Document, opts PostOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if doc.Posted {
		return fmt.Errorf("%s %s: %w", doc.Type, doc.ID, ErrPosted)
	}
	doc.Posted = true
	doc.PostedAccount = opts.Account
	doc.DatePosted = opts.PostDate
	doc.DueDate = opts.DueDate
	doc.PostMemo = opts.Memo
	doc.AccumulateSplits = opts.AccumulateSplits
	doc.AutoPay = opts.AutoPay
	return nil
}

// Documents returns the documents of a type, in no particular order.
func (b *Book) Documents(docType DocType) []*Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Document, 0, len(b.documents[docType]))
	for _, d := range b.documents[docType] {
		out = append(out, d)
	}
	return out
}
