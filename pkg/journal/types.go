// Package journal exports posted documents as Beancount transactions into
// monthly journal files.
package journal

import "github.com/shopspring/decimal"

// Transaction represents a Beancount transaction.
type Transaction struct {
	Date      string            // YYYY-MM-DD
	Payee     string            // Customer or vendor name (optional)
	Narration string            // Transaction description
	Tags      []string          // Tags without the leading '#'
	Links     []string          // Links without the leading '^'
	Metadata  map[string]string // Metadata key-value pairs
	Postings  []Posting         // Transaction postings
}

// Posting represents a posting in a Beancount transaction.
type Posting struct {
	Account  string          // Account name (e.g., "Assets:AccountsReceivable")
	Amount   decimal.Decimal // Positive for debit, negative for credit
	Currency string          // Currency code (e.g., "USD")
	Comment  string          // Posting comment (optional)
}
