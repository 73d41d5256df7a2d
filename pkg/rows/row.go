// Package rows holds the table of raw import records shared by the extract,
// validate and reconcile passes.
package rows

// Field identifies one column of a Row.
type Field int

const (
	ID Field = iota
	DateOpened
	OwnerID
	BillingID
	Notes

	Date
	Desc
	Action
	Account
	Quantity
	Price
	DiscType
	DiscHow
	Discount
	Taxable
	TaxIncluded
	TaxTable

	DatePosted
	DueDate
	AccountPosted
	MemoPosted
	AccuSplits

	numFields
)

var fieldNames = [numFields]string{
	ID:            "id",
	DateOpened:    "date_opened",
	OwnerID:       "owner_id",
	BillingID:     "billing_id",
	Notes:         "notes",
	Date:          "date",
	Desc:          "desc",
	Action:        "action",
	Account:       "account",
	Quantity:      "quantity",
	Price:         "price",
	DiscType:      "disc_type",
	DiscHow:       "disc_how",
	Discount:      "discount",
	Taxable:       "taxable",
	TaxIncluded:   "taxincluded",
	TaxTable:      "tax_table",
	DatePosted:    "date_posted",
	DueDate:       "due_date",
	AccountPosted: "account_posted",
	MemoPosted:    "memo_posted",
	AccuSplits:    "accu_splits",
}

// Fields lists every field in column order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// String returns the capture group name of the field.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

// FieldByName maps a capture group name to its field.
func FieldByName(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Row is one flat import record. Unset fields read as "".
type Row struct {
	// Line is the 1-based source line the row was read from, 0 if unknown.
	Line   int
	values [numFields]string
}

// Get returns the value of a field.
func (r *Row) Get(f Field) string {
	if f < 0 || f >= numFields {
		return ""
	}
	return r.values[f]
}

// Set assigns the value of a field.
func (r *Row) Set(f Field, v string) {
	if f < 0 || f >= numFields {
		return
	}
	r.values[f] = v
}

// NewRow builds a row from field values.
func NewRow(values map[Field]string) *Row {
	r := &Row{}
	for f, v := range values {
		r.Set(f, v)
	}
	return r
}
