package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
)

const dateLayout = "2006-01-02"

// Book is a SQLite-backed accounting book. It implements ledger.Directory
// and ledger.Store on top of a Connection.
type Book struct {
	conn *Connection
}

// NewBook creates a new Book instance.
func NewBook(conn *Connection) *Book {
	return &Book{conn: conn}
}

// SaveCurrency inserts or updates a currency.
func (b *Book) SaveCurrency(c ledger.Currency) error {
	query := `
		INSERT INTO currencies (code, fraction)
		VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET
			fraction = excluded.fraction
	`
	if _, err := b.conn.Exec(query, c.Code, c.Fraction); err != nil {
		return fmt.Errorf("failed to save currency %s: %w", c.Code, err)
	}
	return nil
}

// SaveOwner inserts or updates a customer or vendor. Its currency must exist.
func (b *Book) SaveOwner(o *ledger.Owner) error {
	query := `
		INSERT INTO owners (kind, id, name, currency)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency
	`
	if _, err := b.conn.Exec(query, string(o.Kind), o.ID, o.Name, o.Currency.Code); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", o.Kind, o.ID, err)
	}
	return nil
}

// SaveAccount inserts or updates an account. Its currency must exist.
func (b *Book) SaveAccount(a *ledger.Account) error {
	query := `
		INSERT INTO accounts (name, code, type, currency)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			code = excluded.code,
			type = excluded.type,
			currency = excluded.currency
	`
	if _, err := b.conn.Exec(query, a.Name, a.Code, string(a.Type), a.Currency.Code); err != nil {
		return fmt.Errorf("failed to save account %s: %w", a.Name, err)
	}
	return nil
}

// SaveTaxTable inserts a tax table if it does not exist yet.
func (b *Book) SaveTaxTable(t *ledger.TaxTable) error {
	if _, err := b.conn.Exec(`INSERT INTO tax_tables (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, t.Name); err != nil {
		return fmt.Errorf("failed to save tax table %s: %w", t.Name, err)
	}
	return nil
}

// Owner implements ledger.Directory.
func (b *Book) Owner(id string, kind ledger.OwnerKind) (*ledger.Owner, error) {
	query := `
		SELECT o.id, o.name, o.kind, c.code, c.fraction
		FROM owners o JOIN currencies c ON c.code = o.currency
		WHERE o.kind = ? AND o.id = ?
	`

	var o ledger.Owner
	var kindStr string
	err := b.conn.QueryRow(query, string(kind), id).Scan(&o.ID, &o.Name, &kindStr, &o.Currency.Code, &o.Currency.Fraction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", kind, id, err)
	}

	o.Kind = ledger.OwnerKind(kindStr)
	return &o, nil
}

// Account implements ledger.Directory. Names take precedence over codes.
func (b *Book) Account(name string) (*ledger.Account, error) {
	query := `
		SELECT a.name, a.code, a.type, c.code, c.fraction
		FROM accounts a JOIN currencies c ON c.code = a.currency
		WHERE a.name = ?1 OR (a.code = ?1 AND a.code <> '')
		ORDER BY a.name = ?1 DESC
		LIMIT 1
	`

	var a ledger.Account
	var typeStr string
	err := b.conn.QueryRow(query, name).Scan(&a.Name, &a.Code, &typeStr, &a.Currency.Code, &a.Currency.Fraction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", name, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", name, err)
	}

	a.Type = ledger.AccountType(typeStr)
	return &a, nil
}

// TaxTable implements ledger.Directory.
func (b *Book) TaxTable(name string) (*ledger.TaxTable, error) {
	var t ledger.TaxTable
	err := b.conn.QueryRow(`SELECT name FROM tax_tables WHERE name = ?`, name).Scan(&t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tax table %s: %w", name, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax table %s: %w", name, err)
	}
	return &t, nil
}

// FindDocument implements ledger.Store. The returned document carries its
// owner, posting account and line items.
func (b *Book) FindDocument(id string, docType ledger.DocType) (*ledger.Document, error) {
	query := `
		SELECT d.owner_kind, d.owner_id, c.code, c.fraction, d.date_opened, d.billing_id, d.notes,
			d.active, d.posted, d.posted_account, d.date_posted, d.due_date, d.post_memo,
			d.accumulate_splits, d.auto_pay
		FROM documents d JOIN currencies c ON c.code = d.currency
		WHERE d.doc_type = ? AND d.id = ?
	`

	doc := &ledger.Document{ID: id, Type: docType}
	var ownerKind, ownerID, dateOpened string
	var postedAccount, datePosted, dueDate sql.NullString

	err := b.conn.QueryRow(query, string(docType), id).Scan(
		&ownerKind,
		&ownerID,
		&doc.Currency.Code,
		&doc.Currency.Fraction,
		&dateOpened,
		&doc.BillingID,
		&doc.Notes,
		&doc.Active,
		&doc.Posted,
		&postedAccount,
		&datePosted,
		&dueDate,
		&doc.PostMemo,
		&doc.AccumulateSplits,
		&doc.AutoPay,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", docType, id, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", docType, id, err)
	}

	if doc.Owner, err = b.Owner(ownerID, ledger.OwnerKind(ownerKind)); err != nil {
		return nil, err
	}
	doc.DateOpened = parseDate(dateOpened)
	if postedAccount.Valid {
		if doc.PostedAccount, err = b.Account(postedAccount.String); err != nil {
			return nil, err
		}
	}
	if datePosted.Valid {
		doc.DatePosted = parseDate(datePosted.String)
	}
	if dueDate.Valid {
		doc.DueDate = parseDate(dueDate.String)
	}

	if doc.Entries, err = b.lineItems(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

type lineItemRecord struct {
	item     ledger.LineItem
	account  sql.NullString
	taxTable sql.NullString
	date     string
	discType string
	discHow  string
}

// lineItems loads the line items of doc in insertion order.
func (b *Book) lineItems(doc *ledger.Document) ([]*ledger.LineItem, error) {
	query := `
		SELECT date, date_entered, description, notes, action, account,
			quantity_num, quantity_denom, price_num, price_denom, taxable, tax_included, tax_table,
			discount_num, discount_denom, discount_type, discount_how
		FROM line_items
		WHERE doc_type = ? AND doc_id = ?
		ORDER BY position
	`

	rows, err := b.conn.Query(query, string(doc.Type), doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items of %s %s: %w", doc.Type, doc.ID, err)
	}

	var records []lineItemRecord
	for rows.Next() {
		var r lineItemRecord
		if err := rows.Scan(
			&r.date,
			&r.item.DateEntered,
			&r.item.Description,
			&r.item.Notes,
			&r.item.Action,
			&r.account,
			&r.item.Quantity.Num,
			&r.item.Quantity.Denom,
			&r.item.Price.Num,
			&r.item.Price.Denom,
			&r.item.Taxable,
			&r.item.TaxIncluded,
			&r.taxTable,
			&r.item.Discount.Num,
			&r.item.Discount.Denom,
			&r.discType,
			&r.discHow,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read line items: %w", err)
	}
	rows.Close()

	items := make([]*ledger.LineItem, 0, len(records))
	for _, r := range records {
		item := r.item
		item.Date = parseDate(r.date)
		item.DiscountType = ledger.DiscountType(r.discType)
		item.DiscountHow = ledger.DiscountHow(r.discHow)
		if r.account.Valid {
			if item.Account, err = b.Account(r.account.String); err != nil {
				return nil, err
			}
		}
		if r.taxTable.Valid {
			if item.TaxTable, err = b.TaxTable(r.taxTable.String); err != nil {
				return nil, err
			}
		}
		items = append(items, &item)
	}

	return items, nil
}

// CreateDocument implements ledger.Store.
func (b *Book) CreateDocument(doc *ledger.Document) error {
	if doc.Owner == nil {
		return fmt.Errorf("%s %s has no owner", doc.Type, doc.ID)
	}

	query := `
		INSERT INTO documents (doc_type, id, owner_kind, owner_id, currency, date_opened, billing_id, notes, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return b.conn.Transaction(func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM documents WHERE doc_type = ? AND id = ?`, string(doc.Type), doc.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check %s %s: %w", doc.Type, doc.ID, err)
		}
		if exists > 0 {
			return fmt.Errorf("%s %s already exists", doc.Type, doc.ID)
		}

		if _, err := tx.Exec(query,
			string(doc.Type),
			doc.ID,
			string(doc.Owner.Kind),
			doc.Owner.ID,
			doc.Currency.Code,
			doc.DateOpened.Format(dateLayout),
			doc.BillingID,
			doc.Notes,
			doc.Active,
		); err != nil {
			return fmt.Errorf("failed to create %s %s: %w", doc.Type, doc.ID, err)
		}
		return nil
	})
}

// AddLineItem implements ledger.Store. The item is also appended to doc.Entries.
func (b *Book) AddLineItem(doc *ledger.Document, item *ledger.LineItem) error {
	if doc.Posted {
		return fmt.Errorf("%s %s: %w", doc.Type, doc.ID, ledger.ErrPosted)
	}

	query := `
		INSERT INTO line_items (doc_type, doc_id, position, date, date_entered, description, notes, action,
			account, quantity_num, quantity_denom, price_num, price_denom, taxable, tax_included, tax_table,
			discount_num, discount_denom, discount_type, discount_how)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var account, taxTable sql.NullString
	if item.Account != nil {
		account = sql.NullString{String: item.Account.Name, Valid: true}
	}
	if item.TaxTable != nil {
		taxTable = sql.NullString{String: item.TaxTable.Name, Valid: true}
	}
	discountDenom := item.Discount.Denom
	if discountDenom == 0 {
		discountDenom = 1
	}

	err := b.conn.Transaction(func(tx *sql.Tx) error {
		var posted bool
		var position int
		err := tx.QueryRow(`
			SELECT d.posted, (SELECT COUNT(*) FROM line_items li WHERE li.doc_type = d.doc_type AND li.doc_id = d.id)
			FROM documents d WHERE d.doc_type = ? AND d.id = ?
		`, string(doc.Type), doc.ID).Scan(&posted, &position)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", doc.Type, doc.ID, ledger.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check %s %s: %w", doc.Type, doc.ID, err)
		}
		if posted {
			return fmt.Errorf("%s %s: %w", doc.Type, doc.ID, ledger.ErrPosted)
		}

		if _, err := tx.Exec(query,
			string(doc.Type),
			doc.ID,
			position,
			item.Date.Format(dateLayout),
			item.DateEntered,
			item.Description,
			item.Notes,
			item.Action,
			account,
			item.Quantity.Num,
			item.Quantity.Denom,
			item.Price.Num,
			item.Price.Denom,
			item.Taxable,
			item.TaxIncluded,
			taxTable,
			item.Discount.Num,
			discountDenom,
			string(item.DiscountType),
			string(item.DiscountHow),
		); err != nil {
			return fmt.Errorf("failed to add line item to %s %s: %w", doc.Type, doc.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	doc.Entries = append(doc.Entries, item)
	return nil
}

// ForeignCurrencies implements ledger.Store.
func (b *Book) ForeignCurrencies(doc *ledger.Document) ([]string, error) {
	query := `
		SELECT DISTINCT a.currency
		FROM line_items li JOIN accounts a ON a.name = li.account
		WHERE li.doc_type = ? AND li.doc_id = ? AND a.currency <> ?
		ORDER BY a.currency
	`

	rows, err := b.conn.Query(query, string(doc.Type), doc.ID, doc.Currency.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to get currencies of %s %s: %w", doc.Type, doc.ID, err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}

// PostDocument implements ledger.Store.
func (b *Book) PostDocument(doc *ledger.Document, opts ledger.PostOptions) error {
	if opts.Account == nil {
		return fmt.Errorf("%s %s: no posting account", doc.Type, doc.ID)
	}

	query := `
		UPDATE documents SET
			posted = 1,
			posted_account = ?,
			date_posted = ?,
			due_date = ?,
			post_memo = ?,
			accumulate_splits = ?,
			auto_pay = ?
		WHERE doc_type = ? AND id = ? AND posted = 0
	`

	err := b.conn.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(query,
			opts.Account.Name,
			opts.PostDate.Format(dateLayout),
			opts.DueDate.Format(dateLayout),
			opts.Memo,
			opts.AccumulateSplits,
			opts.AutoPay,
			string(doc.Type),
			doc.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to post %s %s: %w", doc.Type, doc.ID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%s %s: %w", doc.Type, doc.ID, ledger.ErrPosted)
		}
		return nil
	})
	if err != nil {
		return err
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

func parseDate(s string) time.Time {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
