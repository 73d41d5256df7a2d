// Package db provides the SQLite document store, directory tables and import history.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Currencies with their smallest fraction (100 for cents)
CREATE TABLE IF NOT EXISTS currencies (
    code TEXT PRIMARY KEY,
    fraction INTEGER NOT NULL DEFAULT 100
);

-- Customers and vendors
CREATE TABLE IF NOT EXISTS owners (
    kind TEXT NOT NULL,                -- 'customer' or 'vendor'
    id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL REFERENCES currencies(code),
    PRIMARY KEY (kind, id)
);

-- Chart of accounts, looked up by full name or code
CREATE TABLE IF NOT EXISTS accounts (
    name TEXT PRIMARY KEY,
    code TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    currency TEXT NOT NULL REFERENCES currencies(code)
);

CREATE INDEX IF NOT EXISTS idx_accounts_code
    ON accounts(code);

CREATE TABLE IF NOT EXISTS tax_tables (
    name TEXT PRIMARY KEY
);

-- Bills and invoices
CREATE TABLE IF NOT EXISTS documents (
    doc_type TEXT NOT NULL,            -- 'BILL' or 'INVOICE'
    id TEXT NOT NULL,
    owner_kind TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    currency TEXT NOT NULL REFERENCES currencies(code),
    date_opened TEXT NOT NULL,         -- YYYY-MM-DD
    billing_id TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    posted INTEGER NOT NULL DEFAULT 0,
    posted_account TEXT REFERENCES accounts(name),
    date_posted TEXT,                  -- YYYY-MM-DD
    due_date TEXT,                     -- YYYY-MM-DD
    post_memo TEXT NOT NULL DEFAULT '',
    accumulate_splits INTEGER NOT NULL DEFAULT 0,
    auto_pay INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (doc_type, id),
    FOREIGN KEY (owner_kind, owner_id) REFERENCES owners(kind, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_posted
    ON documents(doc_type, posted);

-- Line items; amounts are stored as numerator/denominator pairs
CREATE TABLE IF NOT EXISTS line_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_type TEXT NOT NULL,
    doc_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    date TEXT NOT NULL,                -- YYYY-MM-DD
    date_entered TIMESTAMP NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL DEFAULT '',
    account TEXT REFERENCES accounts(name),
    quantity_num INTEGER NOT NULL,
    quantity_denom INTEGER NOT NULL,
    price_num INTEGER NOT NULL,
    price_denom INTEGER NOT NULL,
    taxable INTEGER NOT NULL DEFAULT 0,
    tax_included INTEGER NOT NULL DEFAULT 0,
    tax_table TEXT REFERENCES tax_tables(name),
    discount_num INTEGER NOT NULL DEFAULT 0,
    discount_denom INTEGER NOT NULL DEFAULT 1,
    discount_type TEXT NOT NULL DEFAULT '',
    discount_how TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (doc_type, doc_id) REFERENCES documents(doc_type, id)
);

CREATE INDEX IF NOT EXISTS idx_line_items_doc
    ON line_items(doc_type, doc_id, position);

-- Import history
-- One row per import run, keyed by a random run id
CREATE TABLE IF NOT EXISTS import_runs (
    id TEXT PRIMARY KEY,
    doc_type TEXT NOT NULL,
    source_file TEXT NOT NULL,
    result TEXT NOT NULL,              -- OK, OPEN_FAILED, ERROR_IN_REGEXP, DECLINED, FAILED
    imported INTEGER NOT NULL DEFAULT 0,
    ignored INTEGER NOT NULL DEFAULT 0,
    fixed INTEGER NOT NULL DEFAULT 0,
    deleted INTEGER NOT NULL DEFAULT 0,
    created INTEGER NOT NULL DEFAULT 0,
    updated INTEGER NOT NULL DEFAULT 0,
    posted INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_runs_started
    ON import_runs(started_at);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
