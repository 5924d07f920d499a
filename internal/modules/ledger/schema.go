package ledger

import "database/sql"

// LedgerSchema defines the accounts table and the append-only
// transactions table. Transactions are never updated except by the
// stale-pending sweep, and never deleted.
const LedgerSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    currency TEXT NOT NULL,
    frozen INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id),
    type TEXT NOT NULL,
    amount INTEGER NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    reference_id TEXT UNIQUE NOT NULL,
    metadata_json TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
`

// InitSchema ensures the ledger tables exist
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(LedgerSchema)
	return err
}
