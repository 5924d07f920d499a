package investments

import "database/sql"

// PositionsSchema defines the positions table. Rows are mutated only by
// sale or cancellation and are kept forever for audit.
const PositionsSchema = `
CREATE TABLE IF NOT EXISTS positions (
    position_id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    instrument_id TEXT NOT NULL,
    instrument_type TEXT NOT NULL,
    instrument_name TEXT,
    amount_invested INTEGER NOT NULL,
    instrument_valuation INTEGER NOT NULL,
    ownership_bp INTEGER NOT NULL,
    expected_return_bp INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    reference_id TEXT UNIQUE NOT NULL,
    realized_pnl INTEGER,
    created_at TEXT NOT NULL,
    closed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
`

// InitSchema ensures the positions table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(PositionsSchema)
	return err
}
