package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finbase/corebank/pkg/money"
)

// BalanceChange is one account write conditioned on its version
type BalanceChange struct {
	AccountID       string
	NewBalance      int64
	ExpectedVersion int64
}

// Store is the persistence boundary the ledger is written against.
// Apply commits a set of conditional balance writes together with their
// transaction records in one transaction: either everything lands or
// nothing does. A false return means a version check failed and the
// caller should re-read and retry.
type Store interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	SetFrozen(ctx context.Context, id string, frozen bool) error
	Apply(ctx context.Context, changes []BalanceChange, records []*TransactionRecord) (bool, error)
	AppendTransaction(ctx context.Context, record *TransactionRecord) error
	ListTransactions(ctx context.Context, accountID string, limit int) ([]TransactionRecord, error)
	CountAccounts(ctx context.Context) (int, error)
	CountTransactions(ctx context.Context) (int, error)
	FailStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLStore implements Store on SQLite
type SQLStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLStore creates a new SQLite-backed store
func NewSQLStore(db *sql.DB, log zerolog.Logger) *SQLStore {
	return &SQLStore{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// CreateAccount inserts a new account row
func (s *SQLStore) CreateAccount(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, balance, currency, frozen, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.Balance,
		string(account.Currency),
		boolToInt(account.Frozen),
		account.Version,
		account.CreatedAt.Format(time.RFC3339),
		account.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("Account created")
	return nil
}

// GetAccount reads the latest committed state of an account
func (s *SQLStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, balance, currency, frozen, version, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`

	var acct Account
	var currency string
	var frozen int
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&acct.ID,
		&acct.Balance,
		&currency,
		&frozen,
		&acct.Version,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	acct.Currency = money.Currency(currency)
	acct.Frozen = frozen != 0
	acct.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	acct.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &acct, nil
}

// SetFrozen flips the frozen flag. The version is bumped so in-flight
// CAS writes against the old state lose.
func (s *SQLStore) SetFrozen(ctx context.Context, id string, frozen bool) error {
	query := `
		UPDATE accounts
		SET frozen = ?, version = version + 1, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, boolToInt(frozen), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update frozen flag: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrAccountNotFound
	}

	s.log.Info().Str("account_id", id).Bool("frozen", frozen).Msg("Account frozen flag updated")
	return nil
}

// Apply writes the balance changes and appends the transaction records in
// one database transaction. Every balance write is conditioned on the
// version the caller read; any miss rolls back the whole batch.
func (s *SQLStore) Apply(ctx context.Context, changes []BalanceChange, records []*TransactionRecord) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, change := range changes {
		result, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET balance = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?
		`, change.NewBalance, now, change.AccountID, change.ExpectedVersion)
		if err != nil {
			return false, fmt.Errorf("failed to update balance: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			// Version moved under us. Not an error: the service re-reads
			// and retries the whole validate-then-write sequence.
			return false, nil
		}
	}

	for _, record := range records {
		if err := s.insertTransaction(ctx, tx, record); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit mutation: %w", err)
	}

	return true, nil
}

// AppendTransaction appends a record outside any balance mutation, used
// for terminal failed entries that keep the audit trail complete.
func (s *SQLStore) AppendTransaction(ctx context.Context, record *TransactionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.insertTransaction(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction record: %w", err)
	}
	return nil
}

func (s *SQLStore) insertTransaction(ctx context.Context, tx *sql.Tx, record *TransactionRecord) error {
	var metadata sql.NullString
	if len(record.Metadata) > 0 {
		raw, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (account_id, type, amount, currency, status, reference_id, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.AccountID,
		string(record.Type),
		record.Amount,
		string(record.Currency),
		string(record.Status),
		record.ReferenceID,
		metadata,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction record ID: %w", err)
	}
	record.ID = id

	return nil
}

// ListTransactions returns an account's history, newest first
func (s *SQLStore) ListTransactions(ctx context.Context, accountID string, limit int) ([]TransactionRecord, error) {
	query := `
		SELECT id, account_id, type, amount, currency, status, reference_id, metadata_json, created_at
		FROM transactions
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var rec TransactionRecord
		var txnType, currency, status, createdAt string
		var metadata sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.AccountID,
			&txnType,
			&rec.Amount,
			&currency,
			&status,
			&rec.ReferenceID,
			&metadata,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		rec.Type = TransactionType(txnType)
		rec.Currency = money.Currency(currency)
		rec.Status = TransactionStatus(status)
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return records, nil
}

// CountAccounts returns the total number of accounts
func (s *SQLStore) CountAccounts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// CountTransactions returns the total number of transaction records
func (s *SQLStore) CountTransactions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// FailStalePending marks pending records created before the cutoff as
// failed. Pending is the only non-terminal status, so this is the one
// permitted transition on an existing record.
func (s *SQLStore) FailStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?
		WHERE status = ? AND created_at < ?
	`, string(StatusFailed), string(StatusPending), cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep pending transactions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected > 0 {
		s.log.Warn().Int64("swept", affected).Msg("Stale pending transactions marked failed")
	}

	return affected, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
