package investments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles position persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new position repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

// Create inserts a new position
func (r *Repository) Create(ctx context.Context, pos *Position) error {
	query := `
		INSERT INTO positions
		(position_id, account_id, instrument_id, instrument_type, instrument_name,
		 amount_invested, instrument_valuation, ownership_bp, expected_return_bp,
		 status, reference_id, realized_pnl, created_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		pos.PositionID,
		pos.AccountID,
		pos.InstrumentID,
		string(pos.InstrumentType),
		nullString(pos.InstrumentName),
		pos.AmountInvested,
		pos.InstrumentValuation,
		pos.OwnershipBP,
		pos.ExpectedReturnBP,
		string(pos.Status),
		pos.ReferenceID,
		nullInt64Ptr(pos.RealizedPnL),
		pos.CreatedAt.Format(time.RFC3339),
		nullTimePtr(pos.ClosedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	r.log.Info().
		Str("position_id", pos.PositionID).
		Str("instrument_id", pos.InstrumentID).
		Int64("amount_invested", pos.AmountInvested).
		Msg("Position created")

	return nil
}

// GetByID retrieves a position by its ID
func (r *Repository) GetByID(ctx context.Context, positionID string) (*Position, error) {
	query := `
		SELECT position_id, account_id, instrument_id, instrument_type, instrument_name,
		       amount_invested, instrument_valuation, ownership_bp, expected_return_bp,
		       status, reference_id, realized_pnl, created_at, closed_at
		FROM positions
		WHERE position_id = ?
	`

	pos, err := r.scanPosition(r.db.QueryRowContext(ctx, query, positionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

// ListByAccount returns all of an account's positions, newest first
func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]Position, error) {
	query := `
		SELECT position_id, account_id, instrument_id, instrument_type, instrument_name,
		       amount_invested, instrument_valuation, ownership_bp, expected_return_bp,
		       status, reference_id, realized_pnl, created_at, closed_at
		FROM positions
		WHERE account_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		pos, err := r.scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// Close marks an active position sold and stores its realized P/L. The
// status guard in the WHERE clause makes a double sell lose cleanly.
func (r *Repository) Close(ctx context.Context, positionID string, realizedPnL int64) error {
	query := `
		UPDATE positions
		SET status = ?, realized_pnl = ?, closed_at = ?
		WHERE position_id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(PositionSold),
		realizedPnL,
		time.Now().UTC().Format(time.RFC3339),
		positionID,
		string(PositionActive),
	)
	if err != nil {
		return fmt.Errorf("failed to close position: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPositionNotActive
	}

	r.log.Info().
		Str("position_id", positionID).
		Int64("realized_pnl", realizedPnL).
		Msg("Position closed")

	return nil
}

// Reopen reverts a position to active, used when the crediting leg of a
// sale fails after the position was already marked sold.
func (r *Repository) Reopen(ctx context.Context, positionID string) error {
	query := `
		UPDATE positions
		SET status = ?, realized_pnl = NULL, closed_at = NULL
		WHERE position_id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, string(PositionActive), positionID); err != nil {
		return fmt.Errorf("failed to reopen position: %w", err)
	}
	return nil
}

// CountOpen returns the number of active positions
func (r *Repository) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM positions WHERE status = ?",
		string(PositionActive),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open positions: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanPosition(row rowScanner) (*Position, error) {
	var pos Position
	var instrumentType, status, createdAt string
	var instrumentName, closedAt sql.NullString
	var realizedPnL sql.NullInt64

	err := row.Scan(
		&pos.PositionID,
		&pos.AccountID,
		&pos.InstrumentID,
		&instrumentType,
		&instrumentName,
		&pos.AmountInvested,
		&pos.InstrumentValuation,
		&pos.OwnershipBP,
		&pos.ExpectedReturnBP,
		&status,
		&pos.ReferenceID,
		&realizedPnL,
		&createdAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}

	pos.InstrumentType = InstrumentType(instrumentType)
	pos.Status = PositionStatus(status)
	pos.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if instrumentName.Valid {
		pos.InstrumentName = instrumentName.String
	}
	if realizedPnL.Valid {
		v := realizedPnL.Int64
		pos.RealizedPnL = &v
	}
	if closedAt.Valid {
		t, _ := time.Parse(time.RFC3339, closedAt.String)
		pos.ClosedAt = &t
	}

	return &pos, nil
}

// Helper functions for nullable types

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: val, Valid: true}
}

func nullInt64Ptr(val *int64) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *val, Valid: true}
}

func nullTimePtr(val *time.Time) sql.NullString {
	if val == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: val.Format(time.RFC3339), Valid: true}
}
