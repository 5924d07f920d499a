package investments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPosition(accountID string) *Position {
	return &Position{
		PositionID:          uuid.NewString(),
		AccountID:           accountID,
		InstrumentID:        "prop-lakeside-12",
		InstrumentType:      InstrumentRealEstate,
		InstrumentName:      "Lakeside Apartments",
		AmountInvested:      50_000_00,
		InstrumentValuation: 450_000_00,
		OwnershipBP:         1111,
		ExpectedReturnBP:    850,
		Status:              PositionActive,
		ReferenceID:         "RE-TEST-" + uuid.NewString()[:10],
		CreatedAt:           time.Now().UTC(),
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	pos := newTestPosition("acct-1")
	require.NoError(t, repo.Create(ctx, pos))

	fetched, err := repo.GetByID(ctx, pos.PositionID)
	require.NoError(t, err)

	assert.Equal(t, pos.PositionID, fetched.PositionID)
	assert.Equal(t, pos.AccountID, fetched.AccountID)
	assert.Equal(t, InstrumentRealEstate, fetched.InstrumentType)
	assert.Equal(t, "Lakeside Apartments", fetched.InstrumentName)
	assert.Equal(t, int64(1111), fetched.OwnershipBP)
	assert.Equal(t, PositionActive, fetched.Status)
	assert.Nil(t, fetched.RealizedPnL)
	assert.Nil(t, fetched.ClosedAt)
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestRepositoryCloseAndReopen(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	pos := newTestPosition("acct-1")
	require.NoError(t, repo.Create(ctx, pos))

	require.NoError(t, repo.Close(ctx, pos.PositionID, 5_000_00))

	closed, err := repo.GetByID(ctx, pos.PositionID)
	require.NoError(t, err)
	assert.Equal(t, PositionSold, closed.Status)
	require.NotNil(t, closed.RealizedPnL)
	assert.Equal(t, int64(5_000_00), *closed.RealizedPnL)
	assert.NotNil(t, closed.ClosedAt)

	// Closing a sold position fails against the status guard.
	err = repo.Close(ctx, pos.PositionID, 5_000_00)
	assert.ErrorIs(t, err, ErrPositionNotActive)

	require.NoError(t, repo.Reopen(ctx, pos.PositionID))

	reopened, err := repo.GetByID(ctx, pos.PositionID)
	require.NoError(t, err)
	assert.Equal(t, PositionActive, reopened.Status)
	assert.Nil(t, reopened.RealizedPnL)
	assert.Nil(t, reopened.ClosedAt)
}

func TestRepositoryListByAccountAndCountOpen(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	ctx := context.Background()

	first := newTestPosition("acct-1")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	second := newTestPosition("acct-1")
	other := newTestPosition("acct-2")

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	positions, err := repo.ListByAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, positions, 2)

	// Newest first.
	assert.Equal(t, second.PositionID, positions[0].PositionID)
	assert.Equal(t, first.PositionID, positions[1].PositionID)

	count, err := repo.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, repo.Close(ctx, first.PositionID, 0))

	count, err = repo.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
