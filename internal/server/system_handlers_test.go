package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/finbase/corebank/internal/modules/investments"
	"github.com/finbase/corebank/internal/modules/ledger"
	"github.com/finbase/corebank/pkg/money"
	"github.com/finbase/corebank/pkg/refid"
)

func setupSystemHandlers(t *testing.T) (*SystemHandlers, *ledger.Ledger) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, ledger.InitSchema(db))
	require.NoError(t, investments.InitSchema(db))

	store := ledger.NewSQLStore(db, zerolog.Nop())
	accountLedger := ledger.New(store, refid.New(), ledger.DefaultRetryLimit, zerolog.Nop())
	positions := investments.NewRepository(db, zerolog.Nop())

	return NewSystemHandlers(zerolog.Nop(), store, positions), accountLedger
}

func TestHandleHealth(t *testing.T) {
	handlers, _ := setupSystemHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handlers.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestHandleSystemStatus(t *testing.T) {
	handlers, accountLedger := setupSystemHandlers(t)
	ctx := context.Background()

	acct, err := accountLedger.CreateAccount(ctx, money.USD, 1000_00)
	require.NoError(t, err)
	_, err = accountLedger.Credit(ctx, acct.ID, 100_00, ledger.Detail{Type: ledger.TxnDeposit})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()
	handlers.HandleSystemStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.Equal(t, 1, status.AccountCount)
	assert.Equal(t, 1, status.TransactionCount)
	assert.Equal(t, 0, status.OpenPositions)
	assert.GreaterOrEqual(t, status.UptimeSeconds, int64(0))
}
