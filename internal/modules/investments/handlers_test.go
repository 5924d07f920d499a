package investments

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/corebank/internal/modules/ledger"
)

func setupTestRouter(t *testing.T) (*chi.Mux, *ledger.Ledger) {
	t.Helper()

	processor, accountLedger, _ := newTestProcessor(t)
	handler := NewHandler(processor, zerolog.Nop())

	router := chi.NewRouter()
	router.Post("/investments/purchase", handler.HandlePurchase)
	router.Post("/investments/{positionID}/sell", handler.HandleSell)
	router.Get("/accounts/{accountID}/positions", handler.HandleListPositions)

	return router, accountLedger
}

func doJSON(t *testing.T, router *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func purchaseBody(accountID string, amount int64) string {
	return fmt.Sprintf(`{
		"account_id": %q,
		"amount": %d,
		"instrument": {
			"id": "prop-lakeside-12",
			"type": "real-estate",
			"name": "Lakeside Apartments",
			"valuation": 45000000,
			"minimum_stake": 4500000,
			"expected_return_bp": 850
		}
	}`, accountID, amount)
}

func TestHandlePurchase(t *testing.T) {
	router, accountLedger := setupTestRouter(t)
	acct := newTestAccount(t, accountLedger, 102_864_00)

	rec := doJSON(t, router, http.MethodPost, "/investments/purchase", purchaseBody(acct.ID, 50_000_00))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result PurchaseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(1111), result.Position.OwnershipBP)
	assert.Equal(t, int64(-50_000_00), result.Record.Amount)
	assert.True(t, strings.HasPrefix(result.Record.ReferenceID, "RE-"))
}

func TestHandlePurchaseRejections(t *testing.T) {
	router, accountLedger := setupTestRouter(t)
	acct := newTestAccount(t, accountLedger, 102_864_00)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed body", `{not json`, http.StatusBadRequest},
		{"missing account id", purchaseBody("", 50_000_00), http.StatusBadRequest},
		{"unknown account", purchaseBody("missing", 50_000_00), http.StatusNotFound},
		{"zero amount", purchaseBody(acct.ID, 0), http.StatusBadRequest},
		{"below minimum", purchaseBody(acct.ID, 44_999_99), http.StatusUnprocessableEntity},
		{"exceeds valuation", purchaseBody(acct.ID, 450_000_01), http.StatusUnprocessableEntity},
		{"insufficient funds", purchaseBody(acct.ID, 200_000_00), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/investments/purchase", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandleSell(t *testing.T) {
	router, accountLedger := setupTestRouter(t)
	acct := newTestAccount(t, accountLedger, 102_864_00)

	rec := doJSON(t, router, http.MethodPost, "/investments/purchase", purchaseBody(acct.ID, 50_000_00))
	require.Equal(t, http.StatusCreated, rec.Code)

	var purchase PurchaseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &purchase))

	rec = doJSON(t, router, http.MethodPost, "/investments/"+purchase.Position.PositionID+"/sell", `{"current_value": 5500000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result SellResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(5_000_00), result.RealizedPnL)
	assert.Equal(t, PositionSold, result.Position.Status)

	// Selling the same position again conflicts.
	rec = doJSON(t, router, http.MethodPost, "/investments/"+purchase.Position.PositionID+"/sell", `{"current_value": 5500000}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/investments/missing/sell", `{"current_value": 5500000}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListPositions(t *testing.T) {
	router, accountLedger := setupTestRouter(t)
	acct := newTestAccount(t, accountLedger, 102_864_00)

	// No positions yet: empty array, not null.
	rec := doJSON(t, router, http.MethodGet, "/accounts/"+acct.ID+"/positions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	r := doJSON(t, router, http.MethodPost, "/investments/purchase", purchaseBody(acct.ID, 50_000_00))
	require.Equal(t, http.StatusCreated, r.Code)

	rec = doJSON(t, router, http.MethodGet, "/accounts/"+acct.ID+"/positions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var positions []Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, int64(1111), positions[0].OwnershipBP)
}
