package ledger

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

	"github.com/finbase/corebank/pkg/money"
	"github.com/finbase/corebank/pkg/refid"
)

func setupTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	store := NewSQLStore(setupTestDB(t), zerolog.Nop())
	ledger := New(store, refid.New(), DefaultRetryLimit, zerolog.Nop())
	handler := NewHandler(ledger, money.USD, zerolog.Nop())

	router := chi.NewRouter()
	router.Post("/accounts", handler.HandleCreateAccount)
	router.Get("/accounts/{accountID}", handler.HandleGetAccount)
	router.Post("/accounts/{accountID}/freeze", handler.HandleFreeze)
	router.Post("/accounts/{accountID}/unfreeze", handler.HandleUnfreeze)
	router.Post("/accounts/{accountID}/deposit", handler.HandleDeposit)
	router.Post("/accounts/{accountID}/withdraw", handler.HandleWithdraw)
	router.Get("/accounts/{accountID}/transactions", handler.HandleGetTransactions)
	router.Post("/transfers", handler.HandleTransfer)

	return router
}

func doJSON(t *testing.T, router *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createAccount(t *testing.T, router *chi.Mux, openingBalance int64) Account {
	t.Helper()

	body := fmt.Sprintf(`{"opening_balance": %d}`, openingBalance)
	rec := doJSON(t, router, http.MethodPost, "/accounts", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var acct Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
	return acct
}

func TestHandleCreateAccount(t *testing.T) {
	router := setupTestRouter(t)

	acct := createAccount(t, router, 1028_64)
	assert.NotEmpty(t, acct.ID)
	assert.Equal(t, int64(1028_64), acct.Balance)
	assert.Equal(t, money.USD, acct.Currency)
}

func TestHandleCreateAccountExplicitCurrency(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/accounts", `{"currency": "EUR", "opening_balance": 100}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var acct Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
	assert.Equal(t, money.EUR, acct.Currency)
}

func TestHandleCreateAccountBadRequests(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/accounts", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/accounts", `{"opening_balance": -5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAccount(t *testing.T) {
	router := setupTestRouter(t)
	acct := createAccount(t, router, 500_00)

	rec := doJSON(t, router, http.MethodGet, "/accounts/"+acct.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, acct.ID, fetched.ID)

	rec = doJSON(t, router, http.MethodGet, "/accounts/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDeposit(t *testing.T) {
	router := setupTestRouter(t)
	acct := createAccount(t, router, 0)

	rec := doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/deposit", `{"amount": 25000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var record TransactionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, int64(25000), record.Amount)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.True(t, strings.HasPrefix(record.ReferenceID, "DEP-"))

	rec = doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/deposit", `{"amount": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWithdraw(t *testing.T) {
	router := setupTestRouter(t)
	acct := createAccount(t, router, 100_00)

	rec := doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/withdraw", `{"amount": 4000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var record TransactionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, int64(-4000), record.Amount)
	assert.True(t, strings.HasPrefix(record.ReferenceID, "WDL-"))

	// More than the remaining balance.
	rec = doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/withdraw", `{"amount": 7000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/accounts/missing/withdraw", `{"amount": 100}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleFreezeBlocksWrites(t *testing.T) {
	router := setupTestRouter(t)
	acct := createAccount(t, router, 100_00)

	rec := doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/freeze", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/withdraw", `{"amount": 100}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/unfreeze", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/withdraw", `{"amount": 100}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleTransfer(t *testing.T) {
	router := setupTestRouter(t)
	from := createAccount(t, router, 1000_00)
	to := createAccount(t, router, 0)

	body := fmt.Sprintf(`{"from_account_id": %q, "to_account_id": %q, "amount": 40000}`, from.ID, to.ID)
	rec := doJSON(t, router, http.MethodPost, "/transfers", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Outgoing TransactionRecord `json:"outgoing"`
		Incoming TransactionRecord `json:"incoming"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(-40000), resp.Outgoing.Amount)
	assert.Equal(t, int64(40000), resp.Incoming.Amount)
	assert.Equal(t, resp.Outgoing.Metadata["transfer_id"], resp.Incoming.Metadata["transfer_id"])

	// Missing account IDs are rejected before touching the ledger.
	rec = doJSON(t, router, http.MethodPost, "/transfers", `{"amount": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Same-account transfer.
	body = fmt.Sprintf(`{"from_account_id": %q, "to_account_id": %q, "amount": 100}`, from.ID, from.ID)
	rec = doJSON(t, router, http.MethodPost, "/transfers", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetTransactions(t *testing.T) {
	router := setupTestRouter(t)
	acct := createAccount(t, router, 0)

	// Empty history returns an empty array, not null.
	rec := doJSON(t, router, http.MethodGet, "/accounts/"+acct.ID+"/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	for i := 0; i < 3; i++ {
		r := doJSON(t, router, http.MethodPost, "/accounts/"+acct.ID+"/deposit", `{"amount": 100}`)
		require.Equal(t, http.StatusCreated, r.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/accounts/"+acct.ID+"/transactions?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []TransactionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)

	rec = doJSON(t, router, http.MethodGet, "/accounts/"+acct.ID+"/transactions?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/accounts/"+acct.ID+"/transactions?limit=1001", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
