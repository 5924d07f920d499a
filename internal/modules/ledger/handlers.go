package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/finbase/corebank/pkg/money"
)

// Handler handles account and ledger HTTP requests.
// Amounts on the wire are int64 minor units; a verified account ID is
// supplied by the session layer upstream and arrives as a route param.
type Handler struct {
	ledger          *Ledger
	defaultCurrency money.Currency
	log             zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(ledger *Ledger, defaultCurrency money.Currency, log zerolog.Logger) *Handler {
	return &Handler{
		ledger:          ledger,
		defaultCurrency: defaultCurrency,
		log:             log.With().Str("handler", "ledger").Logger(),
	}
}

type createAccountRequest struct {
	Currency       string `json:"currency"`
	OpeningBalance int64  `json:"opening_balance"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        int64  `json:"amount"`
}

// HandleCreateAccount handles POST /accounts
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	currency := h.defaultCurrency
	if req.Currency != "" {
		currency = money.Currency(req.Currency)
	}

	acct, err := h.ledger.CreateAccount(r.Context(), currency, req.OpeningBalance)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(acct)
}

// HandleGetAccount handles GET /accounts/{accountID}
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	acct, err := h.ledger.GetAccount(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acct)
}

// HandleDeposit handles POST /accounts/{accountID}/deposit
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.ledger.Credit(r.Context(), accountID, req.Amount, Detail{Type: TxnDeposit})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// HandleWithdraw handles POST /accounts/{accountID}/withdraw
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.ledger.Debit(r.Context(), accountID, req.Amount, Detail{Type: TxnWithdrawal})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// HandleTransfer handles POST /transfers
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FromAccountID == "" || req.ToAccountID == "" {
		http.Error(w, "from_account_id and to_account_id are required", http.StatusBadRequest)
		return
	}

	out, in, err := h.ledger.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"outgoing": out,
		"incoming": in,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// HandleFreeze handles POST /accounts/{accountID}/freeze
func (h *Handler) HandleFreeze(w http.ResponseWriter, r *http.Request) {
	h.setFrozen(w, r, true)
}

// HandleUnfreeze handles POST /accounts/{accountID}/unfreeze
func (h *Handler) HandleUnfreeze(w http.ResponseWriter, r *http.Request) {
	h.setFrozen(w, r, false)
}

func (h *Handler) setFrozen(w http.ResponseWriter, r *http.Request, frozen bool) {
	accountID := chi.URLParam(r, "accountID")

	if err := h.ledger.SetFrozen(r.Context(), accountID, frozen); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"account_id": accountID, "frozen": frozen})
}

// HandleGetTransactions handles GET /accounts/{accountID}/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 1000 {
			http.Error(w, "Invalid limit. Must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = l
	}

	records, err := h.ledger.History(r.Context(), accountID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if records == nil {
		records = []TransactionRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// writeError maps ledger errors to specific HTTP responses. Every
// rejection names its cause so the calling UI can explain it.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		http.Error(w, "Amount must be a positive number of minor units", http.StatusBadRequest)
	case errors.Is(err, ErrAccountNotFound):
		http.Error(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, ErrAccountFrozen):
		http.Error(w, "Account is frozen and cannot transact", http.StatusConflict)
	case errors.Is(err, ErrInsufficientFunds):
		http.Error(w, "Insufficient funds for this operation", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrSameAccount):
		http.Error(w, "Source and destination accounts must differ", http.StatusBadRequest)
	case errors.Is(err, ErrCurrencyMismatch):
		http.Error(w, "Accounts use different currencies", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrConcurrentModification):
		http.Error(w, "Account is busy, please retry", http.StatusConflict)
	default:
		h.log.Error().Err(err).Msg("Ledger operation failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
