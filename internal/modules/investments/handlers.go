package investments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/finbase/corebank/internal/modules/ledger"
)

// Handler handles investment HTTP requests
type Handler struct {
	processor *Processor
	log       zerolog.Logger
}

// NewHandler creates a new investments handler
func NewHandler(processor *Processor, log zerolog.Logger) *Handler {
	return &Handler{
		processor: processor,
		log:       log.With().Str("handler", "investments").Logger(),
	}
}

type purchaseRequest struct {
	AccountID  string     `json:"account_id"`
	Amount     int64      `json:"amount"`
	Instrument Instrument `json:"instrument"`
}

type sellRequest struct {
	CurrentValue int64 `json:"current_value"`
}

// HandlePurchase handles POST /investments/purchase
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.AccountID == "" {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.processor.Purchase(r.Context(), req.AccountID, req.Instrument, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// HandleSell handles POST /investments/{positionID}/sell
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "positionID")

	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.processor.Sell(r.Context(), positionID, req.CurrentValue)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleListPositions handles GET /accounts/{accountID}/positions
func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	positions, err := h.processor.ListPositions(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if positions == nil {
		positions = []Position{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(positions)
}

// writeError maps investment and ledger errors to specific HTTP responses
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		http.Error(w, "Amount must be a positive number of minor units", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInstrument):
		http.Error(w, "Instrument data is invalid", http.StatusBadRequest)
	case errors.Is(err, ErrBelowMinimum):
		http.Error(w, "Amount is below the minimum stake for this instrument", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrExceedsInstrumentValue):
		http.Error(w, "Amount exceeds the instrument valuation", http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		http.Error(w, "Insufficient funds for this investment", http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrAccountNotFound):
		http.Error(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrAccountFrozen):
		http.Error(w, "Account is frozen and cannot transact", http.StatusConflict)
	case errors.Is(err, ledger.ErrConcurrentModification):
		http.Error(w, "Account is busy, please retry", http.StatusConflict)
	case errors.Is(err, ErrPositionNotFound):
		http.Error(w, "Position not found", http.StatusNotFound)
	case errors.Is(err, ErrPositionNotActive):
		http.Error(w, "Position is already closed", http.StatusConflict)
	default:
		h.log.Error().Err(err).Msg("Investment operation failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
