package loans

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles loan quote HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new loans handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "loans").Logger(),
	}
}

type quoteRequest struct {
	LoanType       string `json:"loan_type"`
	Principal      int64  `json:"principal"`
	DurationMonths int    `json:"duration_months"`
}

// HandleQuote handles POST /loans/quote. Quoting is a pure computation:
// nothing is persisted and no ledger state is touched.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quote, err := NewQuote(LoanTypeFromString(req.LoanType), req.Principal, req.DurationMonths)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPrincipal):
			http.Error(w, "Principal must be a positive number of minor units", http.StatusBadRequest)
		case errors.Is(err, ErrInvalidDuration):
			http.Error(w, "Duration must be a positive number of months", http.StatusBadRequest)
		default:
			h.log.Error().Err(err).Msg("Failed to compute loan quote")
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
		return
	}

	response := struct {
		*Quote
		AnnualRatePercent string `json:"annual_rate_percent"`
	}{quote, quote.AnnualRatePercent()}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
