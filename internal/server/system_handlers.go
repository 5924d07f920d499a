package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/finbase/corebank/internal/modules/investments"
	"github.com/finbase/corebank/internal/modules/ledger"
)

// SystemHandlers handles health and monitoring endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	store     ledger.Store
	positions *investments.Repository
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, store ledger.Store, positions *investments.Repository) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		store:     store,
		positions: positions,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	UptimeSeconds    int64   `json:"uptime_seconds"`
	AccountCount     int     `json:"account_count"`
	TransactionCount int     `json:"transaction_count"`
	OpenPositions    int     `json:"open_positions"`
	MemoryMB         float64 `json:"memory_mb,omitempty"`
	CPUPercent       float64 `json:"cpu_percent,omitempty"`
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleSystemStatus returns counters and process resource usage
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.store.CountAccounts(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count accounts")
		http.Error(w, "Failed to collect system status", http.StatusInternalServerError)
		return
	}

	transactions, err := h.store.CountTransactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count transactions")
		http.Error(w, "Failed to collect system status", http.StatusInternalServerError)
		return
	}

	openPositions, err := h.positions.CountOpen(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count open positions")
		http.Error(w, "Failed to collect system status", http.StatusInternalServerError)
		return
	}

	status := SystemStatusResponse{
		UptimeSeconds:    int64(time.Since(h.startedAt).Seconds()),
		AccountCount:     accounts,
		TransactionCount: transactions,
		OpenPositions:    openPositions,
	}

	// Resource usage is best effort; counters matter more than gauges.
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			status.MemoryMB = float64(mem.RSS) / 1024.0 / 1024.0
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			status.CPUPercent = cpu
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
