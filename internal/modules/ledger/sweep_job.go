package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PendingSweepJob fails pending transaction records older than the TTL.
// A record should only ever be pending for the duration of one request;
// anything older is an orphan and must end in a terminal state so the
// account history stays a complete audit trail.
type PendingSweepJob struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

// NewPendingSweepJob creates the sweep job
func NewPendingSweepJob(store Store, ttl time.Duration, log zerolog.Logger) *PendingSweepJob {
	return &PendingSweepJob{
		store: store,
		ttl:   ttl,
		log:   log.With().Str("job", "pending_sweep").Logger(),
	}
}

// Name returns the job name
func (j *PendingSweepJob) Name() string {
	return "pending_sweep"
}

// Run marks stale pending transactions as failed
func (j *PendingSweepJob) Run() error {
	cutoff := time.Now().UTC().Add(-j.ttl)

	swept, err := j.store.FailStalePending(context.Background(), cutoff)
	if err != nil {
		return err
	}

	if swept > 0 {
		j.log.Info().Int64("swept", swept).Time("cutoff", cutoff).Msg("Swept stale pending transactions")
	}

	return nil
}
