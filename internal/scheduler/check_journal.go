package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeadvisor/internal/database"
)

// CheckJournalJob verifies the integrity of the journal database
type CheckJournalJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCheckJournalJob creates a new CheckJournalJob
func NewCheckJournalJob(db *database.DB, log zerolog.Logger) *CheckJournalJob {
	return &CheckJournalJob{
		db:  db,
		log: log.With().Str("job", "check_journal").Logger(),
	}
}

// Name returns the job name
func (j *CheckJournalJob) Name() string {
	return "check_journal"
}

// Run executes the integrity check
func (j *CheckJournalJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("journal database is unhealthy: %w", err)
	}

	stats, err := j.db.GetStats()
	if err != nil {
		return err
	}
	j.log.Debug().
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_size_bytes", stats.WALSizeBytes).
		Msg("Journal integrity OK")
	return nil
}
