package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/advisor"
	"github.com/aristath/tradeadvisor/internal/modules/journal"
)

// AdvisoryScanJob evaluates every held asset of the configured classes and
// journals the signals. It never places orders.
type AdvisoryScanJob struct {
	advisor *advisor.Service
	journal *journal.Repository // optional
	classes []domain.AssetClass
	timeout time.Duration
	log     zerolog.Logger
}

// NewAdvisoryScanJob creates a new AdvisoryScanJob. journal may be nil.
func NewAdvisoryScanJob(svc *advisor.Service, repo *journal.Repository, classes []domain.AssetClass, log zerolog.Logger) *AdvisoryScanJob {
	return &AdvisoryScanJob{
		advisor: svc,
		journal: repo,
		classes: classes,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "advisory_scan").Logger(),
	}
}

// Name returns the job name
func (j *AdvisoryScanJob) Name() string {
	return "advisory_scan"
}

// Run scans each class in turn. A failing class does not stop the others.
func (j *AdvisoryScanJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var errs []error
	for _, class := range j.classes {
		if err := j.scan(ctx, class); err != nil {
			j.log.Error().Err(err).Str("class", class.String()).Msg("Advisory scan failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (j *AdvisoryScanJob) scan(ctx context.Context, class domain.AssetClass) error {
	svc := j.advisor
	var rec *journal.Recorder
	if j.journal != nil {
		var err error
		rec, err = j.journal.Begin(ctx, journal.RunScan, class)
		if err != nil {
			return err
		}
		svc = svc.WithObserver(rec)
	}

	advice, _, err := svc.Scan(ctx, class)
	if rec != nil {
		rec.Finish(ctx, nil, err)
	}
	if err != nil {
		return fmt.Errorf("%s scan: %w", class, err)
	}

	falling := 0
	for _, ev := range advice.Signals {
		if ev.ExpectedFall {
			falling++
		}
	}
	j.log.Info().
		Str("class", class.String()).
		Int("assets", len(advice.Tickers)).
		Int("expected_to_fall", falling).
		Int("failures", len(advice.Failures)).
		Msg("Advisory scan completed")
	return nil
}
