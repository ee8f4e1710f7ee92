package journal

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/rebalancing"
)

// Recorder journals one run. It receives signals from the advisor and
// steps and notices from the rebalancing engine.
// Write failures are logged and never interrupt the run.
type Recorder struct {
	repo  *Repository
	runID string
	log   zerolog.Logger
}

// Begin starts a run and returns its recorder
func (r *Repository) Begin(ctx context.Context, kind RunKind, class domain.AssetClass) (*Recorder, error) {
	id, err := r.StartRun(ctx, kind, class)
	if err != nil {
		return nil, err
	}
	r.log.Debug().Str("run_id", id).Str("kind", string(kind)).Msg("Run started")
	return &Recorder{
		repo:  r,
		runID: id,
		log:   r.log.With().Str("run_id", id).Logger(),
	}, nil
}

// RunID returns the journal ID of the run
func (rec *Recorder) RunID() string {
	return rec.runID
}

// ObserveSignal implements advisor.SignalObserver
func (rec *Recorder) ObserveSignal(ctx context.Context, signal domain.Signal) error {
	return rec.repo.InsertSignal(ctx, rec.runID, signal)
}

// ObserveStep implements rebalancing.Observer
func (rec *Recorder) ObserveStep(step rebalancing.PlanStep) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.repo.InsertOrder(ctx, rec.runID, step); err != nil {
		rec.log.Warn().Err(err).Str("ticker", step.Ticker).Msg("Failed to journal order")
	}
}

// ObserveNotice implements rebalancing.Observer
func (rec *Recorder) ObserveNotice(notice rebalancing.Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.repo.InsertNotice(ctx, rec.runID, notice); err != nil {
		rec.log.Warn().Err(err).Str("ticker", notice.Ticker).Msg("Failed to journal notice")
	}
}

// Finish closes the run. report is nil for scans.
func (rec *Recorder) Finish(ctx context.Context, report *rebalancing.Report, runErr error) {
	if err := rec.repo.FinishRun(ctx, rec.runID, report, runErr); err != nil {
		rec.log.Warn().Err(err).Msg("Failed to finish journal run")
	}
}
