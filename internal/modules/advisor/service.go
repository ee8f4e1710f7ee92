// Package advisor evaluates the directional signal for every held asset.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/features"
	"github.com/aristath/tradeadvisor/internal/modules/scoring"
)

// SignalObserver receives every signal the advisor computes
type SignalObserver interface {
	ObserveSignal(ctx context.Context, signal domain.Signal) error
}

// Evaluation is a signal plus the conditions that produced it
type Evaluation struct {
	domain.Signal
	Conditions scoring.Conditions `json:"conditions"`
}

// Advice is the outcome of evaluating a set of positions.
// Tickers keeps the position order; each ticker appears in exactly one of
// Signals or Failures.
type Advice struct {
	Tickers  []string
	Signals  map[string]Evaluation
	Failures map[string]error
}

// Signal returns the evaluation for a ticker, if one succeeded
func (a *Advice) Signal(ticker string) (Evaluation, bool) {
	ev, ok := a.Signals[ticker]
	return ev, ok
}

// SignalMap returns the successful signals keyed by ticker
func (a *Advice) SignalMap() map[string]domain.Signal {
	out := make(map[string]domain.Signal, len(a.Signals))
	for ticker, ev := range a.Signals {
		out[ticker] = ev.Signal
	}
	return out
}

// Service computes signals for held assets
type Service struct {
	gateway   domain.BrokerGateway
	extractor *features.Extractor
	scorer    *scoring.Scorer
	window    domain.HistoryWindow
	observer  SignalObserver
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates a new advisor service
func NewService(
	gateway domain.BrokerGateway,
	extractor *features.Extractor,
	scorer *scoring.Scorer,
	window domain.HistoryWindow,
	log zerolog.Logger,
) *Service {
	return &Service{
		gateway:   gateway,
		extractor: extractor,
		scorer:    scorer,
		window:    window,
		now:       time.Now,
		log:       log.With().Str("service", "advisor").Logger(),
	}
}

// WithObserver returns a copy of the service that reports every computed
// signal to observer. Observer failures are logged and never fail an evaluation.
func (s *Service) WithObserver(observer SignalObserver) *Service {
	c := *s
	c.observer = observer
	return &c
}

// EvaluateTicker fetches history for one asset and scores it.
// Any failure is returned as a *domain.DataError.
func (s *Service) EvaluateTicker(ctx context.Context, ticker string, class domain.AssetClass) (*Evaluation, error) {
	bars, err := s.gateway.GetHistory(ctx, ticker, class, s.window)
	if err != nil {
		return nil, &domain.DataError{Ticker: ticker, Op: "get history", Err: err}
	}

	rows, err := s.extractor.Extract(bars)
	if err != nil {
		return nil, &domain.DataError{Ticker: ticker, Op: "extract features", Err: err}
	}

	result, ok := s.scorer.Evaluate(bars, rows)
	if !ok {
		return nil, &domain.DataError{Ticker: ticker, Op: "score", Err: errors.New("feature rows do not match bars")}
	}

	last := len(bars) - 1
	previous := bars[last].Close
	if last > 0 {
		previous = bars[last-1].Close
	}

	ev := &Evaluation{
		Signal: domain.Signal{
			Ticker:        ticker,
			AssetClass:    class,
			Score:         result.Score,
			ExpectedFall:  result.ExpectedFall,
			Close:         bars[last].Close,
			PreviousClose: previous,
			Row:           rows[last],
			Bars:          len(bars),
			ComputedAt:    s.now(),
		},
		Conditions: result.Conditions,
	}

	event := s.log.Debug()
	if !ev.Row.Complete {
		event = s.log.Warn()
	}
	event.
		Str("ticker", ticker).
		Int("bars", len(bars)).
		Int("score", ev.Score).
		Bool("expected_fall", ev.ExpectedFall).
		Bool("complete", ev.Row.Complete).
		Msg("Signal computed")

	if s.observer != nil {
		if err := s.observer.ObserveSignal(ctx, ev.Signal); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to record signal")
		}
	}

	return ev, nil
}

// Evaluate scores every position in order. A failure for one asset is
// recorded and evaluation continues with the next.
func (s *Service) Evaluate(ctx context.Context, positions []domain.Position) *Advice {
	advice := &Advice{
		Tickers:  make([]string, 0, len(positions)),
		Signals:  make(map[string]Evaluation, len(positions)),
		Failures: make(map[string]error),
	}

	for _, pos := range positions {
		advice.Tickers = append(advice.Tickers, pos.Ticker)

		if err := ctx.Err(); err != nil {
			advice.Failures[pos.Ticker] = err
			continue
		}

		ev, err := s.EvaluateTicker(ctx, pos.Ticker, pos.AssetClass)
		if err != nil {
			s.log.Error().Err(err).Str("ticker", pos.Ticker).Msg("Failed to evaluate asset")
			advice.Failures[pos.Ticker] = err
			continue
		}
		advice.Signals[pos.Ticker] = *ev
	}

	s.log.Info().
		Int("positions", len(positions)).
		Int("signals", len(advice.Signals)).
		Int("failures", len(advice.Failures)).
		Msg("Portfolio evaluated")

	return advice
}

// Scan takes a snapshot of the holdings for a class and evaluates it.
// The snapshot is returned so callers can act on the same positions.
func (s *Service) Scan(ctx context.Context, class domain.AssetClass) (*Advice, []domain.Position, error) {
	positions, err := s.gateway.GetPositions(ctx, class)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get %s positions: %w", class, err)
	}
	return s.Evaluate(ctx, positions), positions, nil
}
