// Package scoring reduces a feature row to a directional verdict.
package scoring

import (
	"github.com/aristath/tradeadvisor/internal/domain"
)

// DefaultThreshold is the number of bearish conditions needed to call a fall
const DefaultThreshold = 3

// MaxScore is the number of conditions evaluated
const MaxScore = 5

// RSIOverbought is the RSI level above which the asset counts as overbought
const RSIOverbought = 70.0

// Conditions records which bearish conditions held
type Conditions struct {
	BelowPreviousClose bool `json:"below_previous_close"`
	BelowSMA           bool `json:"below_sma"`
	Overbought         bool `json:"overbought"`
	NegativeMomentum   bool `json:"negative_momentum"`
	BearishPatterns    bool `json:"bearish_patterns"`
}

// Count returns how many conditions held
func (c Conditions) Count() int {
	n := 0
	for _, held := range []bool{c.BelowPreviousClose, c.BelowSMA, c.Overbought, c.NegativeMomentum, c.BearishPatterns} {
		if held {
			n++
		}
	}
	return n
}

// Result is the scorer output for one asset
type Result struct {
	Score        int        `json:"score"`
	ExpectedFall bool       `json:"expected_fall"`
	Conditions   Conditions `json:"conditions"`
}

// Scorer applies the five-condition vote
type Scorer struct {
	threshold int
}

// NewScorer creates a scorer. Thresholds outside 1..5 fall back to the default.
func NewScorer(threshold int) *Scorer {
	if threshold < 1 || threshold > MaxScore {
		threshold = DefaultThreshold
	}
	return &Scorer{threshold: threshold}
}

// Threshold returns the score at or above which a fall is expected
func (s *Scorer) Threshold() int {
	return s.threshold
}

// Score evaluates one row against the latest and previous close
func (s *Scorer) Score(row domain.FeatureRow, latestClose, previousClose float64) Result {
	cond := Conditions{
		BelowPreviousClose: latestClose < previousClose,
		BelowSMA:           latestClose < row.SMA,
		Overbought:         row.RSI > RSIOverbought,
		NegativeMomentum:   row.MACDHist < 0,
		BearishPatterns:    row.PatternScore < 0,
	}
	score := cond.Count()
	return Result{
		Score:        score,
		ExpectedFall: score >= s.threshold,
		Conditions:   cond,
	}
}

// Evaluate scores the most recent bar. With a single bar the previous close
// is the latest close, so the first condition cannot hold.
func (s *Scorer) Evaluate(bars []domain.Bar, rows []domain.FeatureRow) (Result, bool) {
	if len(bars) == 0 || len(rows) != len(bars) {
		return Result{}, false
	}
	last := len(bars) - 1
	latest := bars[last].Close
	previous := latest
	if last > 0 {
		previous = bars[last-1].Close
	}
	return s.Score(rows[last], latest, previous), true
}
