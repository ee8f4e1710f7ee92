// Package features derives per-bar indicator rows from price history.
package features

import (
	"errors"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/pkg/formulas"
)

// ErrNoBars is returned when there is nothing to extract from
var ErrNoBars = errors.New("no bars to extract features from")

// Config holds the indicator periods
type Config struct {
	SMAPeriod          int
	RSIPeriod          int
	MACDFast           int
	MACDSlow           int
	MACDSignal         int
	BollingerPeriod    int
	BollingerDeviation float64
}

// DefaultConfig returns SMA(20), RSI(14), MACD(12,26,9) and Bollinger(20, 2)
func DefaultConfig() Config {
	return Config{
		SMAPeriod:          20,
		RSIPeriod:          14,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
		BollingerPeriod:    20,
		BollingerDeviation: 2,
	}
}

// Extractor turns bars into feature rows
type Extractor struct {
	cfg     Config
	catalog []Pattern
}

// NewExtractor creates an extractor with the default pattern catalog
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{
		cfg:     cfg,
		catalog: DefaultCatalog(),
	}
}

// Extract computes one row per bar. Indicators without enough lookback at a
// given bar are written as 0 and the row is marked incomplete.
func (e *Extractor) Extract(bars []domain.Bar) ([]domain.FeatureRow, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	closes := domain.Closes(bars)

	sma := formulas.CalculateSMASeries(closes, e.cfg.SMAPeriod)
	rsi := formulas.CalculateRSISeries(closes, e.cfg.RSIPeriod)
	macd := formulas.CalculateMACDHistogramSeries(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	upper, _, lower := formulas.CalculateBollingerSeries(closes, e.cfg.BollingerPeriod, e.cfg.BollingerDeviation)
	patterns := e.PatternScores(bars)

	rows := make([]domain.FeatureRow, len(bars))
	for i := range bars {
		row := domain.FeatureRow{
			SMA:          sma[i],
			RSI:          rsi[i],
			MACDHist:     macd[i],
			UpperBand:    upper[i],
			LowerBand:    lower[i],
			PatternScore: patterns[i],
		}
		values := []float64{row.SMA, row.RSI, row.MACDHist, row.UpperBand, row.LowerBand}
		row.Complete = !formulas.ZeroFill(values)
		row.SMA, row.RSI, row.MACDHist, row.UpperBand, row.LowerBand = values[0], values[1], values[2], values[3], values[4]
		rows[i] = row
	}

	return rows, nil
}

// PatternScores sums every catalog entry's verdict for each bar
func (e *Extractor) PatternScores(bars []domain.Bar) []float64 {
	c := newCandles(bars)
	scores := make([]float64, len(bars))
	for i := range bars {
		total := 0
		for _, p := range e.catalog {
			total += p.Detector.at(c, i)
		}
		scores[i] = float64(total)
	}
	return scores
}

// Matches lists the catalog entries that fire on the given bar
func (e *Extractor) Matches(bars []domain.Bar, i int) map[string]int {
	c := newCandles(bars)
	out := make(map[string]int)
	for _, p := range e.catalog {
		if v := p.Detector.at(c, i); v != 0 {
			out[p.Name] = v
		}
	}
	return out
}
