// Package formulas provides technical indicator series built on go-talib.
package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Series functions return one value per input element. Indices inside the
// warm-up region of an indicator hold NaN, and an input shorter than the
// lookback yields an all-NaN series instead of calling into talib.

// SMALookback is the number of leading values an SMA of the given period cannot define
func SMALookback(period int) int {
	return period - 1
}

// RSILookback is the number of leading values an RSI of the given period cannot define
func RSILookback(period int) int {
	return period
}

// MACDLookback is the number of leading values a MACD histogram cannot define
func MACDLookback(slow, signal int) int {
	return (slow - 1) + (signal - 1)
}

// BollingerLookback is the number of leading values Bollinger bands cannot define
func BollingerLookback(period int) int {
	return period - 1
}

// CalculateSMASeries calculates the Simple Moving Average for every bar
//
// Args:
//
//	closes: Array of closing prices
//	period: Averaging window (typically 20)
func CalculateSMASeries(closes []float64, period int) []float64 {
	if period < 2 || len(closes) <= SMALookback(period) {
		return nanSeries(len(closes))
	}

	sma := talib.Sma(closes, period)
	return maskWarmup(sma, SMALookback(period))
}

// CalculateRSISeries calculates the Relative Strength Index for every bar
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
func CalculateRSISeries(closes []float64, period int) []float64 {
	if period < 2 || len(closes) <= RSILookback(period) {
		return nanSeries(len(closes))
	}

	rsi := talib.Rsi(closes, period)
	return maskWarmup(rsi, RSILookback(period))
}

// CalculateMACDHistogramSeries calculates MACD(fast, slow, signal) and returns the histogram
// (MACD line minus signal line) for every bar
func CalculateMACDHistogramSeries(closes []float64, fast, slow, signal int) []float64 {
	if fast < 2 || slow <= fast || signal < 1 || len(closes) <= MACDLookback(slow, signal) {
		return nanSeries(len(closes))
	}

	_, _, hist := talib.Macd(closes, fast, slow, signal)
	return maskWarmup(hist, MACDLookback(slow, signal))
}

// CalculateBollingerSeries calculates Bollinger Bands for every bar
// MAType 0 = SMA (Simple Moving Average)
func CalculateBollingerSeries(closes []float64, period int, stdDevMultiplier float64) (upper, middle, lower []float64) {
	if period < 2 || len(closes) <= BollingerLookback(period) {
		return nanSeries(len(closes)), nanSeries(len(closes)), nanSeries(len(closes))
	}

	upper, middle, lower = talib.BBands(closes, period, stdDevMultiplier, stdDevMultiplier, 0)
	lookback := BollingerLookback(period)
	return maskWarmup(upper, lookback), maskWarmup(middle, lookback), maskWarmup(lower, lookback)
}

// ZeroFill replaces every NaN in place with 0 and reports whether any value was replaced
func ZeroFill(values []float64) bool {
	filled := false
	for i, v := range values {
		if isNaN(v) {
			values[i] = 0
			filled = true
		}
	}
	return filled
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// maskWarmup copies values and writes NaN over the first lookback entries,
// which talib leaves as zeros.
func maskWarmup(values []float64, lookback int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	for i := 0; i < lookback && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return out
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
