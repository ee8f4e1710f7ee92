package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// TrailingMean averages the n values that precede index i (exclusive).
// Fewer than n values are averaged when i < n; returns 0 when i == 0.
func TrailingMean(data []float64, i, n int) float64 {
	if i <= 0 || n <= 0 {
		return 0
	}
	start := i - n
	if start < 0 {
		start = 0
	}
	if i > len(data) {
		i = len(data)
	}
	return Mean(data[start:i])
}
