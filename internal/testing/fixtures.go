package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

var fixtureStart = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

// NewBarFixtures builds hourly bars whose closes step by the given deltas.
// Each bar opens at the previous close.
func NewBarFixtures(start float64, deltas ...float64) []domain.Bar {
	bars := make([]domain.Bar, 0, len(deltas)+1)
	price := start
	bars = append(bars, domain.Bar{
		Timestamp: fixtureStart,
		Open:      price,
		High:      price + 0.1,
		Low:       price - 0.1,
		Close:     price,
		Volume:    1000,
	})
	for i, d := range deltas {
		open := price
		price += d
		high, low := open, price
		if price > open {
			high, low = price, open
		}
		bars = append(bars, domain.Bar{
			Timestamp: fixtureStart.Add(time.Duration(i+1) * time.Hour),
			Open:      open,
			High:      high + 0.1,
			Low:       low - 0.1,
			Close:     price,
			Volume:    1000,
		})
	}
	return bars
}

// NewFallingBars returns n bars in an accelerating decline, which scores as an expected fall
func NewFallingBars(n int, start float64) []domain.Bar {
	deltas := make([]float64, n-1)
	for i := range deltas {
		deltas[i] = -(0.5 + 0.05*float64(i))
	}
	return NewBarFixtures(start, deltas...)
}

// NewRisingBars returns n bars in a steady climb. RSI saturates but price holds
// above its average, which scores below the default threshold.
func NewRisingBars(n int, start float64) []domain.Bar {
	deltas := make([]float64, n-1)
	for i := range deltas {
		deltas[i] = 1
	}
	return NewBarFixtures(start, deltas...)
}

// NewPositionFixture builds a position from string amounts
func NewPositionFixture(ticker, name string, class domain.AssetClass, quantity, price string) domain.Position {
	return domain.Position{
		Ticker:     ticker,
		Name:       name,
		AssetClass: class,
		Quantity:   decimal.RequireFromString(quantity),
		Price:      decimal.RequireFromString(price),
	}
}
