package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSellAmount is returned when a requested sell exceeds what the position is worth
var ErrInvalidSellAmount = errors.New("cannot sell more than the asset value")

// ErrNonPositiveAmount is returned for zero or negative dollar amounts
var ErrNonPositiveAmount = errors.New("amount must be greater than zero")

// ErrInvalidFraction is returned for sell fractions outside [0, 1]
var ErrInvalidFraction = errors.New("fraction must be between 0 and 1")

// DataError wraps a history or quote failure for a single asset
type DataError struct {
	Ticker string
	Op     string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ticker, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// MarketClosedError wraps an order submission failure at the broker transport.
// The order is treated as not filled.
type MarketClosedError struct {
	Ticker string
	Side   Side
	Err    error
}

func (e *MarketClosedError) Error() string {
	return fmt.Sprintf("%s %s failed, the market might be closed: %v", e.Side, e.Ticker, e.Err)
}

func (e *MarketClosedError) Unwrap() error {
	return e.Err
}

// InvalidSelectionError is returned when the asset type selection is not recognized
type InvalidSelectionError struct {
	Input string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid asset type selected: %q", e.Input)
}
