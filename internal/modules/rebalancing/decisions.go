// Package rebalancing turns signals into buy and sell orders under a buying-power constraint.
package rebalancing

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// QuantityPlaces is the precision of order quantities
const QuantityPlaces = 8

// Candidate is a proposed action for one held position
type Candidate struct {
	Position domain.Position
	Action   domain.Side
	Signal   domain.Signal
}

// Propose returns one candidate per position with a signal, in position order.
// Positions expected to fall are sell candidates, all others are buy candidates.
func Propose(positions []domain.Position, signals map[string]domain.Signal) []Candidate {
	out := make([]Candidate, 0, len(positions))
	for _, pos := range positions {
		sig, ok := signals[pos.Ticker]
		if !ok {
			continue
		}
		action := domain.SideBuy
		if sig.ExpectedFall {
			action = domain.SideSell
		}
		out = append(out, Candidate{Position: pos, Action: action, Signal: sig})
	}
	return out
}

// BuyResolution is how a requested buy amount relates to available cash
type BuyResolution int

const (
	// BuySkip means the amount is zero or negative
	BuySkip BuyResolution = iota
	// BuyDirect means the amount is covered by buying power
	BuyDirect
	// BuyNeedsFunding means other positions must be sold first
	BuyNeedsFunding
)

// ResolveBuy classifies a requested buy amount
func ResolveBuy(amount, buyingPower decimal.Decimal) BuyResolution {
	if !amount.IsPositive() {
		return BuySkip
	}
	if amount.LessThanOrEqual(buyingPower) {
		return BuyDirect
	}
	return BuyNeedsFunding
}

// CheckSell validates a dollar sell amount against what can be sold
func CheckSell(amount, sellable decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrNonPositiveAmount
	}
	if amount.GreaterThan(sellable) {
		return domain.ErrInvalidSellAmount
	}
	return nil
}

// FractionValid reports whether f is a usable sell fraction
func FractionValid(f decimal.Decimal) bool {
	return !f.IsNegative() && f.LessThanOrEqual(decimal.NewFromInt(1))
}

// FractionAmount is the dollar value of selling a fraction of a quantity at price
func FractionAmount(quantity, fraction, price decimal.Decimal) decimal.Decimal {
	return quantity.Mul(fraction).Mul(price)
}

// OrderQuantity converts a dollar amount into asset units at price,
// rounded to QuantityPlaces. Returns zero for a non-positive price.
func OrderQuantity(amount, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return amount.DivRound(price, QuantityPlaces+4).Round(QuantityPlaces)
}

// FundingSources lists the positions that may be sold to fund a buy of target,
// in snapshot order.
func FundingSources(positions []domain.Position, target string) []domain.Position {
	out := make([]domain.Position, 0, len(positions))
	for _, pos := range positions {
		if pos.Ticker == target {
			continue
		}
		out = append(out, pos)
	}
	return out
}
