package rebalancing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// SellMode selects how much of a position a sell candidate liquidates
type SellMode int

const (
	// SellNone declines to pick a mode, which skips the sell
	SellNone SellMode = iota
	// SellFull sells the whole remaining position
	SellFull
	// SellFraction sells a fraction of the remaining position
	SellFraction
)

// Decider answers the human decision points of a rebalancing pass.
// Calls are synchronous and block the pass. An error aborts the pass.
type Decider interface {
	// ConfirmBuy asks whether to add to a position that is not expected to fall
	ConfirmBuy(ctx context.Context, pos domain.Position) (bool, error)
	// BuyAmount asks for the dollar amount to invest
	BuyAmount(ctx context.Context, pos domain.Position, buyingPower decimal.Decimal) (decimal.Decimal, error)
	// ConfirmFunding asks whether to sell other assets to cover a shortfall
	ConfirmFunding(ctx context.Context, target domain.Position, shortfall decimal.Decimal) (bool, error)
	// FundingSellAmount asks how many dollars to sell from a funding source
	FundingSellAmount(ctx context.Context, source domain.Position, sellable decimal.Decimal) (decimal.Decimal, error)
	// ConfirmSell asks whether to sell a position that is expected to fall
	ConfirmSell(ctx context.Context, pos domain.Position) (bool, error)
	// SellMode asks whether to sell fully or a fraction
	SellMode(ctx context.Context, pos domain.Position) (SellMode, error)
	// SellFraction asks for the fraction to sell, expected in [0, 1]
	SellFraction(ctx context.Context, pos domain.Position) (decimal.Decimal, error)
}
