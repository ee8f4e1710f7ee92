package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a holding in the account snapshot taken at the start of a run
type Position struct {
	Ticker     string          `json:"ticker"`
	Name       string          `json:"name"`
	AssetClass AssetClass      `json:"asset_class"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"` // Price at snapshot time
}

// Value is the position's worth at the snapshot price
func (p Position) Value() decimal.Decimal {
	return p.Quantity.Mul(p.Price)
}

// DisplayName renders "Name (TICKER)", falling back to the ticker alone
func (p Position) DisplayName() string {
	if p.Name == "" || p.Name == p.Ticker {
		return p.Ticker
	}
	return p.Name + " (" + p.Ticker + ")"
}

// Side is the direction of an order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderRequest describes a market order in asset units
type OrderRequest struct {
	Ticker     string          `json:"ticker"`
	AssetClass AssetClass      `json:"asset_class"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// OrderResult is the broker's acknowledgement of a submitted order
type OrderResult struct {
	OrderID     string          `json:"order_id"`
	Ticker      string          `json:"ticker"`
	Side        Side            `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Status      string          `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
