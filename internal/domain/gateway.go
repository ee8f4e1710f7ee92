// Package domain provides the core types shared by the advisor, the
// rebalancing engine and the broker gateways.
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// BrokerGateway defines broker-agnostic market data and trading operations.
// Implementations receive an already authenticated session at construction time.
type BrokerGateway interface {
	// Market data
	GetHistory(ctx context.Context, ticker string, class AssetClass, window HistoryWindow) ([]Bar, error)
	GetLatestPrice(ctx context.Context, ticker string, class AssetClass) (decimal.Decimal, error)

	// Account
	GetPositions(ctx context.Context, class AssetClass) ([]Position, error)
	GetBuyingPower(ctx context.Context) (decimal.Decimal, error)

	// Trading
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
}

// HistorySource supplies bars only. Used to swap the market data provider
// without changing the broker.
type HistorySource interface {
	GetHistory(ctx context.Context, ticker string, class AssetClass, window HistoryWindow) ([]Bar, error)
}
