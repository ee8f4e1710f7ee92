// Package journal records advisory scans and rebalancing runs in SQLite.
package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// RunKind distinguishes interactive passes from scheduled scans
type RunKind string

const (
	RunRebalance RunKind = "rebalance"
	RunScan      RunKind = "scan"
)

// RunRecord is one journaled run
type RunRecord struct {
	ID                  string            `json:"id"`
	Kind                RunKind           `json:"kind"`
	AssetClass          domain.AssetClass `json:"asset_class"`
	StartedAt           time.Time         `json:"started_at"`
	FinishedAt          *time.Time        `json:"finished_at,omitempty"`
	StartingBuyingPower *decimal.Decimal  `json:"starting_buying_power,omitempty"`
	EndingBuyingPower   *decimal.Decimal  `json:"ending_buying_power,omitempty"`
	Error               string            `json:"error,omitempty"`
}

// SignalRecord is one journaled signal
type SignalRecord struct {
	ID            int64             `json:"id"`
	RunID         string            `json:"run_id"`
	Ticker        string            `json:"ticker"`
	AssetClass    domain.AssetClass `json:"asset_class"`
	Score         int               `json:"score"`
	ExpectedFall  bool              `json:"expected_fall"`
	Close         float64           `json:"close"`
	PreviousClose float64           `json:"previous_close"`
	Bars          int               `json:"bars"`
	Row           domain.FeatureRow `json:"features"`
	ComputedAt    time.Time         `json:"computed_at"`
}

// OrderRecord is one journaled order attempt
type OrderRecord struct {
	ID            int64           `json:"id"`
	RunID         string          `json:"run_id"`
	Action        domain.Side     `json:"action"`
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Purpose       string          `json:"purpose"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	Status        string          `json:"status"`
	BrokerOrderID string          `json:"broker_order_id,omitempty"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NoticeRecord is one journaled notice
type NoticeRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Ticker    string    `json:"ticker"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
