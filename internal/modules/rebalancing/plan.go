package rebalancing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// StepStatus is the outcome of one order attempt
type StepStatus string

const (
	// StatusSubmitted means the broker accepted the order
	StatusSubmitted StepStatus = "submitted"
	// StatusFailed means submission or price lookup failed; cash is unchanged
	StatusFailed StepStatus = "failed"
	// StatusRejected means validation stopped the order before submission
	StatusRejected StepStatus = "rejected"
)

// StepPurpose says why an order was placed
type StepPurpose string

const (
	PurposeRebalance StepPurpose = "rebalance"
	PurposeFunding   StepPurpose = "funding"
)

// PlanStep is one order attempt within a pass
type PlanStep struct {
	Action    domain.Side     `json:"action"`
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name"`
	Purpose   StepPurpose     `json:"purpose"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Status    StepStatus      `json:"status"`
	OrderID   string          `json:"order_id,omitempty"`
	Err       error           `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
}

// Succeeded reports whether the order reached the broker
func (s PlanStep) Succeeded() bool {
	return s.Status == StatusSubmitted
}

// NoticeKind classifies an engine message
type NoticeKind string

const (
	NoticeInsufficientFunds NoticeKind = "insufficient_funds"
	NoticeInvalidSellAmount NoticeKind = "invalid_sell_amount"
	NoticeFundingExhausted  NoticeKind = "funding_exhausted"
	NoticeOrderFailed       NoticeKind = "order_failed"
	NoticeOrderRejected     NoticeKind = "order_rejected"
	NoticeDataError         NoticeKind = "data_error"
	NoticeInvalidFraction   NoticeKind = "invalid_fraction"
	NoticeSkipped           NoticeKind = "skipped"
	NoticeNoSignal          NoticeKind = "no_signal"
)

// Notice is a user-facing message raised during a pass
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Ticker  string     `json:"ticker"`
	Message string     `json:"message"`
}

// Report summarises a pass
type Report struct {
	Plan                []PlanStep      `json:"plan"`
	Notices             []Notice        `json:"notices"`
	StartingBuyingPower decimal.Decimal `json:"starting_buying_power"`
	EndingBuyingPower   decimal.Decimal `json:"ending_buying_power"`
}

// Submitted returns the steps that reached the broker
func (r *Report) Submitted() []PlanStep {
	var out []PlanStep
	for _, s := range r.Plan {
		if s.Succeeded() {
			out = append(out, s)
		}
	}
	return out
}

// Observer receives plan steps and notices as they happen
type Observer interface {
	ObserveStep(step PlanStep)
	ObserveNotice(notice Notice)
}
