package rebalancing

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// Ledger is the running buying-power total for one pass.
// It is the only writer of cash and serializes every change.
type Ledger struct {
	mu      sync.Mutex
	balance decimal.Decimal
}

// NewLedger creates a ledger opening at the given buying power
func NewLedger(opening decimal.Decimal) *Ledger {
	return &Ledger{balance: opening}
}

// Available returns the current buying power
func (l *Ledger) Available() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// CanAfford reports whether amount fits in the current buying power
func (l *Ledger) CanAfford(amount decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return amount.LessThanOrEqual(l.balance)
}

// Debit removes a filled buy from buying power. It refuses amounts the
// balance cannot cover.
func (l *Ledger) Debit(amount decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.GreaterThan(l.balance) {
		return false
	}
	l.balance = l.balance.Sub(amount)
	return true
}

// Credit adds sell proceeds to buying power
func (l *Ledger) Credit(amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = l.balance.Add(amount)
}

// Holdings tracks how much of each snapshot position is still unsold in this pass
type Holdings struct {
	mu        sync.Mutex
	remaining map[string]decimal.Decimal
}

// NewHoldings seeds holdings from a position snapshot
func NewHoldings(positions []domain.Position) *Holdings {
	h := &Holdings{remaining: make(map[string]decimal.Decimal, len(positions))}
	for _, pos := range positions {
		h.remaining[pos.Ticker] = h.remaining[pos.Ticker].Add(pos.Quantity)
	}
	return h
}

// Remaining returns the unsold quantity for a ticker
func (h *Holdings) Remaining(ticker string) decimal.Decimal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remaining[ticker]
}

// Value returns the unsold quantity valued at price
func (h *Holdings) Value(ticker string, price decimal.Decimal) decimal.Decimal {
	return h.Remaining(ticker).Mul(price)
}

// Reduce records a sold quantity, never going below zero
func (h *Holdings) Reduce(ticker string, quantity decimal.Decimal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	left := h.remaining[ticker].Sub(quantity)
	if left.IsNegative() {
		left = decimal.Zero
	}
	h.remaining[ticker] = left
}
