// Package paper provides an in-memory broker that fills market orders instantly.
package paper

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// ErrMarketClosed is returned for orders while the paper market is closed
var ErrMarketClosed = fmt.Errorf("paper market is closed")

// Holding seeds one paper position
type Holding struct {
	Ticker     string            `yaml:"ticker"`
	Name       string            `yaml:"name"`
	AssetClass domain.AssetClass `yaml:"class"`
	Quantity   decimal.Decimal   `yaml:"quantity"`
	Price      decimal.Decimal   `yaml:"price"`
}

// Account is the starting state of a paper broker
type Account struct {
	Cash     decimal.Decimal `yaml:"cash"`
	Holdings []Holding       `yaml:"holdings"`
}

// Gateway is an in-memory domain.BrokerGateway
type Gateway struct {
	mu       sync.Mutex
	cash     decimal.Decimal
	order    []string
	holdings map[string]*Holding
	prices   map[string]decimal.Decimal
	history  map[string][]domain.Bar
	failures map[string]error
	closed   bool
	orders   []domain.OrderResult
	now      func() time.Time
	log      zerolog.Logger
}

// NewGateway creates a paper broker from an account seed
func NewGateway(account Account, log zerolog.Logger) *Gateway {
	g := &Gateway{
		cash:     account.Cash,
		holdings: make(map[string]*Holding),
		prices:   make(map[string]decimal.Decimal),
		history:  make(map[string][]domain.Bar),
		failures: make(map[string]error),
		now:      time.Now,
		log:      log.With().Str("client", "paper").Logger(),
	}
	for _, h := range account.Holdings {
		h := h
		g.order = append(g.order, h.Ticker)
		g.holdings[h.Ticker] = &h
		g.prices[h.Ticker] = h.Price
	}
	return g
}

// SetPrice sets the latest price of a ticker
func (g *Gateway) SetPrice(ticker string, price decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[ticker] = price
}

// SetHistory sets the bars returned for a ticker
func (g *Gateway) SetHistory(ticker string, bars []domain.Bar) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history[ticker] = bars
}

// FailOrders makes every order for ticker fail with err. A nil err clears it.
func (g *Gateway) FailOrders(ticker string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failures, ticker)
		return
	}
	g.failures[ticker] = err
}

// SetMarketClosed opens or closes the paper market
func (g *Gateway) SetMarketClosed(closed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = closed
}

// Orders returns the filled orders in submission order
func (g *Gateway) Orders() []domain.OrderResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.OrderResult, len(g.orders))
	copy(out, g.orders)
	return out
}

// Cash returns the current cash balance
func (g *Gateway) Cash() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cash
}

// GetHistory returns the configured bars, or a synthetic series around the
// current price when none were set.
func (g *Gateway) GetHistory(ctx context.Context, ticker string, class domain.AssetClass, window domain.HistoryWindow) ([]domain.Bar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if bars, ok := g.history[ticker]; ok {
		out := make([]domain.Bar, len(bars))
		copy(out, bars)
		return out, nil
	}
	price, ok := g.prices[ticker]
	if !ok {
		return nil, fmt.Errorf("unknown paper ticker %s", ticker)
	}
	return synthesize(ticker, price.InexactFloat64(), window, g.now()), nil
}

// GetLatestPrice returns the configured price
func (g *Gateway) GetLatestPrice(ctx context.Context, ticker string, class domain.AssetClass) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.prices[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("no paper price for %s", ticker)
	}
	return price, nil
}

// GetPositions returns non-empty holdings of the class in seed order
func (g *Gateway) GetPositions(ctx context.Context, class domain.AssetClass) ([]domain.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []domain.Position
	for _, ticker := range g.order {
		h := g.holdings[ticker]
		if h.AssetClass != class || !h.Quantity.IsPositive() {
			continue
		}
		out = append(out, domain.Position{
			Ticker:     h.Ticker,
			Name:       h.Name,
			AssetClass: h.AssetClass,
			Quantity:   h.Quantity,
			Price:      g.prices[ticker],
		})
	}
	return out, nil
}

// GetBuyingPower returns the cash balance
func (g *Gateway) GetBuyingPower(ctx context.Context) (decimal.Decimal, error) {
	return g.Cash(), nil
}

// SubmitMarketOrder fills the order at the latest price
func (g *Gateway) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, &domain.MarketClosedError{Ticker: req.Ticker, Side: req.Side, Err: ErrMarketClosed}
	}
	if err, ok := g.failures[req.Ticker]; ok {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("order quantity must be positive, got %s", req.Quantity)
	}
	price, ok := g.prices[req.Ticker]
	if !ok {
		return nil, fmt.Errorf("no paper price for %s", req.Ticker)
	}

	notional := req.Quantity.Mul(price)
	h, held := g.holdings[req.Ticker]

	switch req.Side {
	case domain.SideBuy:
		// sub-cent overshoot comes from rounding the quantity
		if notional.Round(2).GreaterThan(g.cash) {
			return nil, fmt.Errorf("insufficient paper cash: need %s, have %s", notional.StringFixed(2), g.cash.StringFixed(2))
		}
		g.cash = g.cash.Sub(notional)
		if !held {
			h = &Holding{Ticker: req.Ticker, Name: req.Ticker, AssetClass: req.AssetClass}
			g.holdings[req.Ticker] = h
			g.order = append(g.order, req.Ticker)
		}
		h.Quantity = h.Quantity.Add(req.Quantity)
	case domain.SideSell:
		if !held || req.Quantity.GreaterThan(h.Quantity) {
			return nil, fmt.Errorf("cannot sell %s %s: position too small", req.Quantity, req.Ticker)
		}
		h.Quantity = h.Quantity.Sub(req.Quantity)
		g.cash = g.cash.Add(notional)
	default:
		return nil, fmt.Errorf("unknown order side %q", req.Side)
	}

	result := domain.OrderResult{
		OrderID:     uuid.NewString(),
		Ticker:      req.Ticker,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Status:      "filled",
		SubmittedAt: g.now(),
	}
	g.orders = append(g.orders, result)

	g.log.Debug().
		Str("side", string(req.Side)).
		Str("ticker", req.Ticker).
		Str("quantity", req.Quantity.String()).
		Str("price", price.String()).
		Msg("Paper order filled")

	return &result, nil
}

// synthesize builds a deterministic oscillating series ending at price.
// The phase is derived from the ticker so different assets disagree.
func synthesize(ticker string, price float64, window domain.HistoryWindow, end time.Time) []domain.Bar {
	step := window.Interval.Duration()
	if step == 0 {
		step = time.Hour
	}
	n := int(end.Sub(window.Span.Start(end)) / step)
	if n < 2 {
		n = 2
	}
	if n > 500 {
		n = 500
	}

	phase := 0.0
	for _, r := range ticker {
		phase += float64(r)
	}

	closes := make([]float64, n)
	for i := range closes {
		age := float64(n - 1 - i)
		closes[i] = price * (1 + 0.03*(math.Sin(age/7+phase)-math.Sin(phase)) + 0.0005*age)
	}

	bars := make([]domain.Bar, n)
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = domain.Bar{
			Timestamp: end.Add(-time.Duration(n-1-i) * step),
			Open:      open,
			High:      math.Max(open, c) * 1.002,
			Low:       math.Min(open, c) * 0.998,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}
