package rebalancing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// Executor submits market orders for a pass. It prices every order at the
// latest quote, validates it, and keeps the ledger and holdings in step with
// what was actually submitted.
type Executor struct {
	gateway  domain.BrokerGateway
	ledger   *Ledger
	holdings *Holdings
	now      func() time.Time
	log      zerolog.Logger
}

// NewExecutor creates an executor bound to one pass's ledger and holdings
func NewExecutor(gateway domain.BrokerGateway, ledger *Ledger, holdings *Holdings, log zerolog.Logger) *Executor {
	return &Executor{
		gateway:  gateway,
		ledger:   ledger,
		holdings: holdings,
		now:      time.Now,
		log:      log.With().Str("component", "executor").Logger(),
	}
}

// Buy invests amount dollars in pos. A failed or rejected buy leaves buying power unchanged.
func (e *Executor) Buy(ctx context.Context, pos domain.Position, amount decimal.Decimal, purpose StepPurpose) PlanStep {
	step := e.newStep(domain.SideBuy, pos, purpose)
	step.Amount = amount

	price, err := e.latestPrice(ctx, pos)
	if err != nil {
		return e.fail(step, err)
	}
	step.Price = price

	if !amount.IsPositive() {
		return e.reject(step, domain.ErrNonPositiveAmount)
	}
	if !e.ledger.CanAfford(amount) {
		return e.reject(step, fmt.Errorf("buy of %s exceeds buying power %s", amount.StringFixed(2), e.ledger.Available().StringFixed(2)))
	}

	step.Quantity = OrderQuantity(amount, price)
	if !step.Quantity.IsPositive() {
		return e.reject(step, fmt.Errorf("amount %s buys no units at %s", amount.StringFixed(2), price.String()))
	}

	result, err := e.submit(ctx, pos, domain.SideBuy, step.Quantity)
	if err != nil {
		return e.fail(step, err)
	}
	e.ledger.Debit(amount)
	return e.accept(step, result)
}

// SellAmount sells amount dollars of pos
func (e *Executor) SellAmount(ctx context.Context, pos domain.Position, amount decimal.Decimal, purpose StepPurpose) PlanStep {
	return e.sell(ctx, pos, purpose, func(decimal.Decimal, decimal.Decimal) decimal.Decimal {
		return amount
	})
}

// SellAll sells the whole unsold quantity of pos at the latest price
func (e *Executor) SellAll(ctx context.Context, pos domain.Position) PlanStep {
	return e.sell(ctx, pos, PurposeRebalance, func(price, remaining decimal.Decimal) decimal.Decimal {
		return remaining.Mul(price)
	})
}

// SellFraction sells fraction of the unsold quantity of pos at the latest price
func (e *Executor) SellFraction(ctx context.Context, pos domain.Position, fraction decimal.Decimal) PlanStep {
	return e.sell(ctx, pos, PurposeRebalance, func(price, remaining decimal.Decimal) decimal.Decimal {
		return FractionAmount(remaining, fraction, price)
	})
}

func (e *Executor) sell(ctx context.Context, pos domain.Position, purpose StepPurpose, amountAt func(price, remaining decimal.Decimal) decimal.Decimal) PlanStep {
	step := e.newStep(domain.SideSell, pos, purpose)

	price, err := e.latestPrice(ctx, pos)
	if err != nil {
		return e.fail(step, err)
	}
	step.Price = price

	remaining := e.holdings.Remaining(pos.Ticker)
	step.Amount = amountAt(price, remaining)

	// Checked against the real-time value before anything is submitted
	if err := CheckSell(step.Amount, remaining.Mul(price)); err != nil {
		return e.reject(step, err)
	}

	step.Quantity = decimal.Min(OrderQuantity(step.Amount, price), remaining)
	if !step.Quantity.IsPositive() {
		return e.reject(step, domain.ErrNonPositiveAmount)
	}

	result, err := e.submit(ctx, pos, domain.SideSell, step.Quantity)
	if err != nil {
		return e.fail(step, err)
	}
	e.ledger.Credit(step.Amount)
	e.holdings.Reduce(pos.Ticker, step.Quantity)
	return e.accept(step, result)
}

func (e *Executor) latestPrice(ctx context.Context, pos domain.Position) (decimal.Decimal, error) {
	price, err := e.gateway.GetLatestPrice(ctx, pos.Ticker, pos.AssetClass)
	if err != nil {
		return decimal.Zero, &domain.DataError{Ticker: pos.Ticker, Op: "get latest price", Err: err}
	}
	if !price.IsPositive() {
		return decimal.Zero, &domain.DataError{Ticker: pos.Ticker, Op: "get latest price", Err: fmt.Errorf("non-positive price %s", price)}
	}
	return price, nil
}

func (e *Executor) submit(ctx context.Context, pos domain.Position, side domain.Side, quantity decimal.Decimal) (*domain.OrderResult, error) {
	result, err := e.gateway.SubmitMarketOrder(ctx, domain.OrderRequest{
		Ticker:     pos.Ticker,
		AssetClass: pos.AssetClass,
		Side:       side,
		Quantity:   quantity,
	})
	if err != nil {
		var closed *domain.MarketClosedError
		if errors.As(err, &closed) {
			return nil, err
		}
		return nil, &domain.MarketClosedError{Ticker: pos.Ticker, Side: side, Err: err}
	}
	return result, nil
}

func (e *Executor) newStep(side domain.Side, pos domain.Position, purpose StepPurpose) PlanStep {
	return PlanStep{
		Action:    side,
		Ticker:    pos.Ticker,
		Name:      pos.Name,
		Purpose:   purpose,
		Timestamp: e.now(),
	}
}

func (e *Executor) accept(step PlanStep, result *domain.OrderResult) PlanStep {
	step.Status = StatusSubmitted
	if result != nil {
		step.OrderID = result.OrderID
	}
	e.log.Info().
		Str("side", string(step.Action)).
		Str("ticker", step.Ticker).
		Str("amount", step.Amount.StringFixed(2)).
		Str("quantity", step.Quantity.String()).
		Str("order_id", step.OrderID).
		Str("buying_power", e.ledger.Available().StringFixed(2)).
		Msg("Order submitted")
	return step
}

func (e *Executor) reject(step PlanStep, err error) PlanStep {
	step.Status = StatusRejected
	step.Err = err
	e.log.Warn().
		Err(err).
		Str("side", string(step.Action)).
		Str("ticker", step.Ticker).
		Str("amount", step.Amount.StringFixed(2)).
		Msg("Order rejected before submission")
	return step
}

func (e *Executor) fail(step PlanStep, err error) PlanStep {
	step.Status = StatusFailed
	step.Err = err
	e.log.Error().
		Err(err).
		Str("side", string(step.Action)).
		Str("ticker", step.Ticker).
		Str("amount", step.Amount.StringFixed(2)).
		Msg("Order failed")
	return step
}
