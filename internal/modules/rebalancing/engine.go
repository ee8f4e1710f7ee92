package rebalancing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// Engine runs interactive rebalancing passes
type Engine struct {
	gateway   domain.BrokerGateway
	decider   Decider
	observers []Observer
	log       zerolog.Logger
}

// NewEngine creates a rebalancing engine
func NewEngine(gateway domain.BrokerGateway, decider Decider, log zerolog.Logger) *Engine {
	return &Engine{
		gateway: gateway,
		decider: decider,
		log:     log.With().Str("service", "rebalancing").Logger(),
	}
}

// AddObserver registers an observer for steps and notices
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// pass holds the mutable state of one run
type pass struct {
	positions []domain.Position
	ledger    *Ledger
	holdings  *Holdings
	executor  *Executor
	report    *Report
}

// Run walks the snapshot once, in order, resolving each candidate (including
// any funding it needs) before moving on. Positions are not re-fetched; cash
// moves only through the pass ledger. A decider error stops the pass and is
// returned together with the partial report.
func (e *Engine) Run(ctx context.Context, positions []domain.Position, signals map[string]domain.Signal, buyingPower decimal.Decimal) (*Report, error) {
	ledger := NewLedger(buyingPower)
	holdings := NewHoldings(positions)
	p := &pass{
		positions: positions,
		ledger:    ledger,
		holdings:  holdings,
		executor:  NewExecutor(e.gateway, ledger, holdings, e.log),
		report:    &Report{StartingBuyingPower: buyingPower},
	}

	e.log.Info().
		Int("positions", len(positions)).
		Int("signals", len(signals)).
		Str("buying_power", buyingPower.StringFixed(2)).
		Msg("Starting rebalancing pass")

	for _, pos := range positions {
		if _, ok := signals[pos.Ticker]; !ok {
			e.notice(p, Notice{Kind: NoticeNoSignal, Ticker: pos.Ticker,
				Message: fmt.Sprintf("No signal for %s, skipping", pos.DisplayName())})
		}
	}

	var runErr error
	for _, c := range Propose(positions, signals) {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		var err error
		if c.Action == domain.SideBuy {
			err = e.handleBuy(ctx, p, c.Position)
		} else {
			err = e.handleSell(ctx, p, c.Position)
		}
		if err != nil {
			runErr = fmt.Errorf("rebalancing stopped at %s: %w", c.Position.Ticker, err)
			break
		}
	}

	p.report.EndingBuyingPower = ledger.Available()

	e.log.Info().
		Int("orders", len(p.report.Submitted())).
		Int("attempts", len(p.report.Plan)).
		Str("buying_power", p.report.EndingBuyingPower.StringFixed(2)).
		Msg("Rebalancing pass finished")

	return p.report, runErr
}

func (e *Engine) handleBuy(ctx context.Context, p *pass, pos domain.Position) error {
	ok, err := e.decider.ConfirmBuy(ctx, pos)
	if err != nil || !ok {
		return err
	}

	amount, err := e.decider.BuyAmount(ctx, pos, p.ledger.Available())
	if err != nil {
		return err
	}

	switch ResolveBuy(amount, p.ledger.Available()) {
	case BuySkip:
		e.notice(p, Notice{Kind: NoticeSkipped, Ticker: pos.Ticker,
			Message: fmt.Sprintf("Nothing to invest in %s", pos.DisplayName())})
		return nil
	case BuyDirect:
		e.record(p, p.executor.Buy(ctx, pos, amount, PurposeRebalance))
		return nil
	}

	shortfall := amount.Sub(p.ledger.Available())
	e.notice(p, Notice{Kind: NoticeInsufficientFunds, Ticker: pos.Ticker,
		Message: "Insufficient buying power. Consider selling some assets."})

	ok, err = e.decider.ConfirmFunding(ctx, pos, shortfall)
	if err != nil || !ok {
		return err
	}
	return e.fund(ctx, p, pos, amount)
}

// fund sells from the other positions until buying power covers amount, then
// buys. An over-value sell request ends funding for this buy.
func (e *Engine) fund(ctx context.Context, p *pass, target domain.Position, amount decimal.Decimal) error {
	for _, source := range FundingSources(p.positions, target.Ticker) {
		if err := ctx.Err(); err != nil {
			return err
		}

		sellable := p.holdings.Value(source.Ticker, source.Price)
		if !sellable.IsPositive() {
			continue
		}

		sellAmount, err := e.decider.FundingSellAmount(ctx, source, sellable)
		if err != nil {
			return err
		}

		if sellAmount.GreaterThan(sellable) {
			e.notice(p, Notice{Kind: NoticeInvalidSellAmount, Ticker: source.Ticker,
				Message: "Invalid sell amount. Cannot sell more than the asset value."})
			return nil
		}
		if !sellAmount.IsPositive() {
			continue
		}

		e.record(p, p.executor.SellAmount(ctx, source, sellAmount, PurposeFunding))

		if p.ledger.CanAfford(amount) {
			e.record(p, p.executor.Buy(ctx, target, amount, PurposeRebalance))
			return nil
		}
	}

	e.notice(p, Notice{Kind: NoticeFundingExhausted, Ticker: target.Ticker,
		Message: fmt.Sprintf("Could not raise enough buying power to buy %s", target.DisplayName())})
	return nil
}

func (e *Engine) handleSell(ctx context.Context, p *pass, pos domain.Position) error {
	ok, err := e.decider.ConfirmSell(ctx, pos)
	if err != nil || !ok {
		return err
	}

	mode, err := e.decider.SellMode(ctx, pos)
	if err != nil {
		return err
	}

	switch mode {
	case SellFull:
		e.record(p, p.executor.SellAll(ctx, pos))
	case SellFraction:
		fraction, err := e.decider.SellFraction(ctx, pos)
		if err != nil {
			return err
		}
		if !FractionValid(fraction) {
			e.notice(p, Notice{Kind: NoticeInvalidFraction, Ticker: pos.Ticker,
				Message: domain.ErrInvalidFraction.Error()})
			return nil
		}
		e.record(p, p.executor.SellFraction(ctx, pos, fraction))
	}
	return nil
}

func (e *Engine) record(p *pass, step PlanStep) {
	p.report.Plan = append(p.report.Plan, step)
	for _, o := range e.observers {
		o.ObserveStep(step)
	}

	switch step.Status {
	case StatusFailed:
		var closed *domain.MarketClosedError
		if errors.As(step.Err, &closed) {
			e.notice(p, Notice{Kind: NoticeOrderFailed, Ticker: step.Ticker,
				Message: "Error occurred during the transaction. The market might be closed."})
			return
		}
		e.notice(p, Notice{Kind: NoticeDataError, Ticker: step.Ticker,
			Message: fmt.Sprintf("%s %s not placed: %v", step.Action, step.Ticker, step.Err)})
	case StatusRejected:
		e.notice(p, Notice{Kind: NoticeOrderRejected, Ticker: step.Ticker,
			Message: fmt.Sprintf("%s %s rejected: %v", step.Action, step.Ticker, step.Err)})
	}
}

func (e *Engine) notice(p *pass, n Notice) {
	p.report.Notices = append(p.report.Notices, n)
	for _, o := range e.observers {
		o.ObserveNotice(n)
	}
}
