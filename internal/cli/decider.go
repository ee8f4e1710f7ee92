package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/rebalancing"
)

const (
	sellModeFull     = "full"
	sellModeFraction = "fraction"
)

// SurveyDecider answers rebalancing decisions through terminal prompts.
// It implements rebalancing.Decider.
type SurveyDecider struct {
	ask askFunc
	out io.Writer
}

// NewSurveyDecider creates a decider that prompts on the terminal and
// writes shortfall messages to out
func NewSurveyDecider(out io.Writer) *SurveyDecider {
	return &SurveyDecider{ask: survey.AskOne, out: out}
}

// ConfirmBuy asks whether to add to a position that is not expected to fall
func (d *SurveyDecider) ConfirmBuy(ctx context.Context, pos domain.Position) (bool, error) {
	return askConfirm(d.ask, fmt.Sprintf("Do you want to buy more %s%s?", pos.AssetClass.HoldingNoun(), pos.DisplayName()))
}

// BuyAmount asks for the dollar amount to invest
func (d *SurveyDecider) BuyAmount(ctx context.Context, pos domain.Position, buyingPower decimal.Decimal) (decimal.Decimal, error) {
	return askDecimal(d.ask,
		fmt.Sprintf("Enter the amount of dollars to invest in %s:", pos.DisplayName()),
		"Available buying power is "+money(buyingPower))
}

// ConfirmFunding reports the shortfall and asks whether to sell other assets to cover it
func (d *SurveyDecider) ConfirmFunding(ctx context.Context, target domain.Position, shortfall decimal.Decimal) (bool, error) {
	fmt.Fprintln(d.out, warnStyle.Render(fmt.Sprintf("Insufficient buying power, %s short.", money(shortfall))))
	return askConfirm(d.ask, "Do you want to sell a certain number of dollars of one of your assets?")
}

// FundingSellAmount asks how many dollars of source to sell toward the shortfall
func (d *SurveyDecider) FundingSellAmount(ctx context.Context, source domain.Position, sellable decimal.Decimal) (decimal.Decimal, error) {
	return askDecimal(d.ask,
		fmt.Sprintf("Enter the amount of dollars to sell from %s:", source.DisplayName()),
		"At most "+money(sellable)+". Enter 0 to skip this asset.")
}

// ConfirmSell asks whether to sell a position that is expected to fall
func (d *SurveyDecider) ConfirmSell(ctx context.Context, pos domain.Position) (bool, error) {
	return askConfirm(d.ask, fmt.Sprintf("Do you want to sell %s%s?", pos.AssetClass.HoldingNoun(), pos.DisplayName()))
}

// SellMode asks for a full sell or a fractional one. An unrecognized answer sells nothing.
func (d *SurveyDecider) SellMode(ctx context.Context, pos domain.Position) (rebalancing.SellMode, error) {
	var answer string
	prompt := &survey.Select{
		Message: "Sell fully or specify a fraction?",
		Options: []string{sellModeFull, sellModeFraction},
		Default: sellModeFull,
	}
	if err := d.ask(prompt, &answer); err != nil {
		return rebalancing.SellNone, err
	}
	switch answer {
	case sellModeFull:
		return rebalancing.SellFull, nil
	case sellModeFraction:
		return rebalancing.SellFraction, nil
	default:
		return rebalancing.SellNone, nil
	}
}

// SellFraction asks for the fraction of the position to sell
func (d *SurveyDecider) SellFraction(ctx context.Context, pos domain.Position) (decimal.Decimal, error) {
	return askDecimal(d.ask,
		fmt.Sprintf("Enter the fraction of %s to sell (0-1):", pos.DisplayName()),
		"0.5 sells half of the position")
}

// ConsoleObserver prints steps and notices as the pass produces them
type ConsoleObserver struct {
	out io.Writer
}

// NewConsoleObserver creates an observer writing to out
func NewConsoleObserver(out io.Writer) *ConsoleObserver {
	return &ConsoleObserver{out: out}
}

// ObserveStep implements rebalancing.Observer
func (o *ConsoleObserver) ObserveStep(step rebalancing.PlanStep) {
	PrintStep(o.out, step)
}

// ObserveNotice implements rebalancing.Observer. Notices that a prompt or a
// step line already shows are not printed again.
func (o *ConsoleObserver) ObserveNotice(n rebalancing.Notice) {
	switch n.Kind {
	case rebalancing.NoticeInsufficientFunds:
		// announced by the funding prompt
		return
	case rebalancing.NoticeOrderFailed, rebalancing.NoticeOrderRejected, rebalancing.NoticeDataError:
		// already on the step line
		return
	}
	PrintNotice(o.out, n)
}
