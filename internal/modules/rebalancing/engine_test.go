package rebalancing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradeadvisor/internal/clients/paper"
	"github.com/aristath/tradeadvisor/internal/domain"
)

// scriptedDecider answers every prompt from fixed tables
type scriptedDecider struct {
	confirmBuy     map[string]bool
	buyAmount      map[string]decimal.Decimal
	confirmFunding bool
	fundingAmount  map[string]decimal.Decimal
	confirmSell    map[string]bool
	sellMode       map[string]SellMode
	sellFraction   map[string]decimal.Decimal
	err            error

	fundingAsked []string
}

func (d *scriptedDecider) ConfirmBuy(ctx context.Context, pos domain.Position) (bool, error) {
	return d.confirmBuy[pos.Ticker], d.err
}

func (d *scriptedDecider) BuyAmount(ctx context.Context, pos domain.Position, buyingPower decimal.Decimal) (decimal.Decimal, error) {
	return d.buyAmount[pos.Ticker], nil
}

func (d *scriptedDecider) ConfirmFunding(ctx context.Context, target domain.Position, shortfall decimal.Decimal) (bool, error) {
	return d.confirmFunding, nil
}

func (d *scriptedDecider) FundingSellAmount(ctx context.Context, source domain.Position, sellable decimal.Decimal) (decimal.Decimal, error) {
	d.fundingAsked = append(d.fundingAsked, source.Ticker)
	if amount, ok := d.fundingAmount[source.Ticker]; ok {
		return amount, nil
	}
	return sellable, nil
}

func (d *scriptedDecider) ConfirmSell(ctx context.Context, pos domain.Position) (bool, error) {
	return d.confirmSell[pos.Ticker], d.err
}

func (d *scriptedDecider) SellMode(ctx context.Context, pos domain.Position) (SellMode, error) {
	return d.sellMode[pos.Ticker], nil
}

func (d *scriptedDecider) SellFraction(ctx context.Context, pos domain.Position) (decimal.Decimal, error) {
	return d.sellFraction[pos.Ticker], nil
}

type recordingObserver struct {
	steps   []PlanStep
	notices []Notice
}

func (o *recordingObserver) ObserveStep(step PlanStep)     { o.steps = append(o.steps, step) }
func (o *recordingObserver) ObserveNotice(notice Notice) { o.notices = append(o.notices, notice) }

// fundingAccount holds a buy target first, then three funding sources worth 80, 100 and 50
func fundingAccount() paper.Account {
	return paper.Account{
		Cash: dec("100"),
		Holdings: []paper.Holding{
			{Ticker: "TGT", Name: "Target", AssetClass: domain.Equity, Quantity: dec("1"), Price: dec("50")},
			{Ticker: "AAA", Name: "Alpha", AssetClass: domain.Equity, Quantity: dec("8"), Price: dec("10")},
			{Ticker: "BBB", Name: "Beta", AssetClass: domain.Equity, Quantity: dec("5"), Price: dec("20")},
			{Ticker: "CCC", Name: "Gamma", AssetClass: domain.Equity, Quantity: dec("10"), Price: dec("5")},
		},
	}
}

func snapshot(t *testing.T, gw *paper.Gateway) ([]domain.Position, decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	positions, err := gw.GetPositions(ctx, domain.Equity)
	require.NoError(t, err)
	bp, err := gw.GetBuyingPower(ctx)
	require.NoError(t, err)
	return positions, bp
}

func hasNotice(r *Report, kind NoticeKind, ticker string) bool {
	for _, n := range r.Notices {
		if n.Kind == kind && n.Ticker == ticker {
			return true
		}
	}
	return false
}

func assertBuysWithinLedger(t *testing.T, r *Report) {
	t.Helper()
	cash := r.StartingBuyingPower
	for _, s := range r.Plan {
		if !s.Succeeded() {
			continue
		}
		if s.Action == domain.SideBuy {
			assert.True(t, s.Amount.LessThanOrEqual(cash), "buy of %s exceeds %s", s.Amount, cash)
			cash = cash.Sub(s.Amount)
		} else {
			cash = cash.Add(s.Amount)
		}
	}
	assert.True(t, cash.Equal(r.EndingBuyingPower))
}

func TestEngineFundsBuyFromOtherPositions(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmBuy:     map[string]bool{"TGT": true},
		buyAmount:      map[string]decimal.Decimal{"TGT": dec("250")},
		confirmFunding: true,
	}
	obs := &recordingObserver{}
	engine := NewEngine(gw, decider, zerolog.Nop())
	engine.AddObserver(obs)

	report, err := engine.Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT", ExpectedFall: false},
	}, bp)
	require.NoError(t, err)

	submitted := report.Submitted()
	require.Len(t, submitted, 3)
	assert.Equal(t, domain.SideSell, submitted[0].Action)
	assert.Equal(t, "AAA", submitted[0].Ticker)
	assert.Equal(t, PurposeFunding, submitted[0].Purpose)
	assert.Equal(t, domain.SideSell, submitted[1].Action)
	assert.Equal(t, "BBB", submitted[1].Ticker)
	assert.Equal(t, domain.SideBuy, submitted[2].Action)
	assert.Equal(t, "TGT", submitted[2].Ticker)
	assert.True(t, submitted[2].Amount.Equal(dec("250")))

	// Funding stops once the buy is affordable
	assert.Equal(t, []string{"AAA", "BBB"}, decider.fundingAsked)
	assert.True(t, report.EndingBuyingPower.Equal(dec("30")))
	assert.True(t, hasNotice(report, NoticeInsufficientFunds, "TGT"))
	assertBuysWithinLedger(t, report)

	assert.Len(t, obs.steps, 3)
	assert.Equal(t, report.Notices, obs.notices)
	assert.True(t, gw.Cash().Equal(dec("30")))
}

func TestEngineAbortsFundingOnOverValueRequest(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmBuy:     map[string]bool{"TGT": true},
		buyAmount:      map[string]decimal.Decimal{"TGT": dec("250")},
		confirmFunding: true,
		fundingAmount:  map[string]decimal.Decimal{"AAA": dec("90")},
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
	}, bp)
	require.NoError(t, err)

	assert.Empty(t, report.Plan)
	assert.Equal(t, []string{"AAA"}, decider.fundingAsked)
	assert.True(t, hasNotice(report, NoticeInvalidSellAmount, "AAA"))
	assert.True(t, report.EndingBuyingPower.Equal(dec("100")))
	assert.Empty(t, gw.Orders())
}

func TestEngineFundingExhausted(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmBuy:     map[string]bool{"TGT": true},
		buyAmount:      map[string]decimal.Decimal{"TGT": dec("1000")},
		confirmFunding: true,
		fundingAmount:  map[string]decimal.Decimal{"BBB": dec("0")},
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
	}, bp)
	require.NoError(t, err)

	// AAA and CCC are sold, BBB is skipped, the buy never happens
	submitted := report.Submitted()
	require.Len(t, submitted, 2)
	assert.Equal(t, "AAA", submitted[0].Ticker)
	assert.Equal(t, "CCC", submitted[1].Ticker)
	assert.True(t, hasNotice(report, NoticeFundingExhausted, "TGT"))
	assert.True(t, report.EndingBuyingPower.Equal(dec("230")))
	assertBuysWithinLedger(t, report)
}

func TestEngineDeclinedFundingDoesNothing(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmBuy: map[string]bool{"TGT": true},
		buyAmount:  map[string]decimal.Decimal{"TGT": dec("250")},
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
	}, bp)
	require.NoError(t, err)

	assert.Empty(t, report.Plan)
	assert.Empty(t, decider.fundingAsked)
	assert.True(t, hasNotice(report, NoticeInsufficientFunds, "TGT"))
}

func TestEngineDirectBuyAndSkip(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmBuy: map[string]bool{"TGT": true, "AAA": true},
		buyAmount:  map[string]decimal.Decimal{"TGT": dec("50"), "AAA": dec("0")},
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
		"AAA": {Ticker: "AAA"},
	}, bp)
	require.NoError(t, err)

	require.Len(t, report.Submitted(), 1)
	assert.True(t, report.Submitted()[0].Quantity.Equal(dec("1")))
	assert.True(t, hasNotice(report, NoticeSkipped, "AAA"))
	assert.True(t, hasNotice(report, NoticeNoSignal, "BBB"))
	assert.True(t, report.EndingBuyingPower.Equal(dec("50")))
}

func TestEngineMarketClosedLeavesBuyingPower(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	gw.SetMarketClosed(true)
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmBuy: map[string]bool{"TGT": true},
		buyAmount:  map[string]decimal.Decimal{"TGT": dec("50")},
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
	}, bp)
	require.NoError(t, err)

	require.Len(t, report.Plan, 1)
	assert.Equal(t, StatusFailed, report.Plan[0].Status)
	assert.True(t, hasNotice(report, NoticeOrderFailed, "TGT"))
	assert.True(t, report.EndingBuyingPower.Equal(dec("100")))
	assert.Empty(t, report.Submitted())
}

func TestEnginePriceFailureIsNotMarketClosed(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	gw.SetPrice("TGT", decimal.Zero)
	decider := &scriptedDecider{
		confirmBuy: map[string]bool{"TGT": true},
		buyAmount:  map[string]decimal.Decimal{"TGT": dec("50")},
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
	}, bp)
	require.NoError(t, err)

	require.Len(t, report.Plan, 1)
	assert.Equal(t, StatusFailed, report.Plan[0].Status)
	var dataErr *domain.DataError
	assert.True(t, errors.As(report.Plan[0].Err, &dataErr))
	assert.True(t, hasNotice(report, NoticeDataError, "TGT"))
	assert.False(t, hasNotice(report, NoticeOrderFailed, "TGT"))
	assert.True(t, report.EndingBuyingPower.Equal(dec("100")))
	assert.Empty(t, gw.Orders())
}

func TestEngineFailedFundingSellContinues(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	gw.FailOrders("AAA", errors.New("halted"))
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmBuy:     map[string]bool{"TGT": true},
		buyAmount:      map[string]decimal.Decimal{"TGT": dec("200")},
		confirmFunding: true,
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
	}, bp)
	require.NoError(t, err)

	assert.True(t, hasNotice(report, NoticeOrderFailed, "AAA"))
	submitted := report.Submitted()
	require.Len(t, submitted, 2)
	assert.Equal(t, "BBB", submitted[0].Ticker)
	assert.Equal(t, "TGT", submitted[1].Ticker)
	assert.True(t, report.EndingBuyingPower.Equal(dec("0")))
	assertBuysWithinLedger(t, report)
}

func TestEngineRejectsSellAboveRealTimeValue(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	// AAA halves after the snapshot: 80 requested, only 40 sellable now
	gw.SetPrice("AAA", dec("5"))
	decider := &scriptedDecider{
		confirmBuy:     map[string]bool{"TGT": true},
		buyAmount:      map[string]decimal.Decimal{"TGT": dec("150")},
		confirmFunding: true,
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
	}, bp)
	require.NoError(t, err)

	require.NotEmpty(t, report.Plan)
	assert.Equal(t, StatusRejected, report.Plan[0].Status)
	assert.ErrorIs(t, report.Plan[0].Err, domain.ErrInvalidSellAmount)
	assert.True(t, hasNotice(report, NoticeOrderRejected, "AAA"))

	submitted := report.Submitted()
	require.Len(t, submitted, 2)
	assert.Equal(t, "BBB", submitted[0].Ticker)
	assert.Equal(t, "TGT", submitted[1].Ticker)
	assertBuysWithinLedger(t, report)
}

func TestEngineSells(t *testing.T) {
	signals := map[string]domain.Signal{
		"AAA": {Ticker: "AAA", ExpectedFall: true},
		"BBB": {Ticker: "BBB", ExpectedFall: true},
		"CCC": {Ticker: "CCC", ExpectedFall: true},
	}
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{
		confirmSell:  map[string]bool{"AAA": true, "BBB": true, "CCC": true},
		sellMode:     map[string]SellMode{"AAA": SellFull, "BBB": SellFraction, "CCC": SellFraction},
		sellFraction: map[string]decimal.Decimal{"BBB": dec("0.4"), "CCC": dec("1.5")},
	}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, signals, bp)
	require.NoError(t, err)

	submitted := report.Submitted()
	require.Len(t, submitted, 2)
	assert.True(t, submitted[0].Quantity.Equal(dec("8")))
	assert.True(t, submitted[1].Quantity.Equal(dec("2")))
	assert.True(t, hasNotice(report, NoticeInvalidFraction, "CCC"))
	// Every successful sell credits buying power
	assert.True(t, report.EndingBuyingPower.Equal(dec("220")))
	assertBuysWithinLedger(t, report)
}

func TestEngineDeciderErrorStopsPass(t *testing.T) {
	gw := paper.NewGateway(fundingAccount(), zerolog.Nop())
	positions, bp := snapshot(t, gw)
	decider := &scriptedDecider{err: errors.New("interrupted")}

	report, err := NewEngine(gw, decider, zerolog.Nop()).Run(context.Background(), positions, map[string]domain.Signal{
		"TGT": {Ticker: "TGT"},
		"AAA": {Ticker: "AAA", ExpectedFall: true},
	}, bp)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TGT")
	require.NotNil(t, report)
	assert.Empty(t, report.Plan)
}
