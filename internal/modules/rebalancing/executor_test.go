package rebalancing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradeadvisor/internal/domain"
	testingpkg "github.com/aristath/tradeadvisor/internal/testing"
)

func newTestExecutor(gateway domain.BrokerGateway, buyingPower string, positions ...domain.Position) (*Executor, *Ledger, *Holdings) {
	ledger := NewLedger(dec(buyingPower))
	holdings := NewHoldings(positions)
	return NewExecutor(gateway, ledger, holdings, zerolog.Nop()), ledger, holdings
}

func TestExecutorBuy(t *testing.T) {
	ctx := context.Background()
	pos := testingpkg.NewPositionFixture("AAPL", "Apple", domain.Equity, "1", "50")

	t.Run("submits quantity at latest price and debits", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("40"), nil).Once()
		gw.On("SubmitMarketOrder", ctx, mock.MatchedBy(func(req domain.OrderRequest) bool {
			return req.Side == domain.SideBuy && req.Quantity.Equal(dec("2.5"))
		})).Return(&domain.OrderResult{OrderID: "ord-1"}, nil).Once()

		exec, ledger, _ := newTestExecutor(gw, "150", pos)
		step := exec.Buy(ctx, pos, dec("100"), PurposeRebalance)

		assert.Equal(t, StatusSubmitted, step.Status)
		assert.Equal(t, "ord-1", step.OrderID)
		assert.True(t, step.Price.Equal(dec("40")))
		assert.True(t, ledger.Available().Equal(dec("50")))
		gw.AssertExpectations(t)
	})

	t.Run("submission failure leaves buying power unchanged", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("40"), nil)
		gw.On("SubmitMarketOrder", ctx, mock.Anything).Return(nil, errors.New("market is closed"))

		exec, ledger, _ := newTestExecutor(gw, "150", pos)
		step := exec.Buy(ctx, pos, dec("100"), PurposeRebalance)

		assert.Equal(t, StatusFailed, step.Status)
		var closed *domain.MarketClosedError
		require.True(t, errors.As(step.Err, &closed))
		assert.Contains(t, step.Err.Error(), "market might be closed")
		assert.True(t, ledger.Available().Equal(dec("150")))
	})

	t.Run("price failure is a data error", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("0"), errors.New("timeout"))

		exec, ledger, _ := newTestExecutor(gw, "150", pos)
		step := exec.Buy(ctx, pos, dec("100"), PurposeRebalance)

		assert.Equal(t, StatusFailed, step.Status)
		var dataErr *domain.DataError
		assert.True(t, errors.As(step.Err, &dataErr))
		assert.True(t, ledger.Available().Equal(dec("150")))
		gw.AssertNotCalled(t, "SubmitMarketOrder", mock.Anything, mock.Anything)
	})

	t.Run("over buying power is rejected", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("40"), nil)

		exec, ledger, _ := newTestExecutor(gw, "50", pos)
		step := exec.Buy(ctx, pos, dec("100"), PurposeRebalance)

		assert.Equal(t, StatusRejected, step.Status)
		assert.True(t, ledger.Available().Equal(dec("50")))
		gw.AssertNotCalled(t, "SubmitMarketOrder", mock.Anything, mock.Anything)
	})
}

func TestExecutorSell(t *testing.T) {
	ctx := context.Background()
	pos := testingpkg.NewPositionFixture("AAPL", "Apple", domain.Equity, "8", "10")

	t.Run("sell amount credits proceeds and reduces holdings", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("10"), nil)
		gw.On("SubmitMarketOrder", ctx, mock.MatchedBy(func(req domain.OrderRequest) bool {
			return req.Side == domain.SideSell && req.Quantity.Equal(dec("3"))
		})).Return(&domain.OrderResult{OrderID: "ord-2"}, nil)

		exec, ledger, holdings := newTestExecutor(gw, "0", pos)
		step := exec.SellAmount(ctx, pos, dec("30"), PurposeFunding)

		assert.Equal(t, StatusSubmitted, step.Status)
		assert.Equal(t, PurposeFunding, step.Purpose)
		assert.True(t, ledger.Available().Equal(dec("30")))
		assert.True(t, holdings.Remaining("AAPL").Equal(dec("5")))
	})

	t.Run("rejected when real-time value dropped below the amount", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("5"), nil)

		exec, ledger, holdings := newTestExecutor(gw, "0", pos)
		step := exec.SellAmount(ctx, pos, dec("80"), PurposeFunding)

		assert.Equal(t, StatusRejected, step.Status)
		assert.ErrorIs(t, step.Err, domain.ErrInvalidSellAmount)
		assert.True(t, ledger.Available().IsZero())
		assert.True(t, holdings.Remaining("AAPL").Equal(dec("8")))
		gw.AssertNotCalled(t, "SubmitMarketOrder", mock.Anything, mock.Anything)
	})

	t.Run("sell all uses the latest price", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("12"), nil)
		gw.On("SubmitMarketOrder", ctx, mock.MatchedBy(func(req domain.OrderRequest) bool {
			return req.Quantity.Equal(dec("8"))
		})).Return(&domain.OrderResult{OrderID: "ord-3"}, nil)

		exec, ledger, holdings := newTestExecutor(gw, "0", pos)
		step := exec.SellAll(ctx, pos)

		assert.Equal(t, StatusSubmitted, step.Status)
		assert.True(t, step.Amount.Equal(dec("96")))
		assert.True(t, ledger.Available().Equal(dec("96")))
		assert.True(t, holdings.Remaining("AAPL").IsZero())
	})

	t.Run("sell fraction", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("10"), nil)
		gw.On("SubmitMarketOrder", ctx, mock.MatchedBy(func(req domain.OrderRequest) bool {
			return req.Quantity.Equal(dec("2"))
		})).Return(&domain.OrderResult{OrderID: "ord-4"}, nil)

		exec, ledger, _ := newTestExecutor(gw, "0", pos)
		step := exec.SellFraction(ctx, pos, dec("0.25"))

		assert.Equal(t, StatusSubmitted, step.Status)
		assert.True(t, ledger.Available().Equal(dec("20")))
	})

	t.Run("zero fraction is rejected", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("10"), nil)

		exec, _, _ := newTestExecutor(gw, "0", pos)
		step := exec.SellFraction(ctx, pos, dec("0"))

		assert.Equal(t, StatusRejected, step.Status)
		assert.ErrorIs(t, step.Err, domain.ErrNonPositiveAmount)
	})

	t.Run("failed sell does not credit", func(t *testing.T) {
		gw := new(testingpkg.MockBrokerGateway)
		gw.On("GetLatestPrice", ctx, "AAPL", domain.Equity).Return(dec("10"), nil)
		gw.On("SubmitMarketOrder", ctx, mock.Anything).Return(nil, errors.New("rejected by broker"))

		exec, ledger, holdings := newTestExecutor(gw, "0", pos)
		step := exec.SellAll(ctx, pos)

		assert.Equal(t, StatusFailed, step.Status)
		assert.True(t, ledger.Available().IsZero())
		assert.True(t, holdings.Remaining("AAPL").Equal(dec("8")))
	})
}
