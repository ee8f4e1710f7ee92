package testing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// MockBrokerGateway is a testify mock of domain.BrokerGateway
type MockBrokerGateway struct {
	mock.Mock
}

// GetHistory returns the bars registered for the ticker
func (m *MockBrokerGateway) GetHistory(ctx context.Context, ticker string, class domain.AssetClass, window domain.HistoryWindow) ([]domain.Bar, error) {
	args := m.Called(ctx, ticker, class, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bar), args.Error(1)
}

// GetLatestPrice returns the price registered for the ticker
func (m *MockBrokerGateway) GetLatestPrice(ctx context.Context, ticker string, class domain.AssetClass) (decimal.Decimal, error) {
	args := m.Called(ctx, ticker, class)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// GetPositions returns the registered holdings
func (m *MockBrokerGateway) GetPositions(ctx context.Context, class domain.AssetClass) ([]domain.Position, error) {
	args := m.Called(ctx, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Position), args.Error(1)
}

// GetBuyingPower returns the registered cash balance
func (m *MockBrokerGateway) GetBuyingPower(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// SubmitMarketOrder records the order and returns the registered result
func (m *MockBrokerGateway) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderResult), args.Error(1)
}

// MockSignalObserver is a testify mock for anything that records signals
type MockSignalObserver struct {
	mock.Mock
}

// ObserveSignal records the call
func (m *MockSignalObserver) ObserveSignal(ctx context.Context, signal domain.Signal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}
