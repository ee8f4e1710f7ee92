package alpaca

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// The fakes and the SDK clients must share the gateway's method sets.
var (
	_ tradingAPI    = (*alpaca.Client)(nil)
	_ marketDataAPI = (*marketdata.Client)(nil)
	_ tradingAPI    = (*fakeTrading)(nil)
	_ marketDataAPI = (*fakeData)(nil)
)

type fakeTrading struct {
	account   *alpaca.Account
	positions []alpaca.Position
	assets    map[string]*alpaca.Asset
	orderErr  error

	assetCalls int
	placed     []alpaca.PlaceOrderRequest
}

func (f *fakeTrading) GetAccount() (*alpaca.Account, error) {
	if f.account == nil {
		return nil, errors.New("unauthorized")
	}
	return f.account, nil
}

func (f *fakeTrading) GetPositions() ([]alpaca.Position, error) {
	return f.positions, nil
}

func (f *fakeTrading) GetAsset(symbol string) (*alpaca.Asset, error) {
	f.assetCalls++
	asset, ok := f.assets[symbol]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return asset, nil
}

func (f *fakeTrading) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	f.placed = append(f.placed, req)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &alpaca.Order{ID: "order-1", Status: "accepted"}, nil
}

type fakeData struct {
	bars        []marketdata.Bar
	cryptoBars  []marketdata.CryptoBar
	price       float64
	barsReq     marketdata.GetBarsRequest
	lastSymbol  string
	cryptoCalls int
}

func (f *fakeData) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.lastSymbol = symbol
	f.barsReq = req
	return f.bars, nil
}

func (f *fakeData) GetCryptoBars(symbol string, req marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error) {
	f.lastSymbol = symbol
	f.cryptoCalls++
	return f.cryptoBars, nil
}

func (f *fakeData) GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error) {
	f.lastSymbol = symbol
	return &marketdata.Trade{Price: f.price}, nil
}

func (f *fakeData) GetLatestCryptoTrade(symbol string, req marketdata.GetLatestCryptoTradeRequest) (*marketdata.CryptoTrade, error) {
	f.lastSymbol = symbol
	return &marketdata.CryptoTrade{Price: f.price}, nil
}

type staticHistory struct {
	bars []domain.Bar
}

func (s staticHistory) GetHistory(ctx context.Context, ticker string, class domain.AssetClass, window domain.HistoryWindow) ([]domain.Bar, error) {
	return s.bars, nil
}

func newTestGateway(t *testing.T, trading *fakeTrading, data *fakeData, opts ...Option) *Gateway {
	t.Helper()
	if trading.account == nil {
		trading.account = &alpaca.Account{AccountNumber: "PA123", Currency: "USD", BuyingPower: decimal.NewFromInt(500)}
	}
	session, err := newSession(trading, data, "iex")
	require.NoError(t, err)
	g := NewGateway(session, zerolog.Nop(), opts...)
	g.now = func() time.Time { return time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC) }
	return g
}

func TestNewSession(t *testing.T) {
	_, err := NewSession(Credentials{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = newSession(&fakeTrading{}, &fakeData{}, "")
	assert.Error(t, err)

	session, err := newSession(&fakeTrading{account: &alpaca.Account{AccountNumber: "PA1", Currency: "USD"}}, &fakeData{}, "")
	require.NoError(t, err)
	assert.Equal(t, "PA1", session.Account)
}

func TestDataSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", DataSymbol("aapl", domain.Equity))
	assert.Equal(t, "BTC/USD", DataSymbol("BTCUSD", domain.Crypto))
	assert.Equal(t, "ETH/USDT", DataSymbol("ETHUSDT", domain.Crypto))
	assert.Equal(t, "ETH/BTC", DataSymbol("ETH/BTC", domain.Crypto))
	assert.Equal(t, "DOGE/USD", DataSymbol("DOGE", domain.Crypto))
	assert.Equal(t, "BTCUSD", PositionSymbol("btc/usd"))
}

func TestGetPositions(t *testing.T) {
	price := decimal.NewFromInt(180)
	btcPrice := decimal.NewFromInt(42000)
	trading := &fakeTrading{
		positions: []alpaca.Position{
			{Symbol: "AAPL", AssetClass: "us_equity", Qty: decimal.NewFromInt(3), CurrentPrice: &price},
			{Symbol: "BTCUSD", AssetClass: "crypto", Qty: decimal.RequireFromString("0.25"), CurrentPrice: &btcPrice},
			{Symbol: "SHORT", AssetClass: "us_equity", Qty: decimal.NewFromInt(-1), CurrentPrice: &price},
		},
		assets: map[string]*alpaca.Asset{"AAPL": {Name: "Apple Inc."}},
	}
	g := newTestGateway(t, trading, &fakeData{})
	ctx := context.Background()

	equities, err := g.GetPositions(ctx, domain.Equity)
	require.NoError(t, err)
	require.Len(t, equities, 1)
	assert.Equal(t, "Apple Inc.", equities[0].Name)
	assert.True(t, equities[0].Value().Equal(decimal.NewFromInt(540)))

	crypto, err := g.GetPositions(ctx, domain.Crypto)
	require.NoError(t, err)
	require.Len(t, crypto, 1)
	assert.Equal(t, "BTCUSD", crypto[0].Name)

	// Names are cached, including failed lookups
	_, _ = g.GetPositions(ctx, domain.Equity)
	_, _ = g.GetPositions(ctx, domain.Crypto)
	assert.Equal(t, 2, trading.assetCalls)
}

func TestGetHistory(t *testing.T) {
	ts := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("equity bars use the configured feed", func(t *testing.T) {
		data := &fakeData{bars: []marketdata.Bar{{Timestamp: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}}}
		g := newTestGateway(t, &fakeTrading{}, data)

		bars, err := g.GetHistory(ctx, "AAPL", domain.Equity, domain.DefaultHistoryWindow)
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, 1.5, bars[0].Close)
		assert.Equal(t, 100.0, bars[0].Volume)
		assert.Equal(t, "iex", data.barsReq.Feed)
		assert.Equal(t, marketdata.OneHour, data.barsReq.TimeFrame)
		assert.Equal(t, time.Date(2024, 2, 1, 16, 0, 0, 0, time.UTC), data.barsReq.Start)
	})

	t.Run("crypto bars use the slash symbol", func(t *testing.T) {
		data := &fakeData{cryptoBars: []marketdata.CryptoBar{{Timestamp: ts, Close: 42000}}}
		g := newTestGateway(t, &fakeTrading{}, data)

		bars, err := g.GetHistory(ctx, "BTCUSD", domain.Crypto, domain.DefaultHistoryWindow)
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, "BTC/USD", data.lastSymbol)
	})

	t.Run("equity history can come from another source", func(t *testing.T) {
		data := &fakeData{}
		source := staticHistory{bars: []domain.Bar{{Close: 7}}}
		g := newTestGateway(t, &fakeTrading{}, data, WithHistorySource(source))

		bars, err := g.GetHistory(ctx, "AAPL", domain.Equity, domain.DefaultHistoryWindow)
		require.NoError(t, err)
		assert.Equal(t, source.bars, bars)
		assert.Empty(t, data.lastSymbol)

		_, err = g.GetHistory(ctx, "ETHUSD", domain.Crypto, domain.DefaultHistoryWindow)
		require.NoError(t, err)
		assert.Equal(t, 1, data.cryptoCalls)
	})

	t.Run("invalid window", func(t *testing.T) {
		g := newTestGateway(t, &fakeTrading{}, &fakeData{})
		_, err := g.GetHistory(ctx, "AAPL", domain.Equity, domain.HistoryWindow{Interval: "fortnight", Span: domain.SpanMonth})
		assert.Error(t, err)
	})
}

func TestGetLatestPriceAndBuyingPower(t *testing.T) {
	ctx := context.Background()
	data := &fakeData{price: 41999.5}
	g := newTestGateway(t, &fakeTrading{}, data)

	price, err := g.GetLatestPrice(ctx, "BTCUSD", domain.Crypto)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("41999.5")))
	assert.Equal(t, "BTC/USD", data.lastSymbol)

	bp, err := g.GetBuyingPower(ctx)
	require.NoError(t, err)
	assert.True(t, bp.Equal(decimal.NewFromInt(500)))
}

func TestSubmitMarketOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("equity buy is a day market order", func(t *testing.T) {
		trading := &fakeTrading{}
		g := newTestGateway(t, trading, &fakeData{})

		res, err := g.SubmitMarketOrder(ctx, domain.OrderRequest{
			Ticker: "AAPL", AssetClass: domain.Equity, Side: domain.SideBuy, Quantity: decimal.RequireFromString("1.5"),
		})
		require.NoError(t, err)
		assert.Equal(t, "order-1", res.OrderID)

		require.Len(t, trading.placed, 1)
		req := trading.placed[0]
		assert.Equal(t, alpaca.Buy, req.Side)
		assert.Equal(t, alpaca.Market, req.Type)
		assert.Equal(t, alpaca.Day, req.TimeInForce)
		assert.True(t, req.Qty.Equal(decimal.RequireFromString("1.5")))
	})

	t.Run("crypto sell is good till cancelled", func(t *testing.T) {
		trading := &fakeTrading{}
		g := newTestGateway(t, trading, &fakeData{})

		_, err := g.SubmitMarketOrder(ctx, domain.OrderRequest{
			Ticker: "ETHUSD", AssetClass: domain.Crypto, Side: domain.SideSell, Quantity: decimal.RequireFromString("0.1"),
		})
		require.NoError(t, err)
		assert.Equal(t, alpaca.Sell, trading.placed[0].Side)
		assert.Equal(t, alpaca.GTC, trading.placed[0].TimeInForce)
		assert.Equal(t, "ETH/USD", trading.placed[0].Symbol)
	})

	t.Run("broker errors become market closed errors", func(t *testing.T) {
		apiErr := &alpaca.APIError{StatusCode: http.StatusForbidden, Message: "market is closed"}
		g := newTestGateway(t, &fakeTrading{orderErr: apiErr}, &fakeData{})

		_, err := g.SubmitMarketOrder(ctx, domain.OrderRequest{
			Ticker: "AAPL", AssetClass: domain.Equity, Side: domain.SideBuy, Quantity: decimal.NewFromInt(1),
		})
		var closed *domain.MarketClosedError
		require.ErrorAs(t, err, &closed)
		assert.Equal(t, "AAPL", closed.Ticker)
		assert.True(t, isRejection(err))
	})

	t.Run("transport errors are not rejections", func(t *testing.T) {
		assert.False(t, isRejection(errors.New("connection reset")))
	})
}
