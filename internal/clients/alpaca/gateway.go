package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// Option configures a Gateway
type Option func(*Gateway)

// WithHistorySource routes equity history requests to another provider.
// Crypto history, prices and trading stay on Alpaca.
func WithHistorySource(source domain.HistorySource) Option {
	return func(g *Gateway) {
		g.equityHistory = source
	}
}

// Gateway implements domain.BrokerGateway over an authenticated Session
type Gateway struct {
	session       *Session
	equityHistory domain.HistorySource
	now           func() time.Time
	log           zerolog.Logger

	namesMu sync.Mutex
	names   map[string]string
}

// NewGateway creates a gateway bound to session
func NewGateway(session *Session, log zerolog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		session: session,
		now:     time.Now,
		log:     log.With().Str("client", "alpaca").Logger(),
		names:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetHistory implements domain.BrokerGateway
func (g *Gateway) GetHistory(ctx context.Context, ticker string, class domain.AssetClass, window domain.HistoryWindow) ([]domain.Bar, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if class == domain.Equity && g.equityHistory != nil {
		return g.equityHistory.GetHistory(ctx, ticker, class, window)
	}

	tf, err := toTimeFrame(window.Interval)
	if err != nil {
		return nil, err
	}
	end := g.now()
	start := window.Span.Start(end)
	symbol := DataSymbol(ticker, class)

	if class == domain.Crypto {
		bars, err := g.session.data.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
			TimeFrame: tf,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get crypto bars for %s: %w", symbol, err)
		}
		return transformCryptoBars(bars), nil
	}

	bars, err := g.session.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     start,
		End:       end,
		Feed:      g.session.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}
	return transformBars(bars), nil
}

// GetLatestPrice implements domain.BrokerGateway
func (g *Gateway) GetLatestPrice(ctx context.Context, ticker string, class domain.AssetClass) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	symbol := DataSymbol(ticker, class)

	var price float64
	if class == domain.Crypto {
		trade, err := g.session.data.GetLatestCryptoTrade(symbol, marketdata.GetLatestCryptoTradeRequest{})
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get latest crypto trade for %s: %w", symbol, err)
		}
		price = trade.Price
	} else {
		trade, err := g.session.data.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{Feed: g.session.feed})
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get latest trade for %s: %w", symbol, err)
		}
		price = trade.Price
	}
	return decimal.NewFromFloat(price), nil
}

// GetPositions implements domain.BrokerGateway
func (g *Gateway) GetPositions(ctx context.Context, class domain.AssetClass) ([]domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	positions, err := g.session.trading.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		if positionClass(p) != class || !p.Qty.IsPositive() {
			continue
		}
		out = append(out, transformPosition(p, g.assetName(p.Symbol)))
	}

	g.log.Debug().
		Str("class", class.String()).
		Int("positions", len(out)).
		Msg("Fetched positions")

	return out, nil
}

// GetBuyingPower implements domain.BrokerGateway
func (g *Gateway) GetBuyingPower(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	account, err := g.session.trading.GetAccount()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get account: %w", err)
	}
	return account.BuyingPower, nil
}

// SubmitMarketOrder implements domain.BrokerGateway.
// Every submission failure is reported as a *domain.MarketClosedError.
func (g *Gateway) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order, err := g.session.trading.PlaceOrder(toOrderRequest(req))
	if err != nil {
		g.log.Error().
			Err(err).
			Bool("rejected", isRejection(err)).
			Str("ticker", req.Ticker).
			Str("side", string(req.Side)).
			Msg("Order submission failed")
		return nil, &domain.MarketClosedError{Ticker: req.Ticker, Side: req.Side, Err: err}
	}

	g.log.Info().
		Str("order_id", order.ID).
		Str("ticker", req.Ticker).
		Str("side", string(req.Side)).
		Str("quantity", req.Quantity.String()).
		Msg("Order placed")

	return transformOrder(order, req), nil
}

// assetName looks up the display name of a symbol once and caches it.
// Lookup failures fall back to the symbol.
func (g *Gateway) assetName(symbol string) string {
	g.namesMu.Lock()
	defer g.namesMu.Unlock()

	if name, ok := g.names[symbol]; ok {
		return name
	}
	name := symbol
	asset, err := g.session.trading.GetAsset(symbol)
	if err != nil {
		g.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to look up asset name")
	} else if asset.Name != "" {
		name = asset.Name
	}
	g.names[symbol] = name
	return name
}

// isRejection reports whether the broker refused the order, as opposed to a transport failure
func isRejection(err error) bool {
	var apiErr *alpaca.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusUnprocessableEntity
}
