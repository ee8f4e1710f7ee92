package alpaca

import (
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/aristath/tradeadvisor/internal/domain"
)

var cryptoQuotes = []string{"USDT", "USDC", "USD", "BTC"}

// DataSymbol converts a ticker into the form the market data API expects.
// Crypto pairs need a slash: BTCUSD becomes BTC/USD.
func DataSymbol(ticker string, class domain.AssetClass) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if class != domain.Crypto || strings.Contains(ticker, "/") {
		return ticker
	}
	for _, quote := range cryptoQuotes {
		if strings.HasSuffix(ticker, quote) && len(ticker) > len(quote) {
			return strings.TrimSuffix(ticker, quote) + "/" + quote
		}
	}
	return ticker + "/USD"
}

// PositionSymbol converts a ticker into the slash-free form used by positions
func PositionSymbol(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), "/", "")
}

func toTimeFrame(interval domain.Interval) (marketdata.TimeFrame, error) {
	switch interval {
	case domain.Interval5Minute:
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case domain.Interval10Minute:
		return marketdata.NewTimeFrame(10, marketdata.Min), nil
	case domain.IntervalHour:
		return marketdata.OneHour, nil
	case domain.IntervalDay:
		return marketdata.OneDay, nil
	case domain.IntervalWeek:
		return marketdata.NewTimeFrame(1, marketdata.Week), nil
	}
	return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", interval)
}

func transformBars(bars []marketdata.Bar) []domain.Bar {
	out := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		out = append(out, domain.Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		})
	}
	return out
}

func transformCryptoBars(bars []marketdata.CryptoBar) []domain.Bar {
	out := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		out = append(out, domain.Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		})
	}
	return out
}

func positionClass(p alpaca.Position) domain.AssetClass {
	if string(p.AssetClass) == "crypto" {
		return domain.Crypto
	}
	return domain.Equity
}

func transformPosition(p alpaca.Position, name string) domain.Position {
	price := decimal.Zero
	if p.CurrentPrice != nil {
		price = *p.CurrentPrice
	}
	if name == "" {
		name = p.Symbol
	}
	return domain.Position{
		Ticker:     p.Symbol,
		Name:       name,
		AssetClass: positionClass(p),
		Quantity:   p.Qty,
		Price:      price,
	}
}

func transformOrder(o *alpaca.Order, req domain.OrderRequest) *domain.OrderResult {
	return &domain.OrderResult{
		OrderID:     o.ID,
		Ticker:      req.Ticker,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Status:      string(o.Status),
		SubmittedAt: o.SubmittedAt,
	}
}

func toOrderRequest(req domain.OrderRequest) alpaca.PlaceOrderRequest {
	qty := req.Quantity
	side := alpaca.Buy
	if req.Side == domain.SideSell {
		side = alpaca.Sell
	}
	tif := alpaca.Day
	symbol := req.Ticker
	if req.AssetClass == domain.Crypto {
		tif = alpaca.GTC
		symbol = DataSymbol(req.Ticker, domain.Crypto)
	}
	return alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Qty:         &qty,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: tif,
	}
}
