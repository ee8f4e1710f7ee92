// Package alpaca implements domain.BrokerGateway on top of the Alpaca trading and market data APIs.
package alpaca

import (
	"errors"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// PaperBaseURL is the Alpaca paper trading endpoint
const PaperBaseURL = "https://paper-api.alpaca.markets"

// ErrMissingCredentials is returned when the API key or secret is empty
var ErrMissingCredentials = errors.New("ALPACA_API_KEY and ALPACA_SECRET_KEY must be set")

// Credentials identify an Alpaca account
type Credentials struct {
	APIKey    string
	APISecret string
	BaseURL   string
	// DataFeed selects the equity feed ("iex" or "sip"); empty uses the account default
	DataFeed string
}

// tradingAPI is the subset of *alpaca.Client the gateway uses
type tradingAPI interface {
	GetAccount() (*alpaca.Account, error)
	GetPositions() ([]alpaca.Position, error)
	GetAsset(symbol string) (*alpaca.Asset, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
}

// marketDataAPI is the subset of *marketdata.Client the gateway uses
type marketDataAPI interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetCryptoBars(symbol string, req marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error)
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
	GetLatestCryptoTrade(symbol string, req marketdata.GetLatestCryptoTradeRequest) (*marketdata.CryptoTrade, error)
}

// Session is an authenticated pair of trading and market data clients.
// It is created once and injected into the gateway.
type Session struct {
	trading  tradingAPI
	data     marketDataAPI
	feed     string
	Account  string
	Currency string
}

// NewSession builds the Alpaca clients and authenticates by fetching the account
func NewSession(creds Credentials) (*Session, error) {
	if creds.APIKey == "" || creds.APISecret == "" {
		return nil, ErrMissingCredentials
	}

	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    creds.APIKey,
		APISecret: creds.APISecret,
		BaseURL:   creds.BaseURL,
	})
	data := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    creds.APIKey,
		APISecret: creds.APISecret,
	})

	return newSession(trading, data, creds.DataFeed)
}

func newSession(trading tradingAPI, data marketDataAPI, feed string) (*Session, error) {
	account, err := trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with alpaca: %w", err)
	}
	return &Session{
		trading:  trading,
		data:     data,
		feed:     feed,
		Account:  account.AccountNumber,
		Currency: account.Currency,
	}, nil
}
