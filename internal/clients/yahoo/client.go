// Package yahoo fetches equity history from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// DefaultBaseURL is the Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a Yahoo Finance history source
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewClient creates a new Yahoo Finance client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("User-Agent", "Mozilla/5.0")

	return &Client{
		client: client,
		log:    log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse is the response structure from the chart API
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetHistory implements domain.HistorySource
func (c *Client) GetHistory(ctx context.Context, ticker string, class domain.AssetClass, window domain.HistoryWindow) ([]domain.Bar, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	interval, err := yahooInterval(window.Interval)
	if err != nil {
		return nil, err
	}
	symbol := YahooSymbol(ticker, class)

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"interval": interval,
			"range":    yahooRange(window.Span),
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch yahoo chart for %s: %w", symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("yahoo API error %d for %s: %s", resp.StatusCode(), symbol, resp.String())
	}

	var chart chartResponse
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo chart for %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo API error for %s: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo returned no data for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		last := value(quote.Close, i)
		if last == nil {
			// market holidays and halts come back as null rows
			continue
		}
		bars = append(bars, domain.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      orDefault(value(quote.Open, i), *last),
			High:      orDefault(value(quote.High, i), *last),
			Low:       orDefault(value(quote.Low, i), *last),
			Close:     *last,
			Volume:    orDefault(value(quote.Volume, i), 0),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	c.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Fetched yahoo history")
	return bars, nil
}

// YahooSymbol converts a ticker to its Yahoo form. Crypto pairs use a dash: BTCUSD becomes BTC-USD.
func YahooSymbol(ticker string, class domain.AssetClass) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if class != domain.Crypto {
		return ticker
	}
	ticker = strings.ReplaceAll(ticker, "/", "")
	if strings.HasSuffix(ticker, "USD") && len(ticker) > 3 {
		return strings.TrimSuffix(ticker, "USD") + "-USD"
	}
	return ticker + "-USD"
}

func yahooInterval(i domain.Interval) (string, error) {
	switch i {
	case domain.Interval5Minute:
		return "5m", nil
	case domain.IntervalHour:
		return "1h", nil
	case domain.IntervalDay:
		return "1d", nil
	case domain.IntervalWeek:
		return "1wk", nil
	}
	return "", fmt.Errorf("yahoo does not serve %s bars", i)
}

func yahooRange(s domain.Span) string {
	switch s {
	case domain.SpanDay:
		return "1d"
	case domain.SpanWeek:
		return "5d"
	case domain.SpanMonth:
		return "1mo"
	case domain.Span3Month:
		return "3mo"
	case domain.SpanYear:
		return "1y"
	default:
		return "5y"
	}
}

func value(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
