package paper

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/aristath/tradeadvisor/internal/domain"
)

// DefaultAccount is used when no account file exists
func DefaultAccount() Account {
	return Account{
		Cash: decimal.NewFromInt(1000),
		Holdings: []Holding{
			{Ticker: "AAPL", Name: "Apple Inc.", AssetClass: domain.Equity, Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(190)},
			{Ticker: "MSFT", Name: "Microsoft Corporation", AssetClass: domain.Equity, Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(410)},
			{Ticker: "TSLA", Name: "Tesla, Inc.", AssetClass: domain.Equity, Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(175)},
			{Ticker: "BTCUSD", Name: "Bitcoin", AssetClass: domain.Crypto, Quantity: decimal.RequireFromString("0.02"), Price: decimal.NewFromInt(62000)},
			{Ticker: "ETHUSD", Name: "Ethereum", AssetClass: domain.Crypto, Quantity: decimal.RequireFromString("0.5"), Price: decimal.NewFromInt(3100)},
		},
	}
}

// LoadAccount reads an account seed from a YAML file.
// A missing file yields DefaultAccount.
func LoadAccount(path string) (Account, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultAccount(), nil
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to read paper account: %w", err)
	}

	var account Account
	if err := yaml.Unmarshal(data, &account); err != nil {
		return Account{}, fmt.Errorf("failed to parse paper account: %w", err)
	}
	for _, h := range account.Holdings {
		if h.Ticker == "" || !h.AssetClass.Valid() {
			return Account{}, fmt.Errorf("paper holding %q needs a ticker and class", h.Ticker)
		}
		if !h.Price.IsPositive() {
			return Account{}, fmt.Errorf("paper holding %s needs a positive price", h.Ticker)
		}
	}
	return account, nil
}
