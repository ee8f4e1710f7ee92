package domain

import (
	"strings"
)

// AssetClass identifies the market an asset trades in.
// It is resolved once at the input boundary and carried as a tag from then on.
type AssetClass int

const (
	// Equity covers listed stocks and ETFs
	Equity AssetClass = iota + 1
	// Crypto covers crypto currency pairs quoted in USD
	Crypto
)

// ParseAssetClass resolves user input to an asset class.
// Accepts the single-letter selections ("s", "c") and the long forms.
func ParseAssetClass(input string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "s", "stock", "stocks", "equity", "equities":
		return Equity, nil
	case "c", "crypto", "cryptos":
		return Crypto, nil
	default:
		return 0, &InvalidSelectionError{Input: input}
	}
}

// String returns the canonical lowercase name
func (c AssetClass) String() string {
	switch c {
	case Equity:
		return "equity"
	case Crypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the known classes
func (c AssetClass) Valid() bool {
	return c == Equity || c == Crypto
}

// HoldingNoun is the phrase used before an asset name when talking about
// buying or selling it ("shares of Apple" vs "Bitcoin").
func (c AssetClass) HoldingNoun() string {
	if c == Equity {
		return "shares of "
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler
func (c AssetClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *AssetClass) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
