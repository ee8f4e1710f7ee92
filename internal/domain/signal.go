package domain

import "time"

// FeatureRow holds the indicator values derived for one bar.
// Values that could not be computed (warm-up region) are 0.
type FeatureRow struct {
	SMA          float64 `json:"sma" msgpack:"sma"`
	RSI          float64 `json:"rsi" msgpack:"rsi"`
	MACDHist     float64 `json:"macd_hist" msgpack:"macd_hist"`
	UpperBand    float64 `json:"upper_band" msgpack:"upper_band"`
	LowerBand    float64 `json:"lower_band" msgpack:"lower_band"`
	PatternScore float64 `json:"pattern_score" msgpack:"pattern_score"`
	// Complete is false when any indicator above was zero-filled
	Complete bool `json:"complete" msgpack:"complete"`
}

// Signal is the directional verdict for one asset
type Signal struct {
	Ticker        string     `json:"ticker"`
	AssetClass    AssetClass `json:"asset_class"`
	Score         int        `json:"score"`
	ExpectedFall  bool       `json:"expected_fall"`
	Close         float64    `json:"close"`
	PreviousClose float64    `json:"previous_close"`
	Row           FeatureRow `json:"features"`
	Bars          int        `json:"bars"`
	ComputedAt    time.Time  `json:"computed_at"`
}
