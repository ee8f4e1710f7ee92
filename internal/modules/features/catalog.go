package features

// recognizer classifies the candle at index i
type recognizer func(c *candles, i int) int

// Detector is a recognizer plus the number of candles it looks at
type Detector struct {
	Name      string
	Candles   int
	recognize recognizer
}

// Pattern is a named catalog entry. Several entries share a detector, so a
// single formation can be counted more than once in the aggregate.
type Pattern struct {
	Name     string
	Detector *Detector
}

var (
	detEngulfing       = &Detector{Name: "engulfing", Candles: 2, recognize: engulfing}
	detHammer          = &Detector{Name: "hammer", Candles: 2, recognize: hammer}
	detHangingMan      = &Detector{Name: "hanging_man", Candles: 2, recognize: hangingMan}
	detTriStar         = &Detector{Name: "tristar", Candles: 3, recognize: triStar}
	detPiercing        = &Detector{Name: "piercing", Candles: 2, recognize: piercing}
	detDarkCloudCover  = &Detector{Name: "dark_cloud_cover", Candles: 2, recognize: darkCloudCover}
	detHarami          = &Detector{Name: "harami", Candles: 2, recognize: harami}
	detKickingByLength = &Detector{Name: "kicking_by_length", Candles: 2, recognize: kickingByLength}
	detMorningStar     = &Detector{Name: "morning_star", Candles: 3, recognize: morningStar}
	detEveningStar     = &Detector{Name: "evening_star", Candles: 3, recognize: eveningStar}
	detThreeWhite      = &Detector{Name: "three_white_soldiers", Candles: 3, recognize: threeWhiteSoldiers}
	detThreeBlack      = &Detector{Name: "three_black_crows", Candles: 4, recognize: threeBlackCrows}
	detUpsideGap2Crows = &Detector{Name: "upside_gap_two_crows", Candles: 3, recognize: upsideGapTwoCrows}
	detThreeInside     = &Detector{Name: "three_inside", Candles: 3, recognize: threeInside}
	detThreeOutside    = &Detector{Name: "three_outside", Candles: 3, recognize: threeOutside}
	detInvertedHammer  = &Detector{Name: "inverted_hammer", Candles: 2, recognize: invertedHammer}
	detAbandonedBaby   = &Detector{Name: "abandoned_baby", Candles: 3, recognize: abandonedBaby}
	detBeltHold        = &Detector{Name: "belt_hold", Candles: 1, recognize: beltHold}
	detThreeLineStrike = &Detector{Name: "three_line_strike", Candles: 4, recognize: threeLineStrike}
	detAdvanceBlock    = &Detector{Name: "advance_block", Candles: 3, recognize: advanceBlock}
	detStickSandwich   = &Detector{Name: "stick_sandwich", Candles: 3, recognize: stickSandwich}
	detMatchingLow     = &Detector{Name: "matching_low", Candles: 2, recognize: matchingLow}
	detLadderBottom    = &Detector{Name: "ladder_bottom", Candles: 5, recognize: ladderBottom}
	detBreakaway       = &Detector{Name: "breakaway", Candles: 5, recognize: breakaway}
	detTasukiGap       = &Detector{Name: "tasuki_gap", Candles: 3, recognize: tasukiGap}
	detSeparatingLines = &Detector{Name: "separating_lines", Candles: 2, recognize: separatingLines}
	detTwoCrows        = &Detector{Name: "two_crows", Candles: 3, recognize: twoCrows}
	detShootingStar    = &Detector{Name: "shooting_star", Candles: 2, recognize: shootingStar}
	detMatHold         = &Detector{Name: "mat_hold", Candles: 5, recognize: matHold}
)

// DefaultCatalog is the pattern set summed into the pattern score.
// Bullish and bearish variants map to the same two-sided detector, and
// "soheil_pko" and "bearish_meeting_line" keep their historical detectors.
func DefaultCatalog() []Pattern {
	return []Pattern{
		{"engulfing", detEngulfing},
		{"hammer", detHammer},
		{"hanging_man", detHangingMan},
		{"bullish_engulfing", detEngulfing},
		{"bearish_engulfing", detEngulfing},
		{"bullish_tri_star", detTriStar},
		{"bearish_tri_star", detTriStar},
		{"piercing_pattern", detPiercing},
		{"dark_cloud_cover", detDarkCloudCover},
		{"bullish_harami", detHarami},
		{"bearish_harami", detHarami},
		{"bullish_kicker", detKickingByLength},
		{"bearish_kicker", detKickingByLength},
		{"morning_star", detMorningStar},
		{"evening_star", detEveningStar},
		{"three_white_soldiers", detThreeWhite},
		{"three_black_crows", detThreeBlack},
		{"upside_gap_two_crows", detUpsideGap2Crows},
		{"three_inside_up", detThreeInside},
		{"three_inside_down", detThreeInside},
		{"three_outside_up", detThreeOutside},
		{"three_outside_down", detThreeOutside},
		{"inverted_hammer", detInvertedHammer},
		{"bullish_abandoned_baby", detAbandonedBaby},
		{"bullish_belthold", detBeltHold},
		{"bearish_belthold", detBeltHold},
		{"three_line_strike", detThreeLineStrike},
		{"advance_block", detAdvanceBlock},
		{"bullish_stick_sandwich", detStickSandwich},
		{"bearish_stick_sandwich", detStickSandwich},
		{"matching_low", detMatchingLow},
		{"ladder_bottom", detLadderBottom},
		{"bullish_breakaway", detBreakaway},
		{"bearish_breakaway", detBreakaway},
		{"tasuki_gap", detTasukiGap},
		{"bearish_separating_lines", detSeparatingLines},
		{"soheil_pko", detTwoCrows},
		{"shooting_star", detShootingStar},
		{"bearish_abandoned_baby", detAbandonedBaby},
		{"bearish_meeting_line", detMatHold},
	}
}

// lookback is the first index at which the detector can fire
func (d *Detector) lookback() int {
	return bodyPeriod + d.Candles - 1
}

// at evaluates the detector at index i, returning 0 inside its lookback
func (d *Detector) at(c *candles, i int) int {
	if i < d.lookback() || i >= c.len() {
		return 0
	}
	return d.recognize(c, i)
}
