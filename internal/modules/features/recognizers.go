package features

// Recognizers inspect the candle ending at index i and return +100 (bullish),
// -100 (bearish) or 0. They are only called once i covers the pattern's
// candles plus the averaging period, so i-k indexing is always in range.

const (
	bullish = 100
	bearish = -100
)

func engulfing(c *candles, i int) int {
	p := i - 1
	if c.white(i) && c.black(p) &&
		((c.close[i] >= c.open[p] && c.open[i] < c.close[p]) ||
			(c.close[i] > c.open[p] && c.open[i] <= c.close[p])) {
		return bullish
	}
	if c.black(i) && c.white(p) &&
		((c.open[i] >= c.close[p] && c.close[i] < c.open[p]) ||
			(c.open[i] > c.close[p] && c.close[i] <= c.open[p])) {
		return bearish
	}
	return 0
}

// hammerShape is a short body with a long lower shadow and almost no upper shadow
func hammerShape(c *candles, i int) bool {
	return c.shortBody(i) &&
		c.longShadow(c.lower[i], c.body[i]) &&
		c.veryShortShadow(c.upper[i], i)
}

func hammer(c *candles, i int) int {
	if hammerShape(c, i) && c.bodyBottom(i) <= c.low[i-1]+c.near(i-1) {
		return bullish
	}
	return 0
}

func hangingMan(c *candles, i int) int {
	if hammerShape(c, i) && c.bodyBottom(i) >= c.high[i-1]-c.near(i-1) {
		return bearish
	}
	return 0
}

func invertedHammer(c *candles, i int) int {
	if c.shortBody(i) &&
		c.longShadow(c.upper[i], c.body[i]) &&
		c.veryShortShadow(c.lower[i], i) &&
		c.realBodyGapDown(i, i-1) {
		return bullish
	}
	return 0
}

func shootingStar(c *candles, i int) int {
	if c.shortBody(i) &&
		c.longShadow(c.upper[i], c.body[i]) &&
		c.veryShortShadow(c.lower[i], i) &&
		c.realBodyGapUp(i, i-1) {
		return bearish
	}
	return 0
}

func triStar(c *candles, i int) int {
	a, b := i-2, i-1
	if !c.doji(a) || !c.doji(b) || !c.doji(i) {
		return 0
	}
	if c.realBodyGapUp(b, a) && c.bodyTop(i) < c.bodyTop(b) {
		return bearish
	}
	if c.realBodyGapDown(b, a) && c.bodyBottom(i) > c.bodyBottom(b) {
		return bullish
	}
	return 0
}

func piercing(c *candles, i int) int {
	p := i - 1
	if c.black(p) && c.longBody(p) &&
		c.white(i) && c.longBody(i) &&
		c.open[i] < c.low[p] &&
		c.close[i] < c.open[p] &&
		c.close[i] > c.close[p]+c.body[p]*0.5 {
		return bullish
	}
	return 0
}

func darkCloudCover(c *candles, i int) int {
	p := i - 1
	if c.white(p) && c.longBody(p) &&
		c.black(i) &&
		c.open[i] > c.high[p] &&
		c.close[i] > c.open[p] &&
		c.close[i] < c.close[p]-c.body[p]*0.5 {
		return bearish
	}
	return 0
}

func harami(c *candles, i int) int {
	p := i - 1
	if !c.longBody(p) || !c.shortBody(i) {
		return 0
	}
	if c.bodyTop(i) < c.bodyTop(p) && c.bodyBottom(i) > c.bodyBottom(p) {
		return -c.color(p) * 100
	}
	return 0
}

// kickingByLength returns the direction of the longer of two opposite marubozu
func kickingByLength(c *candles, i int) int {
	p := i - 1
	if !c.marubozu(p) || !c.marubozu(i) || c.color(p) == c.color(i) {
		return 0
	}
	gapped := (c.black(p) && c.candleGapUp(i, p)) || (c.white(p) && c.candleGapDown(i, p))
	if !gapped {
		return 0
	}
	if c.body[i] > c.body[p] {
		return c.color(i) * 100
	}
	return c.color(p) * 100
}

func morningStar(c *candles, i int) int {
	a, b := i-2, i-1
	if c.longBody(a) && c.black(a) &&
		c.shortBody(b) && c.realBodyGapDown(b, a) &&
		c.white(i) && c.close[i] > c.close[a]+c.body[a]*0.3 {
		return bullish
	}
	return 0
}

func eveningStar(c *candles, i int) int {
	a, b := i-2, i-1
	if c.longBody(a) && c.white(a) &&
		c.shortBody(b) && c.realBodyGapUp(b, a) &&
		c.black(i) && c.close[i] < c.close[a]-c.body[a]*0.3 {
		return bearish
	}
	return 0
}

func threeWhiteSoldiers(c *candles, i int) int {
	a, b := i-2, i-1
	if c.white(a) && c.white(b) && c.white(i) &&
		c.close[b] > c.close[a] && c.close[i] > c.close[b] &&
		c.open[b] > c.open[a] && c.open[b] <= c.close[a] &&
		c.open[i] > c.open[b] && c.open[i] <= c.close[b] &&
		c.veryShortShadow(c.upper[a], a) &&
		c.veryShortShadow(c.upper[b], b) &&
		c.veryShortShadow(c.upper[i], i) {
		return bullish
	}
	return 0
}

func threeBlackCrows(c *candles, i int) int {
	a, b := i-2, i-1
	if c.white(a-1) &&
		c.black(a) && c.black(b) && c.black(i) &&
		c.close[b] < c.close[a] && c.close[i] < c.close[b] &&
		c.open[b] < c.open[a] && c.open[b] > c.close[a] &&
		c.open[i] < c.open[b] && c.open[i] > c.close[b] &&
		c.close[a] < c.high[a-1] &&
		c.veryShortShadow(c.lower[a], a) &&
		c.veryShortShadow(c.lower[b], b) &&
		c.veryShortShadow(c.lower[i], i) {
		return bearish
	}
	return 0
}

func upsideGapTwoCrows(c *candles, i int) int {
	a, b := i-2, i-1
	if c.white(a) && c.longBody(a) &&
		c.black(b) && c.shortBody(b) && c.realBodyGapUp(b, a) &&
		c.black(i) && c.open[i] > c.open[b] && c.close[i] < c.close[b] &&
		c.close[i] > c.close[a] {
		return bearish
	}
	return 0
}

func twoCrows(c *candles, i int) int {
	a, b := i-2, i-1
	if c.white(a) && c.longBody(a) &&
		c.black(b) && c.realBodyGapUp(b, a) &&
		c.black(i) && c.open[i] < c.open[b] && c.open[i] > c.close[b] &&
		c.close[i] > c.open[a] && c.close[i] < c.close[a] {
		return bearish
	}
	return 0
}

func threeInside(c *candles, i int) int {
	a, b := i-2, i-1
	if !c.longBody(a) || !c.shortBody(b) {
		return 0
	}
	if c.bodyTop(b) >= c.bodyTop(a) || c.bodyBottom(b) <= c.bodyBottom(a) {
		return 0
	}
	if c.black(a) && c.white(i) && c.close[i] > c.open[a] {
		return bullish
	}
	if c.white(a) && c.black(i) && c.close[i] < c.open[a] {
		return bearish
	}
	return 0
}

func threeOutside(c *candles, i int) int {
	a, b := i-2, i-1
	if c.black(a) && c.white(b) &&
		c.close[b] > c.open[a] && c.open[b] < c.close[a] &&
		c.close[i] > c.close[b] {
		return bullish
	}
	if c.white(a) && c.black(b) &&
		c.open[b] > c.close[a] && c.close[b] < c.open[a] &&
		c.close[i] < c.close[b] {
		return bearish
	}
	return 0
}

func abandonedBaby(c *candles, i int) int {
	a, b := i-2, i-1
	if !c.longBody(a) || !c.doji(b) || !c.longBody(i) {
		return 0
	}
	if c.white(a) && c.black(i) &&
		c.candleGapUp(b, a) && c.candleGapDown(i, b) &&
		c.close[i] < c.close[a]-c.body[a]*0.3 {
		return bearish
	}
	if c.black(a) && c.white(i) &&
		c.candleGapDown(b, a) && c.candleGapUp(i, b) &&
		c.close[i] > c.close[a]+c.body[a]*0.3 {
		return bullish
	}
	return 0
}

func beltHold(c *candles, i int) int {
	if !c.longBody(i) {
		return 0
	}
	if c.white(i) && c.veryShortShadow(c.lower[i], i) {
		return bullish
	}
	if c.black(i) && c.veryShortShadow(c.upper[i], i) {
		return bearish
	}
	return 0
}

// threeLineStrike is three candles of one colour stepping in their direction,
// then a fourth that opens beyond the third close and erases all three.
func threeLineStrike(c *candles, i int) int {
	a, b, d := i-3, i-2, i-1
	col := c.color(a)
	if c.color(b) != col || c.color(d) != col || c.color(i) != -col {
		return 0
	}
	if col == 1 &&
		c.close[b] > c.close[a] && c.close[d] > c.close[b] &&
		c.open[i] > c.close[d] && c.close[i] < c.open[a] {
		return bullish
	}
	if col == -1 &&
		c.close[b] < c.close[a] && c.close[d] < c.close[b] &&
		c.open[i] < c.close[d] && c.close[i] > c.open[a] {
		return bearish
	}
	return 0
}

func advanceBlock(c *candles, i int) int {
	a, b := i-2, i-1
	if !c.white(a) || !c.white(b) || !c.white(i) {
		return 0
	}
	if c.close[b] <= c.close[a] || c.close[i] <= c.close[b] {
		return 0
	}
	if c.open[b] <= c.open[a] || c.open[b] > c.close[a]+c.near(a) ||
		c.open[i] <= c.open[b] || c.open[i] > c.close[b]+c.near(b) {
		return 0
	}
	if !c.longBody(a) {
		return 0
	}
	weakening := (c.body[b] < c.body[a] && c.body[i] < c.body[b]) ||
		(c.body[i] < c.body[b] && c.longShadow(c.upper[i], c.body[i])) ||
		(c.upper[b] > c.upper[a] && c.upper[i] > c.upper[b])
	if weakening {
		return bearish
	}
	return 0
}

func stickSandwich(c *candles, i int) int {
	a, b := i-2, i-1
	if c.black(a) && c.white(b) && c.black(i) &&
		c.low[b] > c.close[a] &&
		c.close[i] <= c.close[a]+c.equal(a) &&
		c.close[i] >= c.close[a]-c.equal(a) {
		return bullish
	}
	return 0
}

func matchingLow(c *candles, i int) int {
	p := i - 1
	if c.black(p) && c.black(i) &&
		c.close[i] <= c.close[p]+c.equal(p) &&
		c.close[i] >= c.close[p]-c.equal(p) {
		return bullish
	}
	return 0
}

func ladderBottom(c *candles, i int) int {
	a, b, d, e := i-4, i-3, i-2, i-1
	if !c.black(a) || !c.black(b) || !c.black(d) || !c.black(e) || !c.white(i) {
		return 0
	}
	if c.open[b] >= c.open[a] || c.open[d] >= c.open[b] ||
		c.close[b] >= c.close[a] || c.close[d] >= c.close[b] {
		return 0
	}
	if c.upper[e] > c.avgShadows(e) && c.open[i] > c.open[e] && c.close[i] > c.high[e] {
		return bullish
	}
	return 0
}

// breakaway is a long candle, a gap in its direction, two more candles
// extending the move, then a reversal candle closing inside the gap.
func breakaway(c *candles, i int) int {
	a, b, d, e := i-4, i-3, i-2, i-1
	if !c.longBody(a) {
		return 0
	}
	col := c.color(a)
	if c.color(b) != col || c.color(e) != col || c.color(i) != -col {
		return 0
	}
	if col == -1 &&
		c.realBodyGapDown(b, a) &&
		c.high[d] < c.high[b] && c.low[d] < c.low[b] &&
		c.high[e] < c.high[d] && c.low[e] < c.low[d] &&
		c.close[i] > c.open[b] && c.close[i] < c.close[a] {
		return bullish
	}
	if col == 1 &&
		c.realBodyGapUp(b, a) &&
		c.high[d] > c.high[b] && c.low[d] > c.low[b] &&
		c.high[e] > c.high[d] && c.low[e] > c.low[d] &&
		c.close[i] < c.open[b] && c.close[i] > c.close[a] {
		return bearish
	}
	return 0
}

func tasukiGap(c *candles, i int) int {
	a, b := i-2, i-1
	if c.color(b) == c.color(i) {
		return 0
	}
	bodiesNear := c.body[b]-c.body[i] < c.near(b) && c.body[i]-c.body[b] < c.near(b)
	if !bodiesNear {
		return 0
	}
	if c.realBodyGapUp(b, a) && c.white(b) && c.black(i) &&
		c.open[i] < c.close[b] && c.open[i] > c.open[b] &&
		c.close[i] < c.open[b] && c.close[i] > c.bodyTop(a) {
		return bullish
	}
	if c.realBodyGapDown(b, a) && c.black(b) && c.white(i) &&
		c.open[i] < c.open[b] && c.open[i] > c.close[b] &&
		c.close[i] > c.open[b] && c.close[i] < c.bodyBottom(a) {
		return bearish
	}
	return 0
}

func separatingLines(c *candles, i int) int {
	p := i - 1
	if c.color(p) == c.color(i) || !c.longBody(i) {
		return 0
	}
	if c.open[i] > c.open[p]+c.equal(p) || c.open[i] < c.open[p]-c.equal(p) {
		return 0
	}
	if c.white(i) && c.veryShortShadow(c.lower[i], i) {
		return bullish
	}
	if c.black(i) && c.veryShortShadow(c.upper[i], i) {
		return bearish
	}
	return 0
}

// matHold is a long white candle, a small black gapping up, two small candles
// holding above the first body, then a white candle closing at a new high.
func matHold(c *candles, i int) int {
	a, b, d, e := i-4, i-3, i-2, i-1
	if !c.white(a) || !c.longBody(a) || !c.black(b) || !c.white(i) {
		return 0
	}
	if !c.shortBody(b) || !c.shortBody(d) || !c.shortBody(e) {
		return 0
	}
	if !c.realBodyGapUp(b, a) {
		return 0
	}
	floor := c.close[a] - c.body[a]*0.5
	if c.bodyBottom(d) < floor || c.bodyBottom(e) < floor {
		return 0
	}
	if c.bodyTop(d) > c.bodyTop(b) || c.bodyTop(e) > c.bodyTop(b) {
		return 0
	}
	highest := c.high[b]
	for _, k := range []int{d, e} {
		if c.high[k] > highest {
			highest = c.high[k]
		}
	}
	if c.open[i] > c.close[e] && c.close[i] > highest {
		return bullish
	}
	return 0
}
