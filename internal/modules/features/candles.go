package features

import (
	"math"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/pkg/formulas"
)

// Candle geometry thresholds. A property is judged against the average of the
// same measure over the preceding bars, scaled by a factor:
//
//	long body       body > avg(body, 10)
//	very long body  body > 3 × avg(body, 10)
//	short body      body < avg(body, 10)
//	doji            body <= 0.1 × avg(range, 10)
//	long shadow     shadow > body
//	very long shadow shadow > 2 × body
//	short shadow    shadow < avg(shadows, 10)
//	very short      shadow < 0.1 × avg(range, 10)
//	near / far / equal  within 0.2 / beyond 0.6 / within 0.05 × avg(range, 5)
const (
	bodyPeriod      = 10
	proximityPeriod = 5
)

// candles precomputes per-bar geometry so recognizers stay short
type candles struct {
	open, high, low, close []float64
	body, rng, upper, lower []float64
	shadows                 []float64
}

func newCandles(bars []domain.Bar) *candles {
	n := len(bars)
	c := &candles{
		open:    make([]float64, n),
		high:    make([]float64, n),
		low:     make([]float64, n),
		close:   make([]float64, n),
		body:    make([]float64, n),
		rng:     make([]float64, n),
		upper:   make([]float64, n),
		lower:   make([]float64, n),
		shadows: make([]float64, n),
	}
	for i, b := range bars {
		c.open[i], c.high[i], c.low[i], c.close[i] = b.Open, b.High, b.Low, b.Close
		c.body[i] = math.Abs(b.Close - b.Open)
		c.rng[i] = b.High - b.Low
		c.upper[i] = b.High - math.Max(b.Open, b.Close)
		c.lower[i] = math.Min(b.Open, b.Close) - b.Low
		c.shadows[i] = (c.upper[i] + c.lower[i]) / 2
	}
	return c
}

func (c *candles) len() int { return len(c.close) }

// color is 1 for white (close >= open) and -1 for black
func (c *candles) color(i int) int {
	if c.close[i] >= c.open[i] {
		return 1
	}
	return -1
}

func (c *candles) white(i int) bool { return c.color(i) == 1 }
func (c *candles) black(i int) bool { return c.color(i) == -1 }

func (c *candles) bodyTop(i int) float64    { return math.Max(c.open[i], c.close[i]) }
func (c *candles) bodyBottom(i int) float64 { return math.Min(c.open[i], c.close[i]) }
func (c *candles) midpoint(i int) float64   { return (c.open[i] + c.close[i]) / 2 }

func (c *candles) avgBody(i int) float64 {
	return formulas.TrailingMean(c.body, i, bodyPeriod)
}

func (c *candles) avgRange(i, period int) float64 {
	return formulas.TrailingMean(c.rng, i, period)
}

func (c *candles) avgShadows(i int) float64 {
	return formulas.TrailingMean(c.shadows, i, bodyPeriod)
}

func (c *candles) longBody(i int) bool {
	return c.body[i] > c.avgBody(i)
}

func (c *candles) veryLongBody(i int) bool {
	return c.body[i] > 3*c.avgBody(i)
}

func (c *candles) shortBody(i int) bool {
	return c.body[i] < c.avgBody(i)
}

func (c *candles) doji(i int) bool {
	return c.body[i] <= 0.1*c.avgRange(i, bodyPeriod)
}

func (c *candles) longShadow(shadow, body float64) bool {
	return shadow > body
}

func (c *candles) veryLongShadow(shadow, body float64) bool {
	return shadow > 2*body
}

func (c *candles) shortShadow(shadow float64, i int) bool {
	return shadow < c.avgShadows(i)
}

func (c *candles) veryShortShadow(shadow float64, i int) bool {
	return shadow < 0.1*c.avgRange(i, bodyPeriod)
}

func (c *candles) near(i int) float64  { return 0.2 * c.avgRange(i, proximityPeriod) }
func (c *candles) far(i int) float64   { return 0.6 * c.avgRange(i, proximityPeriod) }
func (c *candles) equal(i int) float64 { return 0.05 * c.avgRange(i, proximityPeriod) }

// realBodyGapUp reports that the body of i sits entirely above the body of j
func (c *candles) realBodyGapUp(i, j int) bool {
	return c.bodyBottom(i) > c.bodyTop(j)
}

// realBodyGapDown reports that the body of i sits entirely below the body of j
func (c *candles) realBodyGapDown(i, j int) bool {
	return c.bodyTop(i) < c.bodyBottom(j)
}

func (c *candles) candleGapUp(i, j int) bool {
	return c.low[i] > c.high[j]
}

func (c *candles) candleGapDown(i, j int) bool {
	return c.high[i] < c.low[j]
}

// marubozu is a long body with almost no shadows on either side
func (c *candles) marubozu(i int) bool {
	return c.longBody(i) && c.veryShortShadow(c.upper[i], i) && c.veryShortShadow(c.lower[i], i)
}
