package domain

import (
	"fmt"
	"time"
)

// Bar is one OHLCV sample. Bars are handed around in ascending time order.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Closes extracts the close prices of bars
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Interval is the spacing between bars in a history request
type Interval string

const (
	Interval5Minute  Interval = "5minute"
	Interval10Minute Interval = "10minute"
	IntervalHour     Interval = "hour"
	IntervalDay      Interval = "day"
	IntervalWeek     Interval = "week"
)

// Duration returns the wall-clock length of one bar
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval5Minute:
		return 5 * time.Minute
	case Interval10Minute:
		return 10 * time.Minute
	case IntervalHour:
		return time.Hour
	case IntervalDay:
		return 24 * time.Hour
	case IntervalWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Span is how far back a history request reaches
type Span string

const (
	SpanDay    Span = "day"
	SpanWeek   Span = "week"
	SpanMonth  Span = "month"
	Span3Month Span = "3month"
	SpanYear   Span = "year"
	Span5Year  Span = "5year"
)

// Start returns the beginning of the span ending at end
func (s Span) Start(end time.Time) time.Time {
	switch s {
	case SpanDay:
		return end.AddDate(0, 0, -1)
	case SpanWeek:
		return end.AddDate(0, 0, -7)
	case SpanMonth:
		return end.AddDate(0, -1, 0)
	case Span3Month:
		return end.AddDate(0, -3, 0)
	case SpanYear:
		return end.AddDate(-1, 0, 0)
	case Span5Year:
		return end.AddDate(-5, 0, 0)
	default:
		return end
	}
}

// HistoryWindow is the lookback used to fetch bars for a signal
type HistoryWindow struct {
	Interval Interval
	Span     Span
}

// DefaultHistoryWindow is hourly bars over the last month
var DefaultHistoryWindow = HistoryWindow{Interval: IntervalHour, Span: SpanMonth}

// Validate checks that both parts of the window are known values
func (w HistoryWindow) Validate() error {
	if w.Interval.Duration() == 0 {
		return fmt.Errorf("unknown history interval %q", w.Interval)
	}
	if w.Span.Start(time.Time{}).Equal(time.Time{}) {
		return fmt.Errorf("unknown history span %q", w.Span)
	}
	return nil
}
