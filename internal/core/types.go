package core

import (
	"math"
	"sort"
	"time"
)

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1h", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// PriceSeries is an immutable, chronologically ordered sequence of closing
// prices. The zero value is an empty series.
type PriceSeries struct {
	values []float64
}

// NewPriceSeries copies prices into a new series. Order is preserved as given.
func NewPriceSeries(prices []float64) PriceSeries {
	values := make([]float64, len(prices))
	copy(values, prices)
	return PriceSeries{values: values}
}

// SeriesFromOHLCV builds a series of closes ordered by bar time.
func SeriesFromOHLCV(bars []OHLCV) PriceSeries {
	sorted := make([]OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	values := make([]float64, len(sorted))
	for i, bar := range sorted {
		values[i] = bar.Close
	}
	return PriceSeries{values: values}
}

// Len returns the number of observations.
func (s PriceSeries) Len() int {
	return len(s.values)
}

// IsEmpty reports whether the series has no observations.
func (s PriceSeries) IsEmpty() bool {
	return len(s.values) == 0
}

// Last returns the most recent observation, or 0 for an empty series.
func (s PriceSeries) Last() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Values returns a copy of the observations.
func (s PriceSeries) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// ValidPrice reports whether p can be used as a last or entry price.
func ValidPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
