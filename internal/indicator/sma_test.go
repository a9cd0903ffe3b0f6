package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/newthinker/coinalert/internal/core"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [0] = (10+11+12)/3 = 11
	// [1] = (11+12+13)/3 = 12
	// [2] = (12+13+14)/3 = 13
	// [3] = (13+14+15)/3 = 14

	expected := []float64{11, 12, 13, 14}

	if len(sma) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(sma))
	}

	for i, v := range expected {
		if sma[i] != v {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	sma := SMA(prices, 5)

	if len(sma) != 0 {
		t.Errorf("expected empty slice, got %d values", len(sma))
	}
}

func TestMovingAverage_LastWindow(t *testing.T) {
	ma, err := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ma != 4 {
		t.Errorf("ma = %f, want 4", ma)
	}
}

func TestMovingAverage_MatchesLastSMA(t *testing.T) {
	prices := []float64{3, 8, 1, 9, 4, 7, 2, 6}
	sma := SMA(prices, 4)

	ma, err := MovingAverage(prices, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ma != sma[len(sma)-1] {
		t.Errorf("ma = %f, want last sma %f", ma, sma[len(sma)-1])
	}
}

func TestMovingAverage_NotEnoughData(t *testing.T) {
	_, err := MovingAverage([]float64{1, 2}, 20)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEMA_SeededWithFirstPrice(t *testing.T) {
	prices := []float64{10, 20, 30}
	ema := EMA(prices, 3) // alpha = 0.5

	expected := []float64{10, 15, 22.5}
	if len(ema) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(ema))
	}
	for i, v := range expected {
		if !almostEqual(ema[i], v, 1e-12) {
			t.Errorf("ema[%d] = %f, want %f", i, ema[i], v)
		}
	}
}

func TestEMA_Empty(t *testing.T) {
	if ema := EMA(nil, 3); len(ema) != 0 {
		t.Errorf("expected empty slice, got %d values", len(ema))
	}
}

func TestEMA_Trend(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}
	ema := EMA(prices, 3)

	for i := 1; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA should be increasing, ema[%d]=%f <= ema[%d]=%f", i, ema[i], i-1, ema[i-1])
		}
		if ema[i] >= prices[i] {
			t.Errorf("EMA should lag a rising price, ema[%d]=%f >= %f", i, ema[i], prices[i])
		}
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
