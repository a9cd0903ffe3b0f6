package indicator

import (
	"fmt"

	"github.com/newthinker/coinalert/internal/core"
)

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// MovingAverage returns the trailing mean of the last period prices.
func MovingAverage(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period {
		return 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("ma(%d) needs %d prices, got %d", period, period, len(prices)))
	}

	return SMA(prices[len(prices)-period:], period)[0], nil
}

// EMA calculates Exponential Moving Average with smoothing 2/(span+1).
// The recursion is seeded with the first price, so the output has the same
// length as the input and result[0] == prices[0].
func EMA(prices []float64, span int) []float64 {
	if len(prices) == 0 || span <= 0 {
		return []float64{}
	}

	result := make([]float64, len(prices))
	alpha := 2.0 / float64(span+1)

	ema := prices[0]
	result[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = alpha*prices[i] + (1-alpha)*ema
		result[i] = ema
	}

	return result
}
