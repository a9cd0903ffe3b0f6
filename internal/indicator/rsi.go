package indicator

import (
	"fmt"
	"math"

	"github.com/newthinker/coinalert/internal/core"
)

// RSI returns the most recent Relative Strength Index over period.
//
// Average gain and loss are plain rolling means of the last period price
// differences, not Wilder's smoothed averages. period+1 prices are required.
// A zero average loss leaves RS undefined and yields ErrUndefinedIndicator
// instead of a substituted 100, as does a non-finite price inside the window.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period+1 {
		return 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("rsi(%d) needs %d prices, got %d", period, period+1, len(prices)))
	}

	window := prices[len(prices)-period-1:]
	for _, p := range window {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, core.WrapError(core.ErrUndefinedIndicator,
				fmt.Errorf("rsi(%d): non-finite price in window", period))
		}
	}

	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else if delta < 0 {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 0, core.WrapError(core.ErrUndefinedIndicator,
			fmt.Errorf("rsi(%d): average loss is zero", period))
	}

	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		return 0, core.WrapError(core.ErrUndefinedIndicator,
			fmt.Errorf("rsi(%d): non-finite result", period))
	}

	return rsi, nil
}
