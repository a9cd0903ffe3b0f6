package indicator

import (
	"fmt"

	"github.com/newthinker/coinalert/internal/core"
)

// MACD returns the latest MACD line (fast EMA minus slow EMA) and its signal
// line (EMA of the MACD line over signal). All EMAs are seeded with their
// first input, so a single price yields (0, 0).
func MACD(prices []float64, fast, slow, signal int) (macdLine, signalLine float64, err error) {
	if len(prices) == 0 {
		return 0, 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("macd needs at least one price"))
	}
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return 0, 0, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("macd periods must be positive: %d/%d/%d", fast, slow, signal))
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalEMA := EMA(line, signal)

	last := len(prices) - 1
	return line[last], signalEMA[last], nil
}
