package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/newthinker/coinalert/internal/core"
)

// Params holds the indicator periods.
type Params struct {
	RSIPeriod  int `mapstructure:"rsi_period"`
	MAPeriod   int `mapstructure:"ma_period"`
	MACDFast   int `mapstructure:"macd_fast"`
	MACDSlow   int `mapstructure:"macd_slow"`
	MACDSignal int `mapstructure:"macd_signal"`
}

// DefaultParams returns RSI14, MA20 and MACD 12/26/9.
func DefaultParams() Params {
	return Params{
		RSIPeriod:  14,
		MAPeriod:   20,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

// Validate checks that every period is positive and fast < slow.
func (p Params) Validate() error {
	if p.RSIPeriod <= 0 || p.MAPeriod <= 0 || p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0 {
		return fmt.Errorf("indicator periods must be positive: %+v", p)
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd fast period (%d) must be below slow period (%d)", p.MACDFast, p.MACDSlow)
	}
	return nil
}

// Lookback is the minimum number of prices Compute accepts.
func (p Params) Lookback() int {
	return max(p.RSIPeriod+1, p.MAPeriod)
}

// Snapshot is the indicator state of one series at its last observation.
// A false *Valid flag means the value is undefined and must not be read.
type Snapshot struct {
	LastPrice float64

	RSI      float64
	RSIValid bool

	MA      float64
	MAValid bool

	MACD      float64
	Signal    float64
	MACDValid bool
}

// Compute derives a Snapshot from series.
//
// It fails with core.ErrInsufficientData when the series is shorter than
// p.Lookback(); callers skip the symbol in that case. An undefined RSI is not
// an error: it only clears RSIValid.
func Compute(series core.PriceSeries, p Params) (Snapshot, error) {
	if series.Len() < p.Lookback() {
		return Snapshot{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need %d prices, got %d", p.Lookback(), series.Len()))
	}

	prices := series.Values()
	snap := Snapshot{LastPrice: series.Last()}

	rsi, err := RSI(prices, p.RSIPeriod)
	switch {
	case err == nil:
		snap.RSI, snap.RSIValid = rsi, true
	case errors.Is(err, core.ErrUndefinedIndicator):
		// rules reading RSI are skipped
	default:
		return Snapshot{}, fmt.Errorf("computing rsi: %w", err)
	}

	ma, err := MovingAverage(prices, p.MAPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("computing ma: %w", err)
	}
	snap.MA, snap.MAValid = ma, finite(ma)

	macd, signal, err := MACD(prices, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return Snapshot{}, fmt.Errorf("computing macd: %w", err)
	}
	snap.MACD, snap.Signal = macd, signal
	snap.MACDValid = finite(macd) && finite(signal)

	return snap, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
