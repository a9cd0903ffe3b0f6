package alert

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Recommendation is the single trade suggestion of one evaluation.
type Recommendation string

const (
	RecommendWait        Recommendation = "WAIT"
	RecommendBuy         Recommendation = "BUY"
	RecommendNoBuy       Recommendation = "NO_BUY"
	RecommendSell        Recommendation = "SELL"
	RecommendPartialSell Recommendation = "PARTIAL_SELL"
	RecommendStopLoss    Recommendation = "STOP_LOSS"
)

// Reason is the short code a fired rule contributes.
type Reason string

const (
	ReasonOversold         Reason = "oversold"
	ReasonOverbought       Reason = "overbought"
	ReasonBullishCrossover Reason = "bullish crossover"
	ReasonBearishCrossover Reason = "bearish crossover"
	ReasonBreakout         Reason = "breakout"
	ReasonBreakdown        Reason = "breakdown"
	ReasonFullSell         Reason = "full sell"
	ReasonPartialSell      Reason = "partial sell"
	ReasonStopLoss         Reason = "stop loss"
	ReasonNoSignal         Reason = "no strong signal"
)

// Thresholds holds the rule boundaries. Percentages are entry-relative.
type Thresholds struct {
	Oversold       float64 `mapstructure:"oversold"`
	Overbought     float64 `mapstructure:"overbought"`
	FullSellPct    float64 `mapstructure:"full_sell_pct"`
	PartialSellPct float64 `mapstructure:"partial_sell_pct"`
	StopLossPct    float64 `mapstructure:"stop_loss_pct"`
}

// DefaultThresholds returns RSI 30/70, sell at +100%, partial sell at +5% and
// stop loss at -3%.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Oversold:       30,
		Overbought:     70,
		FullSellPct:    100,
		PartialSellPct: 5,
		StopLossPct:    -3,
	}
}

// Validate checks the bands are finite and ordered.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"oversold":         t.Oversold,
		"overbought":       t.Overbought,
		"full_sell_pct":    t.FullSellPct,
		"partial_sell_pct": t.PartialSellPct,
		"stop_loss_pct":    t.StopLossPct,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number, got %v", name, v)
		}
	}
	if t.Oversold < 0 || t.Overbought > 100 || t.Oversold >= t.Overbought {
		return fmt.Errorf("rsi thresholds must satisfy 0 <= oversold < overbought <= 100, got %v/%v",
			t.Oversold, t.Overbought)
	}
	if t.StopLossPct >= 0 {
		return fmt.Errorf("stop_loss_pct must be negative, got %v", t.StopLossPct)
	}
	if t.PartialSellPct <= 0 || t.PartialSellPct > t.FullSellPct {
		return fmt.Errorf("sell bands must satisfy 0 < partial_sell_pct <= full_sell_pct, got %v/%v",
			t.PartialSellPct, t.FullSellPct)
	}
	return nil
}

// Rule inspects one aspect of the input. When its condition holds it calls
// res.fire exactly once; otherwise it leaves res untouched.
type Rule interface {
	Name() string
	Apply(in Input, th Thresholds, res *Result)
}

// DefaultRules returns the rule chain in its contractual order:
// RSI, MACD crossover, price versus MA, entry bands.
func DefaultRules() []Rule {
	return []Rule{RSIRule{}, MACDRule{}, TrendRule{}, EntryBandRule{}}
}

// RSIRule flags oversold and overbought RSI.
type RSIRule struct{}

func (RSIRule) Name() string { return "rsi" }

func (RSIRule) Apply(in Input, th Thresholds, res *Result) {
	if !in.Snapshot.RSIValid {
		return
	}
	switch rsi := in.Snapshot.RSI; {
	case rsi < th.Oversold:
		res.fire(ReasonOversold, RecommendBuy)
	case rsi > th.Overbought:
		res.fire(ReasonOverbought, RecommendNoBuy)
	}
}

// MACDRule compares the MACD line with its signal line. Equality fires
// neither branch.
type MACDRule struct{}

func (MACDRule) Name() string { return "macd" }

func (MACDRule) Apply(in Input, _ Thresholds, res *Result) {
	s := in.Snapshot
	if !s.MACDValid {
		return
	}
	switch {
	case s.MACD > s.Signal:
		res.fire(ReasonBullishCrossover, RecommendBuy)
	case s.MACD < s.Signal:
		res.fire(ReasonBearishCrossover, RecommendNoBuy)
	}
}

// TrendRule compares the last price with the moving average.
type TrendRule struct{}

func (TrendRule) Name() string { return "trend" }

func (TrendRule) Apply(in Input, _ Thresholds, res *Result) {
	s := in.Snapshot
	if !s.MAValid {
		return
	}
	switch {
	case s.LastPrice > s.MA:
		res.fire(ReasonBreakout, RecommendBuy)
	case s.LastPrice < s.MA:
		res.fire(ReasonBreakdown, RecommendNoBuy)
	}
}

// EntryBandRule fires at most one of full sell, partial sell or stop loss,
// highest band first. It needs a change percent from an entry reference.
type EntryBandRule struct{}

func (EntryBandRule) Name() string { return "entry_band" }

func (EntryBandRule) Apply(_ Input, th Thresholds, res *Result) {
	if !res.HasChange {
		return
	}
	full, okFull := band(th.FullSellPct)
	partial, okPartial := band(th.PartialSellPct)
	stop, okStop := band(th.StopLossPct)

	change := res.ChangePct
	switch {
	case okFull && change.GreaterThanOrEqual(full):
		res.fire(ReasonFullSell, RecommendSell)
	case okPartial && change.GreaterThanOrEqual(partial):
		res.fire(ReasonPartialSell, RecommendPartialSell)
	case okStop && change.LessThanOrEqual(stop):
		res.fire(ReasonStopLoss, RecommendStopLoss)
	}
}

// band converts a threshold; a non-finite one never fires.
func band(v float64) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}
