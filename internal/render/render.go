// Package render formats evaluations into the text people receive.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/coinalert/internal/alert"
	"github.com/newthinker/coinalert/internal/indicator"
)

// subCentBoundary separates sub-cent assets, shown with 8 decimals, from
// everything else, shown with 4.
const subCentBoundary = 0.1

// Alert is everything a rendered message shows for one symbol.
type Alert struct {
	Symbol     string
	Snapshot   indicator.Snapshot
	Params     indicator.Params
	Thresholds alert.Thresholds
	Result     alert.Result
	EntryPrice *float64
}

// FormatPrice renders v with 8 fractional digits below 0.1 and 4 otherwise.
func FormatPrice(v float64) string {
	if math.Abs(v) < subCentBoundary {
		return fmt.Sprintf("%.8f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

// Render builds the message for one evaluated symbol.
func Render(a Alert) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s ($%s)\n", a.Symbol, FormatPrice(a.Snapshot.LastPrice)))

	if a.EntryPrice != nil && a.Result.HasChange {
		sb.WriteString(fmt.Sprintf("Entry: $%s (%s%%)\n", FormatPrice(*a.EntryPrice), signed(a)))
	}

	sb.WriteString(indicatorLine(a))
	sb.WriteString("\n")

	for _, reason := range a.Result.Reasons {
		sb.WriteString(describe(a, reason))
		sb.WriteString("\n")
	}

	sb.WriteString("Suggested: ")
	sb.WriteString(Label(a.Result.Recommendation))

	return sb.String()
}

// Fallback is sent once when no symbol produced an evaluation, so a silent
// run can be told apart from a broken push channel.
func Fallback() string {
	return "🚨 TEST ALERT: No valid data but push works!"
}

// Label is the human wording of a recommendation.
func Label(rec alert.Recommendation) string {
	switch rec {
	case alert.RecommendBuy:
		return "BUY"
	case alert.RecommendNoBuy:
		return "DO NOT BUY"
	case alert.RecommendSell:
		return "SELL"
	case alert.RecommendPartialSell:
		return "PARTIAL SELL"
	case alert.RecommendStopLoss:
		return "STOP LOSS"
	default:
		return "WAIT"
	}
}

func indicatorLine(a Alert) string {
	s := a.Snapshot

	rsi := "n/a"
	if s.RSIValid {
		rsi = fmt.Sprintf("%.2f", s.RSI)
	}
	ma := "n/a"
	if s.MAValid {
		ma = FormatPrice(s.MA)
	}
	macd := "n/a"
	if s.MACDValid {
		macd = fmt.Sprintf("%s / %s", FormatPrice(s.MACD), FormatPrice(s.Signal))
	}

	return fmt.Sprintf("RSI %s | MA%d %s | MACD %s", rsi, a.Params.MAPeriod, ma, macd)
}

func describe(a Alert, reason alert.Reason) string {
	th := a.Thresholds
	switch reason {
	case alert.ReasonOversold:
		return fmt.Sprintf("RSI below %s (oversold)", trim(th.Oversold))
	case alert.ReasonOverbought:
		return fmt.Sprintf("RSI above %s (overbought)", trim(th.Overbought))
	case alert.ReasonBullishCrossover:
		return "MACD bullish crossover"
	case alert.ReasonBearishCrossover:
		return "MACD bearish crossover"
	case alert.ReasonBreakout:
		return fmt.Sprintf("Price above MA%d (breakout)", a.Params.MAPeriod)
	case alert.ReasonBreakdown:
		return fmt.Sprintf("Price below MA%d (breakdown)", a.Params.MAPeriod)
	case alert.ReasonFullSell:
		return fmt.Sprintf("Up %s%% from entry (full sell)", signed(a))
	case alert.ReasonPartialSell:
		return fmt.Sprintf("Up %s%% from entry (partial sell)", signed(a))
	case alert.ReasonStopLoss:
		return fmt.Sprintf("Down %s%% from entry (stop loss)", a.Result.ChangePct.Abs().StringFixed(2))
	case alert.ReasonNoSignal:
		return "🚨 No strong signal"
	default:
		return string(reason)
	}
}

func signed(a Alert) string {
	s := a.Result.ChangePct.StringFixed(2)
	if a.Result.ChangePct.IsNegative() {
		return s
	}
	return "+" + s
}

func trim(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
