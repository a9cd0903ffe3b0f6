package alert

import (
	"github.com/newthinker/coinalert/internal/core"
	"github.com/newthinker/coinalert/internal/indicator"
	"github.com/shopspring/decimal"
)

// Input is everything one evaluation reads.
type Input struct {
	Snapshot indicator.Snapshot
	// EntryPrice is the reference price for the entry bands; nil skips them.
	EntryPrice *float64
}

// Result is the outcome of one evaluation.
type Result struct {
	Reasons        []Reason
	Recommendation Recommendation

	// ChangePct is the entry-relative change rounded to two places. Only
	// meaningful when HasChange is set.
	ChangePct decimal.Decimal
	HasChange bool
}

func (r *Result) fire(reason Reason, rec Recommendation) {
	r.Reasons = append(r.Reasons, reason)
	r.Recommendation = rec
}

// Evaluator applies an ordered rule chain to indicator snapshots.
//
// Every rule runs, each firing appends its reason and overwrites the
// recommendation, so the last rule to fire decides. The order is part of
// the contract with readers of the alerts and must not be changed to
// "prioritise" signals.
type Evaluator struct {
	rules      []Rule
	thresholds Thresholds
}

// NewEvaluator creates an evaluator. With no rules DefaultRules is used.
func NewEvaluator(th Thresholds, rules ...Rule) *Evaluator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Evaluator{rules: rules, thresholds: th}
}

// Thresholds returns the thresholds the evaluator was built with.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate runs all rules against in. It has no side effects.
func (e *Evaluator) Evaluate(in Input) Result {
	res := Result{Recommendation: RecommendWait}

	if in.EntryPrice != nil {
		res.ChangePct, res.HasChange = ChangePercent(in.Snapshot.LastPrice, *in.EntryPrice)
	}

	for _, rule := range e.rules {
		rule.Apply(in, e.thresholds, &res)
	}

	if len(res.Reasons) == 0 {
		res.Reasons = []Reason{ReasonNoSignal}
		res.Recommendation = RecommendWait
	}
	return res
}

// ChangePercent returns (last-entry)/entry*100 rounded half away from zero to
// two places. ok is false when either price is not positive and finite.
func ChangePercent(last, entry float64) (change decimal.Decimal, ok bool) {
	if !core.ValidPrice(last) || !core.ValidPrice(entry) {
		return decimal.Zero, false
	}
	l := decimal.NewFromFloat(last)
	en := decimal.NewFromFloat(entry)
	return l.Sub(en).Div(en).Mul(decimal.NewFromInt(100)).Round(2), true
}
