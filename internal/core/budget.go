package core

import (
	"fmt"
	"math"
	"math/big"
)

// BudgetGoal holds a user's monthly spending bounds. There is at most one per (user, month).
type BudgetGoal struct {
	UserID   string
	MonthKey string
	Minimum  Money
	Maximum  Money
}

func (g BudgetGoal) Validate() error {
	if _, err := ParseMonthKey(g.MonthKey); err != nil {
		return err
	}
	if g.Minimum.Cents < 0 {
		return invalid("minimum", ErrInvalidGoal)
	}
	if g.Maximum.Cents < 0 {
		return invalid("maximum", ErrInvalidGoal)
	}
	return nil
}

// Inverted reports a maximum below the minimum. It is accepted but worth a warning.
func (g BudgetGoal) Inverted() bool {
	return g.Maximum.Cents < g.Minimum.Cents
}

// BudgetStatus classifies spending against a goal.
type BudgetStatus int

const (
	NoGoals BudgetStatus = iota
	UnderMinimum
	OnTrackLow
	OnTrackHigh
	OverBudget
)

var statusNames = [...]string{
	NoGoals:      "no_goals",
	UnderMinimum: "under_minimum",
	OnTrackLow:   "on_track_low",
	OnTrackHigh:  "on_track_high",
	OverBudget:   "over_budget",
}

func (s BudgetStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("BudgetStatus(%d)", int(s))
	}
	return statusNames[s]
}

func (s BudgetStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classify evaluates the predicates in order; the first that holds wins.
// Spending exactly at the minimum is OnTrackLow and exactly at the maximum is OnTrackHigh.
func Classify(total Money, goal *BudgetGoal) BudgetStatus {
	switch {
	case goal == nil:
		return NoGoals
	case total.Cents < goal.Minimum.Cents:
		return UnderMinimum
	case belowHighBand(total.Cents, goal.Maximum.Cents):
		return OnTrackLow
	case total.Cents <= goal.Maximum.Cents:
		return OnTrackHigh
	default:
		return OverBudget
	}
}

// belowHighBand reports total < 0.8*max exactly. Values large enough to
// overflow 5*total or 4*max are compared as big integers.
func belowHighBand(total, max int64) bool {
	const limit = math.MaxInt64 / 5
	if total > -limit && total < limit && max > -limit && max < limit {
		return 5*total < 4*max
	}
	lhs := new(big.Int).Mul(big.NewInt(total), big.NewInt(5))
	rhs := new(big.Int).Mul(big.NewInt(max), big.NewInt(4))
	return lhs.Cmp(rhs) < 0
}

// ProgressPercent is total/max as a percentage clamped to [0, 100]; 0 when max <= 0.
func ProgressPercent(total, max Money) float64 {
	if max.Cents <= 0 {
		return 0
	}
	p := float64(total.Cents) / float64(max.Cents) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
