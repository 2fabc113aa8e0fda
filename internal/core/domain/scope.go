package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidScope = errors.New("invalid scope (must be daily, weekly, or monthly)")

// Scope selects the aggregation granularity: the width of the current
// and previous comparison periods and the heatmap lookback window.
type Scope string

const (
	ScopeDaily   Scope = "daily"
	ScopeWeekly  Scope = "weekly"
	ScopeMonthly Scope = "monthly"
)

// ParseScope validates a raw scope string.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeDaily, ScopeWeekly, ScopeMonthly:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}
