// Package usage enforces the monthly upstream API budget. Every provider
// call is checked against the hard threshold first and counted afterwards;
// counters are keyed by month so the budget resets on the month boundary.
package usage

import (
	"context"
	"fmt"
	"time"
)

// Limits holds the monthly request budget and its thresholds.
type Limits struct {
	Monthly int64 `mapstructure:"monthly_limit"`
	Warn    int64 `mapstructure:"warn_threshold"`
	Hard    int64 `mapstructure:"hard_threshold"`
}

// DefaultLimits mirrors the upstream free tier: 200 requests/month, warn at
// 160 (80%), hard stop at 180 (90%).
func DefaultLimits() Limits {
	return Limits{Monthly: 200, Warn: 160, Hard: 180}
}

// Decision is the answer to "may this API call happen?".
type Decision struct {
	Allowed   bool
	Used      int64
	Remaining int64
	Reason    string
}

// Stats is the caller-facing usage report.
type Stats struct {
	Month       string           `json:"month"`
	Used        int64            `json:"used"`
	Remaining   int64            `json:"remaining"`
	Limit       int64            `json:"limit"`
	PercentUsed float64          `json:"percent_used"`
	WarnReached bool             `json:"warn_reached"`
	HardReached bool             `json:"hard_reached"`
	ByKeyword   map[string]int64 `json:"by_keyword,omitempty"`
	ByDate      map[string]int64 `json:"by_date,omitempty"`
}

// Tracker is the quota boundary consulted around every provider call.
type Tracker interface {
	// Allow decides whether one more upstream call may be made.
	Allow(ctx context.Context) (Decision, error)
	// Record counts one completed upstream call against the keyword.
	Record(ctx context.Context, keyword string) error
	// Stats reports the current month's usage.
	Stats(ctx context.Context) (Stats, error)
}

// MonthKey formats the month bucket for t, e.g. "2026-08".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DateKey formats the per-day bucket for t, e.g. "2026-08-28".
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Decide evaluates the thresholds for a current counter value.
func (l Limits) Decide(used int64) Decision {
	remaining := l.Monthly - used
	if remaining < 0 {
		remaining = 0
	}
	if used >= l.Hard {
		return Decision{
			Allowed:   false,
			Used:      used,
			Remaining: remaining,
			Reason:    fmt.Sprintf("monthly hard limit reached (%d/%d), API calls blocked", used, l.Monthly),
		}
	}
	return Decision{Allowed: true, Used: used, Remaining: remaining}
}

// Disabled is a Tracker that allows everything and counts nothing. Used when
// no Redis is configured.
type Disabled struct{}

func (Disabled) Allow(ctx context.Context) (Decision, error) {
	return Decision{Allowed: true}, nil
}

func (Disabled) Record(ctx context.Context, keyword string) error {
	return nil
}

func (Disabled) Stats(ctx context.Context) (Stats, error) {
	return Stats{Month: MonthKey(time.Now())}, nil
}
