// Package parser evaluates five-field cron expressions.
package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// standard accepts minute, hour, day of month, month and day of week,
// plus descriptors such as @hourly and @daily.
var standard = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Parse validates expr and returns its schedule.
func Parse(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("invalid cron expression: empty")
	}
	schedule, err := standard.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// NextRun returns the first occurrence of expr strictly after from.
// There is no fallback: an unparseable expression is an error.
func NextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	next := schedule.Next(from)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("cron expression %q has no future occurrence", expr)
	}
	return next, nil
}
