package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	base := time.Date(2025, 5, 10, 10, 30, 15, 0, time.UTC) // Saturday

	tests := []struct {
		name string
		expr string
		from time.Time
		want time.Time
	}{
		{"every minute", "* * * * *", base, time.Date(2025, 5, 10, 10, 31, 0, 0, time.UTC)},
		{"every minute exactly on boundary", "* * * * *", time.Date(2025, 5, 10, 10, 31, 0, 0, time.UTC), time.Date(2025, 5, 10, 10, 32, 0, 0, time.UTC)},
		{"every five minutes", "*/5 * * * *", base, time.Date(2025, 5, 10, 10, 35, 0, 0, time.UTC)},
		{"daily at midnight", "0 0 * * *", base, time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC)},
		{"mondays at 09:00", "0 9 * * 1", base, time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)},
		{"first of month", "0 0 1 * *", base, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"descriptor", "@hourly", base, time.Date(2025, 5, 10, 11, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  0 12 * * *  ", base, time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRun(tt.expr, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(tt.from))
		})
	}
}

func TestNextRun_Invalid(t *testing.T) {
	tests := []string{
		"",
		"not a cron",
		"60 * * * *",
		"* * * *",
		"* * * * * *",
		"5-1 * * * *",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := NextRun(expr, time.Now())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid cron expression")
		})
	}
}

func TestNextRun_NoFutureOccurrence(t *testing.T) {
	_, err := NextRun("0 0 30 2 *", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no future occurrence")
}
