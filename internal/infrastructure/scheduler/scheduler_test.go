package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextMidnight(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			"mid-afternoon",
			time.Date(2024, time.June, 5, 15, 30, 12, 0, time.UTC),
			time.Date(2024, time.June, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			"exactly midnight rolls to the next day",
			time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.June, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			"month rollover",
			time.Date(2024, time.June, 30, 23, 59, 59, 0, time.UTC),
			time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"year rollover",
			time.Date(2024, time.December, 31, 8, 0, 0, 0, time.UTC),
			time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextMidnight(tt.now)
			assert.Equal(t, tt.expected, got)
			assert.True(t, got.After(tt.now))
		})
	}
}
