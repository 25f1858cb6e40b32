package events

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildICS(t *testing.T) {
	evs := []Event{
		{
			ID:         uuid.New(),
			Title:      "Q2 Earnings Call",
			Location:   "Virtual",
			StartTime:  day(t, "2024-06-06 14:00"),
			EndTime:    day(t, "2024-06-06 15:00"),
			RSVPStatus: RSVPAccepted,
		},
		{
			ID:         uuid.New(),
			Title:      "Investor Day",
			StartTime:  day(t, "2024-06-10 09:00"),
			EndTime:    day(t, "2024-06-10 17:00"),
			RSVPStatus: RSVPPending,
		},
	}

	payload := string(BuildICS(evs))

	assert.True(t, strings.HasPrefix(payload, "BEGIN:VCALENDAR"))
	assert.Contains(t, payload, "SUMMARY:Q2 Earnings Call")
	assert.Contains(t, payload, "SUMMARY:Investor Day")
	assert.Contains(t, payload, "LOCATION:Virtual")
	assert.Contains(t, payload, "X-RSVP-STATUS:accepted")
	assert.Equal(t, 2, strings.Count(payload, "BEGIN:VEVENT"))
	assert.Contains(t, payload, "END:VCALENDAR")
}

func TestBuildICSEmpty(t *testing.T) {
	payload := string(BuildICS(nil))

	assert.Contains(t, payload, "BEGIN:VCALENDAR")
	assert.Contains(t, payload, "END:VCALENDAR")
	assert.NotContains(t, payload, "BEGIN:VEVENT")
}
