package events

import (
	"fmt"

	ical "github.com/arran4/golang-ical"
)

// BuildICS serializes events into an iCalendar payload so the dashboard
// selection can be imported into Outlook or Google Calendar.
func BuildICS(evs []Event) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Agora//Event Calendar//EN")

	for i := range evs {
		ev := &evs[i]
		ve := cal.AddEvent(fmt.Sprintf("%s@agora", ev.ID))
		ve.SetDtStampTime(ev.UpdatedAt)
		ve.SetStartAt(ev.StartTime)
		ve.SetEndAt(ev.EndTime)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		ve.SetProperty(ical.ComponentProperty("X-RSVP-STATUS"), string(ev.RSVPStatus))
	}

	return []byte(cal.Serialize())
}
