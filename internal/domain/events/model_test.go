package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestHostResolvesTo(t *testing.T) {
	companyID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name     string
		host     Host
		expected bool
	}{
		{
			"single corp match",
			Host{HostType: HostSingleCorp, HostID: &companyID},
			true,
		},
		{
			"single corp different company",
			Host{HostType: HostSingleCorp, HostID: &otherID},
			false,
		},
		{
			"single corp without reference",
			Host{HostType: HostSingleCorp},
			false,
		},
		{
			"multi corp match",
			Host{HostType: HostMultiCorp, Companies: mustCompanyStubs([]CompanyStub{
				{ID: otherID, Ticker: "AAA"},
				{ID: companyID, Ticker: "BBB"},
			})},
			true,
		},
		{
			"multi corp miss",
			Host{HostType: HostMultiCorp, Companies: mustCompanyStubs([]CompanyStub{
				{ID: otherID, Ticker: "AAA"},
			})},
			false,
		},
		{
			"multi corp malformed payload fails closed",
			Host{HostType: HostMultiCorp, Companies: datatypes.JSON(`{"not":"a list"`)},
			false,
		},
		{
			"non-company never resolves",
			Host{HostType: HostNonCompany, OrganizerName: "Sector Conferences"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.host.ResolvesTo(companyID))
		})
	}
}

func TestHostCompanyStubsMalformed(t *testing.T) {
	h := Host{Companies: datatypes.JSON(`[{"id":`)}
	assert.Nil(t, h.CompanyStubs())

	empty := Host{}
	assert.Nil(t, empty.CompanyStubs())
}

func TestEventHostedByAndAttendedByAreDisjoint(t *testing.T) {
	hostID := uuid.New()
	attendeeID := uuid.New()
	outsiderID := uuid.New()

	ev := Event{
		Companies: []Company{{ID: hostID, Ticker: "HST"}, {ID: attendeeID, Ticker: "ATT"}},
		Hosts:     []Host{{HostType: HostSingleCorp, HostID: &hostID}},
	}

	assert.True(t, ev.HostedBy(hostID))
	assert.False(t, ev.AttendedBy(hostID))

	assert.False(t, ev.HostedBy(attendeeID))
	assert.True(t, ev.AttendedBy(attendeeID))

	assert.False(t, ev.HostedBy(outsiderID))
	assert.False(t, ev.AttendedBy(outsiderID))
}

func TestEventStatusColor(t *testing.T) {
	tests := []struct {
		status   RSVPStatus
		expected string
	}{
		{RSVPAccepted, "green"},
		{RSVPDeclined, "yellow"},
		{RSVPPending, "grey"},
		{RSVPStatus("bogus"), "grey"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			ev := Event{RSVPStatus: tt.status}
			assert.Equal(t, tt.expected, ev.StatusColor())
		})
	}
}

func TestEventIsMultiCompany(t *testing.T) {
	assert.False(t, (&Event{}).IsMultiCompany())
	assert.False(t, (&Event{Companies: []Company{{}}}).IsMultiCompany())
	assert.True(t, (&Event{Companies: []Company{{}, {}}}).IsMultiCompany())
}

func TestCreateEventRequestValidate(t *testing.T) {
	start := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

	valid := CreateEventRequest{
		Title:     "Investor Day",
		EventType: EventTypeCatalyst,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}

	tests := []struct {
		name     string
		mutate   func(*CreateEventRequest)
		expected error
	}{
		{"valid request", func(r *CreateEventRequest) {}, nil},
		{"zero-length event", func(r *CreateEventRequest) { r.EndTime = r.StartTime }, nil},
		{"unknown event type", func(r *CreateEventRequest) { r.EventType = "webinar" }, ErrInvalidEventType},
		{"unknown location type", func(r *CreateEventRequest) { r.LocationType = "metaverse" }, ErrInvalidLocationType},
		{"end before start", func(r *CreateEventRequest) { r.EndTime = r.StartTime.Add(-time.Hour) }, ErrInvalidTimeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestHostValidate(t *testing.T) {
	companyID := uuid.New()

	tests := []struct {
		name    string
		host    Host
		wantErr bool
	}{
		{"single corp with reference", Host{HostType: HostSingleCorp, HostID: &companyID}, false},
		{"single corp missing reference", Host{HostType: HostSingleCorp}, true},
		{"multi corp with stubs", Host{HostType: HostMultiCorp, Companies: mustCompanyStubs([]CompanyStub{{ID: companyID}})}, false},
		{"multi corp without stubs", Host{HostType: HostMultiCorp}, true},
		{"non-company with organizer", Host{HostType: HostNonCompany, OrganizerName: "Sector Conferences"}, false},
		{"non-company without organizer", Host{HostType: HostNonCompany}, true},
		{"unknown host type", Host{HostType: "committee"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.host.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHost)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
