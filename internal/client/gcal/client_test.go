package gcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcalendar "google.golang.org/api/calendar/v3"

	"directory-agent/internal/model"
)

func TestToAPIEvent(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, loc)

	ev := toAPIEvent(model.CalendarEvent{
		Summary:   "Consulta",
		Location:  "Clínica",
		Attendees: []string{"a@b.com"},
		Start:     start,
		End:       start.Add(time.Hour),
		Timezone:  "America/Sao_Paulo",
	})
	assert.Equal(t, "Consulta", ev.Summary)
	assert.Equal(t, "2024-05-10T10:00:00-03:00", ev.Start.DateTime)
	assert.Equal(t, "America/Sao_Paulo", ev.Start.TimeZone)
	assert.Equal(t, "2024-05-10T11:00:00-03:00", ev.End.DateTime)
	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, "a@b.com", ev.Attendees[0].Email)
}

func TestToAPIEventAllDay(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	ev := toAPIEvent(model.CalendarEvent{Summary: "Feriado", Start: day, End: day.AddDate(0, 0, 1), AllDay: true})
	assert.Equal(t, "2024-05-10", ev.Start.Date)
	assert.Equal(t, "2024-05-11", ev.End.Date)
	assert.Empty(t, ev.Start.DateTime)
}

func TestToAPIPatchOnlyProvidedFields(t *testing.T) {
	p := toAPIPatch(model.EventPatch{Location: "Sala 2"})
	assert.Equal(t, "Sala 2", p.Location)
	assert.Empty(t, p.Summary)
	assert.Nil(t, p.Start)
	assert.Nil(t, p.End)
	assert.Nil(t, p.Attendees)
}

func TestFromAPIEvent(t *testing.T) {
	ev := fromAPIEvent(&gcalendar.Event{
		Id:        "abc",
		Summary:   "Reunião",
		Attendees: []*gcalendar.EventAttendee{{Email: "x@y.com"}, nil},
		Start:     &gcalendar.EventDateTime{DateTime: "2024-05-10T13:00:00Z", TimeZone: "America/Sao_Paulo"},
		End:       &gcalendar.EventDateTime{DateTime: "2024-05-10T14:00:00Z"},
	})
	assert.Equal(t, "abc", ev.ID)
	assert.Equal(t, []string{"x@y.com"}, ev.Attendees)
	assert.Equal(t, 10, ev.Start.Hour())
	assert.Equal(t, "America/Sao_Paulo", ev.Timezone)
	assert.False(t, ev.AllDay)

	allDay := fromAPIEvent(&gcalendar.Event{Start: &gcalendar.EventDateTime{Date: "2024-05-10"}})
	assert.True(t, allDay.AllDay)
	assert.Equal(t, 10, allDay.Start.Day())

	assert.Equal(t, model.CalendarEvent{}, fromAPIEvent(nil))
}
