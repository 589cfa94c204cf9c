package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calwire/calwire/rrule"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Example Corp//CalDAV Client//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:19970901T130000Z-123401@example.com\r\n" +
	"DTSTAMP:19970901T130000Z\r\n" +
	"DTSTART:19970902T090000Z\r\n" +
	"DTEND:19970902T100000Z\r\n" +
	"SUMMARY:Annual Employee Review\r\n" +
	"DESCRIPTION:Project xyz Review Meeting will include\r\n" +
	" : a review of the deliverables\\, and lunch\r\n" +
	"CATEGORIES:BUSINESS,HUMAN RESOURCES\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4;BYDAY=TU\r\n" +
	"EXDATE:19970909T090000Z\r\n" +
	"ATTENDEE;ROLE=REQ-PARTICIPANT;CN=\"Smith, John\":mailto:jsmith@example.com\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseCalendar(t *testing.T) {
	cal, err := Parse([]byte(sampleICS))
	require.NoError(t, err)
	assert.Equal(t, CompCalendar, cal.Name)
	assert.Equal(t, "2.0", cal.Text(PropVersion).MustGet())

	events := cal.Events()
	require.Len(t, events, 1)
	event := events[0]

	assert.Equal(t, "Annual Employee Review", event.Text(PropSummary).MustGet())
	assert.Equal(t,
		"Project xyz Review Meeting will include: a review of the deliverables, and lunch",
		event.Text(PropDescription).MustGet())

	categories, ok := event.Prop(PropCategories).Get()
	require.True(t, ok)
	assert.Equal(t, []string{"BUSINESS", "HUMAN RESOURCES"}, categories.Values)

	start := event.DateTime(PropDtStart, nil).MustGet()
	assert.Equal(t, time.Date(1997, 9, 2, 9, 0, 0, 0, time.UTC), start)
}

func TestParseParams(t *testing.T) {
	cal, err := Parse([]byte(sampleICS))
	require.NoError(t, err)
	event := cal.Events()[0]

	attendee, ok := event.Prop("ATTENDEE").Get()
	require.True(t, ok)
	assert.Equal(t, "mailto:jsmith@example.com", attendee.Value())

	role, ok := attendee.Param("ROLE").Get()
	require.True(t, ok)
	assert.Equal(t, "REQ-PARTICIPANT", role.Value())

	// Quotes protect the comma inside CN.
	cn, ok := attendee.Param("CN").Get()
	require.True(t, ok)
	assert.Equal(t, "Smith, John", cn.Value())
}

func TestParseRRule(t *testing.T) {
	cal, err := Parse([]byte(sampleICS))
	require.NoError(t, err)
	event := cal.Events()[0]

	rule, ok := event.RecurrenceRule().Get()
	require.True(t, ok)
	assert.Equal(t, rrule.Weekly, rule.Freq)
	assert.Equal(t, 4, rule.Count)
	assert.Equal(t, []rrule.Weekday{rrule.TU}, rule.Byweekday)
}

func TestRecurrenceSetExpansion(t *testing.T) {
	cal, err := Parse([]byte(sampleICS))
	require.NoError(t, err)
	event := cal.Events()[0]

	set, err := event.RecurrenceSet(time.UTC)
	require.NoError(t, err)
	dates, limited, err := set.All(0)
	require.NoError(t, err)
	assert.False(t, limited)
	// Four Tuesdays minus the excluded second one.
	assert.Equal(t, []time.Time{
		time.Date(1997, 9, 2, 9, 0, 0, 0, time.UTC),
		time.Date(1997, 9, 16, 9, 0, 0, 0, time.UTC),
		time.Date(1997, 9, 23, 9, 0, 0, 0, time.UTC),
	}, dates)
}

func TestParseBadRRuleKeptAsText(t *testing.T) {
	ics := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"RRULE:COUNT=5\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	cal, err := Parse([]byte(ics))
	require.NoError(t, err)
	prop, ok := cal.Events()[0].Prop(PropRRule).Get()
	require.True(t, ok)
	assert.Nil(t, prop.Rule)
	assert.Equal(t, "COUNT=5", prop.Value())
	assert.True(t, cal.Events()[0].RecurrenceRule().IsAbsent())

	_, err = Parse([]byte(ics), WithStrict())
	require.Error(t, err)
	var verr *rrule.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseRelaxedSkipsGarbage(t *testing.T) {
	ics := "BEGIN:VCALENDAR\r\n" +
		"THIS IS NOT A CONTENT LINE\r\n" +
		"VERSION:2.0\r\n" +
		"END:VCALENDAR\r\n"

	cal, err := Parse([]byte(ics))
	require.NoError(t, err)
	assert.Equal(t, "2.0", cal.Text(PropVersion).MustGet())

	_, err = Parse([]byte(ics), WithStrict())
	assert.Error(t, err)
}

func TestParseNestedComponents(t *testing.T) {
	ics := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VTIMEZONE\r\n" +
		"TZID:America/New_York\r\n" +
		"BEGIN:STANDARD\r\n" +
		"TZOFFSETFROM:-0400\r\n" +
		"TZOFFSETTO:-0500\r\n" +
		"END:STANDARD\r\n" +
		"END:VTIMEZONE\r\n" +
		"BEGIN:VEVENT\r\n" +
		"BEGIN:VALARM\r\n" +
		"ACTION:DISPLAY\r\n" +
		"END:VALARM\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	cal, err := Parse([]byte(ics))
	require.NoError(t, err)
	require.Len(t, cal.Children, 2)

	tz := cal.Children[0]
	assert.Equal(t, CompTimezone, tz.Name)
	require.Len(t, tz.Children, 1)
	assert.Equal(t, CompStandard, tz.Children[0].Name)

	event := cal.Children[1]
	require.Len(t, event.Children, 1)
	assert.Equal(t, CompAlarm, event.Children[0].Name)
}

func TestParseMissingCalendar(t *testing.T) {
	_, err := Parse([]byte("SUMMARY:floating\r\n"))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	cal, err := Parse([]byte(sampleICS))
	require.NoError(t, err)

	again, err := Parse([]byte(cal.String()))
	require.NoError(t, err)

	orig := cal.Events()[0]
	reparsed := again.Events()[0]
	assert.Equal(t, orig.Text(PropSummary), reparsed.Text(PropSummary))
	assert.Equal(t, orig.Text(PropDescription), reparsed.Text(PropDescription))
	assert.Equal(t, orig.Prop(PropCategories).MustGet().Values,
		reparsed.Prop(PropCategories).MustGet().Values)
	assert.Equal(t, orig.RecurrenceRule().MustGet().RRuleString(),
		reparsed.RecurrenceRule().MustGet().RRuleString())
	cn := reparsed.Prop("ATTENDEE").MustGet().Param("CN").MustGet()
	assert.Equal(t, "Smith, John", cn.Value())
}

func TestWriterFoldsLongLines(t *testing.T) {
	summary := strings.Repeat("long summary ", 20) + "end"
	cal := NewCalendar()
	cal.AddEvent(summary, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	for _, line := range strings.Split(cal.String(), "\r\n") {
		assert.LessOrEqual(t, len(line), foldWidth)
	}

	// The folded document parses back to the original text.
	again, err := Parse([]byte(cal.String()))
	require.NoError(t, err)
	assert.Equal(t, summary, again.Events()[0].Text(PropSummary).MustGet())
}

func TestBuilder(t *testing.T) {
	cal := NewCalendar()
	assert.Equal(t, "2.0", cal.Text(PropVersion).MustGet())
	assert.True(t, cal.Text(PropProdID).IsPresent())

	event := NewEvent()
	uid := event.Text(PropUID).MustGet()
	assert.NotEmpty(t, uid)
	assert.True(t, event.Text(PropDtStamp).IsPresent())

	other := NewEvent()
	assert.NotEqual(t, uid, other.Text(PropUID).MustGet())
}

func TestSetRuleRoundTrip(t *testing.T) {
	cal := NewCalendar()
	event := cal.AddEvent("standup", time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC))
	opt, err := rrule.StrToROption("FREQ=WEEKLY;BYDAY=MO,WE,FR")
	require.NoError(t, err)
	event.SetRule(opt)

	again, err := Parse([]byte(cal.String()))
	require.NoError(t, err)
	rule := again.Events()[0].RecurrenceRule().MustGet()
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,WE,FR", rule.RRuleString())
}
