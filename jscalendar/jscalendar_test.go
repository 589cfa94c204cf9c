package jscalendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calwire/calwire/ical"
	"github.com/calwire/calwire/rrule"
)

func TestRuleFromROption(t *testing.T) {
	opt, err := rrule.StrToROption("FREQ=MONTHLY;INTERVAL=2;COUNT=10;BYDAY=MO,-1FR;BYMONTHDAY=1,15;BYSETPOS=1;WKST=SU")
	require.NoError(t, err)

	rule := FromROption(opt)
	assert.Equal(t, "RecurrenceRule", rule.Type)
	assert.Equal(t, "monthly", rule.Frequency)
	assert.Equal(t, 2, rule.Interval)
	assert.Equal(t, 10, rule.Count)
	assert.Equal(t, "su", rule.FirstDayOfWeek)
	assert.Equal(t, []NDay{
		{Day: "mo"},
		{Day: "fr", NthOfPeriod: -1},
	}, rule.ByDay)
	assert.Equal(t, []int{1, 15}, rule.ByMonthDay)
	assert.Equal(t, []int{1}, rule.BySetPosition)
}

func TestRuleToROption(t *testing.T) {
	rule := &RecurrenceRule{
		Frequency:      "weekly",
		Interval:       2,
		Until:          "1997-12-24T00:00:00",
		FirstDayOfWeek: "su",
		ByDay:          []NDay{{Day: "tu"}, {Day: "th"}},
	}
	opt, err := rule.ROption()
	require.NoError(t, err)
	assert.Equal(t, rrule.Weekly, opt.Freq)
	assert.Equal(t, 2, opt.Interval)
	assert.Equal(t, time.Date(1997, 12, 24, 0, 0, 0, 0, time.UTC), opt.Until)
	assert.Equal(t, rrule.SU, opt.Wkst)
	assert.Equal(t, []rrule.Weekday{rrule.TU, rrule.TH}, opt.Byweekday)

	// The mapped option expands like the original RRULE.
	opt.Dtstart = time.Date(1997, 9, 2, 9, 0, 0, 0, time.UTC)
	r, err := rrule.NewRRule(*opt)
	require.NoError(t, err)
	dates, err := r.All()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1997, 9, 2, 9, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(1997, 9, 4, 9, 0, 0, 0, time.UTC), dates[1])
	assert.Equal(t, time.Date(1997, 9, 16, 9, 0, 0, 0, time.UTC), dates[2])
}

func TestRuleRoundTrip(t *testing.T) {
	inputs := []string{
		"FREQ=DAILY;COUNT=10",
		"FREQ=WEEKLY;INTERVAL=2;BYDAY=TU,TH;WKST=SU",
		"FREQ=MONTHLY;BYDAY=1FR;BYSETPOS=1",
		"FREQ=YEARLY;BYYEARDAY=1,100;BYMONTH=1,4",
		"FREQ=HOURLY;INTERVAL=3;BYHOUR=9,12,15",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			opt, err := rrule.StrToROption(input)
			require.NoError(t, err)
			back, err := FromROption(opt).ROption()
			require.NoError(t, err)
			assert.Equal(t, opt.RRuleString(), back.RRuleString())
		})
	}
}

func TestRuleRscale(t *testing.T) {
	opt, err := rrule.StrToROption("FREQ=YEARLY;RSCALE=CHINESE;SKIP=FORWARD")
	require.NoError(t, err)

	rule := FromROption(opt)
	assert.Equal(t, "chinese", rule.Rscale)
	assert.Equal(t, "forward", rule.Skip)

	back, err := rule.ROption()
	require.NoError(t, err)
	assert.Equal(t, "CHINESE", back.Rscale)
	assert.Equal(t, "FORWARD", back.Skip)
}

func TestRuleErrors(t *testing.T) {
	_, err := (&RecurrenceRule{Frequency: "fortnightly"}).ROption()
	assert.Error(t, err)

	_, err = (&RecurrenceRule{Frequency: "daily", Until: "next tuesday"}).ROption()
	assert.Error(t, err)

	_, err = (&RecurrenceRule{Frequency: "daily", ByDay: []NDay{{Day: "xx"}}}).ROption()
	assert.Error(t, err)
}

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Example//Example//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-1@example.com\r\n" +
	"DTSTAMP:20240301T120000Z\r\n" +
	"DTSTART:20240304T093000Z\r\n" +
	"DTEND:20240304T103000Z\r\n" +
	"SUMMARY:Weekly sync\r\n" +
	"DESCRIPTION:Team standup\r\n" +
	"STATUS:CONFIRMED\r\n" +
	"CATEGORIES:work\r\n" +
	"RRULE:FREQ=WEEKLY;BYDAY=MO\r\n" +
	"EXDATE:20240311T093000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestFromICal(t *testing.T) {
	cal, err := ical.Parse([]byte(sampleICS))
	require.NoError(t, err)

	events, err := FromICal(cal)
	require.NoError(t, err)
	require.Len(t, events, 1)
	event := events[0]

	assert.Equal(t, "Event", event.Type)
	assert.Equal(t, "event-1@example.com", event.UID)
	assert.Equal(t, "Weekly sync", event.Title)
	assert.Equal(t, "Team standup", event.Description)
	assert.Equal(t, "confirmed", event.Status)
	assert.Equal(t, map[string]bool{"work": true}, event.Keywords)
	assert.Equal(t, "2024-03-04T09:30:00", event.Start)
	assert.Equal(t, "PT1H", event.Duration)

	require.Len(t, event.RecurrenceRules, 1)
	assert.Equal(t, "weekly", event.RecurrenceRules[0].Frequency)
	assert.Equal(t, []NDay{{Day: "mo"}}, event.RecurrenceRules[0].ByDay)

	_, excluded := event.Overrides["2024-03-11T09:30:00"]
	assert.True(t, excluded)
}

func TestICalRoundTrip(t *testing.T) {
	cal, err := ical.Parse([]byte(sampleICS))
	require.NoError(t, err)
	events, err := FromICal(cal)
	require.NoError(t, err)

	back, err := ToICal(events)
	require.NoError(t, err)
	comp := back.Events()[0]

	assert.Equal(t, "event-1@example.com", comp.Text(ical.PropUID).MustGet())
	assert.Equal(t, "Weekly sync", comp.Text(ical.PropSummary).MustGet())
	assert.Equal(t, "CONFIRMED", comp.Text(ical.PropStatus).MustGet())
	assert.Equal(t,
		time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		comp.DateTime(ical.PropDtStart, time.UTC).MustGet())
	assert.Equal(t,
		time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC),
		comp.DateTime(ical.PropDtEnd, time.UTC).MustGet())
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO",
		comp.RecurrenceRule().MustGet().RRuleString())

	// The excluded occurrence survives as EXDATE and still suppresses
	// the expansion.
	set, err := comp.RecurrenceSet(time.UTC)
	require.NoError(t, err)
	dates, err := set.Between(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 25, 9, 30, 0, 0, time.UTC),
	}, dates)
}

func TestMarshalUnmarshal(t *testing.T) {
	events := []*Event{{
		Type:  "Event",
		UID:   "abc",
		Title: "Dinner",
		Start: "2024-06-01T19:00:00",
		RecurrenceRules: []*RecurrenceRule{{
			Type:      "RecurrenceRule",
			Frequency: "monthly",
			ByDay:     []NDay{{Day: "sa", NthOfPeriod: 1}},
		}},
	}}

	data, err := Marshal(events)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"frequency": "monthly"`)
	assert.Contains(t, string(data), `"nthOfPeriod": 1`)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, events[0].UID, back[0].UID)
	assert.Equal(t, events[0].RecurrenceRules[0].ByDay,
		back[0].RecurrenceRules[0].ByDay)

	// A single object decodes too.
	one, err := Unmarshal([]byte(`{"@type":"Event","uid":"x"}`))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "x", one[0].UID)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "PT1H", formatDuration(time.Hour))
	assert.Equal(t, "PT1H30M", formatDuration(90*time.Minute))
	assert.Equal(t, "P1DT2H", formatDuration(26*time.Hour))
	assert.Equal(t, "PT0S", formatDuration(0))

	for s, want := range map[string]time.Duration{
		"PT1H":    time.Hour,
		"PT1H30M": 90 * time.Minute,
		"P1DT2H":  26 * time.Hour,
		"P1W":     7 * 24 * time.Hour,
		"PT45S":   45 * time.Second,
	} {
		got, err := parseDuration(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	for _, bad := range []string{"", "1H", "P1X", "PTH", "P1H"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}
