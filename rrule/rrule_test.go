package rrule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRRule(t *testing.T, opt ROption) *RRule {
	t.Helper()
	r, err := NewRRule(opt)
	require.NoError(t, err)
	return r
}

func allDates(t *testing.T, r *RRule) []time.Time {
	t.Helper()
	dates, err := r.All()
	require.NoError(t, err)
	return dates
}

func d(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestDailyCount(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Daily, Count: 10,
		Dtstart: d(1997, 9, 2, 9, 0)})
	dates := allDates(t, r)
	require.Len(t, dates, 10)
	assert.Equal(t, d(1997, 9, 2, 9, 0), dates[0])
	assert.Equal(t, d(1997, 9, 11, 9, 0), dates[9])
}

func TestDailyUntil(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Daily,
		Dtstart: d(1997, 9, 2, 9, 0),
		Until:   d(1997, 9, 5, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 2, 9, 0), d(1997, 9, 3, 9, 0),
		d(1997, 9, 4, 9, 0), d(1997, 9, 5, 9, 0),
	}, allDates(t, r))
}

func TestWeeklyByDayWkst(t *testing.T) {
	// Tuesday and Thursday for five weeks.
	r := mustRRule(t, ROption{Freq: Weekly, Count: 10, Wkst: SU,
		Byweekday: []Weekday{TU, TH},
		Dtstart:   d(1997, 9, 2, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 2, 9, 0), d(1997, 9, 4, 9, 0),
		d(1997, 9, 9, 9, 0), d(1997, 9, 11, 9, 0),
		d(1997, 9, 16, 9, 0), d(1997, 9, 18, 9, 0),
		d(1997, 9, 23, 9, 0), d(1997, 9, 25, 9, 0),
		d(1997, 9, 30, 9, 0), d(1997, 10, 2, 9, 0),
	}, allDates(t, r))
}

func TestWeeklyInterval(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Weekly, Interval: 2, Count: 4, Wkst: SU,
		Dtstart: d(1997, 9, 2, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 2, 9, 0), d(1997, 9, 16, 9, 0),
		d(1997, 9, 30, 9, 0), d(1997, 10, 14, 9, 0),
	}, allDates(t, r))
}

func TestMonthlyFirstFriday(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Monthly, Count: 6,
		Byweekday: []Weekday{FR.Nth(1)},
		Dtstart:   d(1997, 9, 5, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 5, 9, 0), d(1997, 10, 3, 9, 0),
		d(1997, 11, 7, 9, 0), d(1997, 12, 5, 9, 0),
		d(1998, 1, 2, 9, 0), d(1998, 2, 6, 9, 0),
	}, allDates(t, r))
}

func TestMonthlyLastDay(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Monthly, Count: 6,
		Bymonthday: []int{-1},
		Dtstart:    d(1997, 9, 30, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 30, 9, 0), d(1997, 10, 31, 9, 0),
		d(1997, 11, 30, 9, 0), d(1997, 12, 31, 9, 0),
		d(1998, 1, 31, 9, 0), d(1998, 2, 28, 9, 0),
	}, allDates(t, r))
}

func TestMonthlyBySetPos(t *testing.T) {
	// The third of all Tuesdays, Wednesdays and Thursdays each month.
	r := mustRRule(t, ROption{Freq: Monthly, Count: 3,
		Byweekday: []Weekday{TU, WE, TH},
		Bysetpos:  []int{3},
		Dtstart:   d(1997, 9, 4, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 4, 9, 0), d(1997, 10, 7, 9, 0), d(1997, 11, 6, 9, 0),
	}, allDates(t, r))
}

func TestMonthlyLastWorkday(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Monthly, Count: 4,
		Byweekday: []Weekday{MO, TU, WE, TH, FR},
		Bysetpos:  []int{-1},
		Dtstart:   d(1997, 9, 29, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 30, 9, 0), d(1997, 10, 31, 9, 0),
		d(1997, 11, 28, 9, 0), d(1997, 12, 31, 9, 0),
	}, allDates(t, r))
}

func TestYearlyLastSundayOfApril(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Yearly,
		Bymonth:   []int{4},
		Byweekday: []Weekday{SU.Nth(-1)},
		Dtstart:   d(1997, 4, 27, 9, 0),
		Until:     d(1999, 4, 30, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 4, 27, 9, 0), d(1998, 4, 26, 9, 0), d(1999, 4, 25, 9, 0),
	}, allDates(t, r))
}

func TestYearlyByYearDay(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Yearly, Count: 4,
		Byyearday: []int{1, 100},
		Dtstart:   d(1997, 1, 1, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 1, 1, 9, 0), d(1997, 4, 10, 9, 0),
		d(1998, 1, 1, 9, 0), d(1998, 4, 10, 9, 0),
	}, allDates(t, r))
}

func TestYearlyNegativeYearDay(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Yearly, Count: 2,
		Byyearday: []int{-1},
		Dtstart:   d(1997, 1, 1, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 12, 31, 9, 0), d(1998, 12, 31, 9, 0),
	}, allDates(t, r))
}

func TestYearlyByWeekNo(t *testing.T) {
	// Monday of week 20, weeks starting Monday.
	r := mustRRule(t, ROption{Freq: Yearly, Count: 3,
		Byweekno:  []int{20},
		Byweekday: []Weekday{MO},
		Dtstart:   d(1997, 5, 12, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 5, 12, 9, 0), d(1998, 5, 11, 9, 0), d(1999, 5, 17, 9, 0),
	}, allDates(t, r))
}

func TestYearlyLeapDay(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Yearly, Count: 3,
		Bymonth:    []int{2},
		Bymonthday: []int{29},
		Dtstart:    d(1996, 2, 29, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1996, 2, 29, 9, 0), d(2000, 2, 29, 9, 0), d(2004, 2, 29, 9, 0),
	}, allDates(t, r))
}

func TestByEaster(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Yearly, Count: 3,
		Byeaster: []int{0},
		Dtstart:  d(1997, 1, 1, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 3, 30, 9, 0), d(1998, 4, 12, 9, 0), d(1999, 4, 4, 9, 0),
	}, allDates(t, r))
}

func TestByEasterOffset(t *testing.T) {
	// Two days before Easter Sunday is Good Friday.
	r := mustRRule(t, ROption{Freq: Yearly, Count: 2,
		Byeaster: []int{-2},
		Dtstart:  d(1997, 1, 1, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 3, 28, 9, 0), d(1998, 4, 10, 9, 0),
	}, allDates(t, r))
}

func TestHourlyInterval(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Hourly, Interval: 3,
		Dtstart: d(1997, 9, 2, 9, 0),
		Until:   d(1997, 9, 2, 17, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 2, 9, 0), d(1997, 9, 2, 12, 0), d(1997, 9, 2, 15, 0),
	}, allDates(t, r))
}

func TestMinutelyCount(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Minutely, Interval: 15, Count: 4,
		Dtstart: d(1997, 9, 2, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 2, 9, 0), d(1997, 9, 2, 9, 15),
		d(1997, 9, 2, 9, 30), d(1997, 9, 2, 9, 45),
	}, allDates(t, r))
}

func TestSecondlyRollover(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Secondly, Interval: 30, Count: 3,
		Dtstart: time.Date(1997, 9, 2, 23, 59, 30, 0, time.UTC)})
	assert.Equal(t, []time.Time{
		time.Date(1997, 9, 2, 23, 59, 30, 0, time.UTC),
		time.Date(1997, 9, 3, 0, 0, 0, 0, time.UTC),
		time.Date(1997, 9, 3, 0, 0, 30, 0, time.UTC),
	}, allDates(t, r))
}

func TestBetween(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Daily, Count: 10,
		Dtstart: d(1997, 9, 2, 9, 0)})
	dates, err := r.Between(d(1997, 9, 4, 9, 0), d(1997, 9, 6, 9, 0), true)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		d(1997, 9, 4, 9, 0), d(1997, 9, 5, 9, 0), d(1997, 9, 6, 9, 0),
	}, dates)

	dates, err = r.Between(d(1997, 9, 4, 9, 0), d(1997, 9, 6, 9, 0), false)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d(1997, 9, 5, 9, 0)}, dates)
}

func TestBeforeAfter(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Daily, Count: 10,
		Dtstart: d(1997, 9, 2, 9, 0)})

	got, err := r.Before(d(1997, 9, 5, 9, 0), true)
	require.NoError(t, err)
	assert.Equal(t, d(1997, 9, 5, 9, 0), got)

	got, err = r.Before(d(1997, 9, 5, 9, 0), false)
	require.NoError(t, err)
	assert.Equal(t, d(1997, 9, 4, 9, 0), got)

	got, err = r.After(d(1997, 9, 5, 9, 0), false)
	require.NoError(t, err)
	assert.Equal(t, d(1997, 9, 6, 9, 0), got)

	got, err = r.After(d(1997, 9, 20, 9, 0), true)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestIteratorResumes(t *testing.T) {
	r := mustRRule(t, ROption{Freq: Daily, Count: 3,
		Dtstart: d(1997, 9, 2, 9, 0)})
	it := r.Iterator()
	var got []time.Time
	for {
		tm, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, tm)
	}
	require.NoError(t, it.Err())
	assert.Len(t, got, 3)

	// Exhausted iterators stay exhausted.
	_, ok := it.Next()
	assert.False(t, ok)
}

func TestDtstartDerivedDefaults(t *testing.T) {
	// A bare yearly rule recurs on DTSTART's month and day.
	r := mustRRule(t, ROption{Freq: Yearly, Count: 3,
		Dtstart: d(1997, 9, 2, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 2, 9, 0), d(1998, 9, 2, 9, 0), d(1999, 9, 2, 9, 0),
	}, allDates(t, r))

	// A bare weekly rule recurs on DTSTART's weekday.
	r = mustRRule(t, ROption{Freq: Weekly, Count: 3,
		Dtstart: d(1997, 9, 2, 9, 0)})
	assert.Equal(t, []time.Time{
		d(1997, 9, 2, 9, 0), d(1997, 9, 9, 9, 0), d(1997, 9, 16, 9, 0),
	}, allDates(t, r))
}

func TestStringPreservesOriginalOptions(t *testing.T) {
	// Derived defaults must not leak into the serialized form.
	r := mustRRule(t, ROption{Freq: Yearly, Count: 2,
		Dtstart: d(1997, 9, 2, 9, 0)})
	assert.Equal(t, "FREQ=YEARLY;COUNT=2", r.String())
}
