package rrule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency denotes the period on which a rule repeats. The order
// matters: a lower value is a coarser period, and the engine compares
// frequencies to decide which BY* parts generate occurrences and which
// merely filter them.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
	Daily
	Hourly
	Minutely
	Secondly
)

var freqNames = []string{"YEARLY", "MONTHLY", "WEEKLY", "DAILY", "HOURLY", "MINUTELY", "SECONDLY"}

func (f Frequency) String() string {
	if f >= Yearly && f <= Secondly {
		return freqNames[f]
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

func parseFrequency(b []byte) (Frequency, bool) {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case "SECONDLY":
		return Secondly, true
	case "MINUTELY":
		return Minutely, true
	case "HOURLY":
		return Hourly, true
	case "DAILY":
		return Daily, true
	case "WEEKLY":
		return Weekly, true
	case "MONTHLY":
		return Monthly, true
	case "YEARLY":
		return Yearly, true
	}
	return 0, false
}

// Weekday is a day of the week with an optional ordinal week position,
// as in BYDAY=2MO ("second Monday") or BYDAY=-1FR ("last Friday").
// The zero ordinal means no position was given.
type Weekday struct {
	weekday int // 0=Monday .. 6=Sunday
	n       int
}

// Weekdays without an ordinal. Use Nth to attach one.
var (
	MO = Weekday{weekday: 0}
	TU = Weekday{weekday: 1}
	WE = Weekday{weekday: 2}
	TH = Weekday{weekday: 3}
	FR = Weekday{weekday: 4}
	SA = Weekday{weekday: 5}
	SU = Weekday{weekday: 6}
)

// Nth returns the weekday pinned to the nth week of its period; negative
// n counts from the end, so FR.Nth(-1) is the last Friday.
func (w Weekday) Nth(n int) Weekday {
	return Weekday{weekday: w.weekday, n: n}
}

// Day returns the day index within the week (0 for Monday, 6 for Sunday).
func (w Weekday) Day() int { return w.weekday }

// N returns the ordinal week position, zero when none was given.
func (w Weekday) N() int { return w.n }

var weekdayCodes = []string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

func (w Weekday) String() string {
	if w.n == 0 {
		return weekdayCodes[w.weekday]
	}
	return strconv.Itoa(w.n) + weekdayCodes[w.weekday]
}

// parseWeekday reads a BYDAY list item of the form [±N]CODE. An
// explicit zero ordinal is rejected.
func parseWeekday(b []byte) (Weekday, bool) {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	if len(s) < 2 {
		return Weekday{}, false
	}
	n := 0
	if prefix := s[:len(s)-2]; prefix != "" {
		v, err := strconv.Atoi(prefix)
		if err != nil || v == 0 {
			return Weekday{}, false
		}
		n = v
	}
	for day, code := range weekdayCodes {
		if s[len(s)-2:] == code {
			return Weekday{weekday: day, n: n}, true
		}
	}
	return Weekday{}, false
}

// toWeekdayIndex maps Go's Sunday-based weekday to the Monday-based
// index used by all masks in this package.
func toWeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
