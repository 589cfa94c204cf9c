package ical

import (
	"fmt"
	"time"
)

// PartialDateTime is a decoded DATE, DATE-TIME or UTC-OFFSET value.
// DATE values leave HasTime false; a trailing Z sets UTC.
type PartialDateTime struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	HasTime              bool
	UTC                  bool
}

// ParsePartialDateTime decodes YYYYMMDD, optionally followed by
// THHMMSS and a trailing Z.
func ParsePartialDateTime(s string) (PartialDateTime, error) {
	var pdt PartialDateTime
	if len(s) < 8 {
		return pdt, fmt.Errorf("ical: date value %q too short", s)
	}
	var ok bool
	if pdt.Year, ok = digits(s[0:4]); !ok {
		return pdt, fmt.Errorf("ical: invalid year in %q", s)
	}
	if pdt.Month, ok = digits(s[4:6]); !ok || pdt.Month < 1 || pdt.Month > 12 {
		return pdt, fmt.Errorf("ical: invalid month in %q", s)
	}
	if pdt.Day, ok = digits(s[6:8]); !ok || pdt.Day < 1 || pdt.Day > 31 {
		return pdt, fmt.Errorf("ical: invalid day in %q", s)
	}
	rest := s[8:]
	if rest == "" {
		return pdt, nil
	}
	if rest[0] != 'T' || len(rest) < 7 {
		return pdt, fmt.Errorf("ical: invalid time part in %q", s)
	}
	pdt.HasTime = true
	if pdt.Hour, ok = digits(rest[1:3]); !ok || pdt.Hour > 23 {
		return pdt, fmt.Errorf("ical: invalid hour in %q", s)
	}
	if pdt.Minute, ok = digits(rest[3:5]); !ok || pdt.Minute > 59 {
		return pdt, fmt.Errorf("ical: invalid minute in %q", s)
	}
	if pdt.Second, ok = digits(rest[5:7]); !ok || pdt.Second > 60 {
		return pdt, fmt.Errorf("ical: invalid second in %q", s)
	}
	switch rest[7:] {
	case "":
	case "Z", "z":
		pdt.UTC = true
	default:
		return pdt, fmt.Errorf("ical: trailing garbage in %q", s)
	}
	return pdt, nil
}

// Time materializes the value in loc; UTC values ignore loc, and a nil
// loc means time.Local.
func (pdt PartialDateTime) Time(loc *time.Location) time.Time {
	if pdt.UTC {
		loc = time.UTC
	} else if loc == nil {
		loc = time.Local
	}
	return time.Date(pdt.Year, time.Month(pdt.Month), pdt.Day,
		pdt.Hour, pdt.Minute, pdt.Second, 0, loc)
}

// ParseUTCOffset decodes ±HHMM or ±HHMMSS into a fixed zone offset in
// seconds.
func ParseUTCOffset(s string) (int, error) {
	if len(s) != 5 && len(s) != 7 {
		return 0, fmt.Errorf("ical: invalid utc offset %q", s)
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("ical: invalid utc offset %q", s)
	}
	hour, ok1 := digits(s[1:3])
	minute, ok2 := digits(s[3:5])
	second := 0
	ok3 := true
	if len(s) == 7 {
		second, ok3 = digits(s[5:7])
	}
	if !ok1 || !ok2 || !ok3 || minute > 59 || second > 59 {
		return 0, fmt.Errorf("ical: invalid utc offset %q", s)
	}
	return sign * (hour*3600 + minute*60 + second), nil
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// formatDateTime emits a DATE-TIME value, with the trailing Z for UTC
// times.
func formatDateTime(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format("20060102T150405Z")
	}
	return t.Format("20060102T150405")
}

// formatDate emits a DATE value.
func formatDate(t time.Time) string {
	return t.Format("20060102")
}
