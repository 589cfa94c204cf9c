// Package jscalendar converts between iCalendar component trees and
// JSCalendar (RFC 8984) JSON objects.
package jscalendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/calwire/calwire/rrule"
)

// localDateTime is the JSCalendar LocalDateTime layout.
const localDateTime = "2006-01-02T15:04:05"

// frequency names, index-aligned with rrule.Frequency.
var frequencies = []string{
	"yearly", "monthly", "weekly", "daily", "hourly", "minutely", "secondly",
}

// weekday codes, index-aligned with rrule weekday numbering (Monday 0).
var weekdays = []string{"mo", "tu", "we", "th", "fr", "sa", "su"}

// NDay is one byDay entry: a lowercase weekday code and an optional
// occurrence number within the period.
type NDay struct {
	Day         string `json:"day"`
	NthOfPeriod int    `json:"nthOfPeriod,omitempty"`
}

// RecurrenceRule is the JSCalendar form of an RRULE.
type RecurrenceRule struct {
	Type           string   `json:"@type,omitempty"`
	Frequency      string   `json:"frequency"`
	Rscale         string   `json:"rscale,omitempty"`
	Skip           string   `json:"skip,omitempty"`
	Interval       int      `json:"interval,omitempty"`
	Count          int      `json:"count,omitempty"`
	Until          string   `json:"until,omitempty"`
	FirstDayOfWeek string   `json:"firstDayOfWeek,omitempty"`
	ByDay          []NDay   `json:"byDay,omitempty"`
	ByMonthDay     []int    `json:"byMonthDay,omitempty"`
	ByMonth        []string `json:"byMonth,omitempty"`
	ByYearDay      []int    `json:"byYearDay,omitempty"`
	ByWeekNo       []int    `json:"byWeekNo,omitempty"`
	ByHour         []int    `json:"byHour,omitempty"`
	ByMinute       []int    `json:"byMinute,omitempty"`
	BySecond       []int    `json:"bySecond,omitempty"`
	BySetPosition  []int    `json:"bySetPosition,omitempty"`
}

// FromROption maps a parsed RRULE to its JSCalendar form field by
// field.
func FromROption(opt *rrule.ROption) *RecurrenceRule {
	rule := &RecurrenceRule{
		Type:      "RecurrenceRule",
		Frequency: frequencies[opt.Freq],
		Rscale:    strings.ToLower(opt.Rscale),
		Skip:      strings.ToLower(opt.Skip),
		Count:     opt.Count,
	}
	if opt.Interval > 1 {
		rule.Interval = opt.Interval
	}
	if !opt.Until.IsZero() {
		rule.Until = opt.Until.Format(localDateTime)
	}
	if opt.Wkst != rrule.MO {
		rule.FirstDayOfWeek = weekdays[opt.Wkst.Day()]
	}
	for _, wd := range opt.Byweekday {
		rule.ByDay = append(rule.ByDay, NDay{
			Day:         weekdays[wd.Day()],
			NthOfPeriod: wd.N(),
		})
	}
	rule.ByMonthDay = opt.Bymonthday
	for _, m := range opt.Bymonth {
		rule.ByMonth = append(rule.ByMonth, strconv.Itoa(m))
	}
	rule.ByYearDay = opt.Byyearday
	rule.ByWeekNo = opt.Byweekno
	rule.ByHour = opt.Byhour
	rule.ByMinute = opt.Byminute
	rule.BySecond = opt.Bysecond
	rule.BySetPosition = opt.Bysetpos
	return rule
}

// ROption maps the JSCalendar rule back to an expandable option set.
func (rule *RecurrenceRule) ROption() (*rrule.ROption, error) {
	opt := &rrule.ROption{
		Rscale:   strings.ToUpper(rule.Rscale),
		Skip:     strings.ToUpper(rule.Skip),
		Interval: rule.Interval,
		Count:    rule.Count,
	}
	freq, err := parseFrequency(rule.Frequency)
	if err != nil {
		return nil, err
	}
	opt.Freq = freq

	if rule.Until != "" {
		until, err := time.Parse(localDateTime, rule.Until)
		if err != nil {
			return nil, fmt.Errorf("jscalendar: invalid until %q: %w", rule.Until, err)
		}
		opt.Until = until
	}
	if rule.FirstDayOfWeek != "" {
		wd, err := parseWeekdayCode(rule.FirstDayOfWeek)
		if err != nil {
			return nil, err
		}
		opt.Wkst = wd
	}
	for _, nday := range rule.ByDay {
		wd, err := parseWeekdayCode(nday.Day)
		if err != nil {
			return nil, err
		}
		if nday.NthOfPeriod != 0 {
			wd = wd.Nth(nday.NthOfPeriod)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}
	opt.Bymonthday = rule.ByMonthDay
	for _, m := range rule.ByMonth {
		v, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("jscalendar: invalid byMonth entry %q", m)
		}
		opt.Bymonth = append(opt.Bymonth, v)
	}
	opt.Byyearday = rule.ByYearDay
	opt.Byweekno = rule.ByWeekNo
	opt.Byhour = rule.ByHour
	opt.Byminute = rule.ByMinute
	opt.Bysecond = rule.BySecond
	opt.Bysetpos = rule.BySetPosition
	return opt, nil
}

func parseFrequency(s string) (rrule.Frequency, error) {
	for i, name := range frequencies {
		if strings.EqualFold(s, name) {
			return rrule.Frequency(i), nil
		}
	}
	return 0, fmt.Errorf("jscalendar: unknown frequency %q", s)
}

func parseWeekdayCode(s string) (rrule.Weekday, error) {
	all := []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH,
		rrule.FR, rrule.SA, rrule.SU}
	for i, code := range weekdays {
		if strings.EqualFold(s, code) {
			return all[i], nil
		}
	}
	return rrule.Weekday{}, fmt.Errorf("jscalendar: unknown weekday %q", s)
}
