package rrule

import (
	"log/slog"
	"sort"
	"strconv"
	"time"
)

// RRule is a validated, derived recurrence rule ready for expansion.
// Build one with NewRRule; the zero value is not usable.
type RRule struct {
	// OrigOptions preserves the option set exactly as given, so the
	// rule serializes back without the derived defaults.
	OrigOptions ROption
	// Options is the option set after defaults were derived from
	// DTSTART.
	Options ROption

	freq       Frequency
	dtstart    time.Time
	interval   int
	wkst       int
	count      int
	until      time.Time
	bysetpos   []int
	bymonth    []int
	bymonthday []int
	bynmonthday []int
	byyearday  []int
	byweekno   []int
	byweekday  []int
	bynweekday []Weekday
	byhour     []int
	byminute   []int
	bysecond   []int
	byeaster   []int
	timeset    []time.Time
	logger     *slog.Logger
}

// NewRRule validates arg, derives the implicit parts RFC 5545 leaves to
// DTSTART (month and day for yearly rules, weekday for weekly rules,
// time of day for all rules coarser than their clock fields) and
// returns the expandable rule.
func NewRRule(arg ROption, opts ...Option) (*RRule, error) {
	set := newSettings(opts)
	if err := validateOption(&arg, set); err != nil {
		return nil, err
	}

	r := &RRule{OrigOptions: arg, logger: set.logger}
	if arg.Dtstart.IsZero() {
		arg.Dtstart = time.Now().UTC()
	}
	arg.Dtstart = arg.Dtstart.Truncate(time.Second)
	if y := arg.Dtstart.Year(); y < 1 || y > maxYear {
		return nil, &ValidationError{Code: StartYearOutOfRange, Value: strconv.Itoa(y)}
	}
	if !arg.Until.IsZero() {
		if arg.Until.Before(arg.Dtstart) {
			return nil, &ValidationError{Code: UntilBeforeStart,
				Value: timeToUTCStr(arg.Until),
				Detail: timeToUTCStr(arg.Dtstart)}
		}
		if err := checkUntilZone(arg.Dtstart, arg.Until); err != nil {
			return nil, err
		}
	}

	r.dtstart = arg.Dtstart
	r.freq = arg.Freq
	r.interval = 1
	if arg.Interval > 0 {
		r.interval = arg.Interval
	}
	r.count = arg.Count
	r.until = arg.Until
	r.wkst = arg.Wkst.weekday
	r.bysetpos = arg.Bysetpos

	if len(arg.Byweekno) == 0 && len(arg.Byyearday) == 0 &&
		len(arg.Bymonthday) == 0 && len(arg.Byweekday) == 0 &&
		len(arg.Byeaster) == 0 {
		switch r.freq {
		case Yearly:
			if len(arg.Bymonth) == 0 {
				arg.Bymonth = []int{int(r.dtstart.Month())}
			}
			arg.Bymonthday = []int{r.dtstart.Day()}
		case Monthly:
			arg.Bymonthday = []int{r.dtstart.Day()}
		case Weekly:
			arg.Byweekday = []Weekday{{weekday: toWeekdayIndex(r.dtstart.Weekday())}}
		}
	}
	r.bymonth = arg.Bymonth
	r.byyearday = arg.Byyearday
	r.byeaster = arg.Byeaster
	for _, mday := range arg.Bymonthday {
		if mday > 0 {
			r.bymonthday = append(r.bymonthday, mday)
		} else if mday < 0 {
			r.bynmonthday = append(r.bynmonthday, mday)
		}
	}
	r.byweekno = arg.Byweekno
	for _, wday := range arg.Byweekday {
		if wday.n == 0 || r.freq > Monthly {
			r.byweekday = append(r.byweekday, wday.weekday)
		} else {
			r.bynweekday = append(r.bynweekday, wday)
		}
	}
	if len(arg.Byhour) == 0 {
		if r.freq < Hourly {
			r.byhour = []int{r.dtstart.Hour()}
		}
	} else {
		r.byhour = arg.Byhour
	}
	if len(arg.Byminute) == 0 {
		if r.freq < Minutely {
			r.byminute = []int{r.dtstart.Minute()}
		}
	} else {
		r.byminute = arg.Byminute
	}
	if len(arg.Bysecond) == 0 {
		if r.freq < Secondly {
			r.bysecond = []int{r.dtstart.Second()}
		}
	} else {
		r.bysecond = arg.Bysecond
	}

	r.Options = arg
	r.calculateTimeset()
	if r.freq < Hourly && len(r.timeset) == 0 {
		return nil, &ValidationError{Code: UnableToGenerateTimeset}
	}
	return r, nil
}

// checkUntilZone enforces that UNTIL is either in UTC or carries the
// same offset as DTSTART, so the comparison during iteration is
// unambiguous.
func checkUntilZone(dtstart, until time.Time) error {
	_, untilOff := until.Zone()
	if until.Location() == time.UTC || untilOff == 0 {
		return nil
	}
	_, startOff := dtstart.Zone()
	if untilOff == startOff {
		return nil
	}
	return &ValidationError{Code: DtStartUntilMismatchTimezone,
		Value:  until.Location().String(),
		Detail: dtstart.Location().String()}
}

// calculateTimeset precomputes the times of day shared by every
// occurrence when the frequency is daily or coarser. Second 60 cannot
// be represented by time.Time and is skipped.
func (r *RRule) calculateTimeset() {
	if r.freq >= Hourly {
		return
	}
	r.timeset = r.timeset[:0]
	loc := r.dtstart.Location()
	for _, hour := range r.byhour {
		for _, minute := range r.byminute {
			for _, second := range r.bysecond {
				if second == 60 {
					continue
				}
				r.timeset = append(r.timeset,
					time.Date(1, 1, 1, hour, minute, second, 0, loc))
			}
		}
	}
	sort.Slice(r.timeset, func(i, j int) bool {
		return r.timeset[i].Before(r.timeset[j])
	})
}

// DTStart returns the rule's anchor date-time.
func (r *RRule) DTStart() time.Time { return r.dtstart }

// String serializes the rule using its original, underived options.
func (r *RRule) String() string { return r.OrigOptions.RRuleString() }

// All expands the rule completely. Unbounded rules (no COUNT or UNTIL)
// run until year 9999. The error reports arithmetic overflow during
// iteration, which realistic rules never hit.
func (r *RRule) All() ([]time.Time, error) {
	return r.collect(func(time.Time) bool { return true }, nil)
}

// Between returns occurrences in [after, before) — or (after, before)
// when inc is false on the lower end; both ends follow inc.
func (r *RRule) Between(after, before time.Time, inc bool) ([]time.Time, error) {
	return r.collect(func(t time.Time) bool {
		if inc {
			return !t.Before(after) && !t.After(before)
		}
		return t.After(after) && t.Before(before)
	}, func(t time.Time) bool {
		return t.After(before)
	})
}

// Before returns the last occurrence not after dt (or strictly before
// when inc is false), or the zero time when none exists.
func (r *RRule) Before(dt time.Time, inc bool) (time.Time, error) {
	it := r.Iterator()
	var last time.Time
	for {
		t, ok := it.Next()
		if !ok {
			return last, it.Err()
		}
		if t.After(dt) || (!inc && t.Equal(dt)) {
			return last, nil
		}
		last = t
	}
}

// After returns the first occurrence not before dt (or strictly after
// when inc is false), or the zero time when none exists.
func (r *RRule) After(dt time.Time, inc bool) (time.Time, error) {
	it := r.Iterator()
	for {
		t, ok := it.Next()
		if !ok {
			return time.Time{}, it.Err()
		}
		if t.After(dt) || (inc && t.Equal(dt)) {
			return t, nil
		}
	}
}

func (r *RRule) collect(keep func(time.Time) bool, stop func(time.Time) bool) ([]time.Time, error) {
	it := r.Iterator()
	var out []time.Time
	for {
		t, ok := it.Next()
		if !ok {
			return out, it.Err()
		}
		if stop != nil && stop(t) {
			return out, nil
		}
		if keep(t) {
			out = append(out, t)
		}
	}
}
