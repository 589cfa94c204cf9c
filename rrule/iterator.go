package rrule

import (
	"sort"
	"time"
)

// Iterator walks the occurrences of an RRule in order. Obtain one from
// RRule.Iterator; it is not safe for concurrent use.
type Iterator struct {
	year    int
	month   time.Month
	day     int
	hour    int
	minute  int
	second  int
	weekday int

	ii       iterInfo
	timeset  []time.Time
	remain   []time.Time
	count    int
	finished bool
	err      error
}

// Iterator returns a fresh iterator positioned at DTSTART.
func (r *RRule) Iterator() *Iterator {
	it := &Iterator{}
	it.year, it.month, it.day = r.dtstart.Date()
	it.hour, it.minute, it.second = r.dtstart.Clock()
	it.weekday = toWeekdayIndex(r.dtstart.Weekday())

	it.ii = iterInfo{rrule: r}
	it.ii.rebuild(it.year, it.month)

	if r.freq < Hourly {
		it.timeset = r.timeset
	} else {
		// The first day's timeset only applies if DTSTART's own clock
		// fields pass the sub-daily BY* parts.
		if r.freq >= Hourly && len(r.byhour) != 0 && !contains(r.byhour, it.hour) ||
			r.freq >= Minutely && len(r.byminute) != 0 && !contains(r.byminute, it.minute) ||
			r.freq >= Secondly && len(r.bysecond) != 0 && !contains(r.bysecond, it.second) {
			it.timeset = nil
		} else {
			it.timeset = it.ii.timeSet(r.freq, it.hour, it.minute, it.second)
		}
	}
	it.count = r.count
	return it
}

// Next returns the next occurrence. ok is false when the sequence is
// exhausted or iteration failed; check Err afterwards.
func (it *Iterator) Next() (time.Time, bool) {
	if !it.finished && len(it.remain) == 0 {
		it.generate()
	}
	if len(it.remain) == 0 {
		return time.Time{}, false
	}
	value := it.remain[0]
	it.remain = it.remain[1:]
	return value, true
}

// Err reports an arithmetic overflow that ended iteration early. It is
// nil for sequences that ended normally.
func (it *Iterator) Err() error { return it.err }

func (it *Iterator) fail(err error) {
	it.err = err
	it.finished = true
}

// generate fills it.remain with the emissions of successive iteration
// periods until at least one occurrence is buffered or the rule ends.
func (it *Iterator) generate() {
	r := it.ii.rrule
	for len(it.remain) == 0 && !it.finished {
		dayset := it.ii.daySet(r.freq, it.year, it.month, it.day)

		filtered := false
		kept := dayset[:0]
		for _, i := range dayset {
			if it.ii.isFiltered(i) {
				filtered = true
				continue
			}
			kept = append(kept, i)
		}

		// emit checks one candidate against UNTIL, DTSTART and COUNT
		// and reports whether iteration is over.
		emit := func(res time.Time) bool {
			if !r.until.IsZero() && res.After(r.until) {
				it.finished = true
				return true
			}
			if res.Before(r.dtstart) {
				return false
			}
			it.remain = append(it.remain, res)
			if it.count != 0 {
				it.count--
				if it.count == 0 {
					it.finished = true
					return true
				}
			}
			return false
		}

		if len(r.bysetpos) != 0 && len(it.timeset) != 0 {
			var poslist []time.Time
			for _, pos := range r.bysetpos {
				var dayPos, timePos int
				if pos < 0 {
					dayPos, timePos = divmod(pos, len(it.timeset))
				} else {
					dayPos, timePos = divmod(pos-1, len(it.timeset))
				}
				i, err := pySubscript(kept, dayPos)
				if err != nil {
					continue
				}
				tt := it.timeset[timePos]
				date := it.ii.firstYearDay.AddDate(0, 0, i)
				res := time.Date(date.Year(), date.Month(), date.Day(),
					tt.Hour(), tt.Minute(), tt.Second(), 0, tt.Location())
				if !timeSliceContains(poslist, res) {
					poslist = append(poslist, res)
				}
			}
			sort.Slice(poslist, func(i, j int) bool { return poslist[i].Before(poslist[j]) })
			for _, res := range poslist {
				if emit(res) {
					return
				}
			}
		} else {
			for _, i := range kept {
				date := it.ii.firstYearDay.AddDate(0, 0, i)
				for _, tt := range it.timeset {
					res := time.Date(date.Year(), date.Month(), date.Day(),
						tt.Hour(), tt.Minute(), tt.Second(), 0, tt.Location())
					if emit(res) {
						return
					}
				}
			}
		}

		if err := it.step(r, filtered); err != nil {
			it.fail(err)
			return
		}
	}
}

// step advances the counter date by one interval of the rule's
// frequency. Day arithmetic is checked so pathological intervals fail
// with an error instead of wrapping.
func (it *Iterator) step(r *RRule, filtered bool) error {
	fixday := false
	switch r.freq {
	case Yearly:
		it.year += r.interval
		if it.year > maxYear {
			it.finished = true
			return nil
		}
		it.ii.rebuild(it.year, it.month)
	case Monthly:
		it.month += time.Month(r.interval)
		if it.month > 12 {
			div, mod := divmod(int(it.month), 12)
			it.month = time.Month(mod)
			it.year += div
			if it.month == 0 {
				it.month = 12
				it.year--
			}
			if it.year > maxYear {
				it.finished = true
				return nil
			}
		}
		it.ii.rebuild(it.year, it.month)
	case Weekly:
		week, err := checkedMul(r.interval, 7, "weekly interval")
		if err != nil {
			return err
		}
		var delta int
		if r.wkst > it.weekday {
			delta = -(it.weekday + 1 + (6 - r.wkst)) + week
		} else {
			delta = -(it.weekday - r.wkst) + week
		}
		it.day, err = checkedAdd(it.day, delta, "weekly step")
		if err != nil {
			return err
		}
		it.weekday = r.wkst
		fixday = true
	case Daily:
		var err error
		it.day, err = checkedAdd(it.day, r.interval, "daily step")
		if err != nil {
			return err
		}
		fixday = true
	case Hourly:
		if filtered {
			// Jump to one interval before the next day.
			it.hour += ((23 - it.hour) / r.interval) * r.interval
		}
		for {
			var err error
			it.hour, err = checkedAdd(it.hour, r.interval, "hourly step")
			if err != nil {
				return err
			}
			div, mod := divmod(it.hour, 24)
			if div != 0 {
				it.hour = mod
				it.day, err = checkedAdd(it.day, div, "hourly day carry")
				if err != nil {
					return err
				}
				fixday = true
			}
			if len(r.byhour) == 0 || contains(r.byhour, it.hour) {
				break
			}
		}
		it.timeset = it.ii.timeSet(r.freq, it.hour, it.minute, it.second)
	case Minutely:
		if filtered {
			it.minute += ((1439 - (it.hour*60 + it.minute)) / r.interval) * r.interval
		}
		for {
			var err error
			it.minute, err = checkedAdd(it.minute, r.interval, "minutely step")
			if err != nil {
				return err
			}
			div, mod := divmod(it.minute, 60)
			if div != 0 {
				it.minute = mod
				it.hour += div
				div, mod = divmod(it.hour, 24)
				if div != 0 {
					it.hour = mod
					it.day, err = checkedAdd(it.day, div, "minutely day carry")
					if err != nil {
						return err
					}
					fixday = true
					filtered = false
				}
			}
			if (len(r.byhour) == 0 || contains(r.byhour, it.hour)) &&
				(len(r.byminute) == 0 || contains(r.byminute, it.minute)) {
				break
			}
		}
		it.timeset = it.ii.timeSet(r.freq, it.hour, it.minute, it.second)
	case Secondly:
		if filtered {
			it.second += ((86399 - (it.hour*3600 + it.minute*60 + it.second)) / r.interval) * r.interval
		}
		for {
			var err error
			it.second, err = checkedAdd(it.second, r.interval, "secondly step")
			if err != nil {
				return err
			}
			div, mod := divmod(it.second, 60)
			if div != 0 {
				it.second = mod
				it.minute += div
				div, mod = divmod(it.minute, 60)
				if div != 0 {
					it.minute = mod
					it.hour += div
					div, mod = divmod(it.hour, 24)
					if div != 0 {
						it.hour = mod
						it.day, err = checkedAdd(it.day, div, "secondly day carry")
						if err != nil {
							return err
						}
						fixday = true
					}
				}
			}
			if (len(r.byhour) == 0 || contains(r.byhour, it.hour)) &&
				(len(r.byminute) == 0 || contains(r.byminute, it.minute)) &&
				(len(r.bysecond) == 0 || contains(r.bysecond, it.second)) {
				break
			}
		}
		it.timeset = it.ii.timeSet(r.freq, it.hour, it.minute, it.second)
	}

	if fixday && it.day > 28 {
		daysInMonth := daysIn(int(it.month), it.year)
		if it.day > daysInMonth {
			for it.day > daysInMonth {
				it.day -= daysInMonth
				it.month++
				if it.month == 13 {
					it.month = 1
					it.year++
					if it.year > maxYear {
						it.finished = true
						return nil
					}
				}
				daysInMonth = daysIn(int(it.month), it.year)
			}
			it.ii.rebuild(it.year, it.month)
		}
	}
	return nil
}

func timeSliceContains(list []time.Time, t time.Time) bool {
	for _, v := range list {
		if v.Equal(t) {
			return true
		}
	}
	return false
}
