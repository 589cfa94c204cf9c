package rrule

import (
	"sort"
	"time"
)

// iterInfo caches the per-year calendrical tables the iterator filters
// against: month of each year day, month day (positive and negative),
// weekday, week number and the ordinal-weekday and easter masks. It is
// rebuilt lazily when iteration crosses a year (or month, for the
// ordinal-weekday mask) boundary.
type iterInfo struct {
	rrule       *RRule
	lastYear    int
	lastMonth   time.Month
	yearLen     int
	nextYearLen int
	firstYearDay time.Time
	yearWeekday int
	monthMask   []int
	monthRange  []int
	monthDayMask []int
	negMonthDayMask []int
	weekdayMask []int
	weekNoMask  []int
	negWeekdayMask []int
	easterMask  []int
}

func (info *iterInfo) rebuild(year int, month time.Month) {
	// Masks run 7 days past year end so weekly periods can cross the
	// year boundary.
	if year != info.lastYear {
		info.yearLen = 365 + isLeap(year)
		info.nextYearLen = 365 + isLeap(year+1)
		info.firstYearDay = time.Date(year, time.January, 1, 0, 0, 0, 0,
			info.rrule.dtstart.Location())
		info.yearWeekday = toWeekdayIndex(info.firstYearDay.Weekday())
		info.weekdayMask = weekday55Mask[info.yearWeekday:]
		if info.yearLen == 365 {
			info.monthMask = month365Mask
			info.monthDayMask = monthDay365Mask
			info.negMonthDayMask = negMonthDay365Mask
			info.monthRange = month365Range
		} else {
			info.monthMask = month366Mask
			info.monthDayMask = monthDay366Mask
			info.negMonthDayMask = negMonthDay366Mask
			info.monthRange = month366Range
		}
		info.rebuildWeekNoMask(year)
	}
	if len(info.rrule.bynweekday) != 0 && (month != info.lastMonth || year != info.lastYear) {
		info.rebuildNegWeekdayMask(month)
	}
	if len(info.rrule.byeaster) != 0 {
		info.easterMask = make([]int, info.yearLen+7)
		eyday := easter(year).YearDay() - 1
		for _, offset := range info.rrule.byeaster {
			idx := eyday + offset
			if idx >= 0 && idx < len(info.easterMask) {
				info.easterMask[idx] = 1
			}
		}
	}
	info.lastYear = year
	info.lastMonth = month
}

// rebuildWeekNoMask marks the year days covered by the requested ISO
// style week numbers, honoring WKST. The first week of a year is the
// one holding at least four days of it.
func (info *iterInfo) rebuildWeekNoMask(year int) {
	r := info.rrule
	if len(r.byweekno) == 0 {
		info.weekNoMask = nil
		return
	}
	info.weekNoMask = make([]int, info.yearLen+7)
	firstWkst := pymod(7-info.yearWeekday+r.wkst, 7)
	no1Wkst := firstWkst
	var weekYearLen int
	if no1Wkst >= 4 {
		no1Wkst = 0
		// Days in this year plus the tail of last year's final week.
		weekYearLen = info.yearLen + pymod(info.yearWeekday-r.wkst, 7)
	} else {
		weekYearLen = info.yearLen - no1Wkst
	}
	div, mod := divmod(weekYearLen, 7)
	numWeeks := div + mod/4
	for _, n := range r.byweekno {
		if n < 0 {
			n += numWeeks + 1
		}
		if n <= 0 || n > numWeeks {
			continue
		}
		var i int
		if n > 1 {
			i = no1Wkst + (n-1)*7
			if no1Wkst != firstWkst {
				i -= 7 - firstWkst
			}
		} else {
			i = no1Wkst
		}
		for j := 0; j < 7; j++ {
			info.weekNoMask[i] = 1
			i++
			if info.weekdayMask[i] == r.wkst {
				break
			}
		}
	}
	if contains(r.byweekno, 1) {
		// Week 1 of next year may claim this year's final days.
		i := no1Wkst + numWeeks*7
		if no1Wkst != firstWkst {
			i -= 7 - firstWkst
		}
		if i < info.yearLen {
			for j := 0; j < 7; j++ {
				info.weekNoMask[i] = 1
				i++
				if info.weekdayMask[i] == r.wkst {
					break
				}
			}
		}
	}
	if no1Wkst != 0 {
		// The year's first no1Wkst days belong to last year's final
		// week number.
		var lastNumWeeks int
		if !contains(r.byweekno, -1) {
			lastYearWeekday := toWeekdayIndex(time.Date(year-1, time.January, 1,
				0, 0, 0, 0, r.dtstart.Location()).Weekday())
			lastNo1Wkst := pymod(7-lastYearWeekday+r.wkst, 7)
			lastYearLen := 365 + isLeap(year-1)
			if lastNo1Wkst >= 4 {
				lastNumWeeks = 52 + pymod(lastYearLen+pymod(lastYearWeekday-r.wkst, 7), 7)/4
			} else {
				lastNumWeeks = 52 + pymod(info.yearLen-no1Wkst, 7)/4
			}
		} else {
			lastNumWeeks = -1
		}
		if contains(r.byweekno, lastNumWeeks) {
			for i := 0; i < no1Wkst; i++ {
				info.weekNoMask[i] = 1
			}
		}
	}
}

// rebuildNegWeekdayMask marks the year days selected by ordinal BYDAY
// parts (3TU, -1FR) within their yearly or monthly period.
func (info *iterInfo) rebuildNegWeekdayMask(month time.Month) {
	r := info.rrule
	var ranges [][2]int
	switch r.freq {
	case Yearly:
		if len(r.bymonth) != 0 {
			for _, m := range r.bymonth {
				ranges = append(ranges, [2]int{info.monthRange[m-1], info.monthRange[m]})
			}
		} else {
			ranges = [][2]int{{0, info.yearLen}}
		}
	case Monthly:
		ranges = [][2]int{{info.monthRange[month-1], info.monthRange[month]}}
	}
	if len(ranges) == 0 {
		return
	}
	// Weekly rules never carry ordinal weekdays, so no cross-year
	// padding is needed here.
	info.negWeekdayMask = make([]int, info.yearLen)
	for _, x := range ranges {
		first, last := x[0], x[1]-1
		for _, wd := range r.bynweekday {
			var i int
			if wd.n < 0 {
				i = last + (wd.n+1)*7
				i -= pymod(info.weekdayMask[i]-wd.weekday, 7)
			} else {
				i = first + (wd.n-1)*7
				i += pymod(7-info.weekdayMask[i]+wd.weekday, 7)
			}
			if first <= i && i <= last {
				info.negWeekdayMask[i] = 1
			}
		}
	}
}

// daySet returns the candidate year-day offsets for the iteration
// period containing year/month/day. Weekly sets may run past the year
// end; the masks are padded to cover that.
func (info *iterInfo) daySet(freq Frequency, year int, month time.Month, day int) []int {
	switch freq {
	case Yearly:
		set := make([]int, info.yearLen)
		for i := range set {
			set[i] = i
		}
		return set
	case Monthly:
		start, end := info.monthRange[month-1], info.monthRange[month]
		set := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			set = append(set, i)
		}
		return set
	case Weekly:
		i := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).YearDay() - 1
		set := make([]int, 0, 7)
		for j := 0; j < 7; j++ {
			set = append(set, i)
			i++
			if info.weekdayMask[i] == info.rrule.wkst {
				break
			}
		}
		return set
	default:
		i := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).YearDay() - 1
		return []int{i}
	}
}

// isFiltered reports whether the BY* parts reject year-day offset i.
func (info *iterInfo) isFiltered(i int) bool {
	r := info.rrule
	return len(r.bymonth) != 0 && !contains(r.bymonth, info.monthMask[i]) ||
		len(r.byweekno) != 0 && info.weekNoMask[i] == 0 ||
		len(r.byweekday) != 0 && !contains(r.byweekday, info.weekdayMask[i]) ||
		len(info.negWeekdayMask) != 0 && info.negWeekdayMask[i] == 0 ||
		len(r.byeaster) != 0 && info.easterMask[i] == 0 ||
		(len(r.bymonthday) != 0 || len(r.bynmonthday) != 0) &&
			!contains(r.bymonthday, info.monthDayMask[i]) &&
			!contains(r.bynmonthday, info.negMonthDayMask[i]) ||
		len(r.byyearday) != 0 &&
			(i < info.yearLen &&
				!contains(r.byyearday, i+1) &&
				!contains(r.byyearday, -info.yearLen+i) ||
				i >= info.yearLen &&
					!contains(r.byyearday, i+1-info.yearLen) &&
					!contains(r.byyearday, -info.nextYearLen+i-info.yearLen))
}

// timeSet builds the times of day for one day of a sub-daily rule.
// Second 60 cannot be represented by time.Time and is skipped.
func (info *iterInfo) timeSet(freq Frequency, hour, minute, second int) []time.Time {
	loc := info.rrule.dtstart.Location()
	var result []time.Time
	switch freq {
	case Hourly:
		for _, minute := range info.rrule.byminute {
			for _, second := range info.rrule.bysecond {
				if second == 60 {
					continue
				}
				result = append(result, time.Date(1, 1, 1, hour, minute, second, 0, loc))
			}
		}
	case Minutely:
		for _, second := range info.rrule.bysecond {
			if second == 60 {
				continue
			}
			result = append(result, time.Date(1, 1, 1, hour, minute, second, 0, loc))
		}
	case Secondly:
		if second != 60 {
			result = []time.Time{time.Date(1, 1, 1, hour, minute, second, 0, loc)}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result
}
