package rrule

// Per-day lookup tables for leap and non-leap years. Every mask is 7
// days longer than the year so weekly periods can cross the year
// boundary without bounds checks.
var (
	month366Mask       []int
	month365Mask       []int
	monthDay366Mask    []int
	monthDay365Mask    []int
	negMonthDay366Mask []int
	negMonthDay365Mask []int
	weekday55Mask      []int

	month366Range = []int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335, 366}
	month365Range = []int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}
)

func init() {
	month366Mask = concatInt(
		repeatInt(1, 31), repeatInt(2, 29), repeatInt(3, 31), repeatInt(4, 30),
		repeatInt(5, 31), repeatInt(6, 30), repeatInt(7, 31), repeatInt(8, 31),
		repeatInt(9, 30), repeatInt(10, 31), repeatInt(11, 30), repeatInt(12, 31),
		repeatInt(1, 7))
	// Drop Feb 29 for the non-leap variant.
	month365Mask = concatInt(month366Mask[:59], month366Mask[60:])

	d29, d30, d31 := rangeInt(1, 30), rangeInt(1, 31), rangeInt(1, 32)
	monthDay366Mask = concatInt(d31, d29, d31, d30, d31, d30, d31, d31, d30, d31, d30, d31, d31[:7])
	monthDay365Mask = concatInt(monthDay366Mask[:59], monthDay366Mask[60:])

	n29, n30, n31 := rangeInt(-29, 0), rangeInt(-30, 0), rangeInt(-31, 0)
	negMonthDay366Mask = concatInt(n31, n29, n31, n30, n31, n30, n31, n31, n30, n31, n30, n31, n31[:7])
	negMonthDay365Mask = concatInt(negMonthDay366Mask[:31], negMonthDay366Mask[32:])

	for i := 0; i < 55; i++ {
		weekday55Mask = append(weekday55Mask, 0, 1, 2, 3, 4, 5, 6)
	}
}

func repeatInt(value, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = value
	}
	return out
}

// rangeInt returns [start, end).
func rangeInt(start, end int) []int {
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}

func concatInt(slices ...[]int) []int {
	var out []int
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}
