package rrule

import (
	"errors"
	"time"
)

// maxYear bounds iteration; stepping past it ends the sequence.
const maxYear = 9999

// errSubscript reports python-style subscripting outside the slice.
var errSubscript = errors.New("subscript out of range")

// pymod reproduces Python's modulo, where the result takes the sign of
// the divisor.
func pymod(a, b int) int {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		return r + b
	}
	return r
}

// divmod reproduces Python's divmod with floor division.
func divmod(a, b int) (div, mod int) {
	mod = pymod(a, b)
	return (a - mod) / b, mod
}

func contains(list []int, value int) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// pySubscript indexes like Python: negative indices count from the end.
func pySubscript(slice []int, index int) (int, error) {
	if index < 0 {
		index += len(slice)
	}
	if index < 0 || index >= len(slice) {
		return 0, errSubscript
	}
	return slice[index], nil
}

// isLeap returns 1 for leap years so year lengths can be computed as
// 365+isLeap(y).
func isLeap(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 1
	}
	return 0
}

// daysIn returns the number of days in the given month.
func daysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
