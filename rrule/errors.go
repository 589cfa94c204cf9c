package rrule

import (
	"fmt"
	"math"
)

// ValidationCode enumerates the structural problems detected before any
// occurrence is generated.
type ValidationCode int

const (
	// BySetPosWithoutByRule: BYSETPOS requires at least one other BY*
	// part to select from.
	BySetPosWithoutByRule ValidationCode = iota
	// InvalidFieldValue: a field value that cannot be interpreted.
	InvalidFieldValue
	// InvalidFieldValueRange: a numeric value outside its legal domain.
	InvalidFieldValueRange
	// InvalidByRuleAndFrequency: a BY* part that is meaningless for the
	// selected frequency, such as BYWEEKNO with FREQ=DAILY.
	InvalidByRuleAndFrequency
	// UntilBeforeStart: UNTIL precedes DTSTART.
	UntilBeforeStart
	// TooBigInterval: INTERVAL exceeds the sanity cap.
	TooBigInterval
	// StartYearOutOfRange: DTSTART's year cannot be iterated.
	StartYearOutOfRange
	// UnableToGenerateTimeset: no valid hour/minute/second combination
	// exists under the configured BY* time parts.
	UnableToGenerateTimeset
	// InvalidByRuleWithByEaster: BYEASTER cannot be combined with the
	// day-selecting BY* parts.
	InvalidByRuleWithByEaster
	// DtStartUntilMismatchTimezone: DTSTART and UNTIL carry explicit,
	// disagreeing zone offsets.
	DtStartUntilMismatchTimezone
	// MissingFreq: the rule text has no FREQ part. Value holds the full
	// raw rule text, or the empty string if nothing was parsed.
	MissingFreq
)

// ValidationError is a structural problem with a rule, detectable
// without generating a single occurrence.
type ValidationError struct {
	Code   ValidationCode
	Field  string
	Value  string
	Freq   Frequency
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case BySetPosWithoutByRule:
		return "BYSETPOS filter requires at least one other BY* rule part"
	case InvalidFieldValue:
		return fmt.Sprintf("invalid value %q for field %s", e.Value, e.Field)
	case InvalidFieldValueRange:
		return fmt.Sprintf("value %q for field %s is out of range", e.Value, e.Field)
	case InvalidByRuleAndFrequency:
		return fmt.Sprintf("%s cannot be combined with FREQ=%s", e.Field, e.Freq)
	case UntilBeforeStart:
		return fmt.Sprintf("UNTIL (%s) is before DTSTART (%s)", e.Value, e.Detail)
	case TooBigInterval:
		return fmt.Sprintf("INTERVAL %s exceeds the maximum of %d", e.Value, maxInterval)
	case StartYearOutOfRange:
		return fmt.Sprintf("DTSTART year %s is outside the representable range 1..%d", e.Value, maxYear)
	case UnableToGenerateTimeset:
		return "the BY* time parts can never produce a valid time of day"
	case InvalidByRuleWithByEaster:
		return fmt.Sprintf("BYEASTER cannot be combined with %s", e.Field)
	case DtStartUntilMismatchTimezone:
		return fmt.Sprintf("DTSTART zone %q and UNTIL zone %q disagree, %s", e.Detail, e.Value, "UNTIL must be in UTC or share DTSTART's offset")
	case MissingFreq:
		return fmt.Sprintf("RRULE is missing the mandatory FREQ part: %q", e.Value)
	}
	return "invalid recurrence rule"
}

// IterError is raised lazily during enumeration, currently only from
// overflow-checked arithmetic. The message names the operands and the
// context in which they overflowed.
type IterError struct {
	Msg string
}

func (e *IterError) Error() string { return e.Msg }

func newIterError(format string, args ...any) *IterError {
	return &IterError{Msg: fmt.Sprintf(format, args...)}
}

// checkedMul multiplies with overflow detection; hint names the
// operation for the error message.
func checkedMul(a, b int, hint string) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == math.MinInt && b == -1) || (b == math.MinInt && a == -1) {
		return 0, newIterError("could not multiply numbers, would overflow (`%d * %d`), %s", a, b, hint)
	}
	res := a * b
	if res/b != a {
		return 0, newIterError("could not multiply numbers, would overflow (`%d * %d`), %s", a, b, hint)
	}
	return res, nil
}

// checkedAdd adds with overflow detection; hint names the operation for
// the error message.
func checkedAdd(a, b int, hint string) (int, error) {
	if (b > 0 && a > math.MaxInt-b) || (b < 0 && a < math.MinInt-b) {
		return 0, newIterError("could not add numbers, would overflow (`%d + %d`), %s", a, b, hint)
	}
	return a + b, nil
}
