package rrule

import "strconv"

// maxInterval caps INTERVAL so that interval arithmetic stays far from
// integer overflow even for secondly rules.
const maxInterval = 65535

type byRuleBounds struct {
	min, max  int
	allowNeg  bool
	allowZero bool
}

var byRuleRanges = map[string]byRuleBounds{
	"BYSECOND":   {min: 0, max: 60, allowZero: true},
	"BYMINUTE":   {min: 0, max: 59, allowZero: true},
	"BYHOUR":     {min: 0, max: 23, allowZero: true},
	"BYMONTHDAY": {min: 1, max: 31, allowNeg: true},
	"BYYEARDAY":  {min: 1, max: 366, allowNeg: true},
	"BYWEEKNO":   {min: 1, max: 53, allowNeg: true},
	"BYMONTH":    {min: 1, max: 12},
	"BYSETPOS":   {min: 1, max: 366, allowNeg: true},
}

func checkBounds(field string, values []int) error {
	bounds, ok := byRuleRanges[field]
	if !ok {
		return nil
	}
	for _, v := range values {
		abs := v
		if v < 0 {
			if !bounds.allowNeg {
				return &ValidationError{Code: InvalidFieldValueRange, Field: field, Value: strconv.Itoa(v)}
			}
			abs = -v
		}
		if v == 0 && !bounds.allowZero {
			return &ValidationError{Code: InvalidFieldValueRange, Field: field, Value: "0"}
		}
		if abs < bounds.min && !(v == 0 && bounds.allowZero) || abs > bounds.max {
			return &ValidationError{Code: InvalidFieldValueRange, Field: field, Value: strconv.Itoa(v)}
		}
	}
	return nil
}

// validateOption checks an ROption's internal consistency before
// derivation. In relaxed mode the BY*/frequency incompatibilities are
// resolved by dropping the offending BY* part; every other failure is
// an error in both modes.
func validateOption(opt *ROption, set *settings) error {
	if opt.Interval < 0 {
		return &ValidationError{Code: InvalidFieldValue, Field: "INTERVAL", Value: strconv.Itoa(opt.Interval)}
	}
	if opt.Interval > maxInterval {
		return &ValidationError{Code: TooBigInterval, Value: strconv.Itoa(opt.Interval)}
	}

	for _, check := range []struct {
		field  string
		values []int
	}{
		{"BYSECOND", opt.Bysecond},
		{"BYMINUTE", opt.Byminute},
		{"BYHOUR", opt.Byhour},
		{"BYMONTHDAY", opt.Bymonthday},
		{"BYYEARDAY", opt.Byyearday},
		{"BYWEEKNO", opt.Byweekno},
		{"BYMONTH", opt.Bymonth},
		{"BYSETPOS", opt.Bysetpos},
	} {
		if err := checkBounds(check.field, check.values); err != nil {
			return err
		}
	}
	for _, wd := range opt.Byweekday {
		if wd.n > 53 || wd.n < -53 {
			return &ValidationError{Code: InvalidFieldValueRange, Field: "BYDAY", Value: wd.String()}
		}
	}

	// RFC 7529: RSCALE is carried through serialization for any scale,
	// but only the Gregorian calendar can be expanded.
	switch opt.Rscale {
	case "", "GREGORIAN", "GREGORY":
	default:
		return &ValidationError{Code: InvalidFieldValue, Field: "RSCALE", Value: opt.Rscale}
	}
	if opt.Skip != "" && opt.Rscale == "" {
		return &ValidationError{Code: InvalidFieldValue, Field: "SKIP", Value: opt.Skip}
	}

	if len(opt.Bysetpos) > 0 && !hasByRule(opt) {
		return &ValidationError{Code: BySetPosWithoutByRule}
	}

	if len(opt.Byeaster) > 0 {
		for _, field := range []struct {
			name  string
			inUse bool
		}{
			{"BYDAY", len(opt.Byweekday) > 0},
			{"BYMONTHDAY", len(opt.Bymonthday) > 0},
			{"BYYEARDAY", len(opt.Byyearday) > 0},
			{"BYWEEKNO", len(opt.Byweekno) > 0},
		} {
			if field.inUse {
				return &ValidationError{Code: InvalidByRuleWithByEaster, Field: field.name}
			}
		}
	}

	// BY* parts that make no sense with the frequency. RFC 5545 forbids
	// these combinations outright; relaxed mode ignores the part.
	drop := func(field string) error {
		if set.strict {
			return &ValidationError{Code: InvalidByRuleAndFrequency, Field: field, Freq: opt.Freq}
		}
		set.logger.Debug("ignoring BY rule incompatible with frequency",
			"field", field, "freq", opt.Freq.String())
		return nil
	}
	if len(opt.Byweekno) > 0 && opt.Freq != Yearly {
		if err := drop("BYWEEKNO"); err != nil {
			return err
		}
		opt.Byweekno = nil
	}
	if len(opt.Byyearday) > 0 &&
		(opt.Freq == Daily || opt.Freq == Weekly || opt.Freq == Monthly) {
		if err := drop("BYYEARDAY"); err != nil {
			return err
		}
		opt.Byyearday = nil
	}
	if len(opt.Bymonthday) > 0 && opt.Freq == Weekly {
		if err := drop("BYMONTHDAY"); err != nil {
			return err
		}
		opt.Bymonthday = nil
	}
	if opt.Freq != Monthly && opt.Freq != Yearly {
		kept := opt.Byweekday[:0]
		dropped := false
		for _, wd := range opt.Byweekday {
			if wd.n != 0 {
				dropped = true
				continue
			}
			kept = append(kept, wd)
		}
		if dropped {
			if err := drop("BYDAY"); err != nil {
				return err
			}
			opt.Byweekday = kept
		}
	}
	return nil
}

// hasByRule reports whether any BY* part other than BYSETPOS is set.
func hasByRule(opt *ROption) bool {
	return len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 ||
		len(opt.Byweekday) > 0 || len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 ||
		len(opt.Byeaster) > 0
}
