package rrule

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/calwire/calwire/internal/tokenizer"
)

// ROption holds the parts of a recurrence rule as parsed from text or
// assembled by a caller, before validation and derivation by NewRRule.
type ROption struct {
	Freq       Frequency
	Dtstart    time.Time
	Interval   int
	Wkst       Weekday
	Count      int
	Until      time.Time
	Bysetpos   []int
	Bymonth    []int
	Bymonthday []int
	Byyearday  []int
	Byweekno   []int
	Byweekday  []Weekday
	Byhour     []int
	Byminute   []int
	Bysecond   []int
	Byeaster   []int

	// RFC 7529 calendar scale extension. Only the Gregorian scale is
	// expanded; other scales parse and serialize back untouched.
	Rscale string
	Skip   string
}

// Option configures parsing and rule construction.
type Option func(*settings)

// WithStrict makes any malformed or unknown rule component a hard
// error instead of being skipped.
func WithStrict() Option {
	return func(s *settings) { s.strict = true }
}

// WithLogger routes relaxed-mode diagnostics (skipped components,
// ignored BY* parts) to the given logger. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

type settings struct {
	strict bool
	logger *slog.Logger
}

func newSettings(opts []Option) *settings {
	s := &settings{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StrToROption parses the text form of a recurrence rule,
// KEY1=VALUE1;KEY2=VALUE2;..., into an ROption. FREQ is mandatory; its
// absence fails the parse with a MissingFreq error carrying the full
// raw rule text. By default parsing is tolerant: unrecognized keys and
// malformed list items are dropped individually and the rest of the
// rule is kept. WithStrict turns any such component into an error
// carrying the offending text.
func StrToROption(rfcString string, opts ...Option) (*ROption, error) {
	set := newSettings(opts)
	tk := tokenizer.New([]byte(rfcString))
	tk.ExpectRecurValue()

	opt := &ROption{}
	hasFreq := false
	seen := false

	// badValue handles one unparseable list item per the strict/relaxed
	// policy; relaxed mode drops just that item.
	badValue := func(field string, tok tokenizer.Token) error {
		if set.strict {
			return &ValidationError{Code: InvalidFieldValue, Field: field, Value: tok.String()}
		}
		set.logger.Debug("skipping malformed RRULE value", "field", field, "value", tok.String())
		return nil
	}

	// values collects one comma separated value list, ending at ';' or
	// end of line.
	values := func() []tokenizer.Token {
		var out []tokenizer.Token
		for {
			tok, ok := tk.Token()
			if !ok {
				break
			}
			out = append(out, tok)
			if tok.Stop != tokenizer.StopComma {
				break
			}
		}
		return out
	}

	ints := func(field string, dst *[]int) error {
		for _, tok := range values() {
			if v, ok := parseInt(tok.Text); ok {
				*dst = append(*dst, v)
			} else if err := badValue(field, tok); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		key, ok := tk.Token()
		if !ok {
			break
		}
		if key.Start != -1 {
			seen = true
		}
		if key.Stop != tokenizer.StopEqual {
			// A component without the KEY=VALUE shape.
			if key.IsEmpty() && key.Stop != tokenizer.StopLf {
				continue
			}
			if set.strict {
				return nil, &ValidationError{Code: InvalidFieldValue, Field: key.String(), Value: key.String()}
			}
			if !key.IsEmpty() {
				set.logger.Debug("skipping malformed RRULE component", "text", key.String())
			}
			continue
		}

		field := strings.ToUpper(key.String())
		var err error
		switch field {
		case "FREQ":
			for _, tok := range values() {
				if f, ok := parseFrequency(tok.Text); ok {
					opt.Freq = f
					hasFreq = true
				} else if err = badValue(field, tok); err != nil {
					return nil, err
				}
			}
		case "UNTIL":
			for _, tok := range values() {
				if t, ok := parseUntil(tok.Text); ok {
					opt.Until = t
				} else if err = badValue(field, tok); err != nil {
					return nil, err
				}
			}
		case "COUNT":
			for _, tok := range values() {
				if v, ok := parseInt(tok.Text); ok && v > 0 {
					opt.Count = v
				} else if err = badValue(field, tok); err != nil {
					return nil, err
				}
			}
		case "INTERVAL":
			for _, tok := range values() {
				if v, ok := parseInt(tok.Text); ok && v > 0 {
					opt.Interval = v
				} else if err = badValue(field, tok); err != nil {
					return nil, err
				}
			}
		case "BYSECOND":
			err = ints(field, &opt.Bysecond)
		case "BYMINUTE":
			err = ints(field, &opt.Byminute)
		case "BYHOUR":
			err = ints(field, &opt.Byhour)
		case "BYDAY", "BYWEEKDAY":
			for _, tok := range values() {
				if wd, ok := parseWeekday(tok.Text); ok {
					opt.Byweekday = append(opt.Byweekday, wd)
				} else if err = badValue(field, tok); err != nil {
					return nil, err
				}
			}
		case "BYMONTHDAY":
			err = ints(field, &opt.Bymonthday)
		case "BYYEARDAY":
			err = ints(field, &opt.Byyearday)
		case "BYWEEKNO":
			err = ints(field, &opt.Byweekno)
		case "BYMONTH":
			err = ints(field, &opt.Bymonth)
		case "BYSETPOS":
			err = ints(field, &opt.Bysetpos)
		case "BYEASTER":
			err = ints(field, &opt.Byeaster)
		case "WKST":
			for _, tok := range values() {
				if wd, ok := parseWeekday(tok.Text); ok && wd.n == 0 {
					opt.Wkst = wd
				} else if err = badValue(field, tok); err != nil {
					return nil, err
				}
			}
		case "RSCALE":
			for _, tok := range values() {
				opt.Rscale = strings.ToUpper(strings.TrimSpace(tok.String()))
			}
		case "SKIP":
			for _, tok := range values() {
				switch v := strings.ToUpper(strings.TrimSpace(tok.String())); v {
				case "OMIT", "BACKWARD", "FORWARD":
					opt.Skip = v
				default:
					if err = badValue(field, tok); err != nil {
						return nil, err
					}
				}
			}
		case "DTSTART":
			// Some producers embed DTSTART in the rule text.
			for _, tok := range values() {
				if t, ok := parseUntil(tok.Text); ok {
					opt.Dtstart = t
				} else if err = badValue(field, tok); err != nil {
					return nil, err
				}
			}
		default:
			if set.strict {
				return nil, &ValidationError{Code: InvalidFieldValue, Field: field, Value: field}
			}
			set.logger.Debug("ignoring unknown RRULE key", "key", field)
			values()
		}
		if err != nil {
			return nil, err
		}
	}

	if !hasFreq {
		raw := ""
		if seen {
			raw = strings.TrimRight(rfcString, "\r\n")
		}
		return nil, &ValidationError{Code: MissingFreq, Value: raw}
	}
	return opt, nil
}

// StrToROptionStrict is StrToROption with strict parsing enabled.
func StrToROptionStrict(rfcString string) (*ROption, error) {
	return StrToROption(rfcString, WithStrict())
}

// RRuleString serializes the option back to its RFC 5545 text form.
// FREQ always comes first; re-parsing the output yields an equivalent
// rule.
func (opt *ROption) RRuleString() string {
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(opt.Freq.String())
	if opt.Rscale != "" {
		b.WriteString(";RSCALE=")
		b.WriteString(opt.Rscale)
	}
	if opt.Skip != "" {
		b.WriteString(";SKIP=")
		b.WriteString(opt.Skip)
	}
	if !opt.Until.IsZero() {
		b.WriteString(";UNTIL=")
		b.WriteString(timeToUTCStr(opt.Until))
	}
	if opt.Count > 0 {
		b.WriteString(";COUNT=")
		b.WriteString(strconv.Itoa(opt.Count))
	}
	if opt.Interval > 1 {
		b.WriteString(";INTERVAL=")
		b.WriteString(strconv.Itoa(opt.Interval))
	}
	writeIntList(&b, "BYSECOND", opt.Bysecond)
	writeIntList(&b, "BYMINUTE", opt.Byminute)
	writeIntList(&b, "BYHOUR", opt.Byhour)
	if len(opt.Byweekday) > 0 {
		b.WriteString(";BYDAY=")
		for i, wd := range opt.Byweekday {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(wd.String())
		}
	}
	writeIntList(&b, "BYMONTHDAY", opt.Bymonthday)
	writeIntList(&b, "BYYEARDAY", opt.Byyearday)
	writeIntList(&b, "BYWEEKNO", opt.Byweekno)
	writeIntList(&b, "BYMONTH", opt.Bymonth)
	writeIntList(&b, "BYSETPOS", opt.Bysetpos)
	writeIntList(&b, "BYEASTER", opt.Byeaster)
	if opt.Wkst != MO {
		b.WriteString(";WKST=")
		b.WriteString(opt.Wkst.String())
	}
	return b.String()
}

func (opt *ROption) String() string { return opt.RRuleString() }

func writeIntList(b *strings.Builder, key string, values []int) {
	if len(values) == 0 {
		return
	}
	b.WriteByte(';')
	b.WriteString(key)
	b.WriteByte('=')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
}

func parseInt(b []byte) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseUntil reads an iCalendar date or date-time; a trailing Z selects
// UTC, otherwise the value is floating.
func parseUntil(b []byte) (time.Time, bool) {
	s := strings.TrimSpace(string(b))
	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func timeToUTCStr(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
