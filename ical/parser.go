package ical

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/calwire/calwire/internal/tokenizer"
	"github.com/calwire/calwire/rrule"
)

// Option configures parsing.
type Option func(*settings)

// WithStrict makes malformed content lines and unparseable RRULEs hard
// errors instead of being skipped or kept raw.
func WithStrict() Option {
	return func(s *settings) { s.strict = true }
}

// WithLogger routes relaxed-mode diagnostics to the given logger. The
// default discards them.
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

// Parse reads an iCalendar stream and returns its VCALENDAR root.
// Unknown components and properties are preserved. By default,
// malformed content lines are skipped and unparseable RRULE values kept
// as raw text; WithStrict turns both into errors.
func Parse(data []byte, opts ...Option) (*Calendar, error) {
	set := newSettings(opts)
	tk := tokenizer.New(data)

	var cal *Calendar
	var stack []*Component

	skip := func(what string, tok tokenizer.Token, drain bool) error {
		if set.strict {
			return fmt.Errorf("ical: %s %q", what, tok.String())
		}
		set.logger.Debug("skipping content line", "reason", what, "text", tok.String())
		if drain {
			tk.UnfoldedLine()
		}
		return nil
	}

	for {
		tk.ExpectName()
		name, ok := tk.Token()
		if !ok {
			break
		}
		if name.IsEmpty() {
			continue
		}

		switch name.Stop {
		case tokenizer.StopColon, tokenizer.StopSemicolon:
		default:
			if err := skip("property without value", name, false); err != nil {
				return nil, err
			}
			continue
		}

		propName := strings.ToUpper(name.String())

		if propName == "BEGIN" || propName == "END" {
			tk.ExpectValue()
			val, _ := tk.Token()
			compName := strings.ToUpper(strings.TrimSpace(val.String()))
			if propName == "BEGIN" {
				comp := &Component{Name: compName}
				if len(stack) == 0 {
					if compName != CompCalendar {
						if set.strict {
							return nil, fmt.Errorf("ical: unexpected top-level component %q", compName)
						}
						set.logger.Debug("ignoring top-level component", "name", compName)
					}
					if cal == nil && compName == CompCalendar {
						cal = &Calendar{Component: *comp}
						stack = append(stack, &cal.Component)
						continue
					}
				}
				if len(stack) > 0 {
					stack[len(stack)-1].AddChild(comp)
				}
				stack = append(stack, comp)
			} else {
				if len(stack) == 0 || !strings.EqualFold(stack[len(stack)-1].Name, compName) {
					if set.strict {
						return nil, fmt.Errorf("ical: unbalanced END:%s", compName)
					}
					set.logger.Debug("ignoring unbalanced END", "name", compName)
					continue
				}
				stack = stack[:len(stack)-1]
			}
			continue
		}

		if len(stack) == 0 {
			if err := skip("property outside any component", name, true); err != nil {
				return nil, err
			}
			continue
		}
		comp := stack[len(stack)-1]

		prop := Property{Name: propName}
		malformed := false
		for name.Stop == tokenizer.StopSemicolon {
			param, perr := parseParam(tk)
			if perr != nil {
				if set.strict {
					return nil, fmt.Errorf("ical: property %s: %w", propName, perr)
				}
				set.logger.Debug("skipping malformed parameter",
					"property", propName, "error", perr)
				malformed = true
				break
			}
			prop.Params = append(prop.Params, param.param)
			name.Stop = param.stop
		}
		if malformed {
			tk.UnfoldedLine()
			continue
		}

		switch propName {
		case PropRRule, PropExRule:
			tk.ExpectValue()
			raw := strings.TrimSpace(string(tk.UnfoldedLine()))
			prop.Values = []string{raw}
			var ropts []rrule.Option
			if set.strict {
				ropts = append(ropts, rrule.WithStrict())
			}
			rule, err := rrule.StrToROption(raw, ropts...)
			if err != nil {
				if set.strict {
					return nil, fmt.Errorf("ical: property %s: %w", propName, err)
				}
				set.logger.Debug("keeping unparseable recurrence rule as text",
					"property", propName, "value", raw, "error", err)
			} else {
				prop.Rule = rule
			}
		default:
			tk.ExpectValue()
			for {
				val, ok := tk.Token()
				if !ok {
					break
				}
				prop.Values = append(prop.Values, val.String())
				if val.Stop != tokenizer.StopComma {
					break
				}
			}
		}
		comp.Properties = append(comp.Properties, prop)
	}

	if cal == nil {
		return nil, fmt.Errorf("ical: no VCALENDAR component found")
	}
	if len(stack) > 0 {
		if set.strict {
			return nil, fmt.Errorf("ical: unterminated component %q", stack[len(stack)-1].Name)
		}
		set.logger.Debug("input ended inside component", "name", stack[len(stack)-1].Name)
	}
	return cal, nil
}

type parsedParam struct {
	param Param
	stop  tokenizer.StopChar
}

// parseParam reads one NAME=VALUE[,VALUE...] parameter. The returned
// stop tells the caller whether another parameter (';') or the property
// value (':') follows.
func parseParam(tk *tokenizer.Tokenizer) (parsedParam, error) {
	tk.ExpectParamName()
	name, ok := tk.Token()
	if !ok {
		return parsedParam{}, fmt.Errorf("unterminated parameter list")
	}
	out := parsedParam{param: Param{Name: strings.ToUpper(name.String())}}
	if name.Stop != tokenizer.StopEqual {
		// A valueless parameter (vCard 2.1 style TYPE shorthand).
		out.param.Values = nil
		out.stop = name.Stop
		if name.Stop != tokenizer.StopSemicolon && name.Stop != tokenizer.StopColon {
			return parsedParam{}, fmt.Errorf("parameter %q has no value", name.String())
		}
		return out, nil
	}
	tk.ExpectParamValue()
	for {
		val, ok := tk.Token()
		if !ok {
			return parsedParam{}, fmt.Errorf("unterminated parameter %q", out.param.Name)
		}
		out.param.Values = append(out.param.Values, val.String())
		if val.Stop != tokenizer.StopComma {
			out.stop = val.Stop
			break
		}
	}
	if out.stop != tokenizer.StopSemicolon && out.stop != tokenizer.StopColon {
		return parsedParam{}, fmt.Errorf("parameter %q not followed by a value", out.param.Name)
	}
	return out, nil
}
