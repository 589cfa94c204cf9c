package jscalendar

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calwire/calwire/ical"
)

// Event is a JSCalendar Event object (RFC 8984 §2), covering the
// properties with an iCalendar counterpart handled by this package.
type Event struct {
	Type            string                     `json:"@type"`
	UID             string                     `json:"uid"`
	Title           string                     `json:"title,omitempty"`
	Description     string                     `json:"description,omitempty"`
	Start           string                     `json:"start,omitempty"`
	TimeZone        string                     `json:"timeZone,omitempty"`
	Duration        string                     `json:"duration,omitempty"`
	Created         string                     `json:"created,omitempty"`
	Updated         string                     `json:"updated,omitempty"`
	Status          string                     `json:"status,omitempty"`
	Keywords        map[string]bool            `json:"keywords,omitempty"`
	RecurrenceRules []*RecurrenceRule          `json:"recurrenceRules,omitempty"`
	ExcludedRules   []*RecurrenceRule          `json:"excludedRecurrenceRules,omitempty"`
	Overrides       map[string]json.RawMessage `json:"recurrenceOverrides,omitempty"`
}

// Option configures conversion.
type Option func(*settings)

// WithLogger routes diagnostics about unmapped properties to the given
// logger. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

type settings struct {
	logger *slog.Logger
}

func newSettings(opts []Option) *settings {
	s := &settings{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// convertCtx tracks which source properties a conversion consumed so
// the leftovers can be reported instead of silently dropped.
type convertCtx struct {
	logger    *slog.Logger
	converted map[string]bool
}

func newConvertCtx(set *settings) *convertCtx {
	return &convertCtx{logger: set.logger, converted: make(map[string]bool)}
}

func (ctx *convertCtx) mark(name string) { ctx.converted[strings.ToUpper(name)] = true }

func (ctx *convertCtx) reportLeftovers(comp *ical.Component) {
	for i := range comp.Properties {
		name := strings.ToUpper(comp.Properties[i].Name)
		if !ctx.converted[name] {
			ctx.logger.Debug("property has no JSCalendar mapping", "property", name)
		}
	}
}

// FromICal converts the calendar's events. Properties without a
// JSCalendar mapping are reported through the logger and dropped.
func FromICal(cal *ical.Calendar, opts ...Option) ([]*Event, error) {
	set := newSettings(opts)
	var events []*Event
	for _, comp := range cal.Events() {
		event, err := fromComponent(comp, set)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func fromComponent(comp *ical.Component, set *settings) (*Event, error) {
	ctx := newConvertCtx(set)
	event := &Event{Type: "Event"}

	if uid, ok := comp.Text(ical.PropUID).Get(); ok {
		event.UID = uid
		ctx.mark(ical.PropUID)
	} else {
		event.UID = uuid.NewString()
	}
	if title, ok := comp.Text(ical.PropSummary).Get(); ok {
		event.Title = title
		ctx.mark(ical.PropSummary)
	}
	if desc, ok := comp.Text(ical.PropDescription).Get(); ok {
		event.Description = desc
		ctx.mark(ical.PropDescription)
	}
	if status, ok := comp.Text(ical.PropStatus).Get(); ok {
		event.Status = strings.ToLower(status)
		ctx.mark(ical.PropStatus)
	}
	if prop, ok := comp.Prop(ical.PropCategories).Get(); ok {
		event.Keywords = make(map[string]bool, len(prop.Values))
		for _, v := range prop.Values {
			event.Keywords[v] = true
		}
		ctx.mark(ical.PropCategories)
	}

	if start, ok := comp.DateTime(ical.PropDtStart, time.UTC).Get(); ok {
		event.Start = start.Format(localDateTime)
		if start.Location() == time.UTC {
			event.TimeZone = "Etc/UTC"
		}
		ctx.mark(ical.PropDtStart)

		if end, ok := comp.DateTime(ical.PropDtEnd, time.UTC).Get(); ok {
			event.Duration = formatDuration(end.Sub(start))
			ctx.mark(ical.PropDtEnd)
		}
	}

	if prop, ok := comp.Prop(ical.PropRRule).Get(); ok {
		if prop.Rule == nil {
			return nil, fmt.Errorf("jscalendar: event %s has an unparseable RRULE %q",
				event.UID, prop.Value())
		}
		event.RecurrenceRules = append(event.RecurrenceRules, FromROption(prop.Rule))
		ctx.mark(ical.PropRRule)
	}
	if prop, ok := comp.Prop(ical.PropExRule).Get(); ok && prop.Rule != nil {
		event.ExcludedRules = append(event.ExcludedRules, FromROption(prop.Rule))
		ctx.mark(ical.PropExRule)
	}
	for _, prop := range comp.Props(ical.PropExDate) {
		for _, v := range prop.Values {
			if pdt, err := ical.ParsePartialDateTime(v); err == nil {
				if event.Overrides == nil {
					event.Overrides = make(map[string]json.RawMessage)
				}
				key := pdt.Time(time.UTC).Format(localDateTime)
				event.Overrides[key] = json.RawMessage(`{"excluded":true}`)
			}
		}
		ctx.mark(ical.PropExDate)
	}
	ctx.mark(ical.PropDtStamp)
	ctx.mark(ical.PropVersion)

	ctx.reportLeftovers(comp)
	return event, nil
}

// ToICal converts events back to a VCALENDAR.
func ToICal(events []*Event, opts ...Option) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	for _, event := range events {
		comp, err := toComponent(event)
		if err != nil {
			return nil, err
		}
		cal.AddChild(comp)
	}
	return cal, nil
}

func toComponent(event *Event) (*ical.Component, error) {
	comp := ical.NewEvent()
	if event.UID != "" {
		comp.SetText(ical.PropUID, event.UID)
	}
	if event.Title != "" {
		comp.SetText(ical.PropSummary, event.Title)
	}
	if event.Description != "" {
		comp.SetText(ical.PropDescription, event.Description)
	}
	if event.Status != "" {
		comp.SetText(ical.PropStatus, strings.ToUpper(event.Status))
	}
	if len(event.Keywords) > 0 {
		var prop ical.Property
		prop.Name = ical.PropCategories
		for kw := range event.Keywords {
			prop.Values = append(prop.Values, kw)
		}
		comp.Properties = append(comp.Properties, prop)
	}

	var start time.Time
	if event.Start != "" {
		var err error
		start, err = time.Parse(localDateTime, event.Start)
		if err != nil {
			return nil, fmt.Errorf("jscalendar: invalid start %q: %w", event.Start, err)
		}
		if event.TimeZone == "Etc/UTC" || event.TimeZone == "" {
			start = start.UTC()
		} else {
			loc, err := time.LoadLocation(event.TimeZone)
			if err != nil {
				return nil, fmt.Errorf("jscalendar: unknown timeZone %q", event.TimeZone)
			}
			start = time.Date(start.Year(), start.Month(), start.Day(),
				start.Hour(), start.Minute(), start.Second(), 0, loc)
		}
		comp.SetDateTime(ical.PropDtStart, start)

		if event.Duration != "" {
			dur, err := parseDuration(event.Duration)
			if err != nil {
				return nil, err
			}
			comp.SetDateTime(ical.PropDtEnd, start.Add(dur))
		}
	}

	for _, rule := range event.RecurrenceRules {
		opt, err := rule.ROption()
		if err != nil {
			return nil, err
		}
		comp.SetRule(opt)
	}
	for key, raw := range event.Overrides {
		var override struct {
			Excluded bool `json:"excluded"`
		}
		if err := json.Unmarshal(raw, &override); err != nil || !override.Excluded {
			continue
		}
		if t, err := time.Parse(localDateTime, key); err == nil {
			comp.Properties = append(comp.Properties, ical.Property{
				Name:   ical.PropExDate,
				Values: []string{t.UTC().Format("20060102T150405Z")},
			})
		}
	}
	return comp, nil
}

// Marshal encodes events as a JSON array.
func Marshal(events []*Event) ([]byte, error) {
	return json.MarshalIndent(events, "", "  ")
}

// Unmarshal decodes a JSON array (or a single object) of Event
// objects.
func Unmarshal(data []byte) ([]*Event, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, err
		}
		return []*Event{&event}, nil
	}
	var events []*Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// formatDuration emits an ISO 8601 duration (PT1H30M).
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteString("P")
	if days := int(d.Hours()) / 24; days > 0 {
		fmt.Fprintf(&b, "%dD", days)
		d -= time.Duration(days) * 24 * time.Hour
	}
	if d > 0 {
		b.WriteString("T")
		if h := int(d.Hours()); h > 0 {
			fmt.Fprintf(&b, "%dH", h)
			d -= time.Duration(h) * time.Hour
		}
		if m := int(d.Minutes()); m > 0 {
			fmt.Fprintf(&b, "%dM", m)
			d -= time.Duration(m) * time.Minute
		}
		if s := int(d.Seconds()); s > 0 {
			fmt.Fprintf(&b, "%dS", s)
		}
	}
	out := b.String()
	if out == "P" {
		return "PT0S"
	}
	return out
}

// parseDuration reads the subset of ISO 8601 durations JSCalendar uses
// (weeks, days, hours, minutes, seconds).
func parseDuration(s string) (time.Duration, error) {
	orig := s
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
	}
	s = s[1:]
	var d time.Duration
	inTime := false
	for len(s) > 0 {
		if s[0] == 'T' {
			inTime = true
			s = s[1:]
			continue
		}
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
		}
		n := 0
		for _, ch := range s[:i] {
			n = n*10 + int(ch-'0')
		}
		switch s[i] {
		case 'W':
			d += time.Duration(n) * 7 * 24 * time.Hour
		case 'D':
			d += time.Duration(n) * 24 * time.Hour
		case 'H':
			if !inTime {
				return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
			}
			d += time.Duration(n) * time.Hour
		case 'M':
			if !inTime {
				return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
			}
			d += time.Duration(n) * time.Minute
		case 'S':
			if !inTime {
				return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
			}
			d += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("jscalendar: invalid duration %q", orig)
		}
		s = s[i+1:]
	}
	return d, nil
}
