// Package ical parses and writes iCalendar (RFC 5545) streams as a
// tree of components carrying properties, and bridges RRULE property
// values into the rrule expansion engine.
package ical

import (
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/calwire/calwire/rrule"
)

// Component names defined by RFC 5545.
const (
	CompCalendar = "VCALENDAR"
	CompEvent    = "VEVENT"
	CompTodo     = "VTODO"
	CompJournal  = "VJOURNAL"
	CompFreeBusy = "VFREEBUSY"
	CompTimezone = "VTIMEZONE"
	CompStandard = "STANDARD"
	CompDaylight = "DAYLIGHT"
	CompAlarm    = "VALARM"
)

// Property names used by this package's accessors.
const (
	PropVersion     = "VERSION"
	PropProdID      = "PRODID"
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropLocation    = "LOCATION"
	PropDtStamp     = "DTSTAMP"
	PropDtStart     = "DTSTART"
	PropDtEnd       = "DTEND"
	PropDue         = "DUE"
	PropRRule       = "RRULE"
	PropRDate       = "RDATE"
	PropExDate      = "EXDATE"
	PropExRule      = "EXRULE"
	PropStatus      = "STATUS"
	PropCategories  = "CATEGORIES"
)

// Param is one property parameter, possibly multi-valued
// (MEMBER="a","b").
type Param struct {
	Name   string
	Values []string
}

// Value returns the parameter's first value, or "".
func (p *Param) Value() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}

// Property is one content line: name, parameters and the unescaped
// value list. Multi-valued properties (CATEGORIES, EXDATE) keep their
// comma separated items as separate entries in Values.
//
// For RRULE lines Rule holds the parsed form; when the rule text could
// not be parsed, Rule is nil and Values[0] preserves the raw text so
// the document still round-trips.
type Property struct {
	Name   string
	Params []Param
	Values []string
	Rule   *rrule.ROption
}

// Value returns the property's first value, or "".
func (p *Property) Value() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}

// Param returns the first parameter with the given name,
// case-insensitively.
func (p *Property) Param(name string) mo.Option[*Param] {
	for i := range p.Params {
		if strings.EqualFold(p.Params[i].Name, name) {
			return mo.Some(&p.Params[i])
		}
	}
	return mo.None[*Param]()
}

// Component is a node of the iCalendar tree: BEGIN:Name, properties,
// nested components, END:Name. Unknown component and property names
// survive parsing untouched.
type Component struct {
	Name       string
	Properties []Property
	Children   []*Component
}

// Prop returns the first property with the given name.
func (c *Component) Prop(name string) mo.Option[*Property] {
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			return mo.Some(&c.Properties[i])
		}
	}
	return mo.None[*Property]()
}

// Props returns every property with the given name.
func (c *Component) Props(name string) []*Property {
	var out []*Property
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			out = append(out, &c.Properties[i])
		}
	}
	return out
}

// Text returns the first value of the named property.
func (c *Component) Text(name string) mo.Option[string] {
	prop, ok := c.Prop(name).Get()
	if !ok || len(prop.Values) == 0 {
		return mo.None[string]()
	}
	return mo.Some(prop.Values[0])
}

// DateTime parses the named property as a DATE or DATE-TIME value.
// Floating values come back in loc (time.Local when loc is nil);
// values with a trailing Z come back in UTC.
func (c *Component) DateTime(name string, loc *time.Location) mo.Option[time.Time] {
	prop, ok := c.Prop(name).Get()
	if !ok || len(prop.Values) == 0 {
		return mo.None[time.Time]()
	}
	pdt, err := ParsePartialDateTime(prop.Values[0])
	if err != nil {
		return mo.None[time.Time]()
	}
	return mo.Some(pdt.Time(loc))
}

// RecurrenceRule returns the component's parsed RRULE, if it has one
// that parsed cleanly.
func (c *Component) RecurrenceRule() mo.Option[*rrule.ROption] {
	prop, ok := c.Prop(PropRRule).Get()
	if !ok || prop.Rule == nil {
		return mo.None[*rrule.ROption]()
	}
	return mo.Some(prop.Rule)
}

// SetText replaces (or adds) the named property with a single text
// value.
func (c *Component) SetText(name, value string) {
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			c.Properties[i].Values = []string{value}
			c.Properties[i].Params = nil
			return
		}
	}
	c.Properties = append(c.Properties, Property{Name: name, Values: []string{value}})
}

// SetDateTime replaces (or adds) the named property with a DATE-TIME
// value; UTC times get the trailing Z.
func (c *Component) SetDateTime(name string, t time.Time) {
	c.SetText(name, formatDateTime(t))
}

// SetRule replaces (or adds) the component's RRULE.
func (c *Component) SetRule(opt *rrule.ROption) {
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, PropRRule) {
			c.Properties[i].Values = []string{opt.RRuleString()}
			c.Properties[i].Rule = opt
			return
		}
	}
	c.Properties = append(c.Properties, Property{
		Name: PropRRule, Values: []string{opt.RRuleString()}, Rule: opt,
	})
}

// AddChild appends a nested component.
func (c *Component) AddChild(child *Component) {
	c.Children = append(c.Children, child)
}

// Calendar is the VCALENDAR root component.
type Calendar struct {
	Component
}

// Events returns the calendar's top-level VEVENT components.
func (cal *Calendar) Events() []*Component {
	var out []*Component
	for _, child := range cal.Children {
		if strings.EqualFold(child.Name, CompEvent) {
			out = append(out, child)
		}
	}
	return out
}

// RecurrenceSet assembles the component's DTSTART, RRULE, RDATE,
// EXRULE and EXDATE properties into an expandable rrule.Set. Floating
// date-times are interpreted in loc (time.Local when nil). Components
// without recurrence properties yield a set containing just DTSTART.
func (c *Component) RecurrenceSet(loc *time.Location) (*rrule.Set, error) {
	dtstart, hasStart := c.DateTime(PropDtStart, loc).Get()
	set := rrule.NewSet(dtstart)

	if prop, ok := c.Prop(PropRRule).Get(); ok {
		if prop.Rule == nil {
			return nil, &rrule.ValidationError{Code: rrule.MissingFreq, Value: prop.Value()}
		}
		opt := *prop.Rule
		if opt.Dtstart.IsZero() && hasStart {
			opt.Dtstart = dtstart
		}
		r, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, err
		}
		set.RRule(r)
	} else if hasStart {
		set.RDate(dtstart)
	}
	if prop, ok := c.Prop(PropExRule).Get(); ok && prop.Rule != nil {
		opt := *prop.Rule
		if opt.Dtstart.IsZero() && hasStart {
			opt.Dtstart = dtstart
		}
		r, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, err
		}
		set.ExRule(r)
	}
	for _, prop := range c.Props(PropRDate) {
		for _, v := range prop.Values {
			if pdt, err := ParsePartialDateTime(v); err == nil {
				set.RDate(pdt.Time(loc))
			}
		}
	}
	for _, prop := range c.Props(PropExDate) {
		for _, v := range prop.Values {
			if pdt, err := ParsePartialDateTime(v); err == nil {
				set.ExDate(pdt.Time(loc))
			}
		}
	}
	return set, nil
}
