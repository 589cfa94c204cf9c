// Package vcard parses and writes vCard 2.1, 3.0 and 4.0 streams. It
// shares the content-line tokenizer with the ical package and adds the
// vCard specifics: property groups (item1.TEL), structured values split
// on ';' and the 2.1 quoted-printable encoding.
package vcard

import (
	"strings"

	"github.com/samber/mo"
)

// Property names used by this package's accessors.
const (
	PropVersion       = "VERSION"
	PropFormattedName = "FN"
	PropName          = "N"
	PropAddress       = "ADR"
	PropTel           = "TEL"
	PropEmail         = "EMAIL"
	PropOrg           = "ORG"
	PropNote          = "NOTE"
	PropUID           = "UID"
	PropCategories    = "CATEGORIES"
)

// Param is one property parameter. vCard 2.1 allows bare values
// (TEL;HOME:...); those parse as a Param with the bare word as Name and
// nil Values.
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

// Property is one vCard content line. Structured properties (N, ADR,
// ORG) carry their ';' separated components in Fields, each component
// itself a ',' separated list; everything else uses Values.
type Property struct {
	Group  string
	Name   string
	Params []Param
	Values []string
	Fields [][]string
}

// Value returns the property's first value, or "".
func (p *Property) Value() string {
	if len(p.Values) == 0 {
		if len(p.Fields) > 0 && len(p.Fields[0]) > 0 {
			return p.Fields[0][0]
		}
		return ""
	}
	return p.Values[0]
}

// Field returns structured component i, or nil past the end. Absent
// trailing components are indistinguishable from empty ones.
func (p *Property) Field(i int) []string {
	if i < 0 || i >= len(p.Fields) {
		return nil
	}
	return p.Fields[i]
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

// Type reports whether the property carries the given TYPE value,
// accepting both TYPE=HOME and the bare 2.1 form (TEL;HOME:...).
func (p *Property) Type(value string) bool {
	for i := range p.Params {
		param := &p.Params[i]
		if strings.EqualFold(param.Name, "TYPE") {
			for _, v := range param.Values {
				if strings.EqualFold(v, value) {
					return true
				}
			}
		}
		if param.Values == nil && strings.EqualFold(param.Name, value) {
			return true
		}
	}
	return false
}

// Card is one parsed vCard.
type Card struct {
	Properties []Property
}

// Version returns the card's VERSION value, or "" when absent.
func (c *Card) Version() string {
	if prop, ok := c.Get(PropVersion).Get(); ok {
		return prop.Value()
	}
	return ""
}

// Get returns the first property with the given name.
func (c *Card) Get(name string) mo.Option[*Property] {
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			return mo.Some(&c.Properties[i])
		}
	}
	return mo.None[*Property]()
}

// GetAll returns every property with the given name.
func (c *Card) GetAll(name string) []*Property {
	var out []*Property
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			out = append(out, &c.Properties[i])
		}
	}
	return out
}

// Group returns every property in the given group (item1.TEL,
// item1.X-ABLABEL).
func (c *Card) Group(group string) []*Property {
	var out []*Property
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Group, group) {
			out = append(out, &c.Properties[i])
		}
	}
	return out
}

// FormattedName returns the FN value.
func (c *Card) FormattedName() mo.Option[string] {
	prop, ok := c.Get(PropFormattedName).Get()
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(prop.Value())
}

// Set replaces (or adds) the named property with a single value.
func (c *Card) Set(name, value string) {
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, name) {
			c.Properties[i].Values = []string{value}
			c.Properties[i].Fields = nil
			c.Properties[i].Params = nil
			return
		}
	}
	c.Properties = append(c.Properties, Property{Name: name, Values: []string{value}})
}

// structuredProps are the properties whose value splits on ';'.
var structuredProps = map[string]bool{
	PropName:    true,
	PropAddress: true,
	PropOrg:     true,
	"GENDER":    true,
}

func isStructured(name string) bool {
	return structuredProps[strings.ToUpper(name)]
}
