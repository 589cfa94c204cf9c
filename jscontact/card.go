// Package jscontact converts between vCard and JSContact Card objects
// (RFC 9553).
package jscontact

import (
	"encoding/json"
	"strings"
)

// Card is a JSContact Card object, covering the properties with a
// vCard counterpart handled by this package.
type Card struct {
	Type          string                  `json:"@type"`
	Version       string                  `json:"version"`
	UID           string                  `json:"uid"`
	Name          *Name                   `json:"name,omitempty"`
	Organizations map[string]Organization `json:"organizations,omitempty"`
	Emails        map[string]EmailAddress `json:"emails,omitempty"`
	Phones        map[string]Phone        `json:"phones,omitempty"`
	Addresses     map[string]Address      `json:"addresses,omitempty"`
	Notes         map[string]Note         `json:"notes,omitempty"`
	Keywords      map[string]bool         `json:"keywords,omitempty"`
}

// Name carries the contact's name, both as ordered components and as
// the free-form full name.
type Name struct {
	Components []NameComponent `json:"components,omitempty"`
	Full       string          `json:"full,omitempty"`
}

type NameComponent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Component returns the values of all components with the given kind.
func (n *Name) Component(kind string) []string {
	var values []string
	for _, c := range n.Components {
		if c.Kind == kind {
			values = append(values, c.Value)
		}
	}
	return values
}

type Organization struct {
	Name  string    `json:"name,omitempty"`
	Units []OrgUnit `json:"units,omitempty"`
}

type OrgUnit struct {
	Name string `json:"name"`
}

type EmailAddress struct {
	Address  string          `json:"address"`
	Contexts map[string]bool `json:"contexts,omitempty"`
}

type Phone struct {
	Number   string          `json:"number"`
	Features map[string]bool `json:"features,omitempty"`
	Contexts map[string]bool `json:"contexts,omitempty"`
}

// Address holds a postal address as kinded components, mirroring the
// seven positional vCard ADR fields.
type Address struct {
	Components []AddressComponent `json:"components,omitempty"`
	Contexts   map[string]bool    `json:"contexts,omitempty"`
}

type AddressComponent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Component returns the first component value of the given kind, or "".
func (a *Address) Component(kind string) string {
	for _, c := range a.Components {
		if c.Kind == kind {
			return c.Value
		}
	}
	return ""
}

type Note struct {
	Note string `json:"note"`
}

// Marshal encodes cards as a JSON array.
func Marshal(cards []*Card) ([]byte, error) {
	return json.MarshalIndent(cards, "", "  ")
}

// Unmarshal decodes a JSON array (or a single object) of Card objects.
func Unmarshal(data []byte) ([]*Card, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var card Card
		if err := json.Unmarshal(data, &card); err != nil {
			return nil, err
		}
		return []*Card{&card}, nil
	}
	var cards []*Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}
