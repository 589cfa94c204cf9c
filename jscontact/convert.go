package jscontact

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/calwire/calwire/vcard"
)

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

func (ctx *convertCtx) reportLeftovers(card *vcard.Card) {
	for i := range card.Properties {
		name := strings.ToUpper(card.Properties[i].Name)
		if !ctx.converted[name] {
			ctx.logger.Debug("property has no JSContact mapping", "property", name)
		}
	}
}

// nameComponentKinds maps the five positional N fields to their
// JSContact component kinds, in vCard order.
var nameComponentKinds = []string{"surname", "given", "given2", "title", "credential"}

// addressComponentKinds maps the seven positional ADR fields likewise.
var addressComponentKinds = []string{
	"postOfficeBox", "apartment", "name", "locality", "region", "postcode", "country",
}

// FromVCard converts each vCard to a JSContact Card. Properties
// without a JSContact mapping are reported through the logger and
// dropped.
func FromVCard(cards []*vcard.Card, opts ...Option) ([]*Card, error) {
	set := newSettings(opts)
	out := make([]*Card, 0, len(cards))
	for _, vc := range cards {
		out = append(out, fromCard(vc, set))
	}
	return out, nil
}

func fromCard(vc *vcard.Card, set *settings) *Card {
	ctx := newConvertCtx(set)
	card := &Card{Type: "Card", Version: "1.0"}
	ctx.mark(vcard.PropVersion)

	if prop, ok := vc.Get(vcard.PropUID).Get(); ok {
		card.UID = prop.Value()
		ctx.mark(vcard.PropUID)
	} else {
		card.UID = uuid.NewString()
	}

	if fn, ok := vc.FormattedName().Get(); ok {
		card.Name = &Name{Full: fn}
		ctx.mark(vcard.PropFormattedName)
	}
	if prop, ok := vc.Get(vcard.PropName).Get(); ok {
		if card.Name == nil {
			card.Name = &Name{}
		}
		for i, kind := range nameComponentKinds {
			for _, v := range prop.Field(i) {
				if v != "" {
					card.Name.Components = append(card.Name.Components,
						NameComponent{Kind: kind, Value: v})
				}
			}
		}
		ctx.mark(vcard.PropName)
	}

	for i, prop := range vc.GetAll(vcard.PropOrg) {
		org := Organization{}
		if f := prop.Field(0); len(f) > 0 {
			org.Name = f[0]
		}
		for j := 1; ; j++ {
			f := prop.Field(j)
			if f == nil {
				break
			}
			for _, unit := range f {
				if unit != "" {
					org.Units = append(org.Units, OrgUnit{Name: unit})
				}
			}
		}
		if card.Organizations == nil {
			card.Organizations = make(map[string]Organization)
		}
		card.Organizations[fmt.Sprintf("o%d", i+1)] = org
		ctx.mark(vcard.PropOrg)
	}

	for i, prop := range vc.GetAll(vcard.PropEmail) {
		if card.Emails == nil {
			card.Emails = make(map[string]EmailAddress)
		}
		card.Emails[fmt.Sprintf("e%d", i+1)] = EmailAddress{
			Address:  prop.Value(),
			Contexts: contexts(prop),
		}
		ctx.mark(vcard.PropEmail)
	}

	for i, prop := range vc.GetAll(vcard.PropTel) {
		if card.Phones == nil {
			card.Phones = make(map[string]Phone)
		}
		card.Phones[fmt.Sprintf("p%d", i+1)] = Phone{
			Number:   prop.Value(),
			Features: phoneFeatures(prop),
			Contexts: contexts(prop),
		}
		ctx.mark(vcard.PropTel)
	}

	for i, prop := range vc.GetAll(vcard.PropAddress) {
		addr := Address{Contexts: contexts(prop)}
		for j, kind := range addressComponentKinds {
			for _, v := range prop.Field(j) {
				if v != "" {
					addr.Components = append(addr.Components,
						AddressComponent{Kind: kind, Value: v})
				}
			}
		}
		if card.Addresses == nil {
			card.Addresses = make(map[string]Address)
		}
		card.Addresses[fmt.Sprintf("a%d", i+1)] = addr
		ctx.mark(vcard.PropAddress)
	}

	for i, prop := range vc.GetAll(vcard.PropNote) {
		if card.Notes == nil {
			card.Notes = make(map[string]Note)
		}
		card.Notes[fmt.Sprintf("n%d", i+1)] = Note{Note: prop.Value()}
		ctx.mark(vcard.PropNote)
	}

	if prop, ok := vc.Get(vcard.PropCategories).Get(); ok {
		card.Keywords = make(map[string]bool, len(prop.Values))
		for _, v := range prop.Values {
			card.Keywords[v] = true
		}
		ctx.mark(vcard.PropCategories)
	}

	ctx.reportLeftovers(vc)
	return card
}

// contexts maps vCard TYPE values to JSContact contexts. HOME becomes
// the "private" context per RFC 9553.
func contexts(prop *vcard.Property) map[string]bool {
	m := make(map[string]bool)
	if prop.Type("work") {
		m["work"] = true
	}
	if prop.Type("home") {
		m["private"] = true
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

var phoneFeatureTypes = map[string]string{
	"voice": "voice",
	"cell":  "mobile",
	"fax":   "fax",
	"text":  "text",
	"pager": "pager",
	"video": "video",
}

func phoneFeatures(prop *vcard.Property) map[string]bool {
	m := make(map[string]bool)
	for typ, feature := range phoneFeatureTypes {
		if prop.Type(typ) {
			m[feature] = true
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// ToVCard converts JSContact Cards back to vCard 4.0 cards.
func ToVCard(cards []*Card, opts ...Option) ([]*vcard.Card, error) {
	out := make([]*vcard.Card, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCard(card))
	}
	return out, nil
}

func toCard(card *Card) *vcard.Card {
	vc := &vcard.Card{}
	vc.Set(vcard.PropVersion, "4.0")

	uid := card.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	vc.Set(vcard.PropUID, uid)

	if card.Name != nil {
		if card.Name.Full != "" {
			vc.Set(vcard.PropFormattedName, card.Name.Full)
		}
		if len(card.Name.Components) > 0 {
			fields := make([][]string, len(nameComponentKinds))
			for i := range fields {
				fields[i] = []string{}
			}
			for i, kind := range nameComponentKinds {
				for _, v := range card.Name.Component(kind) {
					fields[i] = append(fields[i], v)
				}
			}
			vc.Properties = append(vc.Properties, vcard.Property{
				Name:   vcard.PropName,
				Fields: fields,
			})
		}
	}

	for _, key := range sortedKeys(card.Organizations) {
		org := card.Organizations[key]
		fields := [][]string{{org.Name}}
		for _, unit := range org.Units {
			fields = append(fields, []string{unit.Name})
		}
		vc.Properties = append(vc.Properties, vcard.Property{
			Name:   vcard.PropOrg,
			Fields: fields,
		})
	}

	for _, key := range sortedKeys(card.Emails) {
		email := card.Emails[key]
		vc.Properties = append(vc.Properties, vcard.Property{
			Name:   vcard.PropEmail,
			Params: typeParams(email.Contexts, nil),
			Values: []string{email.Address},
		})
	}

	for _, key := range sortedKeys(card.Phones) {
		phone := card.Phones[key]
		vc.Properties = append(vc.Properties, vcard.Property{
			Name:   vcard.PropTel,
			Params: typeParams(phone.Contexts, phone.Features),
			Values: []string{phone.Number},
		})
	}

	for _, key := range sortedKeys(card.Addresses) {
		addr := card.Addresses[key]
		fields := make([][]string, len(addressComponentKinds))
		for i, kind := range addressComponentKinds {
			fields[i] = []string{}
			if v := addr.Component(kind); v != "" {
				fields[i] = []string{v}
			}
		}
		vc.Properties = append(vc.Properties, vcard.Property{
			Name:   vcard.PropAddress,
			Params: typeParams(addr.Contexts, nil),
			Fields: fields,
		})
	}

	for _, key := range sortedKeys(card.Notes) {
		vc.Properties = append(vc.Properties, vcard.Property{
			Name:   vcard.PropNote,
			Values: []string{card.Notes[key].Note},
		})
	}

	if len(card.Keywords) > 0 {
		vc.Properties = append(vc.Properties, vcard.Property{
			Name:   vcard.PropCategories,
			Values: sortedKeys(card.Keywords),
		})
	}

	return vc
}

var phoneFeatureValues = map[string]string{
	"voice":  "voice",
	"mobile": "cell",
	"fax":    "fax",
	"text":   "text",
	"pager":  "pager",
	"video":  "video",
}

// typeParams rebuilds the TYPE parameter from contexts and phone
// features, sorted for stable output.
func typeParams(contexts, features map[string]bool) []vcard.Param {
	var values []string
	if contexts["work"] {
		values = append(values, "work")
	}
	if contexts["private"] {
		values = append(values, "home")
	}
	for _, feature := range sortedKeys(features) {
		if typ, ok := phoneFeatureValues[feature]; ok {
			values = append(values, typ)
		}
	}
	if len(values) == 0 {
		return nil
	}
	return []vcard.Param{{Name: "TYPE", Values: values}}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
