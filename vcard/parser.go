package vcard

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/calwire/calwire/internal/tokenizer"
)

// Option configures parsing.
type Option func(*settings)

// WithStrict makes malformed content lines hard errors instead of being
// skipped.
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

// Parse reads a stream of one or more vCards.
func Parse(data []byte, opts ...Option) ([]*Card, error) {
	set := newSettings(opts)
	tk := tokenizer.New(data)

	var cards []*Card
	var card *Card

	for {
		tk.ExpectGroupedName()
		name, ok := tk.Token()
		if !ok {
			break
		}
		if name.IsEmpty() {
			continue
		}

		group := ""
		if name.Stop == tokenizer.StopDot {
			group = name.String()
			name, ok = tk.Token()
			if !ok {
				break
			}
		}

		switch name.Stop {
		case tokenizer.StopColon, tokenizer.StopSemicolon:
		default:
			if set.strict {
				return nil, fmt.Errorf("vcard: property without value %q", name.String())
			}
			set.logger.Debug("skipping malformed line", "text", name.String())
			continue
		}

		propName := strings.ToUpper(name.String())

		if propName == "BEGIN" || propName == "END" {
			tk.ExpectValue()
			val, _ := tk.Token()
			if !val.EqualFold("VCARD") {
				if set.strict {
					return nil, fmt.Errorf("vcard: unexpected %s:%s", propName, val.String())
				}
				set.logger.Debug("ignoring unknown delimiter", "name", propName, "value", val.String())
				continue
			}
			if propName == "BEGIN" {
				card = &Card{}
			} else if card != nil {
				cards = append(cards, card)
				card = nil
			}
			continue
		}

		if card == nil {
			if set.strict {
				return nil, fmt.Errorf("vcard: property %s outside BEGIN:VCARD", propName)
			}
			set.logger.Debug("skipping property outside card", "name", propName)
			tk.UnfoldedLine()
			continue
		}

		prop := Property{Group: group, Name: propName}
		paramErr := false
		for name.Stop == tokenizer.StopSemicolon {
			param, stop, perr := parseParam(tk)
			if perr != nil {
				if set.strict {
					return nil, fmt.Errorf("vcard: property %s: %w", propName, perr)
				}
				set.logger.Debug("skipping property with malformed parameter",
					"property", propName, "error", perr)
				paramErr = true
				break
			}
			prop.Params = append(prop.Params, param)
			name.Stop = stop
		}
		if paramErr {
			tk.UnfoldedLine()
			continue
		}

		if err := parseValue(tk, &prop); err != nil {
			if set.strict {
				return nil, fmt.Errorf("vcard: property %s: %w", propName, err)
			}
			set.logger.Debug("skipping undecodable value", "property", propName, "error", err)
			continue
		}
		card.Properties = append(card.Properties, prop)
	}

	if card != nil {
		if set.strict {
			return nil, fmt.Errorf("vcard: input ended before END:VCARD")
		}
		set.logger.Debug("input ended inside card")
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("vcard: no vCard found")
	}
	return cards, nil
}

// ParseOne reads a stream expected to hold exactly one vCard.
func ParseOne(data []byte, opts ...Option) (*Card, error) {
	cards, err := Parse(data, opts...)
	if err != nil {
		return nil, err
	}
	if len(cards) != 1 {
		return nil, fmt.Errorf("vcard: expected one vCard, found %d", len(cards))
	}
	return cards[0], nil
}

// parseParam reads one parameter; bare vCard 2.1 words come back with
// nil Values.
func parseParam(tk *tokenizer.Tokenizer) (Param, tokenizer.StopChar, error) {
	tk.ExpectParamName()
	name, ok := tk.Token()
	if !ok {
		return Param{}, 0, fmt.Errorf("unterminated parameter list")
	}
	param := Param{Name: strings.ToUpper(name.String())}
	if name.Stop != tokenizer.StopEqual {
		if name.Stop != tokenizer.StopSemicolon && name.Stop != tokenizer.StopColon {
			return Param{}, 0, fmt.Errorf("parameter %q has no value", name.String())
		}
		return param, name.Stop, nil
	}
	tk.ExpectParamValue()
	for {
		val, ok := tk.Token()
		if !ok {
			return Param{}, 0, fmt.Errorf("unterminated parameter %q", param.Name)
		}
		param.Values = append(param.Values, val.String())
		if val.Stop != tokenizer.StopComma {
			if val.Stop != tokenizer.StopSemicolon && val.Stop != tokenizer.StopColon {
				return Param{}, 0, fmt.Errorf("parameter %q not followed by a value", param.Name)
			}
			return param, val.Stop, nil
		}
	}
}

// parseValue reads the property value in the mode the property and its
// parameters call for: quoted-printable for 2.1 encoded lines,
// structured for N and friends, a plain comma list otherwise.
func parseValue(tk *tokenizer.Tokenizer, prop *Property) error {
	if isQuotedPrintable(prop) {
		tk.QPValue()
		var fields [][]string
		for {
			val, ok := tk.Token()
			if !ok {
				break
			}
			decoded, err := decodeQuotedPrintable(val.Text)
			if err != nil {
				return err
			}
			fields = append(fields, []string{decoded})
			if val.Stop != tokenizer.StopSemicolon {
				break
			}
		}
		if isStructured(prop.Name) {
			prop.Fields = fields
		} else {
			for _, f := range fields {
				prop.Values = append(prop.Values, f[0])
			}
		}
		return nil
	}

	if isStructured(prop.Name) {
		tk.ExpectStructuredValue()
		field := []string{}
		for {
			val, ok := tk.Token()
			if !ok {
				break
			}
			field = append(field, val.String())
			switch val.Stop {
			case tokenizer.StopComma:
			case tokenizer.StopSemicolon:
				prop.Fields = append(prop.Fields, field)
				field = []string{}
			default:
				prop.Fields = append(prop.Fields, field)
				return nil
			}
		}
		if len(field) > 0 {
			prop.Fields = append(prop.Fields, field)
		}
		return nil
	}

	tk.ExpectValue()
	for {
		val, ok := tk.Token()
		if !ok {
			return nil
		}
		prop.Values = append(prop.Values, val.String())
		if val.Stop != tokenizer.StopComma {
			return nil
		}
	}
}

func isQuotedPrintable(prop *Property) bool {
	for i := range prop.Params {
		param := &prop.Params[i]
		if strings.EqualFold(param.Name, "ENCODING") {
			for _, v := range param.Values {
				if strings.EqualFold(v, "QUOTED-PRINTABLE") {
					return true
				}
			}
		}
		if param.Values == nil && strings.EqualFold(param.Name, "QUOTED-PRINTABLE") {
			return true
		}
	}
	return false
}

// decodeQuotedPrintable decodes =XX hex escapes and drops the trailing
// soft-break '=' the tokenizer preserved before each continuation.
func decodeQuotedPrintable(raw []byte) (string, error) {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '=' {
			b.WriteByte(ch)
			continue
		}
		if i+1 < len(raw) && raw[i+1] == '\n' {
			i++ // soft break
			continue
		}
		if i+2 < len(raw) && raw[i+1] == '\r' && raw[i+2] == '\n' {
			i += 2
			continue
		}
		if i+2 >= len(raw) {
			if i == len(raw)-1 {
				break // trailing soft break at end of input
			}
			return "", fmt.Errorf("truncated quoted-printable escape")
		}
		hi, ok1 := unhex(raw[i+1])
		lo, ok2 := unhex(raw[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("invalid quoted-printable escape %q", string(raw[i:i+3]))
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func unhex(ch byte) (byte, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0', true
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, true
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, true
	}
	return 0, false
}
