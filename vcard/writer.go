package vcard

import (
	"io"
	"strings"
)

const foldWidth = 75

// Write serializes the card between BEGIN:VCARD and END:VCARD with CRLF
// line endings and soft folds at 75 octets.
func (c *Card) Write(w io.Writer) error {
	_, err := io.WriteString(w, c.String())
	return err
}

// String serializes the card. VERSION is emitted first when present,
// as vCard 4.0 requires.
func (c *Card) String() string {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCARD")
	if prop, ok := c.Get(PropVersion).Get(); ok {
		writeProperty(&b, prop)
	}
	for i := range c.Properties {
		if strings.EqualFold(c.Properties[i].Name, PropVersion) {
			continue
		}
		writeProperty(&b, &c.Properties[i])
	}
	writeLine(&b, "END:VCARD")
	return b.String()
}

func writeProperty(b *strings.Builder, p *Property) {
	var line strings.Builder
	if p.Group != "" {
		line.WriteString(p.Group)
		line.WriteByte('.')
	}
	line.WriteString(p.Name)
	for _, param := range p.Params {
		line.WriteByte(';')
		line.WriteString(param.Name)
		if param.Values != nil {
			line.WriteByte('=')
			for i, v := range param.Values {
				if i > 0 {
					line.WriteByte(',')
				}
				line.WriteString(quoteParamValue(v))
			}
		}
	}
	line.WriteByte(':')
	if len(p.Fields) > 0 {
		for i, field := range p.Fields {
			if i > 0 {
				line.WriteByte(';')
			}
			for j, v := range field {
				if j > 0 {
					line.WriteByte(',')
				}
				line.WriteString(escapeValue(v))
			}
		}
	} else {
		for i, v := range p.Values {
			if i > 0 {
				line.WriteByte(',')
			}
			line.WriteString(escapeValue(v))
		}
	}
	writeLine(b, line.String())
}

func writeLine(b *strings.Builder, line string) {
	width := 0
	for i := 0; i < len(line); {
		size := 1
		for i+size < len(line) && line[i+size]&0xC0 == 0x80 {
			size++
		}
		if width+size > foldWidth {
			b.WriteString("\r\n ")
			width = 1
		}
		b.WriteString(line[i : i+size])
		width += size
		i += size
	}
	b.WriteString("\r\n")
}

func escapeValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\\':
			b.WriteString(`\\`)
		case ';':
			b.WriteString(`\;`)
		case ',':
			b.WriteString(`\,`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}

func quoteParamValue(v string) string {
	if strings.ContainsAny(v, ":;,") {
		return `"` + v + `"`
	}
	return v
}
