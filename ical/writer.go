package ical

import (
	"io"
	"strings"
)

const foldWidth = 75

// Write serializes the calendar with CRLF line endings and soft folds
// at 75 octets.
func (cal *Calendar) Write(w io.Writer) error {
	var b strings.Builder
	writeComponent(&b, &cal.Component)
	_, err := io.WriteString(w, b.String())
	return err
}

// String serializes the calendar.
func (cal *Calendar) String() string {
	var b strings.Builder
	writeComponent(&b, &cal.Component)
	return b.String()
}

func writeComponent(b *strings.Builder, c *Component) {
	writeLine(b, "BEGIN:"+c.Name)
	for i := range c.Properties {
		writeProperty(b, &c.Properties[i])
	}
	for _, child := range c.Children {
		writeComponent(b, child)
	}
	writeLine(b, "END:"+c.Name)
}

func writeProperty(b *strings.Builder, p *Property) {
	var line strings.Builder
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
	if p.Rule != nil {
		line.WriteString(p.Rule.RRuleString())
	} else {
		for i, v := range p.Values {
			if i > 0 {
				line.WriteByte(',')
			}
			line.WriteString(escapeValue(v, p.Name))
		}
	}
	writeLine(b, line.String())
}

// writeLine folds a content line at 75 octets; continuation lines start
// with a single space. Folding counts bytes, not runes, but never
// splits a UTF-8 sequence.
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

// escapeValue escapes backslash, newline and the list separators per
// RFC 5545. Date, period and recurrence values carry no text escapes.
func escapeValue(v, propName string) string {
	switch propName {
	case PropRRule, PropExRule, PropDtStart, PropDtEnd, PropDtStamp,
		PropDue, PropRDate, PropExDate:
		return v
	}
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

// quoteParamValue wraps a parameter value in double quotes when it
// contains characters that would otherwise delimit.
func quoteParamValue(v string) string {
	if strings.ContainsAny(v, ":;,") {
		return `"` + v + `"`
	}
	return v
}
