// Package tokenizer splits raw iCalendar and vCard input into
// delimiter-terminated tokens. It understands backslash escapes, double
// quoted spans, soft line folding (CRLF followed by a space or tab) and
// the quoted-printable soft-break continuation used by vCard 2.1.
//
// Tokens alias the input buffer whenever no transformation was needed;
// an owned copy is only built when unescaping, unfolding or quote
// stripping actually rewrote the text.
package tokenizer

// StopChar identifies the delimiter that terminated a token. StopLf is
// used both for real line endings and for end of input.
type StopChar byte

const (
	StopLf        StopChar = '\n'
	StopColon     StopChar = ':'
	StopSemicolon StopChar = ';'
	StopComma     StopChar = ','
	StopEqual     StopChar = '='
	StopSlash     StopChar = '/'
	StopDot       StopChar = '.'
)

// Token is a single delimited span of the input. Start and End are byte
// offsets into the original buffer (-1 for an empty token between two
// consecutive delimiters).
type Token struct {
	Text  []byte
	Start int
	End   int
	Stop  StopChar
	// Owned reports that Text no longer aliases the input buffer.
	Owned bool
}

// IsEmpty reports whether the token carries no text.
func (t Token) IsEmpty() bool { return len(t.Text) == 0 }

func (t Token) String() string { return string(t.Text) }

// EqualFold compares the token text to s ignoring ASCII case.
func (t Token) EqualFold(s string) bool {
	if len(t.Text) != len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		a, b := t.Text[i], s[i]
		if a >= 'a' && a <= 'z' {
			a -= 'a' - 'A'
		}
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// Tokenizer scans a byte buffer token by token. The Stop* fields toggle
// which delimiters terminate a token; disabled delimiters are treated as
// ordinary text. Callers switch modes between tokens depending on which
// part of a content line they expect next.
type Tokenizer struct {
	input []byte
	pos   int

	StopColon     bool
	StopSemicolon bool
	StopComma     bool
	StopEqual     bool
	StopSlash     bool
	StopDot       bool

	// UnfoldQP keeps a trailing "=" soft break intact so that a
	// quoted-printable payload survives tokenization undamaged.
	UnfoldQP bool
	// Unquote strips double quotes and disables delimiters inside them.
	Unquote bool
}

// New returns a tokenizer in content-line mode: colon, semicolon, comma
// and equal all act as delimiters and quoted spans are stripped.
func New(input []byte) *Tokenizer {
	return &Tokenizer{
		input:         input,
		StopColon:     true,
		StopSemicolon: true,
		StopComma:     true,
		StopEqual:     true,
		Unquote:       true,
	}
}

// ExpectName configures the scanner for a property name: the name ends
// at ':' or ';' and contains no parameter or list delimiters.
func (t *Tokenizer) ExpectName() {
	t.StopColon = true
	t.StopSemicolon = true
	t.StopComma = false
	t.StopEqual = false
	t.StopDot = false
	t.UnfoldQP = false
	t.Unquote = true
}

// ExpectGroupedName is ExpectName plus the '.' group separator used by
// vCard (item1.TEL).
func (t *Tokenizer) ExpectGroupedName() {
	t.ExpectName()
	t.StopDot = true
}

// ExpectParamName configures the scanner for a parameter name.
func (t *Tokenizer) ExpectParamName() {
	t.StopColon = true
	t.StopSemicolon = true
	t.StopComma = false
	t.StopEqual = true
	t.StopDot = false
	t.UnfoldQP = false
	t.Unquote = true
}

// ExpectParamValue configures the scanner for a parameter value, which
// may be a comma separated list and ends at ';' or ':'.
func (t *Tokenizer) ExpectParamValue() {
	t.StopColon = true
	t.StopSemicolon = true
	t.StopComma = true
	t.StopEqual = false
	t.StopDot = false
	t.UnfoldQP = false
	t.Unquote = true
}

// ExpectValue configures the scanner for a property value: only commas
// separate list items, everything else is text.
func (t *Tokenizer) ExpectValue() {
	t.StopColon = false
	t.StopSemicolon = false
	t.StopComma = true
	t.StopEqual = false
	t.StopDot = false
	t.UnfoldQP = false
	t.Unquote = false
}

// ExpectStructuredValue is ExpectValue plus the ';' component separator
// used by structured values such as N and ADR.
func (t *Tokenizer) ExpectStructuredValue() {
	t.ExpectValue()
	t.StopSemicolon = true
}

// ExpectRecurValue configures the scanner for an RRULE value:
// KEY=VALUE pairs separated by ';' with ',' separated value lists.
func (t *Tokenizer) ExpectRecurValue() {
	t.StopColon = false
	t.StopSemicolon = true
	t.StopComma = true
	t.StopEqual = true
	t.StopDot = false
	t.UnfoldQP = false
	t.Unquote = true
}

// QPValue configures the scanner for a vCard 2.1 quoted-printable value:
// only ';' delimits, quotes are literal, and a trailing '=' before a
// line break continues the encoded payload on the next physical line.
func (t *Tokenizer) QPValue() {
	t.StopColon = false
	t.StopSemicolon = true
	t.StopComma = false
	t.StopEqual = false
	t.StopDot = false
	t.UnfoldQP = true
	t.Unquote = false
}

func (t *Tokenizer) isStop(ch byte) bool {
	switch ch {
	case ':':
		return t.StopColon
	case ';':
		return t.StopSemicolon
	case ',':
		return t.StopComma
	case '=':
		return t.StopEqual
	case '/':
		return t.StopSlash
	case '.':
		return t.StopDot
	}
	return false
}

// tryUnfold consumes the space or tab that opens a folded continuation
// line, reporting whether a fold was present.
func (t *Tokenizer) tryUnfold() bool {
	if t.pos < len(t.input) && (t.input[t.pos] == ' ' || t.input[t.pos] == '\t') {
		t.pos++
		return true
	}
	return false
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

// Token scans the next token. The second return value is false only at
// true end of input with no pending text; empty tokens between two
// consecutive delimiters are returned as empty, not as end of input.
func (t *Tokenizer) Token() (Token, bool) {
	offsetStart, offsetEnd := -1, -1
	inQuote := false
	var stop StopChar
	var buf []byte

outer:
	for {
		if t.pos >= len(t.input) {
			if offsetStart == -1 {
				return Token{}, false
			}
			stop = StopLf
			break
		}
		idx := t.pos
		ch := t.input[idx]
		t.pos++

		switch {
		case ch == ' ' || ch == '\t':
			// Leading and trailing whitespace is trimmed; interior
			// whitespace survives through the offset span or, in owned
			// mode, a single pushed byte per run.
			if inQuote || (len(buf) > 0 && !isSpace(buf[len(buf)-1])) {
				if offsetStart == -1 {
					offsetStart = idx
				}
				offsetEnd = idx
				if len(buf) > 0 {
					buf = append(buf, ch)
				}
			}
		case ch == '\r':
		case ch == '\n':
			var last byte
			if len(buf) > 0 {
				last = buf[len(buf)-1]
			} else if offsetEnd >= 0 && offsetEnd < len(t.input) {
				last = t.input[offsetEnd]
			}
			switch {
			case t.UnfoldQP && last == '=':
				// Soft break of a quoted-printable payload: keep the
				// line break so the decoder sees the original bytes.
				offsetEnd = idx
				if len(buf) > 0 {
					buf = append(buf, ch)
				}
			case t.tryUnfold():
				if len(buf) == 0 && offsetStart != -1 {
					buf = append(buf, t.input[offsetStart:offsetEnd+1]...)
				}
			case offsetStart != -1:
				stop = StopLf
				break outer
			}
		case ch == '\\':
			// Escapes always force an owned buffer. The escaped
			// character may sit on the next physical line when a fold
			// splits the escape sequence.
			nextCh := byte('\\')
			nextEnd := idx
		inner:
			for t.pos < len(t.input) {
				i2 := t.pos
				c2 := t.input[i2]
				t.pos++
				switch c2 {
				case ' ', '\t', '\r':
				case '\n':
					if t.tryUnfold() {
						if t.pos < len(t.input) {
							nextCh = t.input[t.pos]
							nextEnd = t.pos
							t.pos++
							break inner
						}
					} else {
						stop = StopLf
						offsetEnd = i2 - 1
						break outer
					}
				default:
					nextCh = c2
					nextEnd = i2
					break inner
				}
			}
			if offsetStart != -1 {
				if len(buf) == 0 {
					buf = append(buf, t.input[offsetStart:offsetEnd+1]...)
				}
			} else {
				offsetStart = nextEnd
			}
			switch nextCh {
			case 'n', 'N':
				buf = append(buf, '\n')
			case 't', 'T':
				buf = append(buf, '\t')
			case 'r', 'R':
				buf = append(buf, '\r')
			default:
				buf = append(buf, nextCh)
			}
			offsetEnd = nextEnd
		case ch == '"' && t.Unquote:
			inQuote = !inQuote
		case !inQuote && t.isStop(ch):
			stop = StopChar(ch)
			break outer
		default:
			if offsetStart == -1 {
				offsetStart = idx
			}
			offsetEnd = idx
			if len(buf) > 0 {
				buf = append(buf, ch)
			}
		}
	}

	if len(buf) > 0 {
		return Token{Text: buf, Start: offsetStart, End: offsetEnd, Stop: stop, Owned: true}, true
	}
	if offsetStart != -1 {
		return Token{Text: t.input[offsetStart : offsetEnd+1], Start: offsetStart, End: offsetEnd, Stop: stop}, true
	}
	return Token{Start: -1, End: -1, Stop: stop}, true
}

// UnfoldedLine consumes the remainder of the current logical line and
// returns it with soft folds and carriage returns removed but escapes
// left intact. Used where a whole value is handed to a sub-parser, such
// as RRULE.
func (t *Tokenizer) UnfoldedLine() []byte {
	start := t.pos
	var buf []byte
	for t.pos < len(t.input) {
		idx := t.pos
		ch := t.input[idx]
		t.pos++
		switch ch {
		case '\r':
			if buf == nil {
				buf = append(buf, t.input[start:idx]...)
			}
		case '\n':
			if t.tryUnfold() {
				if buf == nil {
					buf = append(buf, t.input[start:idx]...)
				}
			} else {
				if buf == nil {
					return t.input[start:idx]
				}
				return buf
			}
		default:
			if buf != nil {
				buf = append(buf, ch)
			}
		}
	}
	if buf == nil {
		return t.input[start:]
	}
	return buf
}

// Rest reports whether any input remains to be scanned.
func (t *Tokenizer) Rest() bool { return t.pos < len(t.input) }
