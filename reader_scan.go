package seqjson

import (
	"github.com/vmihailenco/bufpool"
)

// spill collects a token that straddles segment boundaries. Short tokens are
// copied into the reader-owned array; longer ones move to a pooled buffer.
type spill struct {
	small  [128]byte
	n      int
	pooled *bufpool.Buffer
}

func (s *spill) write(p []byte) {
	if s.pooled == nil {
		if s.n+len(p) <= len(s.small) {
			s.n += copy(s.small[s.n:], p)
			return
		}
		s.pooled = scratchPool.Get()
		_, _ = s.pooled.Write(s.small[:s.n])
	}
	_, _ = s.pooled.Write(p)
}

func (s *spill) bytes() []byte {
	if s.pooled != nil {
		return s.pooled.Bytes()
	}
	return s.small[:s.n]
}

func (s *spill) len() int {
	if s.pooled != nil {
		return s.pooled.Len()
	}
	return s.n
}

func (s *spill) reset() {
	if s.pooled != nil {
		scratchPool.Put(s.pooled)
		s.pooled = nil
	}
	s.n = 0
}

// scanString consumes a string token starting at the opening quote and returns
// its raw (still escaped) content plus the number of escape sequences in it.
// When the content lies in one segment the result aliases the input;
// otherwise it is assembled in r.spill and valid until r.spill.reset.
func (r *Reader) scanString(limit int) ([]byte, int, error) {
	buf := r.buf
	pos := r.pos + 1
	start := pos
	spanned := false
	escapes := 0
	escaped := false
	hexLeft := 0
	size := 0

	for {
		if pos == len(buf) {
			if !spanned {
				r.spill.reset()
				spanned = true
			}
			r.spill.write(buf[start:pos])
			if !r.nextSegment() {
				r.pos = len(r.buf)
				return nil, 0, r.unexpectedEnd()
			}
			buf = r.buf
			pos, start = 0, 0
			continue
		}

		c := buf[pos]
		switch {
		case hexLeft > 0:
			if !isHex(c) {
				r.pos = pos
				return nil, 0, r.syntaxError(nil, "invalid character %q in \\u escape", c)
			}
			hexLeft--
		case escaped:
			switch c {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			case 'u':
				hexLeft = 4
			default:
				r.pos = pos
				return nil, 0, r.syntaxError(nil, "invalid escape sequence \\%c", c)
			}
			escaped = false
		case c == '\\':
			escaped = true
			escapes++
		case c == '"':
			var content []byte
			if spanned {
				r.spill.write(buf[start:pos])
				content = r.spill.bytes()
			} else {
				content = buf[start:pos]
			}
			r.pos = pos + 1
			return content, escapes, nil
		case c < 0x20:
			r.pos = pos
			return nil, 0, r.syntaxError(nil, "invalid control character %q in string", c)
		}

		pos++
		size++
		if size > limit {
			r.pos = pos
			return nil, 0, r.syntaxError(ErrTooLarge, "string exceeds the maximum size of %d bytes", limit)
		}
	}
}

// maxLiteralSize bounds number, boolean and null literals.
const maxLiteralSize = 1024

// scanLiteral consumes the bytes of a number, boolean or null token up to the
// next delimiter. Like scanString it falls back to r.spill across segments.
func (r *Reader) scanLiteral() ([]byte, error) {
	start := r.pos
	for pos := r.pos; pos < len(r.buf); pos++ {
		if isDelimiter(r.buf[pos]) {
			r.pos = pos
			return r.buf[start:pos], nil
		}
	}

	r.spill.reset()
	r.spill.write(r.buf[start:])
	r.pos = len(r.buf)
	for r.nextSegment() {
		pos := 0
		for pos < len(r.buf) && !isDelimiter(r.buf[pos]) {
			pos++
		}
		r.spill.write(r.buf[:pos])
		r.pos = pos
		if r.spill.len() > maxLiteralSize {
			return nil, r.syntaxError(ErrTooLarge, "literal exceeds %d bytes", maxLiteralSize)
		}
		if pos < len(r.buf) {
			break
		}
	}
	return r.spill.bytes(), nil
}

// readNumberLiteral consumes a number token and validates its grammar. The
// current token must be TokenNumber.
func (r *Reader) readNumberLiteral() ([]byte, error) {
	start := r.Offset()
	lit, err := r.scanLiteral()
	if err != nil {
		return nil, err
	}
	if !isNumberLiteral(lit) {
		return nil, &SyntaxError{Msg: "invalid number " + quoteLiteral(lit), Offset: start, Line: r.line}
	}
	return lit, nil
}

// isNumberLiteral reports whether b is exactly one JSON number.
func isNumberLiteral(b []byte) bool {
	pos := 0

	if pos < len(b) && b[pos] == '-' {
		pos++
	}

	// Integer part: a single 0 or a non-zero digit run
	if pos >= len(b) || !isDigit(b[pos]) {
		return false
	}
	if b[pos] == '0' {
		pos++
	} else {
		for pos < len(b) && isDigit(b[pos]) {
			pos++
		}
	}

	// Fraction
	if pos < len(b) && b[pos] == '.' {
		pos++
		if pos >= len(b) || !isDigit(b[pos]) {
			return false
		}
		for pos < len(b) && isDigit(b[pos]) {
			pos++
		}
	}

	// Exponent
	if pos < len(b) && (b[pos] == 'e' || b[pos] == 'E') {
		pos++
		if pos < len(b) && (b[pos] == '+' || b[pos] == '-') {
			pos++
		}
		if pos >= len(b) || !isDigit(b[pos]) {
			return false
		}
		for pos < len(b) && isDigit(b[pos]) {
			pos++
		}
	}

	return pos == len(b)
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', ':', ']', '}', '[', '{', '"':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func quoteLiteral(b []byte) string {
	if len(b) > 32 {
		return "\"" + string(b[:32]) + "...\""
	}
	return "\"" + string(b) + "\""
}
