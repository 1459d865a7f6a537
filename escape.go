package seqjson

import (
	"unicode/utf8"

	"github.com/segmentio/asm/ascii"
)

const hex = "0123456789abcdef"

// escapeMap holds the escape sequence of every ASCII byte that cannot be
// written verbatim inside a string. HTML-sensitive characters are always escaped.
var escapeMap = [256][]byte{
	'"':  []byte(`\"`),
	'\\': []byte(`\\`),
	'\b': []byte(`\b`),
	'\f': []byte(`\f`),
	'\n': []byte(`\n`),
	'\r': []byte(`\r`),
	'\t': []byte(`\t`),
	'<':  []byte(`\u003c`),
	'>':  []byte(`\u003e`),
	'&':  []byte(`\u0026`),
}

var (
	escapedLineSeparator      = []byte(`\u2028`)
	escapedParagraphSeparator = []byte(`\u2029`)
	escapedReplacement        = []byte(`\ufffd`)
)

func init() {
	for c := 0; c < 0x20; c++ {
		if escapeMap[c] == nil {
			escapeMap[c] = []byte{'\\', 'u', '0', '0', hex[c>>4], hex[c&0xF]}
		}
	}
}

// escapedLength returns the number of bytes appendEscaped writes for s.
func escapedLength(s string) int {
	n := len(s)
	if ascii.ValidPrintString(s) {
		for i := 0; i < len(s); i++ {
			if esc := escapeMap[s[i]]; esc != nil {
				n += len(esc) - 1
			}
		}
		return n
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if esc := escapeMap[c]; esc != nil {
				n += len(esc) - 1
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			n += len(escapedReplacement) - 1
		case r == '\u2028' || r == '\u2029':
			n += 6 - size
		}
		i += size
	}
	return n
}

// appendEscaped appends the body of a JSON string for s (without quotes).
// Invalid UTF-8 is replaced by U+FFFD.
func appendEscaped(dst []byte, s string) []byte {
	start := 0

	if ascii.ValidPrintString(s) {
		for i := 0; i < len(s); i++ {
			if esc := escapeMap[s[i]]; esc != nil {
				dst = append(dst, s[start:i]...)
				dst = append(dst, esc...)
				start = i + 1
			}
		}
		return append(dst, s[start:]...)
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if esc := escapeMap[c]; esc != nil {
				dst = append(dst, s[start:i]...)
				dst = append(dst, esc...)
				start = i + 1
			}
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		var esc []byte
		switch {
		case r == utf8.RuneError && size == 1:
			esc = escapedReplacement
		case r == '\u2028':
			esc = escapedLineSeparator
		case r == '\u2029':
			esc = escapedParagraphSeparator
		}
		if esc != nil {
			dst = append(dst, s[start:i]...)
			dst = append(dst, esc...)
			start = i + size
		}
		i += size
	}

	return append(dst, s[start:]...)
}
