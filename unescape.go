package seqjson

import (
	"unicode/utf16"
	"unicode/utf8"
)

// unescapeAppend appends the decoded content of a string body whose escapes
// were validated by scanString. Unpaired surrogates decode to U+FFFD.
func unescapeAppend(dst, src []byte) []byte {
	for i := 0; i < len(src); {
		c := src[i]
		if c != '\\' {
			j := i + 1
			for j < len(src) && src[j] != '\\' {
				j++
			}
			dst = append(dst, src[i:j]...)
			i = j
			continue
		}

		e := src[i+1]
		i += 2
		switch e {
		case '"', '\\', '/':
			dst = append(dst, e)
		case 'b':
			dst = append(dst, '\b')
		case 'f':
			dst = append(dst, '\f')
		case 'n':
			dst = append(dst, '\n')
		case 'r':
			dst = append(dst, '\r')
		case 't':
			dst = append(dst, '\t')
		case 'u':
			r1 := decodeHex4(src[i:])
			i += 4
			if utf16.IsSurrogate(r1) {
				if i+6 <= len(src) && src[i] == '\\' && src[i+1] == 'u' {
					if r := utf16.DecodeRune(r1, decodeHex4(src[i+2:])); r != utf8.RuneError {
						dst = utf8.AppendRune(dst, r)
						i += 6
						continue
					}
				}
				r1 = utf8.RuneError
			}
			dst = utf8.AppendRune(dst, r1)
		}
	}
	return dst
}

func decodeHex4(b []byte) rune {
	var r rune
	for _, c := range b[:4] {
		switch {
		case '0' <= c && c <= '9':
			c -= '0'
		case 'a' <= c && c <= 'f':
			c = c - 'a' + 10
		case 'A' <= c && c <= 'F':
			c = c - 'A' + 10
		}
		r = r<<4 | rune(c)
	}
	return r
}
