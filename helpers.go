package seqjson

import (
	"strconv"
	"unsafe"
)

// Number is the literal text of a JSON number, kept exactly as read.
type Number string

// Int64 converts the Number to an int64.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Float64 converts the Number to a float64.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

func (n Number) String() string {
	return string(n)
}

// IsInt returns true if the number is an integer that fits in an int64.
func (n Number) IsInt() bool {
	_, err := n.Int64()
	return err == nil
}

// isDigit returns true if c is an ASCII digit
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// unsafeString views b as a string without copying. The string must not
// outlive the next change to b.
func unsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
