package seqjson

import (
	"math"
	"strconv"
	"time"

	"github.com/cloudwego/base64x"
)

var (
	jsonTrue   = []byte("true")
	jsonFalse  = []byte("false")
	jsonNull   = []byte("null")
	jsonNaN    = []byte(`"NaN"`)
	jsonInf    = []byte(`"Infinity"`)
	jsonNegInf = []byte(`"-Infinity"`)
)

const maxNumberLen = 32

func (w *Writer) WriteNull() error { return w.writeLiteral(jsonNull) }

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.writeLiteral(jsonTrue)
	}
	return w.writeLiteral(jsonFalse)
}

func (w *Writer) WriteString(s string) error {
	if err := w.checkValue(); err != nil {
		return err
	}
	span, err := w.reserve(w.prefixSize() + escapedLength(s) + 2)
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	dst = append(dst, '"')
	dst = appendEscaped(dst, s)
	dst = append(dst, '"')
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.completeValue()
	return nil
}

// WriteBytes writes b as a base64 string.
func (w *Writer) WriteBytes(b []byte) error {
	if err := w.checkValue(); err != nil {
		return err
	}
	encodedLen := base64x.StdEncoding.EncodedLen(len(b))
	span, err := w.reserve(w.prefixSize() + encodedLen + 2)
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	dst = append(dst, '"')
	if encodedLen > 0 {
		n := len(dst)
		dst = dst[:n+encodedLen]
		base64x.StdEncoding.Encode(dst[n:], b)
	}
	dst = append(dst, '"')
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.completeValue()
	return nil
}

// writeNumber writes a number token produced by appendNumber into at most maxNumberLen bytes.
func (w *Writer) writeNumber(appendNumber func([]byte) []byte) error {
	if err := w.checkValue(); err != nil {
		return err
	}
	span, err := w.reserve(w.prefixSize() + maxNumberLen)
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	dst = appendNumber(dst)
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.completeValue()
	return nil
}

func (w *Writer) WriteInt64(v int64) error {
	return w.writeNumber(func(dst []byte) []byte { return strconv.AppendInt(dst, v, 10) })
}

func (w *Writer) WriteUint64(v uint64) error {
	return w.writeNumber(func(dst []byte) []byte { return strconv.AppendUint(dst, v, 10) })
}

func (w *Writer) WriteInt(v int) error { return w.WriteInt64(int64(v)) }

func (w *Writer) WriteFloat64(v float64) error { return w.writeFloat(v, 64) }

func (w *Writer) WriteFloat32(v float32) error { return w.writeFloat(float64(v), 32) }

func (w *Writer) writeFloat(v float64, bits int) error {
	switch {
	case math.IsNaN(v):
		return w.writeLiteral(jsonNaN)
	case math.IsInf(v, 1):
		return w.writeLiteral(jsonInf)
	case math.IsInf(v, -1):
		return w.writeLiteral(jsonNegInf)
	}
	return w.writeNumber(func(dst []byte) []byte { return appendFloat(dst, v, bits) })
}

// appendFloat writes the shortest representation that round-trips, without a
// trailing ".0", switching to exponent form for very large or small magnitudes.
func appendFloat(dst []byte, v float64, bits int) []byte {
	abs := math.Abs(v)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	dst = strconv.AppendFloat(dst, v, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst
}

// WriteNumber writes a validated numeric literal as is.
func (w *Writer) WriteNumber(n Number) error {
	if !isNumberLiteral([]byte(n)) {
		return w.stateError("invalid number literal %q", string(n))
	}
	return w.writeLiteral([]byte(n))
}

// WriteTime writes t in RFC 3339 with nanoseconds.
func (w *Writer) WriteTime(t time.Time) error {
	if err := w.checkValue(); err != nil {
		return err
	}
	span, err := w.reserve(w.prefixSize() + len(time.RFC3339Nano) + 8)
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	dst = append(dst, '"')
	dst = t.AppendFormat(dst, time.RFC3339Nano)
	dst = append(dst, '"')
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.completeValue()
	return nil
}

// WriteDuration writes d as a Go duration string such as "1h2m3s".
func (w *Writer) WriteDuration(d time.Duration) error {
	return w.WriteString(d.String())
}

// WriteRaw writes already encoded JSON. The caller is responsible for its validity.
func (w *Writer) WriteRaw(raw []byte) error {
	return w.writeLiteral(raw)
}

// WriteValue writes v using its converter, the primitive fast path or its contract.
func (w *Writer) WriteValue(v any) error {
	return writeAny(w, v, nil)
}
