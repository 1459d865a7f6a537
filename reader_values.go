package seqjson

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/base64x"
	"github.com/pkg/errors"
)

// ReadValue reads the next value into the value v points to.
func (r *Reader) ReadValue(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Wrapf(ErrInvalidTarget, "cannot read into %T", v)
	}
	return readReflect(r, rv.Elem(), nil)
}

// ReadString reads a string value and returns its unescaped content.
func (r *Reader) ReadString() (string, error) {
	if err := r.expect(TokenString); err != nil {
		return "", err
	}
	raw, escapes, err := r.scanString(r.settings.maxStringSize())
	if err != nil {
		return "", err
	}
	var s string
	if escapes > 0 {
		s = string(unescapeAppend(make([]byte, 0, len(raw)), raw))
	} else {
		s = string(raw)
	}
	r.completeValue()
	return s, nil
}

// ReadRune reads a string holding exactly one character.
func (r *Reader) ReadRune() (rune, error) {
	start := r.Offset()
	s, err := r.ReadString()
	if err != nil {
		return 0, err
	}
	c, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, &UnmarshalTypeError{
			Type:   runeType,
			Value:  "string",
			Msg:    fmt.Sprintf("cannot read %q as a single character", s),
			Offset: start,
		}
	}
	return c, nil
}

// ReadBytes reads a base64 encoded string.
func (r *Reader) ReadBytes() ([]byte, error) {
	if err := r.expect(TokenString); err != nil {
		return nil, err
	}
	start := r.Offset()
	raw, escapes, err := r.scanString(r.settings.maxStringSize())
	if err != nil {
		return nil, err
	}
	if escapes > 0 {
		r.nameBuf = unescapeAppend(r.nameBuf[:0], raw)
		raw = r.nameBuf
	}
	out := make([]byte, base64x.StdEncoding.DecodedLen(len(raw)))
	n, err := base64x.StdEncoding.Decode(out, raw)
	if err != nil {
		return nil, &UnmarshalTypeError{Type: bytesType, Value: "string", Msg: "invalid base64 string", Offset: start}
	}
	r.completeValue()
	return out[:n], nil
}

func (r *Reader) ReadBool() (bool, error) {
	if err := r.expect(TokenBoolean); err != nil {
		return false, err
	}
	lit, err := r.scanLiteral()
	if err != nil {
		return false, err
	}
	var v bool
	switch string(lit) {
	case "true":
		v = true
	case "false":
	default:
		return false, r.syntaxError(nil, "invalid literal %s", quoteLiteral(lit))
	}
	r.completeValue()
	return v, nil
}

func (r *Reader) ReadNull() error {
	if err := r.expect(TokenNull); err != nil {
		return err
	}
	lit, err := r.scanLiteral()
	if err != nil {
		return err
	}
	if string(lit) != "null" {
		return r.syntaxError(nil, "invalid literal %s", quoteLiteral(lit))
	}
	r.completeValue()
	return nil
}

// TryReadNull consumes a null token if one is next.
func (r *Reader) TryReadNull() (bool, error) {
	tok, err := r.Peek()
	if err != nil || tok != TokenNull {
		return false, err
	}
	return true, r.ReadNull()
}

var (
	int64Type   = reflect.TypeOf(int64(0))
	int32Type   = reflect.TypeOf(int32(0))
	int16Type   = reflect.TypeOf(int16(0))
	int8Type    = reflect.TypeOf(int8(0))
	intType     = reflect.TypeOf(0)
	uint64Type  = reflect.TypeOf(uint64(0))
	uint32Type  = reflect.TypeOf(uint32(0))
	uint16Type  = reflect.TypeOf(uint16(0))
	uint8Type   = reflect.TypeOf(uint8(0))
	uintType    = reflect.TypeOf(uint(0))
	float64Type = reflect.TypeOf(float64(0))
	float32Type = reflect.TypeOf(float32(0))
	runeType    = reflect.TypeOf(rune(0))
	bytesType   = reflect.TypeOf([]byte(nil))
)

func (r *Reader) numberError(lit []byte, typ reflect.Type, err error) error {
	msg := fmt.Sprintf("cannot read %s into %s", quoteLiteral(lit), typ)
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		msg = fmt.Sprintf("value %s overflows %s", lit, typ)
	}
	return &UnmarshalTypeError{
		Type:   typ,
		Value:  "number " + string(lit),
		Msg:    msg,
		Offset: r.Offset(),
	}
}

func (r *Reader) readInt(bits int, typ reflect.Type) (int64, error) {
	if err := r.expect(TokenNumber); err != nil {
		return 0, err
	}
	lit, err := r.readNumberLiteral()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(unsafeString(lit), 10, bits)
	if err != nil {
		return 0, r.numberError(lit, typ, err)
	}
	r.completeValue()
	return v, nil
}

func (r *Reader) readUint(bits int, typ reflect.Type) (uint64, error) {
	if err := r.expect(TokenNumber); err != nil {
		return 0, err
	}
	lit, err := r.readNumberLiteral()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(unsafeString(lit), 10, bits)
	if err != nil {
		return 0, r.numberError(lit, typ, err)
	}
	r.completeValue()
	return v, nil
}

func (r *Reader) ReadInt64() (int64, error) { return r.readInt(64, int64Type) }

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.readInt(32, int32Type)
	return int32(v), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.readInt(16, int16Type)
	return int16(v), err
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.readInt(8, int8Type)
	return int8(v), err
}

func (r *Reader) ReadInt() (int, error) {
	v, err := r.readInt(strconv.IntSize, intType)
	return int(v), err
}

func (r *Reader) ReadUint64() (uint64, error) { return r.readUint(64, uint64Type) }

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.readUint(32, uint32Type)
	return uint32(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.readUint(16, uint16Type)
	return uint16(v), err
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.readUint(8, uint8Type)
	return uint8(v), err
}

func (r *Reader) ReadUint() (uint, error) {
	v, err := r.readUint(strconv.IntSize, uintType)
	return uint(v), err
}

func (r *Reader) ReadFloat64() (float64, error) { return r.readFloat(64, float64Type) }

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.readFloat(32, float32Type)
	return float32(v), err
}

// readFloat accepts a number or one of the strings "NaN", "Infinity" and
// "-Infinity" written for non-finite values.
func (r *Reader) readFloat(bits int, typ reflect.Type) (float64, error) {
	tok, err := r.Peek()
	if err != nil {
		return 0, err
	}
	if tok == TokenString {
		s, err := r.ReadString()
		if err != nil {
			return 0, err
		}
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return 0, &UnmarshalTypeError{
			Type:   typ,
			Value:  "string",
			Msg:    fmt.Sprintf("cannot read string %q into %s", s, typ),
			Offset: r.Offset(),
		}
	}
	if tok != TokenNumber {
		return 0, r.mismatch(TokenNumber, tok)
	}

	lit, err := r.readNumberLiteral()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(unsafeString(lit), bits)
	if err != nil {
		return 0, r.numberError(lit, typ, err)
	}
	r.completeValue()
	return v, nil
}

// ReadNumber reads a number token and returns its literal text.
func (r *Reader) ReadNumber() (Number, error) {
	if err := r.expect(TokenNumber); err != nil {
		return "", err
	}
	lit, err := r.readNumberLiteral()
	if err != nil {
		return "", err
	}
	n := Number(lit)
	r.completeValue()
	return n, nil
}

// ReadTime reads an RFC 3339 timestamp.
func (r *Reader) ReadTime() (time.Time, error) {
	start := r.Offset()
	s, err := r.ReadString()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &UnmarshalTypeError{
			Type:   timeType,
			Value:  "string",
			Msg:    fmt.Sprintf("cannot parse %q as a timestamp", s),
			Offset: start,
		}
	}
	return t, nil
}

// ReadDuration reads a duration written by WriteDuration.
func (r *Reader) ReadDuration() (time.Duration, error) {
	start := r.Offset()
	s, err := r.ReadString()
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &UnmarshalTypeError{
			Type:   durationType,
			Value:  "string",
			Msg:    fmt.Sprintf("cannot parse %q as a duration", s),
			Offset: start,
		}
	}
	return d, nil
}
