package seqjson

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Converter customizes how values of the types it accepts are written and read.
type Converter interface {
	CanConvert(t reflect.Type) bool
	WriteJSON(w *Writer, v any) error
	// ReadJSON reads one value of type t. The returned value must be assignable to t.
	ReadJSON(r *Reader, t reflect.Type) (any, error)
}

// NullHandler is implemented by converters that want to see JSON null
// instead of having it mapped to the zero value.
type NullHandler interface {
	HandleNull() bool
}

func handlesNull(c Converter) bool {
	h, ok := c.(NullHandler)
	return ok && h.HandleNull()
}

// TypedConverter adapts a pair of functions for T into a Converter.
type TypedConverter[T any] struct {
	Write func(w *Writer, v T) error
	Read  func(r *Reader) (T, error)
	// Null passes JSON null to Read instead of producing the zero T.
	Null bool
}

func (c *TypedConverter[T]) CanConvert(t reflect.Type) bool {
	return t == typeOf[T]()
}

func (c *TypedConverter[T]) WriteJSON(w *Writer, v any) error {
	tv, _ := v.(T)
	return c.Write(w, tv)
}

func (c *TypedConverter[T]) ReadJSON(r *Reader, _ reflect.Type) (any, error) {
	return c.Read(r)
}

func (c *TypedConverter[T]) HandleNull() bool { return c.Null }

// UnixTimeConverter writes time.Time as whole seconds since the Unix epoch.
type UnixTimeConverter struct{}

func (UnixTimeConverter) CanConvert(t reflect.Type) bool { return t == timeType }

func (UnixTimeConverter) WriteJSON(w *Writer, v any) error {
	t, ok := v.(time.Time)
	if !ok {
		return w.stateError("UnixTimeConverter cannot write %T", v)
	}
	return w.WriteInt64(t.Unix())
}

func (UnixTimeConverter) ReadJSON(r *Reader, _ reflect.Type) (any, error) {
	secs, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// StringEnumConverter writes an integer enum as its name. Values without a
// name are written as numbers; both forms are accepted when reading.
type StringEnumConverter[T integer] struct {
	names  map[T]string
	values map[string]T
}

func NewStringEnumConverter[T integer](names map[T]string) *StringEnumConverter[T] {
	c := &StringEnumConverter[T]{
		names:  make(map[T]string, len(names)),
		values: make(map[string]T, len(names)),
	}
	for v, name := range names {
		c.names[v] = name
		c.values[name] = v
	}
	return c
}

func (c *StringEnumConverter[T]) CanConvert(t reflect.Type) bool {
	return t == typeOf[T]()
}

func (c *StringEnumConverter[T]) WriteJSON(w *Writer, v any) error {
	e, ok := v.(T)
	if !ok {
		return w.stateError("enum converter for %s cannot write %T", typeOf[T](), v)
	}
	if name, ok := c.names[e]; ok {
		return w.WriteString(name)
	}
	if e < 0 {
		return w.WriteInt64(int64(e))
	}
	return w.WriteUint64(uint64(e))
}

func (c *StringEnumConverter[T]) ReadJSON(r *Reader, t reflect.Type) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == TokenNumber {
		n, err := r.ReadNumber()
		if err != nil {
			return nil, err
		}
		return c.parseNumber(n, t, r.Offset())
	}

	start := r.Offset()
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	if v, ok := c.values[name]; ok {
		return v, nil
	}
	return nil, &UnmarshalTypeError{
		Type:   t,
		Value:  "string",
		Msg:    fmt.Sprintf("%q is not a valid value of %s", name, t),
		Offset: start,
	}
}

func (c *StringEnumConverter[T]) parseNumber(n Number, t reflect.Type, offset int64) (any, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		if v := T(i); int64(v) == i && (v < 0) == (i < 0) {
			return v, nil
		}
	} else if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		if v := T(u); uint64(v) == u && v >= 0 {
			return v, nil
		}
	}
	return nil, &UnmarshalTypeError{
		Type:   t,
		Value:  "number " + string(n),
		Msg:    fmt.Sprintf("value %s overflows %s", n, t),
		Offset: offset,
	}
}

// converterFor returns the first converter of settings that accepts t.
func converterFor(s *Settings, t reflect.Type) Converter {
	for _, c := range s.Converters {
		if c.CanConvert(t) {
			return c
		}
	}
	return nil
}
