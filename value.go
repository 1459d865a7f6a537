package seqjson

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	numberType          = reflect.TypeOf(Number(""))
	marshalerType       = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType     = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// writeAny writes v, taking the common scalar types without reflection.
func writeAny(w *Writer, v any, conv Converter) error {
	if conv == nil && len(w.settings.Converters) == 0 {
		switch x := v.(type) {
		case nil:
			return w.WriteNull()
		case string:
			return w.WriteString(x)
		case bool:
			return w.WriteBool(x)
		case int:
			return w.WriteInt64(int64(x))
		case int64:
			return w.WriteInt64(x)
		case float64:
			return w.WriteFloat64(x)
		case []byte:
			if x == nil {
				return w.WriteNull()
			}
			return w.WriteBytes(x)
		case Marshaler:
			return x.WriteJSON(w)
		}
	}
	return writeReflect(w, reflect.ValueOf(v), conv)
}

// writeReflect writes v with conv, a converter from the settings, the
// Marshaler implementation, the built-in handling of its kind or its
// contract, in that order.
func writeReflect(w *Writer, v reflect.Value, conv Converter) error {
	if !v.IsValid() {
		return w.WriteNull()
	}
	t := v.Type()

	if conv == nil && len(w.settings.Converters) > 0 {
		conv = converterFor(w.settings, t)
	}
	if conv != nil {
		if isNullValue(v) && !handlesNull(conv) {
			return w.WriteNull()
		}
		return conv.WriteJSON(w, v.Interface())
	}

	if t.Implements(marshalerType) {
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return w.WriteNull()
		}
		return v.Interface().(Marshaler).WriteJSON(w)
	}
	if v.Kind() != reflect.Ptr && v.CanAddr() && reflect.PtrTo(t).Implements(marshalerType) {
		return v.Addr().Interface().(Marshaler).WriteJSON(w)
	}

	switch t {
	case timeType:
		return w.WriteTime(v.Interface().(time.Time))
	case durationType:
		return w.WriteDuration(time.Duration(v.Int()))
	case numberType:
		return w.WriteNumber(Number(v.String()))
	}

	switch v.Kind() {
	case reflect.String:
		return w.WriteString(v.String())
	case reflect.Bool:
		return w.WriteBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return w.WriteInt64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return w.WriteUint64(v.Uint())
	case reflect.Float32:
		return w.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		return w.WriteFloat64(v.Float())
	case reflect.Interface:
		if v.IsNil() {
			return w.WriteNull()
		}
		return writeReflect(w, v.Elem(), nil)
	case reflect.Ptr:
		if v.IsNil() {
			return w.WriteNull()
		}
		return w.guarded(v, func() error { return writeReflect(w, v.Elem(), nil) })
	case reflect.Slice:
		if v.IsNil() {
			return w.WriteNull()
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return w.WriteBytes(v.Bytes())
		}
		return w.guarded(v, func() error { return writeArray(w, v) })
	case reflect.Array:
		return writeArray(w, v)
	case reflect.Map:
		if v.IsNil() {
			return w.WriteNull()
		}
		return w.guarded(v, func() error { return writeMap(w, v) })
	case reflect.Struct:
		c, err := contractFor(w.settings, t)
		if err != nil {
			return w.fail(err)
		}
		if !v.CanAddr() {
			cp := reflect.New(t)
			cp.Elem().Set(v)
			v = cp.Elem()
		}
		return c.writeObject(w, v.Addr().UnsafePointer())
	}

	return w.fail(&WriteError{
		Msg:   fmt.Sprintf("unsupported type %s", t),
		Depth: w.stack.depth(),
		err:   ErrInvalidWriteState,
	})
}

// readReflect reads the next value into v, which must be settable.
func readReflect(r *Reader, v reflect.Value, conv Converter) error {
	t := v.Type()

	if conv == nil && len(r.settings.Converters) > 0 {
		conv = converterFor(r.settings, t)
	}
	if conv != nil {
		return readConverted(r, v, conv)
	}

	tok, err := r.Peek()
	if err != nil {
		return err
	}
	if tok == TokenNull {
		switch v.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
			if err := r.ReadNull(); err != nil {
				return err
			}
			v.SetZero()
			return nil
		}
	}

	if v.Kind() != reflect.Ptr && v.CanAddr() && reflect.PtrTo(t).Implements(unmarshalerType) {
		return v.Addr().Interface().(Unmarshaler).ReadJSON(r)
	}

	switch t {
	case timeType:
		tm, err := r.ReadTime()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(tm))
		return nil
	case durationType:
		d, err := r.ReadDuration()
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	case numberType:
		n, err := r.ReadNumber()
		if err != nil {
			return err
		}
		v.SetString(string(n))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		s, err := r.ReadString()
		if err != nil {
			return err
		}
		v.SetString(s)
	case reflect.Bool:
		b, err := r.ReadBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := r.readInt(t.Bits(), t)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := r.readUint(t.Bits(), t)
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := r.readFloat(t.Bits(), t)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return &UnmarshalTypeError{Type: t, Value: tok.String(), Msg: fmt.Sprintf("cannot read into non-empty interface %s", t), Offset: r.Offset()}
		}
		x, err := readAny(r)
		if err != nil {
			return err
		}
		if x == nil {
			v.SetZero()
		} else {
			v.Set(reflect.ValueOf(x))
		}
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return readReflect(r, v.Elem(), nil)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := r.ReadBytes()
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		}
		return readSlice(r, v)
	case reflect.Array:
		return readArray(r, v)
	case reflect.Map:
		return readMap(r, v)
	case reflect.Struct:
		c, err := contractFor(r.settings, t)
		if err != nil {
			return err
		}
		return c.readObject(r, v.Addr().UnsafePointer())
	default:
		return &UnmarshalTypeError{Type: t, Value: tok.String(), Msg: fmt.Sprintf("unsupported type %s", t), Offset: r.Offset()}
	}
	return nil
}

func readConverted(r *Reader, v reflect.Value, conv Converter) error {
	t := v.Type()
	if !handlesNull(conv) {
		if null, err := r.TryReadNull(); null || err != nil {
			if err == nil {
				v.SetZero()
			}
			return err
		}
	}

	start := r.Offset()
	x, err := conv.ReadJSON(r, t)
	if err != nil {
		return errors.WithStack(err)
	}
	if x == nil {
		v.SetZero()
		return nil
	}
	xv := reflect.ValueOf(x)
	switch {
	case xv.Type().AssignableTo(t):
		v.Set(xv)
	case xv.Type().ConvertibleTo(t):
		v.Set(xv.Convert(t))
	default:
		return &UnmarshalTypeError{
			Type:   t,
			Value:  xv.Type().String(),
			Msg:    fmt.Sprintf("converter returned %s, which cannot be assigned to %s", xv.Type(), t),
			Offset: start,
		}
	}
	return nil
}

// readAny reads a value into its generic form: map[string]any, []any,
// string, float64, bool or nil.
func readAny(r *Reader) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	switch tok {
	case TokenStartObject:
		if err := r.ReadStartObject(); err != nil {
			return nil, err
		}
		m := make(map[string]any)
		for {
			if tok, err = r.Peek(); err != nil {
				return nil, err
			}
			if tok == TokenEndObject {
				return m, r.ReadEndObject()
			}
			key, err := r.readMapKey()
			if err != nil {
				return nil, err
			}
			if m[key], err = readAny(r); err != nil {
				return nil, err
			}
		}
	case TokenStartArray:
		if err := r.ReadStartArray(); err != nil {
			return nil, err
		}
		a := make([]any, 0)
		for {
			if tok, err = r.Peek(); err != nil {
				return nil, err
			}
			if tok == TokenEndArray {
				return a, r.ReadEndArray()
			}
			x, err := readAny(r)
			if err != nil {
				return nil, err
			}
			a = append(a, x)
		}
	case TokenString:
		return r.ReadString()
	case TokenNumber:
		return r.ReadFloat64()
	case TokenBoolean:
		return r.ReadBool()
	case TokenNull:
		return nil, r.ReadNull()
	}
	return nil, r.mismatch(TokenNone, tok)
}

// populatable reports whether v should be read into in place rather than
// replaced. Struct values qualify only when structOK is set.
func populatable(s *Settings, v reflect.Value, structOK bool) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map:
		return !v.IsNil() && converterFor(s, v.Type()) == nil
	case reflect.Struct:
		t := v.Type()
		return structOK && t != timeType &&
			!reflect.PtrTo(t).Implements(unmarshalerType) &&
			converterFor(s, t) == nil
	}
	return false
}

// populateReflect reads into the existing value v: objects are populated
// property by property, maps gain entries and pointers are followed.
func populateReflect(r *Reader, v reflect.Value) error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}
	if tok == TokenNull {
		return readReflect(r, v, nil)
	}

	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			return populateReflect(r, v.Elem())
		}
	case reflect.Map:
		if !v.IsNil() {
			return readMap(r, v)
		}
	case reflect.Struct:
		if populatable(r.settings, v, true) && v.CanAddr() {
			c, err := contractFor(r.settings, v.Type())
			if err != nil {
				return err
			}
			return c.populateObject(r, v.Addr().UnsafePointer())
		}
	}
	return readReflect(r, v, nil)
}
