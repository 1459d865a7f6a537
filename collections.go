package seqjson

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// writeArray writes a slice or array element by element.
func writeArray(w *Writer, v reflect.Value) error {
	if v.CanInterface() && len(w.settings.Converters) == 0 {
		switch x := v.Interface().(type) {
		case []string:
			return writeElements(w, x, w.WriteString)
		case []int:
			return writeElements(w, x, w.WriteInt)
		case []int64:
			return writeElements(w, x, w.WriteInt64)
		case []float64:
			return writeElements(w, x, w.WriteFloat64)
		case []any:
			return writeElements(w, x, func(e any) error { return writeAny(w, e, nil) })
		}
	}

	if err := w.WriteStartArray(); err != nil {
		return err
	}
	for i, n := 0, v.Len(); i < n; i++ {
		if err := writeReflect(w, v.Index(i), nil); err != nil {
			return err
		}
	}
	return w.WriteEndArray()
}

func writeElements[E any](w *Writer, s []E, write func(E) error) error {
	if err := w.WriteStartArray(); err != nil {
		return err
	}
	for _, e := range s {
		if err := write(e); err != nil {
			return err
		}
	}
	return w.WriteEndArray()
}

type mapEntry struct {
	key   string
	value reflect.Value
}

// writeMap writes a map as an object with keys in sorted order. Keys are
// written as they are; the naming strategy only applies to properties.
func writeMap(w *Writer, v reflect.Value) error {
	if v.CanInterface() && len(w.settings.Converters) == 0 {
		switch m := v.Interface().(type) {
		case map[string]string:
			return writeStringMap(w, m, w.WriteString)
		case map[string]int:
			return writeStringMap(w, m, w.WriteInt)
		case map[string]any:
			return writeStringMap(w, m, func(e any) error { return writeAny(w, e, nil) })
		}
	}

	entries := make([]mapEntry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKeyString(iter.Key())
		if err != nil {
			return w.fail(err)
		}
		entries = append(entries, mapEntry{key: key, value: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	if err := w.WriteStartObject(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.WritePropertyName(e.key); err != nil {
			return err
		}
		if err := writeReflect(w, e.value, nil); err != nil {
			return err
		}
	}
	return w.WriteEndObject()
}

func writeStringMap[V any](w *Writer, m map[string]V, write func(V) error) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := w.WriteStartObject(); err != nil {
		return err
	}
	for _, k := range keys {
		if err := w.WritePropertyName(k); err != nil {
			return err
		}
		if err := write(m[k]); err != nil {
			return err
		}
	}
	return w.WriteEndObject()
}

func mapKeyString(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if k.Type().Implements(textMarshalerType) {
		if k.Kind() == reflect.Ptr && k.IsNil() {
			return "", nil
		}
		b, err := k.Interface().(interface{ MarshalText() ([]byte, error) }).MarshalText()
		return string(b), err
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", &WriteError{Msg: fmt.Sprintf("unsupported map key type %s", k.Type()), err: ErrInvalidWriteState}
}

// readSlice reads an array into a new slice.
func readSlice(r *Reader, v reflect.Value) error {
	if err := r.ReadStartArray(); err != nil {
		return err
	}
	t := v.Type()
	s := reflect.MakeSlice(t, 0, 0)
	zero := reflect.Zero(t.Elem())
	for {
		tok, err := r.Peek()
		if err != nil {
			return err
		}
		if tok == TokenEndArray {
			break
		}
		s = reflect.Append(s, zero)
		if err := readReflect(r, s.Index(s.Len()-1), nil); err != nil {
			return err
		}
	}
	if err := r.ReadEndArray(); err != nil {
		return err
	}
	v.Set(s)
	return nil
}

// readArray reads into a fixed size array. Missing elements are zeroed.
func readArray(r *Reader, v reflect.Value) error {
	if err := r.ReadStartArray(); err != nil {
		return err
	}
	i := 0
	for ; ; i++ {
		tok, err := r.Peek()
		if err != nil {
			return err
		}
		if tok == TokenEndArray {
			break
		}
		if i >= v.Len() {
			return &UnmarshalTypeError{
				Type:   v.Type(),
				Value:  "array",
				Msg:    fmt.Sprintf("%s cannot hold more than %d elements", v.Type(), v.Len()),
				Offset: r.Offset(),
			}
		}
		if err := readReflect(r, v.Index(i), nil); err != nil {
			return err
		}
	}
	for ; i < v.Len(); i++ {
		v.Index(i).SetZero()
	}
	return r.ReadEndArray()
}

// readMap reads an object into v, adding to the entries it already has.
func readMap(r *Reader, v reflect.Value) error {
	if err := r.ReadStartObject(); err != nil {
		return err
	}
	t := v.Type()
	if v.IsNil() {
		v.Set(reflect.MakeMap(t))
	}
	keyType, elemType := t.Key(), t.Elem()

	for {
		tok, err := r.Peek()
		if err != nil {
			return err
		}
		if tok == TokenEndObject {
			break
		}
		start := r.Offset()
		name, err := r.readMapKey()
		if err != nil {
			return err
		}
		key, err := mapKeyValue(name, keyType)
		if err != nil {
			if ute, ok := err.(*UnmarshalTypeError); ok {
				ute.Offset = start
			}
			return err
		}
		elem := reflect.New(elemType).Elem()
		if err := readReflect(r, elem, nil); err != nil {
			return err
		}
		v.SetMapIndex(key, elem)
	}
	return r.ReadEndObject()
}

func mapKeyValue(name string, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.String {
		return reflect.ValueOf(name).Convert(t), nil
	}
	if reflect.PtrTo(t).Implements(textUnmarshalerType) {
		k := reflect.New(t)
		if err := k.Interface().(interface{ UnmarshalText([]byte) error }).UnmarshalText([]byte(name)); err != nil {
			return reflect.Value{}, &UnmarshalTypeError{Type: t, Value: "string", Msg: err.Error()}
		}
		return k.Elem(), nil
	}

	k := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(name, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, &UnmarshalTypeError{Type: t, Value: "number " + name, Msg: fmt.Sprintf("invalid map key %q for %s", name, t)}
		}
		k.SetInt(n)
		return k, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(name, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, &UnmarshalTypeError{Type: t, Value: "number " + name, Msg: fmt.Sprintf("invalid map key %q for %s", name, t)}
		}
		k.SetUint(n)
		return k, nil
	}
	return reflect.Value{}, &UnmarshalTypeError{Type: t, Value: "string", Msg: fmt.Sprintf("unsupported map key type %s", t)}
}
