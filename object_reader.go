package seqjson

import (
	"reflect"

	"github.com/pkg/errors"
)

// ErrPropertyNotFound is returned by ReadObjectProperty for names the object lacks.
var ErrPropertyNotFound = errors.New("property not found")

// ObjectReader indexes the top-level properties of a JSON object so each of
// them can be read later, any number of times and in any order.
type ObjectReader struct {
	r       *Reader
	names   []string
	offsets map[string]ReaderState
}

// NewObjectReader scans the object in seq once, skipping over values.
func NewObjectReader(seq Sequence, settings *Settings) (*ObjectReader, error) {
	r := NewReader(seq, settings)
	or := &ObjectReader{r: r, offsets: make(map[string]ReaderState)}

	if err := r.ReadStartObject(); err != nil {
		return nil, err
	}
	for {
		tok, err := r.Peek()
		if err != nil {
			return nil, err
		}
		if tok == TokenEndObject {
			break
		}
		name, err := r.ReadPropertyName()
		if err != nil {
			return nil, err
		}
		if _, ok := or.offsets[name]; !ok {
			or.names = append(or.names, name)
		}
		or.offsets[name] = r.State()
		if err := r.Skip(); err != nil {
			return nil, err
		}
	}
	if err := r.ReadEndObject(); err != nil {
		return nil, err
	}
	if err := r.end(); err != nil {
		return nil, err
	}
	return or, nil
}

// PropertyNames returns the property names in document order.
func (or *ObjectReader) PropertyNames() []string {
	return append([]string(nil), or.names...)
}

func (or *ObjectReader) Has(name string) bool {
	_, ok := or.offsets[name]
	return ok
}

// ReadObjectProperty reads the value of the named property as a T. When a
// name repeats, the last occurrence is read.
func ReadObjectProperty[T any](or *ObjectReader, name string) (T, error) {
	var v T
	state, ok := or.offsets[name]
	if !ok {
		return v, errors.Wrapf(ErrPropertyNotFound, "reading %s", name)
	}
	or.r.SetState(state)
	err := readReflect(or.r, reflect.ValueOf(&v).Elem(), nil)
	return v, err
}
