package seqjson

import (
	"reflect"
	"strconv"
	"unsafe"

	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
	"github.com/vmihailenco/tagparser"
)

// fieldAccessor reaches a struct field, possibly through embedded structs,
// by offset.
type fieldAccessor struct {
	path []reflect2.StructField
	typ  reflect.Type
}

func (a *fieldAccessor) canLoad() bool  { return true }
func (a *fieldAccessor) canStore() bool { return true }

func (a *fieldAccessor) ptr(owner unsafe.Pointer) unsafe.Pointer {
	for _, f := range a.path {
		owner = f.UnsafeGet(owner)
	}
	return owner
}

func (a *fieldAccessor) load(owner unsafe.Pointer) reflect.Value {
	return reflect.NewAt(a.typ, a.ptr(owner)).Elem()
}

func (a *fieldAccessor) store(owner unsafe.Pointer, v reflect.Value) {
	a.load(owner).Set(v)
}

// buildContract derives a contract from the exported fields of t. Field tags
// use the json key: `json:"name,required,nulls,omitempty,order:N"`; a tag of
// "-" ignores the field. Fields of embedded structs are promoted unless an
// outer field has the same name.
func buildContract(t reflect.Type) (*ObjectContract, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("%s is not a struct", t)
	}
	c := newObjectContract(t)
	fields, err := collectFields(t, nil)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]int, len(fields))
	for _, f := range fields {
		if depth, ok := taken[f.name]; ok && depth <= len(f.acc.path) {
			continue
		}
		taken[f.name] = len(f.acc.path)
	}
	for _, f := range fields {
		if taken[f.name] != len(f.acc.path) || c.Property(f.name) != nil {
			continue
		}
		c.add(f.name, f.acc.typ, f.acc, f.opts)
	}
	return c, nil
}

type structField struct {
	name string
	acc  *fieldAccessor
	opts []PropertyOption
}

func collectFields(t reflect.Type, base []reflect2.StructField) ([]structField, error) {
	st := reflect2.Type2(t).(reflect2.StructType)
	var fields []structField

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := tagparser.Parse(sf.Tag.Get("json"))
		if tag.Name == "-" && len(tag.Options) == 0 {
			continue
		}
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}

		path := append(base[:len(base):len(base)], st.Field(i))
		if sf.Anonymous && tag.Name == "" && sf.Type.Kind() == reflect.Struct {
			embedded, err := collectFields(sf.Type, path)
			if err != nil {
				return nil, err
			}
			fields = append(fields, embedded...)
			continue
		}
		if sf.PkgPath != "" {
			continue
		}

		name := sf.Name
		if tag.Name != "" {
			if unquoted, ok := tagparser.Unquote(tag.Name); ok {
				name = unquoted
			} else {
				name = tag.Name
			}
		}

		var opts []PropertyOption
		if tag.HasOption("required") {
			opts = append(opts, Required())
		}
		if tag.HasOption("nulls") {
			opts = append(opts, SerializeNulls())
		}
		if tag.HasOption("omitempty") {
			opts = append(opts, OmitEmpty())
		}
		if s, ok := tag.Options["order"]; ok {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s of %s has an invalid order", sf.Name, t)
			}
			opts = append(opts, Order(n))
		}

		fields = append(fields, structField{
			name: name,
			acc:  &fieldAccessor{path: path, typ: sf.Type},
			opts: opts,
		})
	}
	return fields, nil
}
