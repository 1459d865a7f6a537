package seqjson

import (
	"fmt"
	"math/bits"
	"reflect"
	"unsafe"
)

// PropertyValues holds the values read for an object before the object
// exists. Pointer-free values live in an inline arena at offsets computed
// when the contract was frozen; everything else gets a slot. A values set
// belongs to a single read and is dropped when the read returns.
type PropertyValues struct {
	contract *ObjectContract
	inline   []uint64
	slots    []any
	present  []uint64
}

func (c *ObjectContract) newValues() *PropertyValues {
	v := &PropertyValues{
		contract: c,
		present:  make([]uint64, (len(c.properties)+63)/64),
	}
	if c.inlineWords > 0 {
		v.inline = make([]uint64, c.inlineWords)
	}
	if c.slotCount > 0 {
		v.slots = make([]any, c.slotCount)
	}
	return v
}

func (v *PropertyValues) has(p *Property) bool {
	return v.present[p.index/64]&(1<<(p.index%64)) != 0
}

func (v *PropertyValues) mark(p *Property) {
	v.present[p.index/64] |= 1 << (p.index % 64)
}

// Count returns the number of properties read so far.
func (v *PropertyValues) Count() int {
	n := 0
	for _, w := range v.present {
		n += bits.OnesCount64(w)
	}
	return n
}

// Has reports whether the property with the given declared name was read.
func (v *PropertyValues) Has(name string) bool {
	p := v.contract.Property(name)
	return p != nil && v.has(p)
}

// value returns addressable storage for p, zeroed when reset is set.
func (v *PropertyValues) value(p *Property, reset bool) reflect.Value {
	if p.offset >= 0 {
		rv := reflect.NewAt(p.typ, unsafe.Add(unsafe.Pointer(unsafe.SliceData(v.inline)), p.offset)).Elem()
		if reset {
			rv.SetZero()
		}
		return rv
	}

	if v.slots[p.slot] == nil || reset {
		v.slots[p.slot] = reflect.New(p.typ).Interface()
	}
	return reflect.ValueOf(v.slots[p.slot]).Elem()
}

// Arg returns constructor argument i, or the zero P when its property was not read.
func Arg[P any](v *PropertyValues, i int) P {
	ctor := v.contract.ctor
	if ctor == nil || i < 0 || i >= len(ctor.params) {
		panic(fmt.Sprintf("seqjson: constructor of %s has no argument %d", v.contract.typ, i))
	}
	p := ctor.params[i]
	if p.typ != typeOf[P]() {
		panic(fmt.Sprintf("seqjson: constructor argument %d of %s is %s, not %s", i, v.contract.typ, p.typ, typeOf[P]()))
	}
	var zero P
	if !v.has(p) {
		return zero
	}
	return *(*P)(v.value(p, false).Addr().UnsafePointer())
}

// hasPointers reports whether values of t contain pointers the garbage
// collector must see, which rules out the inline arena.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	}
	return true
}
