package seqjson

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Property describes one member of an object contract.
type Property struct {
	name      *PropertyName
	typ       reflect.Type
	acc       accessor
	converter Converter
	// shouldSerialize receives a pointer to the owner.
	shouldSerialize func(owner unsafe.Pointer) bool

	index  int // declaration index, also the presence bit
	order  int
	offset int // byte offset in the inline arena, -1 for slot staged values
	slot   int

	required       bool
	serializeNulls bool
	handleNull     bool
	omitEmpty      bool
}

// accessor reads and writes a property of an owner addressed by pointer.
type accessor interface {
	canLoad() bool
	canStore() bool
	// load returns the current value. It is addressable.
	load(owner unsafe.Pointer) reflect.Value
	// store assigns an addressable value of the property type.
	store(owner unsafe.Pointer, v reflect.Value)
}

func (p *Property) Name() string        { return p.name.Name() }
func (p *Property) Type() reflect.Type  { return p.typ }
func (p *Property) Required() bool      { return p.required }
func (p *Property) Order() int          { return p.order }
func (p *Property) ReadOnly() bool      { return !p.acc.canStore() }
func (p *Property) WriteOnly() bool     { return !p.acc.canLoad() }
func (p *Property) Encoded(s NamingStrategy) []byte { return p.name.Encoded(s) }

func (p *Property) String() string {
	return fmt.Sprintf("%s %s", p.name.Name(), p.typ)
}

// PropertyOption configures a property when it is added to a contract.
type PropertyOption func(*Property)

// Required makes reading fail when the property is absent.
func Required() PropertyOption { return func(p *Property) { p.required = true } }

// Order sets the write position; lower orders are written first and equal
// orders keep declaration order.
func Order(n int) PropertyOption { return func(p *Property) { p.order = n } }

// SerializeNulls writes the property even when its value is null.
func SerializeNulls() PropertyOption { return func(p *Property) { p.serializeNulls = true } }

// HandleNull reads JSON null into the property instead of skipping it.
func HandleNull() PropertyOption { return func(p *Property) { p.handleNull = true } }

// OmitEmpty skips the property when its value is empty.
func OmitEmpty() PropertyOption { return func(p *Property) { p.omitEmpty = true } }

func WithConverter(c Converter) PropertyOption { return func(p *Property) { p.converter = c } }

// ShouldSerialize sets a predicate evaluated before the property is written.
func ShouldSerialize[T any](fn func(owner *T) bool) PropertyOption {
	return func(p *Property) {
		p.shouldSerialize = func(owner unsafe.Pointer) bool { return fn((*T)(owner)) }
	}
}

// typedAccessor uses the getter and setter given to AddProperty.
type typedAccessor[T, P any] struct {
	get func(*T) P
	set func(*T, P)
}

func (a *typedAccessor[T, P]) canLoad() bool  { return a.get != nil }
func (a *typedAccessor[T, P]) canStore() bool { return a.set != nil }

func (a *typedAccessor[T, P]) load(owner unsafe.Pointer) reflect.Value {
	v := a.get((*T)(owner))
	return reflect.ValueOf(&v).Elem()
}

func (a *typedAccessor[T, P]) store(owner unsafe.Pointer, v reflect.Value) {
	a.set((*T)(owner), *(*P)(v.Addr().UnsafePointer()))
}

// AddProperty declares a property of type P on a contract for T. A nil set
// makes the property read only and a nil get makes it write only.
func AddProperty[T, P any](c *ObjectContract, name string, get func(*T) P, set func(*T, P), opts ...PropertyOption) *Property {
	c.checkType(typeOf[T]())
	if get == nil && set == nil {
		panic(fmt.Sprintf("seqjson: property %s of %s has neither getter nor setter", name, c.typ))
	}
	return c.add(name, typeOf[P](), &typedAccessor[T, P]{get: get, set: set}, opts)
}

// isNullValue reports whether v is written as JSON null.
func isNullValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// isEmptyValue reports whether v is considered empty for omitempty
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Struct:
		// time.Time carries a location pointer; compare by instant
		if v.Type() == timeType {
			return v.Interface().(interface{ IsZero() bool }).IsZero()
		}
		return v.IsZero()
	}
	return false
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
