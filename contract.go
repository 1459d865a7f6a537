package seqjson

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
)

// ObjectContract is the schema of a struct type: its properties, the order
// they are written in and how instances are constructed while reading. A
// contract is drafted, then frozen; a frozen contract is immutable and can be
// shared by any number of readers and writers.
type ObjectContract struct {
	typ   reflect.Type
	rtype reflect2.Type

	properties []*Property // write order once frozen
	declared   []*Property // declaration order
	byName     map[string]*Property
	names      [namingStrategyCount]*NameTable[*Property]
	required   []*Property

	candidates []*constructor
	explicit   *constructor
	ctor       *constructor

	inlineWords int
	slotCount   int

	mu     sync.Mutex
	frozen atomic.Bool
}

// NewObjectContract returns an empty draft contract for the struct type T.
func NewObjectContract[T any]() *ObjectContract {
	return newObjectContract(typeOf[T]())
}

func newObjectContract(t reflect.Type) *ObjectContract {
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("seqjson: object contracts describe struct types, got %s", t))
	}
	return &ObjectContract{
		typ:    t,
		rtype:  reflect2.Type2(t),
		byName: make(map[string]*Property),
	}
}

func (c *ObjectContract) Type() reflect.Type { return c.typ }

func (c *ObjectContract) Frozen() bool { return c.frozen.Load() }

// Properties returns the properties in write order.
func (c *ObjectContract) Properties() []*Property {
	return append([]*Property(nil), c.properties...)
}

// Property returns the property with the given declared name, or nil.
func (c *ObjectContract) Property(name string) *Property {
	return c.byName[name]
}

func (c *ObjectContract) checkType(t reflect.Type) {
	if t != c.typ {
		panic(fmt.Sprintf("seqjson: contract of %s cannot use members of %s", c.typ, t))
	}
}

func (c *ObjectContract) checkDraft() {
	if c.frozen.Load() {
		panic(errors.Wrapf(ErrContractFrozen, "cannot modify the contract of %s", c.typ))
	}
}

func (c *ObjectContract) add(name string, typ reflect.Type, acc accessor, opts []PropertyOption) *Property {
	c.checkDraft()
	if _, ok := c.byName[name]; ok {
		panic(fmt.Sprintf("seqjson: duplicate property %s in %s", name, c.typ))
	}
	p := &Property{
		name:   NewPropertyName(name),
		typ:    typ,
		acc:    acc,
		index:  len(c.declared),
		offset: -1,
	}
	for _, o := range opts {
		o(p)
	}
	c.declared = append(c.declared, p)
	c.properties = append(c.properties, p)
	c.byName[name] = p
	return p
}

// Freeze fixes the write order, lays out the staging area, selects the
// constructor and builds the name tables. Freezing twice is a no-op.
func (c *ObjectContract) Freeze() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen.Load() {
		return nil
	}

	sort.SliceStable(c.properties, func(i, j int) bool {
		return c.properties[i].order < c.properties[j].order
	})

	offset, slots := 0, 0
	for _, p := range c.declared {
		if size := int(p.typ.Size()); size > 0 && !hasPointers(p.typ) {
			align := p.typ.Align()
			offset = (offset + align - 1) &^ (align - 1)
			p.offset = offset
			offset += size
			continue
		}
		p.offset = -1
		p.slot = slots
		slots++
	}
	c.inlineWords = (offset + 7) / 8
	c.slotCount = slots

	if err := c.selectConstructor(); err != nil {
		return err
	}

	c.required = c.required[:0]
	for _, p := range c.declared {
		if p.required {
			c.required = append(c.required, p)
		}
	}

	for s := NamingStrategy(0); s < namingStrategyCount; s++ {
		table := NewNameTable[*Property]()
		for _, p := range c.properties {
			table.Add([]byte(p.name.Value(s)), p)
		}
		c.names[s] = table
	}

	c.frozen.Store(true)
	return nil
}

// writeObject writes the object at owner.
func (c *ObjectContract) writeObject(w *Writer, owner unsafe.Pointer) error {
	if err := w.WriteStartObject(); err != nil {
		return err
	}
	nulls := w.settings.SerializeNulls
	for _, p := range c.properties {
		if !p.acc.canLoad() {
			continue
		}
		if p.shouldSerialize != nil && !p.shouldSerialize(owner) {
			continue
		}
		v := p.acc.load(owner)
		if p.omitEmpty && isEmptyValue(v) {
			continue
		}
		if !nulls && !p.serializeNulls && isNullValue(v) {
			continue
		}
		if err := w.writeName(p.name); err != nil {
			return err
		}
		if err := writeReflect(w, v, p.converter); err != nil {
			return err
		}
	}
	return w.WriteEndObject()
}

// readObject reads an object into dst, which points to a value of the
// contract type. Values are staged until the constructor can run.
func (c *ObjectContract) readObject(r *Reader, dst unsafe.Pointer) error {
	if c.ctor == nil {
		return &SchemaError{
			Type: c.typ,
			Msg:  fmt.Sprintf("cannot create object instance for %s because there is no suitable constructor available", c.typ),
			err:  ErrNoConstructor,
		}
	}
	if err := r.ReadStartObject(); err != nil {
		return err
	}

	vals := c.newValues()
	table := c.names[r.settings.NamingStrategy]

	var owner unsafe.Pointer
	if len(c.ctor.params) == 0 {
		var err error
		if owner, err = c.construct(vals); err != nil {
			return err
		}
	}

	for {
		tok, err := r.Peek()
		if err != nil {
			return err
		}
		if tok == TokenEndObject {
			break
		}

		p, err := r.readPropertyFor(table)
		if err != nil {
			return err
		}
		if p == nil {
			if err := r.Skip(); err != nil {
				return err
			}
			continue
		}
		if skipped, err := skipNull(r, p); skipped || err != nil {
			if err != nil {
				return err
			}
			continue
		}

		if owner != nil {
			if err := c.readInto(r, owner, p); err != nil {
				return err
			}
			vals.mark(p)
			continue
		}

		if err := readReflect(r, vals.value(p, true), p.converter); err != nil {
			return err
		}
		vals.mark(p)
		if c.ctor.canExecute(vals) {
			if owner, err = c.construct(vals); err != nil {
				return err
			}
			if err := c.applyStaged(owner, vals); err != nil {
				return err
			}
		}
	}
	if err := r.ReadEndObject(); err != nil {
		return err
	}
	if err := c.checkRequired(vals); err != nil {
		return err
	}

	if owner == nil {
		var err error
		if owner, err = c.construct(vals); err != nil {
			return err
		}
		if err := c.applyStaged(owner, vals); err != nil {
			return err
		}
	}
	if owner != dst {
		c.rtype.UnsafeSet(dst, owner)
	}
	return nil
}

// construct runs the constructor. The zero-value constructor hands out a
// fresh instance so dst is only overwritten once reading succeeds.
func (c *ObjectContract) construct(vals *PropertyValues) (unsafe.Pointer, error) {
	owner, err := c.ctor.factory(vals)
	if err != nil {
		return nil, &SchemaError{Type: c.typ, Msg: fmt.Sprintf("constructor of %s failed", c.typ), err: err}
	}
	if owner == nil {
		return nil, &SchemaError{
			Type: c.typ,
			Msg:  fmt.Sprintf("cannot create object instance for %s because there is no suitable constructor available", c.typ),
			err:  ErrNoConstructor,
		}
	}
	return owner, nil
}

// applyStaged assigns the staged values the constructor did not consume.
func (c *ObjectContract) applyStaged(owner unsafe.Pointer, vals *PropertyValues) error {
	for _, p := range c.declared {
		if !vals.has(p) || c.ctor.consumes(p) {
			continue
		}
		if err := c.assign(owner, p, vals.value(p, false)); err != nil {
			return err
		}
	}
	return nil
}

func (c *ObjectContract) assign(owner unsafe.Pointer, p *Property, v reflect.Value) error {
	if p.acc.canStore() {
		p.acc.store(owner, v)
		return nil
	}
	return c.reconcile(owner, p, v)
}

// readInto reads the value of p directly into an existing owner.
func (c *ObjectContract) readInto(r *Reader, owner unsafe.Pointer, p *Property) error {
	if p.acc.canStore() {
		if field, ok := p.acc.(*fieldAccessor); ok {
			return readReflect(r, field.load(owner), p.converter)
		}
		v := reflect.New(p.typ).Elem()
		if err := readReflect(r, v, p.converter); err != nil {
			return err
		}
		p.acc.store(owner, v)
		return nil
	}

	if p.converter == nil {
		if cur := p.acc.load(owner); populatable(r.settings, cur, false) {
			return populateReflect(r, cur)
		}
	}
	v := reflect.New(p.typ).Elem()
	if err := readReflect(r, v, p.converter); err != nil {
		return err
	}
	return c.reconcile(owner, p, v)
}

// reconcile accepts a value for a read-only property when it equals the
// current one or can be merged into it: entries are added to a non-nil map
// and the target of a non-nil pointer is overwritten.
func (c *ObjectContract) reconcile(owner unsafe.Pointer, p *Property, v reflect.Value) error {
	cur := p.acc.load(owner)
	if reflect.DeepEqual(cur.Interface(), v.Interface()) {
		return nil
	}
	switch cur.Kind() {
	case reflect.Map:
		if !cur.IsNil() && !v.IsNil() {
			iter := v.MapRange()
			for iter.Next() {
				cur.SetMapIndex(iter.Key(), iter.Value())
			}
			return nil
		}
	case reflect.Ptr:
		if !cur.IsNil() && !v.IsNil() {
			cur.Elem().Set(v.Elem())
			return nil
		}
	}
	return &SchemaError{
		Type:     c.typ,
		Property: p.Name(),
		Msg:      fmt.Sprintf("property %s in %s is read only and cannot be deserialized", p.Name(), c.typ),
		err:      ErrReadOnly,
	}
}

func (c *ObjectContract) checkRequired(vals *PropertyValues) error {
	for _, p := range c.required {
		if !vals.has(p) {
			return &SchemaError{
				Type:     c.typ,
				Property: p.Name(),
				Msg:      fmt.Sprintf("missing value for required property %s in %s", p.Name(), c.typ),
				err:      ErrRequired,
			}
		}
	}
	return nil
}

// populateObject reads an object into the existing instance at owner.
// Properties holding objects, maps or non-nil pointers are populated in turn
// instead of being replaced.
func (c *ObjectContract) populateObject(r *Reader, owner unsafe.Pointer) error {
	if err := r.ReadStartObject(); err != nil {
		return err
	}
	table := c.names[r.settings.NamingStrategy]

	for {
		tok, err := r.Peek()
		if err != nil {
			return err
		}
		if tok == TokenEndObject {
			break
		}

		p, err := r.readPropertyFor(table)
		if err != nil {
			return err
		}
		if p == nil {
			if err := r.Skip(); err != nil {
				return err
			}
			continue
		}
		if skipped, err := skipNull(r, p); skipped || err != nil {
			if err != nil {
				return err
			}
			continue
		}
		if err := c.populateProperty(r, owner, p); err != nil {
			return err
		}
	}
	return r.ReadEndObject()
}

func (c *ObjectContract) populateProperty(r *Reader, owner unsafe.Pointer, p *Property) error {
	if p.converter == nil && p.acc.canLoad() {
		_, inPlace := p.acc.(*fieldAccessor)
		cur := p.acc.load(owner)
		if populatable(r.settings, cur, inPlace || p.acc.canStore()) {
			if err := populateReflect(r, cur); err != nil {
				return err
			}
			if !inPlace && p.acc.canStore() {
				p.acc.store(owner, cur)
			}
			return nil
		}
	}
	return c.readInto(r, owner, p)
}

// skipNull consumes a null value unless p or its converter wants to see it.
func skipNull(r *Reader, p *Property) (bool, error) {
	if p.handleNull {
		return false, nil
	}
	conv := p.converter
	if conv == nil && len(r.settings.Converters) > 0 {
		conv = converterFor(r.settings, p.typ)
	}
	if conv != nil && handlesNull(conv) {
		return false, nil
	}
	return r.TryReadNull()
}
