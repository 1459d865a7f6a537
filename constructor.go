package seqjson

import (
	"strings"
	"unsafe"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// constructor creates an owner from staged values. params name the
// properties whose values it consumes, in argument order.
type constructor struct {
	paramNames []string
	params     []*Property
	factory    func(v *PropertyValues) (unsafe.Pointer, error)
}

// canExecute reports whether every parameter has been read.
func (c *constructor) canExecute(v *PropertyValues) bool {
	for _, p := range c.params {
		if !v.has(p) {
			return false
		}
	}
	return true
}

func (c *constructor) consumes(p *Property) bool {
	for _, param := range c.params {
		if param == p {
			return true
		}
	}
	return false
}

// resolve binds parameter names to properties. It fails when a name is unknown.
func (c *constructor) resolve(oc *ObjectContract) error {
	c.params = make([]*Property, len(c.paramNames))
	for i, name := range c.paramNames {
		p := oc.Property(name)
		if p == nil {
			return errors.Errorf("constructor parameter %s of %s is not a property", name, oc.typ)
		}
		c.params[i] = p
	}
	return nil
}

func (c *constructor) requiredParams() int {
	n := 0
	for _, p := range c.params {
		if p.required {
			n++
		}
	}
	return n
}

func typedFactory[T any](fn func(v *PropertyValues) (*T, error)) func(v *PropertyValues) (unsafe.Pointer, error) {
	return func(v *PropertyValues) (unsafe.Pointer, error) {
		t, err := fn(v)
		if err != nil {
			return nil, err
		}
		return unsafe.Pointer(t), nil
	}
}

// AddConstructor registers a constructor candidate for T. When the contract
// is frozen the candidate with the most parameters that are all properties
// is selected, preferring candidates with more required parameters. fn reads
// its arguments with Arg in the order of params.
func AddConstructor[T any](c *ObjectContract, fn func(v *PropertyValues) (*T, error), params ...string) {
	c.checkType(typeOf[T]())
	c.checkDraft()
	c.candidates = append(c.candidates, &constructor{paramNames: params, factory: typedFactory(fn)})
}

// SetConstructor makes fn the constructor of T, bypassing candidate selection.
func SetConstructor[T any](c *ObjectContract, fn func(v *PropertyValues) (*T, error), params ...string) {
	c.checkType(typeOf[T]())
	c.checkDraft()
	c.explicit = &constructor{paramNames: params, factory: typedFactory(fn)}
}

// selectConstructor resolves the constructor at freeze time.
func (c *ObjectContract) selectConstructor() error {
	if c.explicit != nil {
		if err := c.explicit.resolve(c); err != nil {
			return err
		}
		c.ctor = c.explicit
		return nil
	}

	if len(c.candidates) == 0 {
		rtype := c.rtype
		c.ctor = &constructor{factory: func(*PropertyValues) (unsafe.Pointer, error) {
			return rtype.UnsafeNew(), nil
		}}
		return nil
	}

	var best *constructor
	for _, cand := range c.candidates {
		if cand.resolve(c) != nil {
			continue
		}
		if best == nil ||
			len(cand.params) > len(best.params) ||
			len(cand.params) == len(best.params) && cand.requiredParams() > best.requiredParams() {
			best = cand
		}
	}
	// best stays nil when no candidate is satisfiable; reads then fail
	c.ctor = best
	if best == nil {
		level.Debug(logger).Log("msg", "no usable constructor", "type", c.typ, "candidates", len(c.candidates))
	} else {
		level.Debug(logger).Log("msg", "selected constructor", "type", c.typ, "params", strings.Join(best.paramNames, ","))
	}
	return nil
}
