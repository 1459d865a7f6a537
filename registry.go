package seqjson

import (
	"reflect"
	"sync"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// ContractResolver supplies the contract of a struct type. Returning a nil
// contract without an error falls back to the process-wide registry.
type ContractResolver interface {
	ResolveContract(t reflect.Type) (*ObjectContract, error)
}

// ContractResolverFunc adapts a function into a ContractResolver.
type ContractResolverFunc func(t reflect.Type) (*ObjectContract, error)

func (f ContractResolverFunc) ResolveContract(t reflect.Type) (*ObjectContract, error) {
	return f(t)
}

// Registry caches frozen contracts by type. Each contract is built once;
// lookups after that only read.
type Registry struct {
	contracts sync.Map // reflect.Type -> *registryEntry
}

type registryEntry struct {
	once     sync.Once
	contract *ObjectContract
	err      error
}

var defaultRegistry = &Registry{}

func NewRegistry() *Registry { return &Registry{} }

// Register freezes c and makes it the contract of its type. A type whose
// contract was already resolved keeps it.
func (reg *Registry) Register(c *ObjectContract) error {
	if err := c.Freeze(); err != nil {
		return err
	}
	e := &registryEntry{contract: c}
	e.once.Do(func() {})
	if _, loaded := reg.contracts.LoadOrStore(c.typ, e); loaded {
		return errors.Errorf("a contract for %s is already registered", c.typ)
	}
	level.Debug(logger).Log("msg", "registered contract", "type", c.typ, "properties", len(c.properties))
	return nil
}

// ResolveContract returns the registered contract of t, building one from
// the struct fields of t on first use.
func (reg *Registry) ResolveContract(t reflect.Type) (*ObjectContract, error) {
	if v, ok := reg.contracts.Load(t); ok {
		e := v.(*registryEntry)
		e.once.Do(func() { e.build(t) })
		return e.contract, e.err
	}
	v, _ := reg.contracts.LoadOrStore(t, &registryEntry{})
	e := v.(*registryEntry)
	e.once.Do(func() { e.build(t) })
	return e.contract, e.err
}

func (e *registryEntry) build(t reflect.Type) {
	c, err := buildContract(t)
	if err == nil {
		err = c.Freeze()
	}
	if err != nil {
		e.err = errors.Wrapf(err, "building contract of %s", t)
		return
	}
	e.contract = c
	level.Debug(logger).Log("msg", "resolved contract", "type", t, "properties", len(c.properties), "inline_words", c.inlineWords, "slots", c.slotCount)
}

// RegisterContract registers c with the process-wide registry.
func RegisterContract(c *ObjectContract) error {
	return defaultRegistry.Register(c)
}

// ResolveContract returns the contract of t from the process-wide registry.
func ResolveContract(t reflect.Type) (*ObjectContract, error) {
	return defaultRegistry.ResolveContract(t)
}

// contractFor resolves t through the settings' resolver, then the process-wide registry.
func contractFor(s *Settings, t reflect.Type) (*ObjectContract, error) {
	if s.ContractResolver != nil {
		c, err := s.ContractResolver.ResolveContract(t)
		if err != nil || c != nil {
			return c, err
		}
	}
	return defaultRegistry.ResolveContract(t)
}
