package seqjson

import (
	"context"
	"fmt"
	"reflect"
)

// circularGuardDepth is the write depth above which reference values are
// tracked for cycles.
const circularGuardDepth = 10

// Writer emits JSON tokens into a BufferWriter. It validates structure as it
// goes: containers must be closed in order, property names only appear in
// objects and every name is followed by exactly one value. The first error is
// sticky and makes the writer unusable.
type Writer struct {
	out      BufferWriter    // 16 bytes (interface)
	sink     AsyncOutput     // 16 bytes (interface), nil for synchronous writers
	ctx      context.Context // 16 bytes (interface)
	err      error           // 16 bytes (interface)
	settings *Settings       // 8 bytes (ptr)
	guard    map[guardKey]struct{}
	stack    containerStack

	pendingName bool // a property name was written, its value comes next
	hasValue    bool // the innermost container already holds an element
}

type guardKey struct {
	typ reflect.Type
	ptr uintptr
	len int // slices sharing a backing array differ by length
}

// NewWriter returns a synchronous Writer appending to out. A nil settings
// uses DefaultSettings.
func NewWriter(out BufferWriter, settings *Settings) *Writer {
	w := &Writer{}
	w.init(out, settings)
	return w
}

func (w *Writer) init(out BufferWriter, settings *Settings) {
	w.out = out
	w.settings = orDefault(settings)
	w.stack = newContainerStack(w.settings.maxDepth())
}

func (w *Writer) Settings() *Settings { return w.settings }

// Depth returns the number of open containers.
func (w *Writer) Depth() int { return w.stack.depth() }

// Err returns the error that stopped the writer, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}

func (w *Writer) stateError(format string, args ...interface{}) error {
	return w.fail(&WriteError{Msg: fmt.Sprintf(format, args...), Depth: w.stack.depth(), err: ErrInvalidWriteState})
}

// reserve returns an empty slice with room for n bytes. An async writer
// flushes its sink first when n does not fit the free capacity; this is the
// only place a write waits on I/O.
func (w *Writer) reserve(n int) ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.sink != nil && w.sink.Available() < n && w.sink.Buffered() > 0 {
		if err := w.sink.Flush(w.ctx); err != nil {
			return nil, w.fail(err)
		}
	}
	span, err := w.out.GetSpan(n)
	if err != nil {
		return nil, w.fail(err)
	}
	return span[:0], nil
}

// commit advances past dst, which was appended to a slice from reserve.
func (w *Writer) commit(span, dst []byte) error {
	if len(dst) <= cap(span) {
		if err := w.out.Advance(len(dst)); err != nil {
			return w.fail(err)
		}
		return nil
	}

	// The size estimate was short and append moved dst; copy it across spans.
	for len(dst) > 0 {
		s, err := w.out.GetSpan(len(dst))
		if err != nil {
			return w.fail(err)
		}
		n := copy(s, dst)
		if err := w.out.Advance(n); err != nil {
			return w.fail(err)
		}
		dst = dst[n:]
	}
	return nil
}

// prefixSize is the upper bound of what appendPrefix writes.
func (w *Writer) prefixSize() int {
	if w.pendingName {
		return 1
	}
	depth := w.stack.depth()
	if depth == 0 {
		return 0
	}
	n := 1
	switch w.settings.Format {
	case FormatWhiteSpace:
		n++
	case FormatIndented:
		n += 1 + depth*w.settings.IndentSize
	}
	return n
}

// appendPrefix writes the separator and whitespace that precede an element.
func (w *Writer) appendPrefix(dst []byte) []byte {
	if w.pendingName {
		if w.settings.Format != FormatNone {
			dst = append(dst, ' ')
		}
		return dst
	}
	depth := w.stack.depth()
	if depth == 0 {
		return dst
	}
	if w.hasValue {
		dst = append(dst, ',')
	}
	switch w.settings.Format {
	case FormatWhiteSpace:
		dst = append(dst, ' ')
	case FormatIndented:
		dst = w.appendNewline(dst, depth)
	}
	return dst
}

func (w *Writer) appendNewline(dst []byte, depth int) []byte {
	dst = append(dst, '\n')
	for i := depth * w.settings.IndentSize; i > 0; i-- {
		dst = append(dst, ' ')
	}
	return dst
}

// checkValue verifies a value may be written at the current position.
func (w *Writer) checkValue() error {
	if w.err != nil {
		return w.err
	}
	if w.stack.inObject() && !w.pendingName {
		return w.stateError("cannot write a value in an object without a property name")
	}
	return nil
}

func (w *Writer) completeValue() {
	w.pendingName = false
	w.hasValue = true
}

// writeLiteral writes a complete value token such as null or true.
func (w *Writer) writeLiteral(lit []byte) error {
	if err := w.checkValue(); err != nil {
		return err
	}
	span, err := w.reserve(w.prefixSize() + len(lit))
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	dst = append(dst, lit...)
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.completeValue()
	return nil
}

func (w *Writer) writeStart(object bool) error {
	if err := w.checkValue(); err != nil {
		return err
	}
	if w.stack.depth() >= w.stack.max {
		return w.fail(&WriteError{
			Msg:   fmt.Sprintf("the writer's max depth of %d has been exceeded", w.stack.max),
			Depth: w.stack.depth(),
			err:   ErrMaxDepth,
		})
	}
	span, err := w.reserve(w.prefixSize() + 1)
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	if object {
		dst = append(dst, '{')
	} else {
		dst = append(dst, '[')
	}
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.stack.push(object)
	w.pendingName = false
	w.hasValue = false
	return nil
}

func (w *Writer) writeEnd(object bool) error {
	if w.err != nil {
		return w.err
	}
	expected := TokenStartArray
	if object {
		expected = TokenStartObject
	}
	if top := w.stack.top(); top != expected {
		return w.stateError("cannot close %s while the innermost container is %s", expected, top)
	}
	if w.pendingName {
		return w.stateError("property name without a value before the end of the object")
	}

	depth := w.stack.depth()
	span, err := w.reserve(2 + (depth-1)*w.settings.IndentSize)
	if err != nil {
		return err
	}
	dst := span
	if w.hasValue {
		switch w.settings.Format {
		case FormatWhiteSpace:
			dst = append(dst, ' ')
		case FormatIndented:
			dst = w.appendNewline(dst, depth-1)
		}
	}
	if object {
		dst = append(dst, '}')
	} else {
		dst = append(dst, ']')
	}
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.stack.pop()
	w.completeValue()
	return nil
}

func (w *Writer) WriteStartObject() error { return w.writeStart(true) }
func (w *Writer) WriteEndObject() error   { return w.writeEnd(true) }
func (w *Writer) WriteStartArray() error  { return w.writeStart(false) }
func (w *Writer) WriteEndArray() error    { return w.writeEnd(false) }

func (w *Writer) checkName() error {
	if w.err != nil {
		return w.err
	}
	if !w.stack.inObject() {
		return w.stateError("cannot write a property name outside of an object")
	}
	if w.pendingName {
		return w.stateError("cannot write a property name after another property name")
	}
	return nil
}

// WritePropertyName writes name verbatim, without applying the naming strategy.
func (w *Writer) WritePropertyName(name string) error {
	if err := w.checkName(); err != nil {
		return err
	}
	span, err := w.reserve(w.prefixSize() + escapedLength(name) + 3)
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	dst = append(dst, '"')
	dst = appendEscaped(dst, name)
	dst = append(dst, '"', ':')
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.pendingName = true
	return nil
}

// writeName writes the precomputed bytes of name for the active strategy.
func (w *Writer) writeName(name *PropertyName) error {
	if err := w.checkName(); err != nil {
		return err
	}
	enc := name.Encoded(w.settings.NamingStrategy)
	span, err := w.reserve(w.prefixSize() + len(enc))
	if err != nil {
		return err
	}
	dst := w.appendPrefix(span)
	dst = append(dst, enc...)
	if err := w.commit(span, dst); err != nil {
		return err
	}
	w.pendingName = true
	return nil
}

// beginGuard registers a reference value as being written. The returned
// callback removes the registration and must run once the value's write has
// completed. Values seen again before that fail with ErrSelfReferencingLoop.
func (w *Writer) beginGuard(v reflect.Value) (func(), error) {
	key := guardKey{typ: v.Type(), ptr: v.Pointer()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}
	if w.guard == nil {
		w.guard = make(map[guardKey]struct{})
	}
	if _, ok := w.guard[key]; ok {
		return nil, w.fail(&WriteError{
			Msg:   fmt.Sprintf("self referencing loop detected with type %s", key.typ),
			Depth: w.stack.depth(),
			err:   ErrSelfReferencingLoop,
		})
	}
	w.guard[key] = struct{}{}
	return func() { delete(w.guard, key) }, nil
}

// guarded runs write for v, tracking v for cycles when the writer is deep
// enough and v is a reference.
func (w *Writer) guarded(v reflect.Value, write func() error) error {
	if w.stack.depth() <= circularGuardDepth {
		return write()
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return write()
		}
	default:
		return write()
	}

	done, err := w.beginGuard(v)
	if err != nil {
		return err
	}
	err = write()
	done()
	return err
}
