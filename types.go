package seqjson

import (
	"reflect"

	"github.com/pkg/errors"
)

// ### Type Definitions ###

// Marshaler is the interface implemented by types that write themselves to a Writer.
type Marshaler interface {
	WriteJSON(w *Writer) error
}

// Unmarshaler is the interface implemented by types that read themselves from a Reader.
// The reader is positioned on the first token of the value.
type Unmarshaler interface {
	ReadJSON(r *Reader) error
}

var (
	// Syntax
	ErrMissingComma  = errors.New("missing comma")
	ErrUnexpectedEnd = errors.New("unexpected end of JSON input")
	ErrMaxDepth      = errors.New("maximum depth exceeded")
	ErrTooLarge      = errors.New("value exceeds the configured maximum size")

	// Schema
	ErrRequired       = errors.New("missing required property")
	ErrReadOnly       = errors.New("read only property")
	ErrNoConstructor  = errors.New("no suitable constructor")
	ErrContractFrozen = errors.New("contract is frozen")

	// Graph and writer state
	ErrSelfReferencingLoop = errors.New("self referencing loop detected")
	ErrInvalidWriteState   = errors.New("invalid writer state")
	ErrInvalidTarget       = errors.New("target must be a non-nil pointer")

	// Resources
	ErrReleased        = errors.New("buffer has been released")
	ErrUnflushed       = errors.New("you must call Flush before calling Release")
	ErrAdvanceOverflow = errors.New("cannot advance past the end of the buffer")
)

// SyntaxError optimized for 8-byte alignment
type SyntaxError struct {
	Msg    string // 16 bytes (ptr + len)
	err    error  // 16 bytes (interface)
	Offset int64  // 8 bytes
	Line   int    // 8 bytes
}

// UnmarshalTypeError with fields arranged from largest to smallest
type UnmarshalTypeError struct {
	Type   reflect.Type // 16 bytes (interface)
	Value  string       // 16 bytes (ptr + len)
	Field  string       // 16 bytes (ptr + len)
	Msg    string       // 16 bytes (ptr + len)
	Offset int64        // 8 bytes
}

// SchemaError reports a value that does not satisfy a type's contract.
type SchemaError struct {
	Type     reflect.Type // 16 bytes (interface)
	err      error        // 16 bytes (interface)
	Property string       // 16 bytes (ptr + len)
	Msg      string       // 16 bytes (ptr + len)
}

// WriteError reports a misuse of a Writer or a graph that cannot be written.
type WriteError struct {
	err   error // 16 bytes (interface)
	Msg   string
	Depth int
}
