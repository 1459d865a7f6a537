package seqjson

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

func (e *SyntaxError) Error() string {
	b := getBuilder()
	defer putBuilder(b)
	b.WriteString("json syntax error at offset ")
	b.WriteString(strconv.FormatInt(e.Offset, 10))
	if e.Line > 0 {
		b.WriteString(" (line ")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteByte(')')
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)

	return b.String()
}

func (e *SyntaxError) Unwrap() error { return e.err }

func (e *UnmarshalTypeError) Error() string {
	if e.Msg != "" {
		return "json: " + e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("json: cannot unmarshal %s into Go struct field %s of type %s",
			e.Value, e.Field, e.Type.String())
	}
	return fmt.Sprintf("json: cannot unmarshal %s into Go value of type %s", e.Value, e.Type.String())
}

func (e *SchemaError) Error() string { return "json: " + e.Msg }

func (e *SchemaError) Unwrap() error { return e.err }

func (e *WriteError) Error() string { return "json: " + e.Msg }

func (e *WriteError) Unwrap() error { return e.err }

// ### Core Functions ###

func settingsOf(opts []Option) *Settings {
	if len(opts) == 0 {
		return defaultSettings
	}
	return NewSettings(opts...)
}

// Marshal returns the JSON encoding of v.
func Marshal(v any, opts ...Option) ([]byte, error) {
	buf := NewSegmentBuffer(0)
	defer buf.Release()

	w := NewWriter(buf, settingsOf(opts))
	if err := w.WriteValue(v); err != nil {
		return nil, err
	}
	return buf.Bytes()
}

// Serialize is the typed form of Marshal.
func Serialize[T any](v T, opts ...Option) ([]byte, error) {
	buf := NewSegmentBuffer(0)
	defer buf.Release()

	w := NewWriter(buf, settingsOf(opts))
	if err := writeReflect(w, reflect.ValueOf(&v).Elem(), nil); err != nil {
		return nil, err
	}
	return buf.Bytes()
}

// MarshalTo streams the encoding of v to out, flushing whenever the buffered
// output cannot take the next token. Cancelling ctx stops the write; bytes
// flushed before that stay written.
func MarshalTo(ctx context.Context, out io.Writer, v any, opts ...Option) error {
	stream := NewStreamBuffer(out, DefaultSegmentSize)
	w := NewAsyncWriter(ctx, stream, settingsOf(opts))

	err := w.WriteValue(v)
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		discarded := stream.Discard()
		level.Debug(logger).Log("msg", "streaming write failed", "flushed", stream.Flushed(), "discarded", discarded, "err", err)
	}
	if rerr := stream.Release(); err == nil {
		err = rerr
	}
	return err
}

// Unmarshal parses data into the value v points to. The whole input must be
// one JSON value.
func Unmarshal(data []byte, v any, opts ...Option) error {
	return UnmarshalSequence(NewSequence(data), v, opts...)
}

// UnmarshalSequence is Unmarshal over segmented input.
func UnmarshalSequence(seq Sequence, v any, opts ...Option) error {
	r := NewReader(seq, settingsOf(opts))
	if err := r.ReadValue(v); err != nil {
		return err
	}
	return r.end()
}

// Deserialize parses data as a T.
func Deserialize[T any](data []byte, opts ...Option) (T, error) {
	var v T
	r := NewBytesReader(data, settingsOf(opts))
	if err := readReflect(r, reflect.ValueOf(&v).Elem(), nil); err != nil {
		return v, err
	}
	return v, r.end()
}

// Populate reads the next value into the existing target. Nested objects,
// maps and non-nil pointers are updated in place instead of being replaced.
func Populate[T any](r *Reader, target *T) error {
	if target == nil {
		return errors.Wrapf(ErrInvalidTarget, "cannot populate a nil %T", target)
	}
	return populateReflect(r, reflect.ValueOf(target).Elem())
}

// end checks nothing but whitespace follows the value read.
func (r *Reader) end() error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}
	if tok != TokenNone {
		return r.syntaxError(nil, "additional text encountered after finished reading JSON content")
	}
	return nil
}
