package seqjson

import (
	"context"
)

// AsyncWriter is a Writer over an AsyncOutput. Each token is buffered whole;
// when the free capacity cannot hold the next token the buffered bytes are
// flushed to the sink first, so a token is never split across flushes.
// Cancelling ctx aborts the flush in progress and every later write.
type AsyncWriter struct {
	Writer
}

// NewAsyncWriter returns a writer that flushes out under ctx.
func NewAsyncWriter(ctx context.Context, out AsyncOutput, settings *Settings) *AsyncWriter {
	w := &AsyncWriter{}
	w.init(out, settings)
	w.sink = out
	w.ctx = ctx
	return w
}

// Flush pushes everything buffered so far to the sink.
func (w *AsyncWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.sink.Flush(w.ctx); err != nil {
		return w.fail(err)
	}
	return nil
}

// Context returns the context flushes run under.
func (w *AsyncWriter) Context() context.Context { return w.ctx }
