package seqjson

import (
	"context"
	"io"
	"time"

	"github.com/go-kit/log/level"
)

// AsyncOutput is a BufferWriter whose bytes are periodically pushed to an
// external sink. Flush is the only operation that performs I/O.
type AsyncOutput interface {
	BufferWriter
	// Buffered returns the number of committed bytes not yet flushed.
	Buffered() int
	// Available returns the free capacity usable without growing.
	Available() int
	Flush(ctx context.Context) error
}

// ContextWriter is implemented by sinks whose writes can observe cancellation.
type ContextWriter interface {
	WriteContext(ctx context.Context, p []byte) (int, error)
}

// flushChunkSize bounds each sink write so cancellation is observed between chunks.
const flushChunkSize = 16 * 1024

// StreamBuffer is an AsyncOutput over an io.Writer backed by one pooled buffer.
type StreamBuffer struct {
	w        io.Writer // 16 bytes (interface)
	buf      *Buffer   // 8 bytes (ptr)
	flushed  int64     // 8 bytes
	released bool      // 1 byte (padded to 8)
}

// NewStreamBuffer returns a StreamBuffer writing to w with an initial
// capacity of size bytes (DefaultSegmentSize when zero).
func NewStreamBuffer(w io.Writer, size int) *StreamBuffer {
	if size <= 0 {
		size = DefaultSegmentSize
	}
	return &StreamBuffer{w: w, buf: getBufferSize(size)}
}

func (s *StreamBuffer) GetSpan(sizeHint int) ([]byte, error) {
	if s.released {
		return nil, ErrReleased
	}
	if sizeHint < 1 {
		sizeHint = 1
	}
	if s.buf.available() < sizeHint {
		s.buf.grow(sizeHint)
	}
	return s.buf.span(), nil
}

func (s *StreamBuffer) Advance(n int) error {
	if s.released {
		return ErrReleased
	}
	if n < 0 || n > s.buf.available() {
		return ErrAdvanceOverflow
	}
	s.buf.off += n
	return nil
}

func (s *StreamBuffer) Buffered() int {
	if s.released {
		return 0
	}
	return s.buf.off
}

func (s *StreamBuffer) Available() int {
	if s.released {
		return 0
	}
	return s.buf.available()
}

// Flushed returns the number of bytes handed to the sink so far.
func (s *StreamBuffer) Flushed() int64 { return s.flushed }

// Flush writes the buffered bytes to the sink. A cancelled ctx stops the
// write between chunks; bytes already written stay written and the unwritten
// remainder is kept at the front of the buffer.
func (s *StreamBuffer) Flush(ctx context.Context) error {
	if s.released {
		return ErrReleased
	}
	if s.buf.off == 0 {
		return ctx.Err()
	}

	start := time.Now()
	data := s.buf.Bytes()
	written := 0
	var err error
	for written < len(data) {
		if err = ctx.Err(); err != nil {
			break
		}
		chunk := data[written:min(written+flushChunkSize, len(data))]
		var n int
		if cw, ok := s.w.(ContextWriter); ok {
			n, err = cw.WriteContext(ctx, chunk)
		} else {
			n, err = s.w.Write(chunk)
		}
		written += n
		if err == nil && n < len(chunk) {
			err = io.ErrShortWrite
		}
		if err != nil {
			break
		}
	}

	s.flushed += int64(written)
	remaining := copy(s.buf.buf[:cap(s.buf.buf)], data[written:])
	s.buf.off = remaining

	level.Debug(logger).Log("msg", "flushed stream buffer", "bytes", written, "pending", remaining, "duration", time.Since(start), "err", err)
	return err
}

// Discard drops the bytes not yet flushed, for abandoning a failed write.
func (s *StreamBuffer) Discard() int {
	if s.released {
		return 0
	}
	n := s.buf.off
	s.buf.Reset()
	return n
}

// Release returns the buffer to the pool. Unflushed bytes make this a misuse
// and the buffer is kept so the caller can still flush.
func (s *StreamBuffer) Release() error {
	if s.released {
		return ErrReleased
	}
	if s.buf.off > 0 {
		return ErrUnflushed
	}
	putBuffer(s.buf)
	s.buf = nil
	s.released = true
	return nil
}
