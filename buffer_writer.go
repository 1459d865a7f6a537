package seqjson

import (
	"io"
)

// BufferWriter is a growable output region. Callers request a span, write into
// it and commit the written prefix with Advance.
type BufferWriter interface {
	// GetSpan returns a writable slice of at least max(sizeHint, 1) bytes.
	GetSpan(sizeHint int) ([]byte, error)
	// Advance commits n bytes written into the last span.
	Advance(n int) error
}

// DefaultSegmentSize is the size of segments rented by a SegmentBuffer.
const DefaultSegmentSize = 4096

// SegmentBuffer is a BufferWriter backed by pooled segments that are chained
// rather than copied when more room is needed. The written data can be read
// back as a Sequence without copying.
type SegmentBuffer struct {
	sealed      []*Buffer // 24 bytes (ptr + len + cap)
	current     *Buffer   // 8 bytes (ptr)
	sealedBytes int       // 8 bytes
	segmentSize int       // 8 bytes
	released    bool      // 1 byte (padded to 8)
}

// NewSegmentBuffer returns an empty buffer renting segments of segmentSize
// bytes (DefaultSegmentSize when zero).
func NewSegmentBuffer(segmentSize int) *SegmentBuffer {
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}
	return &SegmentBuffer{segmentSize: segmentSize}
}

func (b *SegmentBuffer) GetSpan(sizeHint int) ([]byte, error) {
	if b.released {
		return nil, ErrReleased
	}
	if sizeHint < 1 {
		sizeHint = 1
	}
	if b.current != nil && b.current.available() >= sizeHint {
		return b.current.span(), nil
	}
	b.resize(sizeHint)
	return b.current.span(), nil
}

// resize replaces the current segment with one that has room for sizeHint bytes.
// A segment holding data is sealed into the chain; an empty one goes back to the pool.
func (b *SegmentBuffer) resize(sizeHint int) {
	if b.current != nil {
		if b.current.off == 0 {
			putBuffer(b.current)
		} else {
			b.sealed = append(b.sealed, b.current)
			b.sealedBytes += b.current.off
		}
	}
	b.current = getBufferSize(max(sizeHint, b.segmentSize))
}

func (b *SegmentBuffer) Advance(n int) error {
	if b.released {
		return ErrReleased
	}
	if n < 0 || b.current == nil && n > 0 || b.current != nil && n > b.current.available() {
		return ErrAdvanceOverflow
	}
	if n > 0 {
		b.current.off += n
	}
	return nil
}

// Len returns the number of committed bytes.
func (b *SegmentBuffer) Len() int {
	n := b.sealedBytes
	if b.current != nil {
		n += b.current.off
	}
	return n
}

// Sequence returns the committed bytes as a segmented view. The view is valid
// until the next Reset or Release.
func (b *SegmentBuffer) Sequence() (Sequence, error) {
	if b.released {
		return Sequence{}, ErrReleased
	}
	segments := make([][]byte, 0, len(b.sealed)+1)
	for _, s := range b.sealed {
		segments = append(segments, s.Bytes())
	}
	if b.current != nil && b.current.off > 0 {
		segments = append(segments, b.current.Bytes())
	}
	return NewSequence(segments...), nil
}

// Bytes returns a copy of the committed bytes.
func (b *SegmentBuffer) Bytes() ([]byte, error) {
	seq, err := b.Sequence()
	if err != nil {
		return nil, err
	}
	return AppendBuffers(seq.segments), nil
}

// WriteTo copies the committed bytes to w.
func (b *SegmentBuffer) WriteTo(w io.Writer) (int64, error) {
	seq, err := b.Sequence()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, s := range seq.segments {
		n, err := w.Write(s)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Reset drops the committed bytes, keeping one segment for reuse.
func (b *SegmentBuffer) Reset() error {
	if b.released {
		return ErrReleased
	}
	for _, s := range b.sealed {
		putBuffer(s)
	}
	b.sealed = b.sealed[:0]
	b.sealedBytes = 0
	if b.current != nil {
		b.current.Reset()
	}
	return nil
}

// Release returns every segment to the pool. The buffer cannot be used afterwards.
func (b *SegmentBuffer) Release() error {
	if b.released {
		return ErrReleased
	}
	for _, s := range b.sealed {
		putBuffer(s)
	}
	putBuffer(b.current)
	b.sealed = nil
	b.current = nil
	b.sealedBytes = 0
	b.released = true
	return nil
}
