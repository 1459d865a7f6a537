package seqjson

// Sequence is a read-only view over one or more byte segments consumed front to back.
// The caller owns the memory; readers only hold a cursor into it.
type Sequence struct {
	segments [][]byte // 24 bytes (ptr + len + cap)
	length   int64    // 8 bytes
}

// NewSequence builds a sequence over segments in order. Empty segments are allowed.
func NewSequence(segments ...[]byte) Sequence {
	var n int64
	for _, s := range segments {
		n += int64(len(s))
	}
	return Sequence{segments: segments, length: n}
}

// SplitSequence views data as segments cut at the given ascending offsets.
// Offsets outside data or out of order are ignored.
func SplitSequence(data []byte, at ...int) Sequence {
	segments := make([][]byte, 0, len(at)+1)
	prev := 0
	for _, off := range at {
		if off <= prev || off >= len(data) {
			continue
		}
		segments = append(segments, data[prev:off:off])
		prev = off
	}
	segments = append(segments, data[prev:])
	return Sequence{segments: segments, length: int64(len(data))}
}

// ChunkSequence views data as segments of at most size bytes each.
func ChunkSequence(data []byte, size int) Sequence {
	if size <= 0 || size >= len(data) {
		return NewSequence(data)
	}
	segments := make([][]byte, 0, len(data)/size+1)
	for i := 0; i < len(data); i += size {
		end := min(i+size, len(data))
		segments = append(segments, data[i:end:end])
	}
	return Sequence{segments: segments, length: int64(len(data))}
}

func (s Sequence) Len() int64 { return s.length }

func (s Sequence) IsEmpty() bool { return s.length == 0 }

func (s Sequence) Segments() [][]byte { return s.segments }

// Bytes returns the sequence as one slice. A single-segment sequence returns
// its segment without copying.
func (s Sequence) Bytes() []byte {
	if len(s.segments) == 1 {
		return s.segments[0]
	}
	return AppendBuffers(s.segments)
}

func (s Sequence) String() string {
	return string(s.Bytes())
}

// AppendBuffers concatenates buffers into a freshly allocated slice.
func AppendBuffers(buffers [][]byte) []byte {
	totalSize := 0
	for _, b := range buffers {
		totalSize += len(b)
	}
	result := make([]byte, 0, totalSize)
	for _, b := range buffers {
		result = append(result, b...)
	}
	return result
}
