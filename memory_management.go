package seqjson

import (
	"strings"
	"sync"

	"github.com/vmihailenco/bufpool"
)

// Buffer is one pooled chunk of output: written bytes are buf[:off], the
// rest of the capacity is free.
type Buffer struct {
	buf []byte // 24 bytes (ptr + len + cap)
	off int    // 8 bytes
}

var (
	builderPool = sync.Pool{
		New: func() interface{} {
			return &strings.Builder{}
		},
	}
	tinyBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 64)}
		},
	}
	smallBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 256)}
		},
	}
	mediumBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 1024)}
		},
	}
	largeBuffers = sync.Pool{
		New: func() interface{} {
			return &Buffer{buf: make([]byte, 0, 4096)}
		},
	}

	// Spill space for tokens that straddle segment boundaries.
	scratchPool bufpool.Pool
)

// ### Buffer Pool Management ###

// WarmupPools pre-fills the segment pools so the first writes of a process do not allocate.
func WarmupPools() {
	for i := 0; i < 32; i++ {
		tinyBuffers.Put(&Buffer{buf: make([]byte, 0, 64)})
		smallBuffers.Put(&Buffer{buf: make([]byte, 0, 256)})
		mediumBuffers.Put(&Buffer{buf: make([]byte, 0, 1024)})
	}

	for i := 0; i < 4; i++ {
		largeBuffers.Put(&Buffer{buf: make([]byte, 0, 4096)})
	}
}

// getBufferSize returns a buffer with at least the specified capacity
func getBufferSize(sizeHint int) *Buffer {
	var buf *Buffer

	if sizeHint <= 64 {
		buf = tinyBuffers.Get().(*Buffer)
	} else if sizeHint <= 256 {
		buf = smallBuffers.Get().(*Buffer)
	} else if sizeHint <= 1024 {
		buf = mediumBuffers.Get().(*Buffer)
	} else {
		// Round up to a power of two above the 4KB tier
		sizeHint--
		sizeHint |= sizeHint >> 1
		sizeHint |= sizeHint >> 2
		sizeHint |= sizeHint >> 4
		sizeHint |= sizeHint >> 8
		sizeHint |= sizeHint >> 16
		sizeHint++

		if sizeHint > 65536 {
			// Oversized chunks are page aligned and never pooled
			alignedSize := (sizeHint + 4095) &^ 4095
			buf = &Buffer{buf: make([]byte, 0, alignedSize)}
		} else {
			buf = largeBuffers.Get().(*Buffer)
			if cap(buf.buf) < sizeHint {
				buf.buf = make([]byte, 0, sizeHint)
			}
		}
	}

	buf.buf = buf.buf[:0]
	buf.off = 0

	return buf
}

// putBuffer returns a buffer to the pool matching its capacity.
func putBuffer(buf *Buffer) {
	if buf == nil || cap(buf.buf) > 65536 {
		return
	}
	buf.Reset()

	switch {
	case cap(buf.buf) < 256:
		tinyBuffers.Put(buf)
	case cap(buf.buf) < 1024:
		smallBuffers.Put(buf)
	case cap(buf.buf) < 4096:
		mediumBuffers.Put(buf)
	default:
		largeBuffers.Put(buf)
	}
}

func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Bytes returns the written part of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.off]
}

func (b *Buffer) available() int {
	return cap(b.buf) - b.off
}

// span returns the free capacity as a writable slice.
func (b *Buffer) span() []byte {
	return b.buf[b.off:cap(b.buf)]
}

// grow makes room for n more bytes, keeping what was written.
func (b *Buffer) grow(n int) {
	needed := b.off + n
	if needed <= cap(b.buf) {
		return
	}

	curCap := cap(b.buf)
	var newCap int

	if curCap == 0 {
		newCap = 64
		for newCap < needed {
			newCap <<= 1
		}
	} else if curCap < 512 {
		newCap = max(curCap*4, needed)
		newCap--
		newCap |= newCap >> 1
		newCap |= newCap >> 2
		newCap |= newCap >> 4
		newCap |= newCap >> 8
		newCap++
	} else if curCap < 8192 {
		newCap = max(curCap*2, needed)
	} else {
		newCap = max(curCap+(curCap/2), needed)
	}

	const maxBufferSize = 32 * 1024 * 1024
	if newCap > maxBufferSize && needed <= maxBufferSize {
		newCap = maxBufferSize
	}

	newBuf := make([]byte, b.off, newCap)
	copy(newBuf, b.buf[:b.off])
	b.buf = newBuf
}

// ### Builder Management ###

func getBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

func putBuilder(b *strings.Builder) {
	if b.Cap() > 4096 {
		return
	}
	builderPool.Put(b)
}
