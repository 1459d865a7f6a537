package seqjson

import (
	"bytes"
	"encoding/binary"
)

const nameTableInitialMask = 31

// NameTable maps raw name bytes to a value. Keys are compared byte for byte and
// each distinct key is stored once: adding a key that is already present keeps
// the first value.
type NameTable[V any] struct {
	buckets []*nameEntry[V] // 24 bytes (ptr + len + cap)
	mask    uint32          // 4 bytes
	count   uint32          // 4 bytes
}

type nameEntry[V any] struct {
	key   []byte
	value V
	next  *nameEntry[V]
	hash  uint32
}

func NewNameTable[V any]() *NameTable[V] {
	return &NameTable[V]{
		buckets: make([]*nameEntry[V], nameTableInitialMask+1),
		mask:    nameTableInitialMask,
	}
}

func (t *NameTable[V]) Len() int { return int(t.count) }

// Find returns the value stored for key.
func (t *NameTable[V]) Find(key []byte) (V, bool) {
	hash := hashName(key)
	for e := t.buckets[hash&t.mask]; e != nil; e = e.next {
		if e.hash == hash && bytes.Equal(e.key, key) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Add stores a copy of key with value and returns the value now associated
// with key, which is the earlier one if key was already present.
func (t *NameTable[V]) Add(key []byte, value V) V {
	hash := hashName(key)
	for e := t.buckets[hash&t.mask]; e != nil; e = e.next {
		if e.hash == hash && bytes.Equal(e.key, key) {
			return e.value
		}
	}

	i := hash & t.mask
	owned := append([]byte(nil), key...)
	t.buckets[i] = &nameEntry[V]{key: owned, value: value, hash: hash, next: t.buckets[i]}
	t.count++
	if t.count >= t.mask {
		t.grow()
	}
	return value
}

func (t *NameTable[V]) grow() {
	mask := t.mask*2 + 1
	buckets := make([]*nameEntry[V], mask+1)

	for _, e := range t.buckets {
		for e != nil {
			next := e.next
			i := e.hash & mask
			e.next = buckets[i]
			buckets[i] = e
			e = next
		}
	}

	t.buckets = buckets
	t.mask = mask
}

// hashName reads key in 4-byte words, then a 2-byte and a 1-byte tail, and
// finishes with a shift avalanche.
func hashName(key []byte) uint32 {
	hash := uint32(len(key))

	for len(key) >= 4 {
		hash += (hash << 7) ^ binary.LittleEndian.Uint32(key)
		key = key[4:]
	}
	if len(key) >= 2 {
		hash += (hash << 7) ^ uint32(binary.LittleEndian.Uint16(key))
		key = key[2:]
	}
	if len(key) > 0 {
		hash += (hash << 7) ^ uint32(key[0])
	}

	hash -= hash >> 17
	hash -= hash >> 11
	hash -= hash >> 5

	return hash
}
