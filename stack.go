package seqjson

// DefaultMaxDepth is the nesting limit used when Settings.MaxDepth is zero.
const DefaultMaxDepth = 64

// containerStack tracks open containers one bit per level: 1 for an object, 0 for an array.
// The first 64 levels live in head so the common case never allocates.
type containerStack struct {
	head  uint64   // 8 bytes
	tail  []uint64 // 24 bytes (ptr + len + cap)
	count int      // 8 bytes
	max   int      // 8 bytes
}

func newContainerStack(maxDepth int) containerStack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return containerStack{max: maxDepth}
}

func (s *containerStack) depth() int { return s.count }

// push opens a container. It fails once the stack already holds max levels.
func (s *containerStack) push(object bool) bool {
	if s.count >= s.max {
		return false
	}
	word, bit := s.count>>6, uint(s.count&63)
	p := &s.head
	if word > 0 {
		for len(s.tail) < word {
			s.tail = append(s.tail, 0)
		}
		p = &s.tail[word-1]
	}
	if object {
		*p |= 1 << bit
	} else {
		*p &^= 1 << bit
	}
	s.count++
	return true
}

// pop closes the innermost container and reports its kind.
func (s *containerStack) pop() (object bool, ok bool) {
	if s.count == 0 {
		return false, false
	}
	object = s.inObject()
	s.count--
	return object, true
}

// top reports the innermost container kind: TokenStartObject, TokenStartArray or TokenNone.
func (s *containerStack) top() Token {
	if s.count == 0 {
		return TokenNone
	}
	if s.inObject() {
		return TokenStartObject
	}
	return TokenStartArray
}

func (s *containerStack) inObject() bool {
	if s.count == 0 {
		return false
	}
	i := s.count - 1
	word, bit := i>>6, uint(i&63)
	w := s.head
	if word > 0 {
		w = s.tail[word-1]
	}
	return w&(1<<bit) != 0
}

func (s *containerStack) inArray() bool {
	return s.count > 0 && !s.inObject()
}

func (s containerStack) clone() containerStack {
	if len(s.tail) > 0 {
		s.tail = append([]uint64(nil), s.tail...)
	}
	return s
}
