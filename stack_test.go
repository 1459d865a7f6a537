package seqjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerStack(t *testing.T) {
	s := newContainerStack(200)
	require.Equal(t, TokenNone, s.top())

	// alternate kinds across the inline word and the tail
	for i := 0; i < 200; i++ {
		require.True(t, s.push(i%3 == 0))
	}
	require.False(t, s.push(true))
	require.Equal(t, 200, s.depth())

	for i := 199; i >= 0; i-- {
		want := TokenStartArray
		if i%3 == 0 {
			want = TokenStartObject
		}
		require.Equal(t, want, s.top(), "level %d", i)
		object, ok := s.pop()
		require.True(t, ok)
		require.Equal(t, i%3 == 0, object)
	}
	_, ok := s.pop()
	require.False(t, ok)
}

func TestContainerStackDefaultDepth(t *testing.T) {
	s := newContainerStack(0)
	for i := 0; i < DefaultMaxDepth; i++ {
		require.True(t, s.push(false))
	}
	require.False(t, s.push(false))
}
