package seqjson_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"seqjson"
)

func TestObjectReader(t *testing.T) {
	data := []byte(`{"a":1,"b":{"X":[1,2,{"y":null}]},"d":"text","a":2}`)
	for _, seq := range []seqjson.Sequence{seqjson.NewSequence(data), seqjson.ChunkSequence(data, 3)} {
		or, err := seqjson.NewObjectReader(seq, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "d"}, or.PropertyNames())
		require.True(t, or.Has("d"))
		require.False(t, or.Has("c"))

		d, err := seqjson.ReadObjectProperty[string](or, "d")
		require.NoError(t, err)
		require.Equal(t, "text", d)

		type inner struct{ X []any }
		b, err := seqjson.ReadObjectProperty[inner](or, "b")
		require.NoError(t, err)
		require.Equal(t, inner{X: []any{1.0, 2.0, map[string]any{"y": nil}}}, b)

		// the last occurrence wins
		a, err := seqjson.ReadObjectProperty[int](or, "a")
		require.NoError(t, err)
		require.Equal(t, 2, a)

		// reads can repeat
		d, err = seqjson.ReadObjectProperty[string](or, "d")
		require.NoError(t, err)
		require.Equal(t, "text", d)

		_, err = seqjson.ReadObjectProperty[int](or, "c")
		require.True(t, errors.Is(err, seqjson.ErrPropertyNotFound))

		_, err = seqjson.ReadObjectProperty[int](or, "d")
		var ute *seqjson.UnmarshalTypeError
		require.True(t, errors.As(err, &ute), "%v", err)
	}
}

func TestObjectReaderRejectsInvalidInput(t *testing.T) {
	for _, doc := range []string{`[1]`, `{"a":1`, `{"a":1} {}`, `{"a":}`, ``} {
		_, err := seqjson.NewObjectReader(seqjson.NewSequence([]byte(doc)), nil)
		require.Error(t, err, doc)
	}
}
