package seqjson_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"seqjson"
)

func transcode(t *testing.T, in string, format seqjson.Format) (string, error) {
	t.Helper()
	buf := seqjson.NewSegmentBuffer(16)
	defer buf.Release()

	r := seqjson.NewReader(seqjson.ChunkSequence([]byte(in), 5), nil)
	w := seqjson.NewWriter(buf, seqjson.NewSettings(seqjson.WithFormat(format)))
	if err := seqjson.Transcode(w, r); err != nil {
		return "", err
	}
	out, err := buf.Bytes()
	require.NoError(t, err)
	return string(out), nil
}

func TestTranscode(t *testing.T) {
	const doc = `{"id":12345678901234567890,"price":1.50,"tags":["a","b\n"],"nested":{"empty":{},"list":[],"ok":true,"none":null},"exp":1e400}`

	compact, err := transcode(t, doc, seqjson.FormatNone)
	require.NoError(t, err)
	require.Equal(t, doc, compact)

	indented, err := transcode(t, doc, seqjson.FormatIndented)
	require.NoError(t, err)
	require.Equal(t, doc, string(pretty.Ugly([]byte(indented))))
	require.Equal(t, "12345678901234567890", gjson.Get(indented, "id").Raw)
	require.Equal(t, "1.50", gjson.Get(indented, "price").Raw)
	require.Equal(t, "1e400", gjson.Get(indented, "exp").Raw)

	scalar, err := transcode(t, `  "just a string" `, seqjson.FormatIndented)
	require.NoError(t, err)
	require.Equal(t, `"just a string"`, scalar)
}

func TestTranscodeErrors(t *testing.T) {
	for _, doc := range []string{`{"a":[1,2}`, `{"a"`, `[1 2]`, ``} {
		_, err := transcode(t, doc, seqjson.FormatNone)
		require.Error(t, err, doc)
	}
}

func TestTranscodeInner(t *testing.T) {
	r := seqjson.NewBytesReader([]byte(`[{"keep":[1,2]},3]`), nil)
	require.NoError(t, r.ReadStartArray())

	buf := seqjson.NewSegmentBuffer(0)
	defer buf.Release()
	w := seqjson.NewWriter(buf, nil)
	require.NoError(t, seqjson.Transcode(w, r))

	out, err := buf.Bytes()
	require.NoError(t, err)
	require.Equal(t, `{"keep":[1,2]}`, string(out))

	n, err := r.ReadInt()
	require.NoError(t, err)
	require.Equal(t, 3, n)
}
