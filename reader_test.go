package seqjson_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqjson"
)

// readTokens drains r and describes every token it reads.
func readTokens(t *testing.T, r *seqjson.Reader) []string {
	t.Helper()
	var out []string
	for {
		tok, err := r.Peek()
		require.NoError(t, err)

		switch tok {
		case seqjson.TokenNone:
			return out
		case seqjson.TokenStartObject:
			require.NoError(t, r.ReadStartObject())
			out = append(out, "{")
		case seqjson.TokenEndObject:
			require.NoError(t, r.ReadEndObject())
			out = append(out, "}")
		case seqjson.TokenStartArray:
			require.NoError(t, r.ReadStartArray())
			out = append(out, "[")
		case seqjson.TokenEndArray:
			require.NoError(t, r.ReadEndArray())
			out = append(out, "]")
		case seqjson.TokenPropertyName:
			name, err := r.ReadPropertyName()
			require.NoError(t, err)
			out = append(out, "name:"+name)
		case seqjson.TokenString:
			s, err := r.ReadString()
			require.NoError(t, err)
			out = append(out, "string:"+s)
		case seqjson.TokenNumber:
			n, err := r.ReadNumber()
			require.NoError(t, err)
			out = append(out, "number:"+n.String())
		case seqjson.TokenBoolean:
			b, err := r.ReadBool()
			require.NoError(t, err)
			out = append(out, fmt.Sprintf("bool:%t", b))
		case seqjson.TokenNull:
			require.NoError(t, r.ReadNull())
			out = append(out, "null")
		}
	}
}

func TestReaderTokens(t *testing.T) {
	r := seqjson.NewBytesReader([]byte(` {"a": [1, "x", true, null], "b": {}, "c": -0.5e-3 } `), nil)
	require.Equal(t, []string{
		"{",
		"name:a", "[", "number:1", "string:x", "bool:true", "null", "]",
		"name:b", "{", "}",
		"name:c", "number:-0.5e-3",
		"}",
	}, readTokens(t, r))
	require.Equal(t, 0, r.Depth())
}

const boundaryDoc = "{\"name\":\"caf\\u00e9 \\\"q\\\" \\ud83d\\ude00 é \U0001F600\",\r\n" +
	"\t\"n\":-12.5e3,\"list\":[true,false,null,0,[]],\"esc\\u0041pe\":{\"k\":\"\\\\v\"}}"

func TestReaderSegmentBoundaries(t *testing.T) {
	data := []byte(boundaryDoc)
	want := readTokens(t, seqjson.NewBytesReader(data, nil))
	require.Equal(t, "string:café \"q\" \U0001F600 é \U0001F600", want[2])
	require.Contains(t, want, "name:escApe")

	for i := 1; i < len(data); i++ {
		got := readTokens(t, seqjson.NewReader(seqjson.SplitSequence(data, i), nil))
		require.Equal(t, want, got, "split at %d", i)

		got = readTokens(t, seqjson.NewReader(seqjson.SplitSequence(data, i, i+1), nil))
		require.Equal(t, want, got, "split at %d and %d", i, i+1)
	}
	for size := 1; size <= 8; size++ {
		got := readTokens(t, seqjson.NewReader(seqjson.ChunkSequence(data, size), nil))
		require.Equal(t, want, got, "chunks of %d", size)
	}

	// empty segments in between are skipped
	seq := seqjson.NewSequence(nil, data[:5], []byte{}, data[5:], nil)
	require.Equal(t, want, readTokens(t, seqjson.NewReader(seq, nil)))
}

func TestReaderSegmentedUnmarshal(t *testing.T) {
	data := []byte(boundaryDoc)
	var want map[string]any
	require.NoError(t, seqjson.Unmarshal(data, &want))

	for i := 1; i < len(data); i++ {
		var got map[string]any
		require.NoError(t, seqjson.UnmarshalSequence(seqjson.SplitSequence(data, i), &got), "split at %d", i)
		require.Equal(t, want, got, "split at %d", i)
	}
}

func TestReaderOffsetAndLine(t *testing.T) {
	r := seqjson.NewReader(seqjson.ChunkSequence([]byte("[\n  1,\n  2\n]"), 3), nil)
	require.NoError(t, r.ReadStartArray())
	_, err := r.ReadInt()
	require.NoError(t, err)
	require.Equal(t, int64(5), r.Offset())
	require.Equal(t, 2, r.Line())

	_, err = r.Peek()
	require.NoError(t, err)
	require.Equal(t, 3, r.Line())
}

func TestReaderMissingComma(t *testing.T) {
	for _, doc := range []string{`{"1":1 "2":2}`, `[1 2]`, `[{} []]`} {
		var v any
		err := seqjson.Unmarshal([]byte(doc), &v)
		require.Error(t, err, doc)
		require.True(t, errors.Is(err, seqjson.ErrMissingComma), "%s: %v", doc, err)

		var syntax *seqjson.SyntaxError
		require.True(t, errors.As(err, &syntax))
		require.Contains(t, syntax.Error(), "missing comma")
	}
}

func nested(depth int) []byte {
	return []byte(strings.Repeat("[", depth) + strings.Repeat("]", depth))
}

func TestReaderMaxDepth(t *testing.T) {
	var v any
	require.NoError(t, seqjson.Unmarshal(nested(seqjson.DefaultMaxDepth), &v))

	err := seqjson.Unmarshal(nested(seqjson.DefaultMaxDepth+1), &v)
	require.True(t, errors.Is(err, seqjson.ErrMaxDepth), "%v", err)
	require.Contains(t, err.Error(), "the reader's max depth of 64 has been exceeded")

	require.NoError(t, seqjson.Unmarshal(nested(2), &v, seqjson.WithMaxDepth(2)))
	err = seqjson.Unmarshal(nested(3), &v, seqjson.WithMaxDepth(2))
	require.True(t, errors.Is(err, seqjson.ErrMaxDepth), "%v", err)

	// Skip honors the limit too
	r := seqjson.NewBytesReader([]byte(`{"a":`+string(nested(3))+`}`), seqjson.NewSettings(seqjson.WithMaxDepth(3)))
	require.NoError(t, r.ReadStartObject())
	_, err = r.ReadPropertyName()
	require.NoError(t, err)
	require.True(t, errors.Is(r.Skip(), seqjson.ErrMaxDepth))
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{``, "unexpected end of JSON input"},
		{`   `, "unexpected end of JSON input"},
		{`[1,]`, "trailing comma"},
		{`{"a":1,}`, "trailing comma"},
		{`[,1]`, "unexpected ','"},
		{`"abc`, "unexpected end of JSON input"},
		{`{"a":1`, "unexpected end of JSON input"},
		{`{"a":`, "unexpected end of JSON input"},
		{`"\x"`, `invalid escape sequence \x`},
		{`"\u12G4"`, `invalid character 'G' in \u escape`},
		{"\"a\x01\"", "invalid control character"},
		{`01`, "invalid number"},
		{`-`, "invalid number"},
		{`1.`, "invalid number"},
		{`1e+`, "invalid number"},
		{`tru`, "invalid literal"},
		{`nul`, "invalid literal"},
		{`1 2`, "additional text encountered after finished reading JSON content"},
		{`{"a" 1}`, "expected ':' after property name"},
		{`{1:2}`, "found Number where a property name was expected"},
		{`[1}`, "found EndObject inside an array"},
		{`}`, "found EndObject where a value was expected"},
		{`@`, "unexpected character '@'"},
	}

	for _, tt := range tests {
		var v any
		err := seqjson.Unmarshal([]byte(tt.input), &v)
		require.Error(t, err, "input %q", tt.input)
		assert.Contains(t, err.Error(), tt.want, "input %q", tt.input)
	}

	var syntax *seqjson.SyntaxError
	err := seqjson.Unmarshal([]byte("[1,\n 2,\n x]"), new(any))
	require.True(t, errors.As(err, &syntax))
	assert.Equal(t, 3, syntax.Line)
	assert.Equal(t, int64(9), syntax.Offset)
}

func TestReaderTypeMismatch(t *testing.T) {
	var s string
	err := seqjson.Unmarshal([]byte(`42`), &s)
	var typeErr *seqjson.UnmarshalTypeError
	require.True(t, errors.As(err, &typeErr), "%v", err)
	assert.Contains(t, err.Error(), "found Number where String was expected")

	err = seqjson.Unmarshal([]byte(`null`), &s)
	require.True(t, errors.As(err, &typeErr), "%v", err)
	assert.Contains(t, err.Error(), "unexpected null when trying to read String")

	var p *string = &s
	require.NoError(t, seqjson.Unmarshal([]byte(`null`), &p))
	assert.Nil(t, p)

	err = seqjson.Unmarshal([]byte(`1`), s)
	require.True(t, errors.Is(err, seqjson.ErrInvalidTarget))
}

func TestReaderNumbers(t *testing.T) {
	var i8 int8
	err := seqjson.Unmarshal([]byte(`128`), &i8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value 128 overflows int8")
	require.NoError(t, seqjson.Unmarshal([]byte(`-128`), &i8))
	assert.Equal(t, int8(-128), i8)

	var u8 uint8
	require.Error(t, seqjson.Unmarshal([]byte(`256`), &u8))
	var u uint
	err = seqjson.Unmarshal([]byte(`-1`), &u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot read "-1" into uint`)

	var i64 int64
	require.Error(t, seqjson.Unmarshal([]byte(`1.5`), &i64))
	require.NoError(t, seqjson.Unmarshal([]byte(`-9223372036854775808`), &i64))
	assert.Equal(t, int64(math.MinInt64), i64)

	var f float64
	require.NoError(t, seqjson.Unmarshal([]byte(`1.25e2`), &f))
	assert.Equal(t, 125.0, f)
	err = seqjson.Unmarshal([]byte(`1e400`), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflows float64")

	for lit, want := range map[string]float64{`"Infinity"`: math.Inf(1), `"-Infinity"`: math.Inf(-1)} {
		require.NoError(t, seqjson.Unmarshal([]byte(lit), &f))
		assert.Equal(t, want, f)
	}
	require.NoError(t, seqjson.Unmarshal([]byte(`"NaN"`), &f))
	assert.True(t, math.IsNaN(f))
	require.Error(t, seqjson.Unmarshal([]byte(`"nan"`), &f))

	var n seqjson.Number
	require.NoError(t, seqjson.Unmarshal([]byte(`12345678901234567890.5`), &n))
	assert.Equal(t, seqjson.Number("12345678901234567890.5"), n)
	assert.False(t, n.IsInt())
}

func TestReaderStrings(t *testing.T) {
	var s string
	require.NoError(t, seqjson.Unmarshal([]byte(`"\"\\\/\b\f\n\r\té😀|\ud800|\udc00x"`), &s))
	assert.Equal(t, "\"\\/\b\f\n\r\té\U0001F600|�|�x", s)

	err := seqjson.Unmarshal([]byte(`"`+strings.Repeat("a", 20)+`"`), &s, seqjson.WithMaxStringSize(10))
	require.True(t, errors.Is(err, seqjson.ErrTooLarge), "%v", err)

	var b []byte
	require.NoError(t, seqjson.Unmarshal([]byte(`"aGVsbG8="`), &b))
	assert.Equal(t, []byte("hello"), b)
	err = seqjson.Unmarshal([]byte(`"not base64!"`), &b)
	var ute *seqjson.UnmarshalTypeError
	require.True(t, errors.As(err, &ute), "%v", err)
	assert.Equal(t, "json: invalid base64 string", err.Error())

	r := seqjson.NewBytesReader([]byte(`["x","\u00e9","xy",""]`), nil)
	require.NoError(t, r.ReadStartArray())
	for _, want := range []rune{'x', 0xe9} {
		c, err := r.ReadRune()
		require.NoError(t, err)
		assert.Equal(t, want, c)
	}
	for i := 0; i < 2; i++ {
		_, err := r.ReadRune()
		require.Error(t, err)
	}
}

func TestReaderSkip(t *testing.T) {
	doc := []byte(`{"a":{"b":[1,{"c":"d"}],"x":null},"e":2,"f":[true]}`)
	for size := 1; size <= len(doc); size += 7 {
		r := seqjson.NewReader(seqjson.ChunkSequence(doc, size), nil)
		require.NoError(t, r.ReadStartObject())

		name, err := r.ReadPropertyName()
		require.NoError(t, err)
		require.Equal(t, "a", name)
		require.NoError(t, r.Skip())

		name, err = r.ReadPropertyName()
		require.NoError(t, err)
		require.Equal(t, "e", name)
		n, err := r.ReadInt()
		require.NoError(t, err)
		require.Equal(t, 2, n)

		// Skip on a property name drops the name and its value
		require.NoError(t, r.Skip())
		require.NoError(t, r.ReadEndObject())

		tok, err := r.Peek()
		require.NoError(t, err)
		require.Equal(t, seqjson.TokenNone, tok)
	}
}

func TestReaderState(t *testing.T) {
	doc := []byte(`[10, 20, {"k": "v"}, 30]`)
	r := seqjson.NewReader(seqjson.ChunkSequence(doc, 3), nil)
	require.NoError(t, r.ReadStartArray())
	v, err := r.ReadInt()
	require.NoError(t, err)
	require.Equal(t, 10, v)

	state := r.State()
	v, err = r.ReadInt()
	require.NoError(t, err)
	require.Equal(t, 20, v)
	require.NoError(t, r.Skip())

	r.SetState(state)
	v, err = r.ReadInt()
	require.NoError(t, err)
	require.Equal(t, 20, v)

	var m map[string]string
	require.NoError(t, r.ReadValue(&m))
	require.Equal(t, map[string]string{"k": "v"}, m)
	v, err = r.ReadInt()
	require.NoError(t, err)
	require.Equal(t, 30, v)
	require.NoError(t, r.ReadEndArray())
}

func TestReaderRestoresNames(t *testing.T) {
	settings := seqjson.NewSettings(seqjson.WithNamingStrategy(seqjson.NamingSnakeCase))
	r := seqjson.NewBytesReader([]byte(`{"first_name":1,"last_login_time":2,"first_name":3}`), settings)
	require.Equal(t, []string{
		"{", "name:FirstName", "number:1", "name:LastLoginTime", "number:2", "name:FirstName", "number:3", "}",
	}, readTokens(t, r))

	settings = seqjson.NewSettings(seqjson.WithNamingStrategy(seqjson.NamingCamelCase))
	r = seqjson.NewBytesReader([]byte(`{"firstName":true}`), settings)
	require.Equal(t, []string{"{", "name:FirstName", "bool:true", "}"}, readTokens(t, r))
}

func TestReaderReadMismatch(t *testing.T) {
	r := seqjson.NewBytesReader([]byte(`{"a":1}`), nil)
	require.Error(t, r.ReadStartArray())

	r = seqjson.NewBytesReader([]byte(`[1]`), nil)
	require.NoError(t, r.ReadStartArray())
	require.Error(t, r.ReadEndObject())

	null, err := seqjson.NewBytesReader([]byte(`null`), nil).TryReadNull()
	require.NoError(t, err)
	require.True(t, null)
	null, err = seqjson.NewBytesReader([]byte(`0`), nil).TryReadNull()
	require.NoError(t, err)
	require.False(t, null)
}
