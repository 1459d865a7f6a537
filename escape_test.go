package seqjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapedLength(t *testing.T) {
	for _, s := range []string{
		"",
		"plain ascii",
		"tab\tand \"quotes\"",
		"<html> & friends",
		"\x00\x1f",
		"snow \u2603",
		"sep \u2028 \u2029",
		"broken \xff\xfe utf8",
		"emoji \U0001F600 \\ end",
	} {
		out := appendEscaped(nil, s)
		require.Equal(t, len(out), escapedLength(s), "%q", s)
	}
}

func TestAppendEscaped(t *testing.T) {
	require.Equal(t, `a\"b\\c\n`, string(appendEscaped(nil, "a\"b\\c\n")))
	require.Equal(t, `\u003cb\u003e\u0026`, string(appendEscaped(nil, "<b>&")))
	require.Equal(t, `x\ufffdy`, string(appendEscaped(nil, "x\xffy")))
	require.Equal(t, `\u2028`, string(appendEscaped(nil, "\u2028")))
	require.Equal(t, "prefix:\u00e9", string(appendEscaped([]byte("prefix:"), "\u00e9")))
}

