package seqjson_test

import (
	"bytes"
	"testing"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/require"

	"seqjson"
)

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	seqjson.SetLogger(level.NewFilter(log.NewLogfmtLogger(&buf), level.AllowDebug()))
	defer seqjson.SetLogger(nil)

	c := seqjson.NewObjectContract[gadget]()
	seqjson.AddProperty(c, "A", func(g *gadget) int { return g.a }, nil)
	require.NoError(t, seqjson.NewRegistry().Register(c))

	out := buf.String()
	require.Contains(t, out, `level=debug msg="registered contract" type=seqjson_test.gadget properties=1`)

	buf.Reset()
	seqjson.SetLogger(level.NewFilter(log.NewLogfmtLogger(&buf), level.AllowInfo()))
	c = seqjson.NewObjectContract[gadget]()
	seqjson.AddProperty(c, "A", func(g *gadget) int { return g.a }, nil)
	require.NoError(t, seqjson.NewRegistry().Register(c))
	require.Empty(t, buf.String())
}
