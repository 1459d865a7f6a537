package seqjson_test

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"seqjson"
)

func TestLoadSettings(t *testing.T) {
	s, err := seqjson.LoadSettings([]byte(`
naming_strategy: snake_case
format: indented
serialize_nulls: true
max_depth: 32
indent_size: 4
`))
	require.NoError(t, err)
	require.Equal(t, seqjson.NamingSnakeCase, s.NamingStrategy)
	require.Equal(t, seqjson.FormatIndented, s.Format)
	require.True(t, s.SerializeNulls)
	require.Equal(t, 32, s.MaxDepth)
	require.Equal(t, 4, s.IndentSize)
	require.Equal(t, seqjson.DefaultMaxStringSize, s.MaxStringSize)

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	require.Contains(t, string(out), "naming_strategy: snake_case")
	require.Contains(t, string(out), "format: indented")

	back, err := seqjson.LoadSettings(out)
	require.NoError(t, err)
	require.Equal(t, s, back)
}

func TestLoadSettingsRejectsInvalid(t *testing.T) {
	for _, doc := range []string{
		`format: fancy`,
		`naming_strategy: kebab`,
		`max_depth: -1`,
		`max_string_size: -5`,
		`indent_size: 40`,
		`max_depth: [1]`,
	} {
		_, err := seqjson.LoadSettings([]byte(doc))
		require.Error(t, err, doc)
	}
}

func TestSettingsFlags(t *testing.T) {
	s := seqjson.DefaultSettings()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	s.RegisterFlagsWithPrefix("json.", fs)

	require.NoError(t, fs.Parse([]string{
		"-json.naming-strategy=camel",
		"-json.format=whitespace",
		"-json.serialize-nulls",
		"-json.max-depth=10",
	}))
	require.Equal(t, seqjson.NamingCamelCase, s.NamingStrategy)
	require.Equal(t, seqjson.FormatWhiteSpace, s.Format)
	require.True(t, s.SerializeNulls)
	require.Equal(t, 10, s.MaxDepth)
	require.Equal(t, seqjson.DefaultIndentSize, s.IndentSize)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(discard{})
	seqjson.DefaultSettings().RegisterFlagsWithPrefix("", fs)
	require.Error(t, fs.Parse([]string{"-format=sideways"}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestSettingsApplyToOutput(t *testing.T) {
	type sample struct {
		UserName string
		Tags     []string
		Missing  *int
	}
	s, err := seqjson.LoadSettings([]byte("naming_strategy: camel_case\nformat: whitespace\nserialize_nulls: true\n"))
	require.NoError(t, err)

	opt := func(dst *seqjson.Settings) { *dst = *s }
	out, err := seqjson.Marshal(sample{UserName: "u", Tags: []string{"a"}}, opt)
	require.NoError(t, err)
	require.Equal(t, `{ "userName": "u", "tags": [ "a" ], "missing": null }`, string(out))
}
