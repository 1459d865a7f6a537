package seqjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCamelCase(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"FirstName":     "firstName",
		"ID":            "id",
		"URLValue":      "urlValue",
		"already":       "already",
		"I":             "i",
		"IPAddress":     "ipAddress",
		"LastLoginTime": "lastLoginTime",
		"FOO Bar":       "foo Bar",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToCamelCase(in), in)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"FirstName":     "first_name",
		"ID":            "id",
		"HTTPServer":    "http_server",
		"LastLoginTime": "last_login_time",
		"Already_Snake": "already_snake",
		"Foo Bar":       "foo_bar",
		"lower":         "lower",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToSnakeCase(in), in)
	}
}

func TestRestoreCase(t *testing.T) {
	assert.Equal(t, "FirstName", RestoreCase("firstName", NamingCamelCase))
	assert.Equal(t, "FirstName", RestoreCase("first_name", NamingSnakeCase))
	assert.Equal(t, "LastLoginTime", RestoreCase("last_login_time", NamingSnakeCase))
	assert.Equal(t, "as_is", RestoreCase("as_is", NamingUnspecified))
	assert.Equal(t, "", RestoreCase("", NamingSnakeCase))
}

func TestParseNamingStrategy(t *testing.T) {
	for in, want := range map[string]NamingStrategy{
		"":            NamingUnspecified,
		"unspecified": NamingUnspecified,
		"camel_case":  NamingCamelCase,
		"CamelCase":   NamingCamelCase,
		"camel":       NamingCamelCase,
		"SNAKE_CASE":  NamingSnakeCase,
		"snake":       NamingSnakeCase,
	} {
		got, err := ParseNamingStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseNamingStrategy("kebab")
	require.Error(t, err)
}

func TestPropertyName(t *testing.T) {
	p := NewPropertyName("UserID")
	require.Same(t, p, NewPropertyName("UserID"))

	assert.Equal(t, "UserID", p.Name())
	assert.Equal(t, "userID", p.Value(NamingCamelCase))
	assert.Equal(t, "user_id", p.Value(NamingSnakeCase))
	assert.Equal(t, `"UserID":`, string(p.Encoded(NamingUnspecified)))
	assert.Equal(t, `"user_id":`, string(p.Encoded(NamingSnakeCase)))

	escaped := NewPropertyName("<tag>")
	assert.Equal(t, `"\u003ctag\u003e":`, string(escaped.Encoded(NamingUnspecified)))
}
