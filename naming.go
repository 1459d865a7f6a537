package seqjson

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// NamingStrategy transforms declared property names on the wire.
type NamingStrategy uint8

const (
	NamingUnspecified NamingStrategy = iota
	NamingCamelCase
	NamingSnakeCase

	namingStrategyCount = 3
)

var namingStrategyNames = [namingStrategyCount]string{"unspecified", "camel_case", "snake_case"}

func (n NamingStrategy) String() string {
	if n < namingStrategyCount {
		return namingStrategyNames[n]
	}
	return "unknown"
}

// Set implements flag.Value.
func (n *NamingStrategy) Set(s string) error {
	v, err := ParseNamingStrategy(s)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func (n *NamingStrategy) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return n.Set(s)
}

func (n NamingStrategy) MarshalYAML() (interface{}, error) {
	return n.String(), nil
}

// ParseNamingStrategy accepts "unspecified", "camel_case", "snake_case" and
// their CamelCase spellings, case-insensitively.
func ParseNamingStrategy(s string) (NamingStrategy, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "", "unspecified", "none":
		return NamingUnspecified, nil
	case "camelcase", "camel":
		return NamingCamelCase, nil
	case "snakecase", "snake":
		return NamingSnakeCase, nil
	}
	return NamingUnspecified, errors.Errorf("unknown naming strategy %q", s)
}

// ApplyNaming converts a declared name to its wire form.
func ApplyNaming(name string, strategy NamingStrategy) string {
	switch strategy {
	case NamingCamelCase:
		return ToCamelCase(name)
	case NamingSnakeCase:
		return ToSnakeCase(name)
	}
	return name
}

// ToCamelCase lowercases the leading run of upper case letters. The run ends
// before an upper case letter that is followed by a lower case one, so
// "URLValue" becomes "urlValue" and "ID" becomes "id".
func ToCamelCase(name string) string {
	if name == "" {
		return name
	}
	chars := []rune(name)
	if !unicode.IsUpper(chars[0]) {
		return name
	}

	for i := 0; i < len(chars); i++ {
		if i == 1 && !unicode.IsUpper(chars[i]) {
			break
		}

		hasNext := i+1 < len(chars)
		if i > 0 && hasNext && !unicode.IsUpper(chars[i+1]) {
			// "FOO bar" becomes "foo bar", not "foO bar"
			if unicode.Is(unicode.Zs, chars[i+1]) {
				chars[i] = unicode.ToLower(chars[i])
			}
			break
		}

		chars[i] = unicode.ToLower(chars[i])
	}

	return string(chars)
}

type snakeState uint8

const (
	snakeStart snakeState = iota
	snakeLower
	snakeUpper
	snakeNewWord
)

// ToSnakeCase inserts '_' at word boundaries and lowercases: "FirstName"
// becomes "first_name", "HTTPServer" becomes "http_server". Spaces start a
// new word and existing underscores are kept without doubling.
func ToSnakeCase(name string) string {
	if name == "" {
		return name
	}
	chars := []rune(name)

	var b strings.Builder
	b.Grow(len(name) + 4)
	state := snakeStart

	for i, c := range chars {
		switch {
		case c == ' ':
			if state != snakeStart {
				state = snakeNewWord
			}
		case unicode.IsUpper(c):
			switch state {
			case snakeUpper:
				if i > 0 && i+1 < len(chars) {
					next := chars[i+1]
					if !unicode.IsUpper(next) && next != '_' {
						b.WriteByte('_')
					}
				}
			case snakeLower, snakeNewWord:
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			state = snakeUpper
		case c == '_':
			b.WriteByte('_')
			state = snakeStart
		default:
			if state == snakeNewWord {
				b.WriteByte('_')
			}
			b.WriteRune(c)
			state = snakeLower
		}
	}

	return b.String()
}

// RestoreCase reverses a naming strategy on a wire name: camel case names get
// their first letter upper cased, snake case names lose the underscores that
// follow a letter and the letter after each one is upper cased.
func RestoreCase(name string, strategy NamingStrategy) string {
	if name == "" {
		return name
	}
	switch strategy {
	case NamingCamelCase:
		chars := []rune(name)
		chars[0] = unicode.ToUpper(chars[0])
		return string(chars)
	case NamingSnakeCase:
		return restoreSnakeCase(name)
	}
	return name
}

func restoreSnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	previousUnderscore := true
	for _, c := range name {
		if c == '_' && !previousUnderscore {
			previousUnderscore = true
			continue
		}
		if previousUnderscore {
			c = unicode.ToUpper(c)
		}
		b.WriteRune(c)
		previousUnderscore = false
	}

	return b.String()
}

// PropertyName holds a declared name in every naming strategy, both as text
// and as the encoded `"name":` bytes a writer emits.
type PropertyName struct {
	values  [namingStrategyCount]string
	encoded [namingStrategyCount][]byte
}

var propertyNames sync.Map // string -> *PropertyName

// NewPropertyName returns the process-wide PropertyName for name.
func NewPropertyName(name string) *PropertyName {
	if p, ok := propertyNames.Load(name); ok {
		return p.(*PropertyName)
	}

	p := &PropertyName{}
	for i := NamingStrategy(0); i < namingStrategyCount; i++ {
		v := ApplyNaming(name, i)
		p.values[i] = v

		enc := make([]byte, 0, escapedLength(v)+3)
		enc = append(enc, '"')
		enc = appendEscaped(enc, v)
		enc = append(enc, '"', ':')
		p.encoded[i] = enc
	}

	actual, _ := propertyNames.LoadOrStore(name, p)
	return actual.(*PropertyName)
}

// Name returns the declared name.
func (p *PropertyName) Name() string { return p.values[NamingUnspecified] }

// Value returns the name as written under strategy.
func (p *PropertyName) Value(strategy NamingStrategy) string { return p.values[strategy] }

// Encoded returns the quoted, escaped name followed by ':'.
func (p *PropertyName) Encoded(strategy NamingStrategy) []byte { return p.encoded[strategy] }

func (p *PropertyName) String() string { return p.Name() }
