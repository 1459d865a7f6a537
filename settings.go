package seqjson

import (
	"flag"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format selects the whitespace a Writer emits.
type Format uint8

const (
	// FormatNone writes compact JSON: {"a":[1,2]}
	FormatNone Format = iota
	// FormatWhiteSpace adds single spaces: { "a": [ 1, 2 ] }
	FormatWhiteSpace
	// FormatIndented puts every element on its own indented line.
	FormatIndented
)

var formatNames = [...]string{"none", "whitespace", "indented"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// Set implements flag.Value.
func (f *Format) Set(s string) error {
	switch strings.ToLower(s) {
	case "", "none", "compact":
		*f = FormatNone
	case "whitespace", "white_space":
		*f = FormatWhiteSpace
	case "indented", "indent":
		*f = FormatIndented
	default:
		return errors.Errorf("unknown format %q", s)
	}
	return nil
}

func (f *Format) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return f.Set(s)
}

func (f Format) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

const (
	DefaultIndentSize    = 2
	DefaultMaxStringSize = 256 << 20

	// maxPropertyNameSize bounds property names independently of MaxStringSize.
	maxPropertyNameSize = 64 << 10
)

// Settings configures readers, writers and contract resolution.
type Settings struct {
	NamingStrategy NamingStrategy `yaml:"naming_strategy"`
	Format         Format         `yaml:"format"`
	SerializeNulls bool           `yaml:"serialize_nulls"`
	MaxDepth       int            `yaml:"max_depth"`
	MaxStringSize  int            `yaml:"max_string_size"`
	IndentSize     int            `yaml:"indent_size"`

	// Converters are consulted in order before the built-in handling of a type.
	Converters []Converter `yaml:"-"`
	// ContractResolver replaces the process-wide registry when set.
	ContractResolver ContractResolver `yaml:"-"`
}

// Option modifies Settings.
type Option func(*Settings)

func WithNamingStrategy(n NamingStrategy) Option { return func(s *Settings) { s.NamingStrategy = n } }
func WithFormat(f Format) Option                 { return func(s *Settings) { s.Format = f } }
func WithSerializeNulls(on bool) Option          { return func(s *Settings) { s.SerializeNulls = on } }
func WithMaxDepth(depth int) Option              { return func(s *Settings) { s.MaxDepth = depth } }
func WithMaxStringSize(size int) Option          { return func(s *Settings) { s.MaxStringSize = size } }
func WithIndentSize(size int) Option             { return func(s *Settings) { s.IndentSize = size } }

func WithConverters(c ...Converter) Option {
	return func(s *Settings) { s.Converters = append(s.Converters, c...) }
}

func WithContractResolver(r ContractResolver) Option {
	return func(s *Settings) { s.ContractResolver = r }
}

var defaultSettings = DefaultSettings()

// DefaultSettings returns compact output, unspecified naming and the default limits.
func DefaultSettings() *Settings {
	return &Settings{
		MaxDepth:      DefaultMaxDepth,
		MaxStringSize: DefaultMaxStringSize,
		IndentSize:    DefaultIndentSize,
	}
}

// NewSettings applies opts to DefaultSettings.
func NewSettings(opts ...Option) *Settings {
	s := DefaultSettings()
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadSettings parses YAML settings on top of the defaults.
func LoadSettings(data []byte) (*Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "parsing settings")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// RegisterFlagsWithPrefix binds the scalar settings to f.
func (s *Settings) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.Var(&s.NamingStrategy, prefix+"naming-strategy", "Property naming strategy: unspecified, camel_case or snake_case.")
	f.Var(&s.Format, prefix+"format", "Output format: none, whitespace or indented.")
	f.BoolVar(&s.SerializeNulls, prefix+"serialize-nulls", s.SerializeNulls, "Write properties whose value is null.")
	f.IntVar(&s.MaxDepth, prefix+"max-depth", s.MaxDepth, "Maximum nesting depth when reading or writing.")
	f.IntVar(&s.MaxStringSize, prefix+"max-string-size", s.MaxStringSize, "Maximum size in bytes of a string value.")
	f.IntVar(&s.IndentSize, prefix+"indent-size", s.IndentSize, "Spaces per level for the indented format.")
}

func (s *Settings) Validate() error {
	if s.MaxDepth < 0 {
		return errors.Errorf("max_depth must not be negative, got %d", s.MaxDepth)
	}
	if s.MaxStringSize < 0 {
		return errors.Errorf("max_string_size must not be negative, got %d", s.MaxStringSize)
	}
	if s.IndentSize < 0 || s.IndentSize > 16 {
		return errors.Errorf("indent_size must be between 0 and 16, got %d", s.IndentSize)
	}
	if s.NamingStrategy >= namingStrategyCount {
		return errors.Errorf("unknown naming strategy %d", s.NamingStrategy)
	}
	if s.Format > FormatIndented {
		return errors.Errorf("unknown format %d", s.Format)
	}
	return nil
}

func (s *Settings) maxDepth() int {
	if s.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return s.MaxDepth
}

func (s *Settings) maxStringSize() int {
	if s.MaxStringSize <= 0 {
		return DefaultMaxStringSize
	}
	return s.MaxStringSize
}

func orDefault(s *Settings) *Settings {
	if s == nil {
		return defaultSettings
	}
	return s
}
