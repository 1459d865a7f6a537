package seqjson

// Token classifies the next meaningful element of a JSON document.
type Token uint8

// Token types
const (
	TokenNone Token = iota
	TokenStartObject
	TokenEndObject
	TokenStartArray
	TokenEndArray
	TokenPropertyName
	TokenString
	TokenNumber
	TokenBoolean
	TokenNull
)

var tokenNames = [...]string{
	TokenNone:         "None",
	TokenStartObject:  "StartObject",
	TokenEndObject:    "EndObject",
	TokenStartArray:   "StartArray",
	TokenEndArray:     "EndArray",
	TokenPropertyName: "PropertyName",
	TokenString:       "String",
	TokenNumber:       "Number",
	TokenBoolean:      "Boolean",
	TokenNull:         "Null",
}

func (t Token) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "Unknown"
}

// isValue reports whether t starts a value (scalar or container).
func (t Token) isValue() bool {
	switch t {
	case TokenStartObject, TokenStartArray, TokenString, TokenNumber, TokenBoolean, TokenNull:
		return true
	}
	return false
}
