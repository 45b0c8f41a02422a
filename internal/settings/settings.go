// Package settings turns the raw, host-provided settings value of the Context7
// context server into a typed Settings record.
//
// The CUE definition in settings_schema.cue is the single source of truth: raw
// values are unified with it to validate and decode, and the JSON Schema shown
// to users is derived from the same definition.
package settings

// Recognized settings keys, in declaration order.
const (
	FieldAPIKey               = "context7_api_key"
	FieldDefaultMinimumTokens = "default_minimum_tokens"
)

// Fields lists the recognized keys in the order they are declared on Settings.
// Consumers that emit per-field output (arguments, placeholders) follow this order.
var Fields = []string{FieldAPIKey, FieldDefaultMinimumTokens}

// Settings holds the user overrides for the context server.
// A nil field means the user did not set it; an empty string is a real value.
type Settings struct {
	APIKey               *string `json:"context7_api_key,omitempty"`
	DefaultMinimumTokens *string `json:"default_minimum_tokens,omitempty"`
}

// Value returns the value of the named field and whether it is present.
func (s Settings) Value(field string) (string, bool) {
	var v *string
	switch field {
	case FieldAPIKey:
		v = s.APIKey
	case FieldDefaultMinimumTokens:
		v = s.DefaultMinimumTokens
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

// IsEmpty reports whether no field is present.
func (s Settings) IsEmpty() bool {
	for _, f := range Fields {
		if _, ok := s.Value(f); ok {
			return false
		}
	}
	return true
}

// String returns a pointer to v, for building Settings literals.
func String(v string) *string { return &v }
