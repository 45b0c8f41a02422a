// Package descriptor builds the configuration descriptor the host shows when
// the user sets up the Context7 context server: setup instructions, a
// pre-filled settings document and the settings JSON Schema.
package descriptor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crystaldolphin/context7-launcher/internal/settings"
)

//go:embed configuration/installation_instructions.md
var installationInstructions string

//go:embed configuration/default_settings.jsonc
var defaultSettingsTemplate string

// ConfigurationDescriptor is handed verbatim to the host's settings UI.
type ConfigurationDescriptor struct {
	Instructions    string `json:"installation_instructions"`
	DefaultSettings string `json:"default_settings"`
	Schema          string `json:"settings_schema"`
}

// Fallback says what happens to a placeholder whose field is absent.
type Fallback int

const (
	// KeepToken leaves the placeholder in the document.
	KeepToken Fallback = iota
	// EmptyString replaces the placeholder with "".
	EmptyString
)

// Placeholder maps a literal token in the template to a settings field.
// Tokens are matched byte for byte, wherever they occur in the template.
type Placeholder struct {
	Token string
	Field string
	// Occurrences limits how many matches are replaced, first to last.
	// Zero or less replaces all of them.
	Occurrences int
	Fallback    Fallback
}

// DefaultPlaceholders are the substitution rules for default_settings.jsonc.
// The API key sentinel must never reach the user, the token count default may.
var DefaultPlaceholders = []Placeholder{
	{Token: `"YOUR_CONTEXT7_API_KEY"`, Field: settings.FieldAPIKey, Fallback: EmptyString},
	{Token: `"10000"`, Field: settings.FieldDefaultMinimumTokens, Fallback: KeepToken},
}

// SchemaSource produces the settings JSON Schema.
type SchemaSource interface {
	JSONSchema() (string, error)
}

// Builder assembles ConfigurationDescriptors.
type Builder struct {
	instructions string
	template     string
	placeholders []Placeholder
	schema       SchemaSource
}

// NewBuilder returns a Builder over the embedded instructions and template.
func NewBuilder(schema SchemaSource) *Builder {
	return &Builder{
		instructions: installationInstructions,
		template:     defaultSettingsTemplate,
		placeholders: DefaultPlaceholders,
		schema:       schema,
	}
}

// Template returns the unsubstituted default settings document.
func (b *Builder) Template() string { return b.template }

// Build fills the template from s. It only fails when the schema cannot be
// produced.
func (b *Builder) Build(s settings.Settings) (ConfigurationDescriptor, error) {
	return b.build(Substitute(b.template, s, b.placeholders))
}

// Unmodified returns the descriptor with the template left as embedded, for
// when the user's settings could not be read at all.
func (b *Builder) Unmodified() (ConfigurationDescriptor, error) {
	return b.build(b.template)
}

func (b *Builder) build(defaultSettings string) (ConfigurationDescriptor, error) {
	schema, err := b.schema.JSONSchema()
	if err != nil {
		return ConfigurationDescriptor{}, fmt.Errorf("settings schema: %w", err)
	}
	return ConfigurationDescriptor{
		Instructions:    b.instructions,
		DefaultSettings: defaultSettings,
		Schema:          schema,
	}, nil
}

// Substitute applies placeholders to template in order.
func Substitute(template string, s settings.Settings, placeholders []Placeholder) string {
	out := template
	for _, p := range placeholders {
		n := p.Occurrences
		if n <= 0 {
			n = -1
		}

		value, ok := s.Value(p.Field)
		switch {
		case ok:
			out = strings.Replace(out, p.Token, quote(value), n)
		case p.Fallback == EmptyString:
			out = strings.Replace(out, p.Token, `""`, n)
		}
	}
	return out
}

// quote renders v as a JSON string literal so the document stays parseable
// whatever the user typed.
func quote(v string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimSuffix(buf.String(), "\n")
}
