package settings

import (
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
)

const jsonSchemaDialect = "http://json-schema.org/draft-07/schema#"

type objectSchema struct {
	Schema               string                    `json:"$schema"`
	Title                string                    `json:"title"`
	Type                 string                    `json:"type"`
	Properties           map[string]propertySchema `json:"properties"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties *bool                     `json:"additionalProperties,omitempty"`
}

type propertySchema struct {
	Description string          `json:"description,omitempty"`
	Type        any             `json:"type"`
	Default     json.RawMessage `json:"default,omitempty"`
}

// JSONSchema describes the shape Resolve accepts as JSON Schema (draft-07).
// It is derived from the CUE definition alone, so the output only changes
// when the definition does.
func (r *Resolver) JSONSchema() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := objectSchema{
		Schema:     jsonSchemaDialect,
		Title:      strings.TrimPrefix(definitionPath, "#"),
		Type:       "object",
		Properties: map[string]propertySchema{},
	}

	iter, err := r.definition.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		return "", fmt.Errorf("iterate settings schema: %w", err)
	}
	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		name := strings.TrimSuffix(sel.String(), "?")
		value := iter.Value()

		prop := propertySchema{
			Description: docText(value),
			Type:        jsonTypes(value.IncompleteKind()),
		}
		if iter.IsOptional() {
			prop.Default = json.RawMessage("null")
		} else {
			out.Required = append(out.Required, name)
		}
		out.Properties[name] = prop
	}

	if !r.definition.Allows(cue.AnyString) {
		closed := false
		out.AdditionalProperties = &closed
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal settings schema: %w", err)
	}
	return string(data), nil
}

// jsonTypes maps a CUE kind to a JSON Schema "type": a single name when the
// kind is exact, a list for disjunctions such as string | null.
func jsonTypes(k cue.Kind) any {
	var types []string
	if k&cue.StringKind != 0 {
		types = append(types, "string")
	}
	switch {
	case k&cue.NumberKind == cue.NumberKind, k&cue.FloatKind != 0:
		types = append(types, "number")
	case k&cue.IntKind != 0:
		types = append(types, "integer")
	}
	if k&cue.BoolKind != 0 {
		types = append(types, "boolean")
	}
	if k&cue.StructKind != 0 {
		types = append(types, "object")
	}
	if k&cue.ListKind != 0 {
		types = append(types, "array")
	}
	if k&cue.NullKind != 0 {
		types = append(types, "null")
	}
	if len(types) == 1 {
		return types[0]
	}
	return types
}

func docText(v cue.Value) string {
	var parts []string
	for _, cg := range v.Doc() {
		if text := strings.TrimSpace(cg.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
