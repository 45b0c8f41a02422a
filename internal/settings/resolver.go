package settings

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed settings_schema.cue
var schemaSource []byte

const definitionPath = "#Settings"

// Policy decides what happens when a present raw value fails to decode.
type Policy int

const (
	// Strict returns the *SettingsDecodeError to the caller.
	Strict Policy = iota
	// Lenient logs the failure and resolves to Settings with every field absent.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// Resolver validates and decodes raw settings values against the embedded
// CUE definition. It is safe for concurrent use.
type Resolver struct {
	mu         sync.Mutex
	ctx        *cue.Context
	definition cue.Value
}

// NewResolver compiles the embedded settings schema.
func NewResolver() (*Resolver, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("settings_schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compile settings schema: %w", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath(definitionPath))
	if def.Err() != nil {
		return nil, fmt.Errorf("settings schema definition %s not found: %w", definitionPath, def.Err())
	}
	return &Resolver{ctx: ctx, definition: def}, nil
}

// Resolve decodes raw with the Strict policy.
func (r *Resolver) Resolve(raw any) (Settings, error) {
	return r.ResolveWith(raw, Strict)
}

// ResolveWith decodes raw into Settings. A nil raw value means the user has no
// settings for the server and yields Settings with every field absent.
// Unknown keys are ignored, and null for a recognized key counts as absent.
func (r *Resolver) ResolveWith(raw any, policy Policy) (Settings, error) {
	if raw == nil {
		return Settings{}, nil
	}

	s, err := r.decode(raw)
	if err == nil {
		return s, nil
	}
	if policy == Lenient {
		slog.Warn("ignoring invalid context server settings", "err", err)
		return Settings{}, nil
	}
	return Settings{}, err
}

func (r *Resolver) decode(raw any) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value := r.ctx.Encode(raw)
	if value.Err() != nil {
		return Settings{}, newDecodeError(value.Err())
	}

	unified := r.definition.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Settings{}, newDecodeError(err)
	}

	var s Settings
	if err := unified.Decode(&s); err != nil {
		return Settings{}, newDecodeError(err)
	}
	return s, nil
}
