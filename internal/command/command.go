// Package command builds the process invocation that starts the Context7
// context server from resolved settings.
package command

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/crystaldolphin/context7-launcher/internal/settings"
)

// MinimumTokensEnv carries default_minimum_tokens to the server process.
const MinimumTokensEnv = "DEFAULT_MINIMUM_TOKENS"

// ServerCommand is handed verbatim to the host's process launcher.
type ServerCommand struct {
	Executable string            `json:"command"`
	Args       []string          `json:"args"`
	Env        map[string]string `json:"env"`
}

// Runtime locates the executable that runs the server's entry script.
type Runtime interface {
	ExecutablePath() (string, error)
}

// PathResolutionError reports that the working directory, and therefore the
// entry script path, could not be determined.
type PathResolutionError struct {
	Err error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("resolve server entry script: %v", e.Err)
}

func (e *PathResolutionError) Unwrap() error { return e.Err }

// Emission says how one settings field reaches the server: as a
// "<Flag>=<value>" argument, or as an environment variable named EnvKey.
type Emission struct {
	Field  string
	Flag   string
	EnvKey string
}

// DefaultEmissions follows the declaration order of settings.Fields.
var DefaultEmissions = []Emission{
	{Field: settings.FieldAPIKey, Flag: "--api-key"},
	{Field: settings.FieldDefaultMinimumTokens, EnvKey: MinimumTokensEnv},
}

// EntryScript returns the entry script of an npm package relative to the
// install prefix.
func EntryScript(pkgName string) string {
	return path.Join("node_modules", pkgName, "dist", "index.js")
}

// Builder turns Settings into a ServerCommand.
type Builder struct {
	runtime     Runtime
	getwd       func() (string, error)
	entryScript string
	emissions   []Emission
}

// NewBuilder returns a Builder launching entryScript (relative to the working
// directory getwd reports) with the executable runtime provides.
// A nil getwd uses os.Getwd.
func NewBuilder(runtime Runtime, getwd func() (string, error), entryScript string) *Builder {
	if getwd == nil {
		getwd = os.Getwd
	}
	return &Builder{
		runtime:     runtime,
		getwd:       getwd,
		entryScript: entryScript,
		emissions:   DefaultEmissions,
	}
}

// Build returns the command for s. The working directory is read on every
// call since it may differ between invocations.
func (b *Builder) Build(s settings.Settings) (ServerCommand, error) {
	wd, err := b.getwd()
	if err != nil {
		return ServerCommand{}, &PathResolutionError{Err: err}
	}
	if !filepath.IsAbs(wd) {
		abs, err := filepath.Abs(wd)
		if err != nil {
			return ServerCommand{}, &PathResolutionError{Err: err}
		}
		wd = abs
	}

	executable, err := b.runtime.ExecutablePath()
	if err != nil {
		return ServerCommand{}, fmt.Errorf("locate runtime executable: %w", err)
	}

	cmd := ServerCommand{
		Executable: executable,
		Args:       []string{filepath.Join(wd, filepath.FromSlash(b.entryScript))},
		Env:        map[string]string{},
	}
	for _, e := range b.emissions {
		value, ok := s.Value(e.Field)
		if !ok {
			continue
		}
		if e.EnvKey != "" {
			cmd.Env[e.EnvKey] = value
			continue
		}
		cmd.Args = append(cmd.Args, e.Flag+"="+value)
	}
	return cmd, nil
}
