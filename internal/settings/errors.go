package settings

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// SettingsDecodeError reports a raw settings value whose shape does not match
// the settings schema.
type SettingsDecodeError struct {
	// Detail is the path-qualified mismatch description, e.g.
	// "context7_api_key: conflicting values string and 5".
	Detail string

	Err error
}

func (e *SettingsDecodeError) Error() string {
	return "invalid context server settings: " + e.Detail
}

func (e *SettingsDecodeError) Unwrap() error { return e.Err }

func newDecodeError(err error) *SettingsDecodeError {
	return &SettingsDecodeError{Detail: describe(err), Err: err}
}

// describe flattens a CUE error list into "path: message" lines.
func describe(err error) string {
	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return err.Error()
	}

	lines := make([]string, 0, len(cueErrors))
	for _, e := range cueErrors {
		path := formatPath(errors.Path(e))
		msg := e.Error()
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		if path == "" {
			lines = append(lines, msg)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", path, msg))
	}
	return strings.Join(lines, "; ")
}

// formatPath renders ["servers", "0", "key"] as "servers[0].key".
// Definition labels such as #Settings are dropped since users never write them.
func formatPath(path []string) string {
	var b strings.Builder
	for _, part := range path {
		if strings.HasPrefix(part, "#") {
			continue
		}
		if isIndex(part) && b.Len() > 0 {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
