package cmdutils

import (
	"encoding/json"
	"fmt"
	"io"
)

const logo = "📚"

// PrintJSON writes v to w as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintHeader writes a titled section header.
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "%s %s\n\n", logo, title)
}

// Mark renders a check result.
func Mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
