package host

import (
	"fmt"
	"os/exec"
)

// NodeRuntime locates the node executable.
type NodeRuntime struct {
	// Path overrides PATH lookup when set.
	Path string
}

// ExecutablePath returns Path, or the node binary found on PATH.
func (r NodeRuntime) ExecutablePath() (string, error) {
	if r.Path != "" {
		return r.Path, nil
	}
	path, err := exec.LookPath("node")
	if err != nil {
		return "", fmt.Errorf("node runtime not found: %w", err)
	}
	return path, nil
}
