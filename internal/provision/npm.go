package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// NPM is a Registry backed by the npm CLI. Packages are installed under
// <dir>/node_modules, where dir is read on every call.
type NPM struct {
	// Binary is the npm executable; "npm" is looked up on PATH when empty.
	Binary string
	// Dir returns the install prefix.
	Dir func() (string, error)
}

// NewNPM returns an NPM registry installing into the directory dir reports.
func NewNPM(binary string, dir func() (string, error)) *NPM {
	if binary == "" {
		binary = "npm"
	}
	if dir == nil {
		dir = os.Getwd
	}
	return &NPM{Binary: binary, Dir: dir}
}

// InstalledVersion reads node_modules/<name>/package.json under the prefix.
func (n *NPM) InstalledVersion(_ context.Context, name string) (string, bool, error) {
	dir, err := n.Dir()
	if err != nil {
		return "", false, fmt.Errorf("resolve install prefix: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "node_modules", filepath.FromSlash(name), "package.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}

	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", false, fmt.Errorf("parse package.json of %s: %w", name, err)
	}
	if manifest.Version == "" {
		return "", false, nil
	}
	return manifest.Version, true, nil
}

// Install runs npm install --prefix <dir> <name>@<version>.
func (n *NPM) Install(ctx context.Context, name, version string) error {
	dir, err := n.Dir()
	if err != nil {
		return fmt.Errorf("resolve install prefix: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create install prefix: %w", err)
	}
	_, err = n.run(ctx, dir, "install", "--prefix", dir, "--no-audit", "--no-fund", "--save-exact", name+"@"+version)
	return err
}

// ResolveVersion runs npm view <name>@<tag> version.
func (n *NPM) ResolveVersion(ctx context.Context, name, tag string) (string, error) {
	dir, err := n.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve install prefix: %w", err)
	}
	out, err := n.run(ctx, dir, "view", name+"@"+tag, "version")
	if err != nil {
		return "", err
	}
	// A range matching several versions prints one "name@x.y.z 'x.y.z'" line each.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if i := strings.LastIndex(last, " "); i >= 0 {
		last = strings.Trim(last[i+1:], "'")
	}
	if last == "" {
		return "", fmt.Errorf("npm view %s@%s: empty version", name, tag)
	}
	return last, nil
}

func (n *NPM) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, n.Binary, args...)
	if _, err := os.Stat(dir); err == nil {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("npm %s: %w", args[0], err)
		}
		return "", fmt.Errorf("npm %s: %w: %s", args[0], err, msg)
	}
	return stdout.String(), nil
}
