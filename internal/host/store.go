// Package host implements the host-side collaborators of the launcher: the
// settings store consulted per project and runtime executable discovery.
package host

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectSettingsFiles are tried in order under a project root. JSON files
// are read by the YAML decoder as well.
var ProjectSettingsFiles = []string{
	filepath.Join(".context7", "settings.yaml"),
	filepath.Join(".context7", "settings.json"),
}

// Project is the host's handle on the project a server is started for.
type Project struct {
	Root string
}

// settingsFile is the on-disk layout shared by global and project files:
//
//	context_servers:
//	  mcp-server-context7:
//	    settings:
//	      context7_api_key: "..."
type settingsFile struct {
	ContextServers map[string]serverEntry `yaml:"context_servers"`
}

type serverEntry struct {
	Settings any `yaml:"settings"`
}

// FileStore looks up raw server settings in a global settings file and the
// project's settings file. Project values override global ones key by key.
type FileStore struct {
	// GlobalPath is optional; a missing file counts as empty.
	GlobalPath string
}

// NewFileStore returns a FileStore reading globalPath as the global layer.
func NewFileStore(globalPath string) *FileStore {
	return &FileStore{GlobalPath: globalPath}
}

// RawSettingsFor returns the merged raw settings for serverID, or nil when
// neither layer has any.
func (s *FileStore) RawSettingsFor(serverID string, project Project) (any, error) {
	var global any
	if s.GlobalPath != "" {
		v, err := readServerSettings(s.GlobalPath, serverID)
		if err != nil {
			return nil, err
		}
		global = v
	}

	var local any
	if project.Root != "" {
		for _, name := range ProjectSettingsFiles {
			path := filepath.Join(project.Root, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			v, err := readServerSettings(path, serverID)
			if err != nil {
				return nil, err
			}
			local = v
			break
		}
	}

	return merge(global, local), nil
}

func readServerSettings(path, serverID string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var file settingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	entry, ok := file.ContextServers[serverID]
	if !ok {
		return nil, nil
	}
	return entry.Settings, nil
}

// merge overlays local on global. Non-object values are not merged: the
// local value wins whenever it is set.
func merge(global, local any) any {
	if local == nil {
		return global
	}
	g, gok := global.(map[string]any)
	l, lok := local.(map[string]any)
	if !gok || !lok {
		return local
	}
	out := make(map[string]any, len(g)+len(l))
	maps.Copy(out, g)
	maps.Copy(out, l)
	return out
}
