// Package extension exposes the two host entry points of the Context7 context
// server: the launch command and the configuration descriptor. Both are
// stateless; the host decides when to call them.
package extension

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crystaldolphin/context7-launcher/internal/command"
	"github.com/crystaldolphin/context7-launcher/internal/descriptor"
	"github.com/crystaldolphin/context7-launcher/internal/host"
	"github.com/crystaldolphin/context7-launcher/internal/provision"
	"github.com/crystaldolphin/context7-launcher/internal/settings"
)

// DefaultServerID is the id settings are stored under.
const DefaultServerID = "mcp-server-context7"

// Settings decode failures abort a launch, since a server started with
// half-applied settings is worse than none. Configuration never fails on
// settings; it shows the unmodified template instead.
const CommandPolicy = settings.Strict

// SettingsStore returns the raw settings value for a server in a project.
type SettingsStore interface {
	RawSettingsFor(serverID string, project host.Project) (any, error)
}

// ContextServer serves launch commands and configuration descriptors for one
// server id and package.
type ContextServer struct {
	serverID    string
	pkg         provision.PackageSpec
	store       SettingsStore
	resolver    *settings.Resolver
	provisioner *provision.Provisioner
	commands    *command.Builder
	descriptors *descriptor.Builder
}

// Options bundles the ContextServer collaborators.
type Options struct {
	ServerID    string
	Package     provision.PackageSpec
	Store       SettingsStore
	Resolver    *settings.Resolver
	Provisioner *provision.Provisioner
	Commands    *command.Builder
	Descriptors *descriptor.Builder
}

// New returns a ContextServer. An empty ServerID selects DefaultServerID.
func New(opts Options) *ContextServer {
	id := opts.ServerID
	if id == "" {
		id = DefaultServerID
	}
	return &ContextServer{
		serverID:    id,
		pkg:         opts.Package,
		store:       opts.Store,
		resolver:    opts.Resolver,
		provisioner: opts.Provisioner,
		commands:    opts.Commands,
		descriptors: opts.Descriptors,
	}
}

// ServerID returns the id settings are looked up under.
func (s *ContextServer) ServerID() string { return s.serverID }

// Package returns the package this server runs from.
func (s *ContextServer) Package() provision.PackageSpec { return s.pkg }

// Settings resolves the project's settings under policy.
func (s *ContextServer) Settings(project host.Project, policy settings.Policy) (settings.Settings, error) {
	raw, err := s.store.RawSettingsFor(s.serverID, project)
	if err != nil {
		if policy == settings.Lenient {
			slog.Warn("could not read context server settings", "server", s.serverID, "err", err)
			return settings.Settings{}, nil
		}
		return settings.Settings{}, fmt.Errorf("read settings for %s: %w", s.serverID, err)
	}
	return s.resolver.ResolveWith(raw, policy)
}

// Command resolves settings, makes sure the package is installed and returns
// the command that starts the server.
func (s *ContextServer) Command(ctx context.Context, project host.Project) (command.ServerCommand, error) {
	st, err := s.Settings(project, CommandPolicy)
	if err != nil {
		return command.ServerCommand{}, err
	}
	if err := s.provisioner.EnsureInstalled(ctx, s.pkg); err != nil {
		return command.ServerCommand{}, err
	}
	return s.commands.Build(st)
}

// Configuration returns the descriptor the host shows in its settings UI.
// When the settings cannot be read or decoded, the default settings document
// is the embedded template with its placeholders left in place.
func (s *ContextServer) Configuration(project host.Project) (descriptor.ConfigurationDescriptor, error) {
	st, err := s.Settings(project, settings.Strict)
	if err != nil {
		slog.Warn("showing unmodified default settings", "server", s.serverID, "err", err)
		return s.descriptors.Unmodified()
	}
	return s.descriptors.Build(st)
}
