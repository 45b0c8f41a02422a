// Package dependency wires the launcher services using go.uber.org/dig.
package dependency

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/dig"

	"github.com/crystaldolphin/context7-launcher/internal/command"
	"github.com/crystaldolphin/context7-launcher/internal/config"
	"github.com/crystaldolphin/context7-launcher/internal/cron"
	"github.com/crystaldolphin/context7-launcher/internal/descriptor"
	"github.com/crystaldolphin/context7-launcher/internal/extension"
	"github.com/crystaldolphin/context7-launcher/internal/host"
	"github.com/crystaldolphin/context7-launcher/internal/provision"
	"github.com/crystaldolphin/context7-launcher/internal/settings"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	server      *extension.ContextServer
	provisioner *provision.Provisioner
	registry    provision.Registry
	runtime     command.Runtime
	workDir     WorkDirFunc
}

func (c *Container) Server() *extension.ContextServer     { return c.server }
func (c *Container) Provisioner() *provision.Provisioner { return c.provisioner }
func (c *Container) Registry() provision.Registry        { return c.registry }
func (c *Container) Runtime() command.Runtime            { return c.runtime }
func (c *Container) WorkDir() WorkDirFunc                { return c.workDir }

// WorkDirFunc reports the directory packages are installed into and entry
// scripts are resolved against. It is a named type so dig can tell it apart
// from other func values.
type WorkDirFunc func() (string, error)

// New builds and wires all services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		newWorkDir,
		settings.NewResolver,
		newRegistry,
		newProvisioner,
		newRuntime,
		newCommandBuilder,
		newDescriptorBuilder,
		newSettingsStore,
		newContextServer,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		server *extension.ContextServer,
		provisioner *provision.Provisioner,
		registry provision.Registry,
		runtime command.Runtime,
		workDir WorkDirFunc,
	) {
		result = &Container{
			server:      server,
			provisioner: provisioner,
			registry:    registry,
			runtime:     runtime,
			workDir:     workDir,
		}
	})
	return result, err
}

// NewRefresher returns a Refresher that re-provisions the server package on
// schedule.
func (c *Container) NewRefresher(schedule string) (*cron.Refresher, error) {
	pkg := c.server.Package()
	return cron.NewRefresher(schedule, func(ctx context.Context) error {
		return c.provisioner.EnsureInstalled(ctx, pkg)
	})
}

func newWorkDir(cfg *config.Config) WorkDirFunc {
	dir := cfg.WorkDirPath()
	if dir == "" {
		return os.Getwd
	}
	return func() (string, error) { return filepath.Abs(dir) }
}

func newRegistry(cfg *config.Config, wd WorkDirFunc) provision.Registry {
	return provision.NewNPM(cfg.Runtime.NPMPath, wd)
}

func newProvisioner(cfg *config.Config, reg provision.Registry) (*provision.Provisioner, error) {
	policy, err := provision.ParseVersionPolicy(cfg.VersionPolicy)
	if err != nil {
		return nil, err
	}
	return provision.NewProvisioner(reg, policy), nil
}

func newRuntime(cfg *config.Config) command.Runtime {
	return host.NodeRuntime{Path: cfg.Runtime.NodePath}
}

func newCommandBuilder(cfg *config.Config, rt command.Runtime, wd WorkDirFunc) *command.Builder {
	return command.NewBuilder(rt, wd, command.EntryScript(cfg.Package.Name))
}

func newDescriptorBuilder(r *settings.Resolver) *descriptor.Builder {
	return descriptor.NewBuilder(r)
}

func newSettingsStore(cfg *config.Config) extension.SettingsStore {
	return host.NewFileStore(cfg.GlobalSettingsPath())
}

func newContextServer(
	cfg *config.Config,
	store extension.SettingsStore,
	resolver *settings.Resolver,
	provisioner *provision.Provisioner,
	commands *command.Builder,
	descriptors *descriptor.Builder,
) *extension.ContextServer {
	return extension.New(extension.Options{
		ServerID: cfg.ServerID,
		Package: provision.PackageSpec{
			Name:    cfg.Package.Name,
			Version: cfg.Package.Version,
		},
		Store:       store,
		Resolver:    resolver,
		Provisioner: provisioner,
		Commands:    commands,
		Descriptors: descriptors,
	})
}
