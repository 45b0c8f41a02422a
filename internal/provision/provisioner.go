// Package provision makes sure the npm package backing the context server is
// installed at the wanted version before the server is launched.
package provision

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// PackageSpec identifies the package and the exact version string to install.
type PackageSpec struct {
	Name    string
	Version string
}

func (p PackageSpec) String() string { return p.Name + "@" + p.Version }

// Registry is the package manager the provisioner drives.
type Registry interface {
	// InstalledVersion reports the locally installed version of name, if any.
	InstalledVersion(ctx context.Context, name string) (version string, ok bool, err error)
	// Install installs name pinned to version, replacing whatever is installed.
	Install(ctx context.Context, name, version string) error
	// ResolveVersion asks the registry which concrete version tag points at.
	ResolveVersion(ctx context.Context, name, tag string) (string, error)
}

// VersionPolicy decides what the installed version is compared against.
type VersionPolicy string

const (
	// VersionExact compares the installed version with spec.Version as
	// written. A moving tag such as "latest" never equals the
	// concrete version npm reports, so the package is reinstalled on every call.
	VersionExact VersionPolicy = "exact"
	// VersionResolved resolves spec.Version through the registry first
	// and compares against the concrete result.
	VersionResolved VersionPolicy = "resolved"
)

// ParseVersionPolicy validates a policy name from configuration.
// The empty string selects VersionExact.
func ParseVersionPolicy(s string) (VersionPolicy, error) {
	switch VersionPolicy(s) {
	case "", VersionExact:
		return VersionExact, nil
	case VersionResolved:
		return VersionResolved, nil
	}
	return "", fmt.Errorf("unknown version policy %q (want %q or %q)", s, VersionExact, VersionResolved)
}

// InstallError reports a failed install of a package.
type InstallError struct {
	Package PackageSpec
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s: %v", e.Package, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Provisioner installs packages on demand. Concurrent EnsureInstalled calls for
// the same package share one check-and-install.
type Provisioner struct {
	registry Registry
	policy   VersionPolicy
	group    singleflight.Group
}

// NewProvisioner returns a Provisioner using registry and policy.
func NewProvisioner(registry Registry, policy VersionPolicy) *Provisioner {
	if policy == "" {
		policy = VersionExact
	}
	return &Provisioner{registry: registry, policy: policy}
}

// Policy returns the comparison policy in use.
func (p *Provisioner) Policy() VersionPolicy { return p.policy }

// EnsureInstalled installs spec unless the installed version already matches.
// Any install failure is returned as *InstallError.
//
// Concurrent callers share one pass. The shared pass is not tied to any one
// caller's ctx; a caller whose ctx ends stops waiting and gets ctx.Err().
func (p *Provisioner) EnsureInstalled(ctx context.Context, spec PackageSpec) error {
	ch := p.group.DoChan(spec.String(), func() (any, error) {
		return nil, p.ensure(context.WithoutCancel(ctx), spec)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (p *Provisioner) ensure(ctx context.Context, spec PackageSpec) error {
	installed, ok, err := p.registry.InstalledVersion(ctx, spec.Name)
	if err != nil {
		// An unreadable install is treated as missing; npm overwrites it.
		slog.Warn("could not read installed package version", "package", spec.Name, "err", err)
		ok = false
	}

	want := spec.Version
	if p.policy == VersionResolved {
		resolved, err := p.registry.ResolveVersion(ctx, spec.Name, spec.Version)
		switch {
		case err == nil:
			want = resolved
		case ok:
			slog.Warn("could not resolve package version, keeping installed version",
				"package", spec.Name, "tag", spec.Version, "installed", installed, "err", err)
			return nil
		default:
			slog.Warn("could not resolve package version, installing tag",
				"package", spec.Name, "tag", spec.Version, "err", err)
		}
	}

	if ok && installed == want {
		slog.Debug("package up to date", "package", spec.Name, "version", installed)
		return nil
	}

	slog.Info("installing package", "package", spec.Name, "version", want, "installed", installed)
	if err := p.registry.Install(ctx, spec.Name, want); err != nil {
		return &InstallError{Package: PackageSpec{Name: spec.Name, Version: want}, Err: err}
	}
	return nil
}
