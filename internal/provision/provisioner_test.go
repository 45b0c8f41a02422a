package provision

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeRegistry records installs; installs set the installed version to what
// reportAs returns (the version itself when nil).
type fakeRegistry struct {
	mu         sync.Mutex
	installed  map[string]string
	installs   []string
	installErr error
	resolved   map[string]string
	resolveErr error
	reportAs   func(version string) string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{installed: map[string]string{}, resolved: map[string]string{}}
}

func (f *fakeRegistry) InstalledVersion(_ context.Context, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.installed[name]
	return v, ok, nil
}

func (f *fakeRegistry) Install(_ context.Context, name, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installs = append(f.installs, name+"@"+version)
	if f.installErr != nil {
		return f.installErr
	}
	if f.reportAs != nil {
		version = f.reportAs(version)
	}
	f.installed[name] = version
	return nil
}

func (f *fakeRegistry) ResolveVersion(_ context.Context, name, tag string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.resolved[name+"@"+tag], nil
}

func (f *fakeRegistry) installCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.installs)
}

var pkg = PackageSpec{Name: "@upstash/context7-mcp", Version: "1.0.14"}

func TestEnsureInstalled_InstallsWhenMissing(t *testing.T) {
	reg := newFakeRegistry()
	p := NewProvisioner(reg, VersionExact)

	if err := p.EnsureInstalled(context.Background(), pkg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reg.installs) != 1 || reg.installs[0] != "@upstash/context7-mcp@1.0.14" {
		t.Errorf("unexpected installs: %v", reg.installs)
	}
}

func TestEnsureInstalled_Idempotent(t *testing.T) {
	reg := newFakeRegistry()
	p := NewProvisioner(reg, VersionExact)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := p.EnsureInstalled(ctx, pkg); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if n := reg.installCount(); n != 1 {
		t.Errorf("expected exactly one install, got %d", n)
	}
}

func TestEnsureInstalled_ReplacesOtherVersion(t *testing.T) {
	reg := newFakeRegistry()
	reg.installed[pkg.Name] = "1.0.0"
	p := NewProvisioner(reg, VersionExact)

	if err := p.EnsureInstalled(context.Background(), pkg); err != nil {
		t.Fatal(err)
	}
	if reg.installed[pkg.Name] != "1.0.14" {
		t.Errorf("expected 1.0.14 installed, got %q", reg.installed[pkg.Name])
	}
}

func TestEnsureInstalled_ExactTagReinstallsEveryTime(t *testing.T) {
	reg := newFakeRegistry()
	reg.reportAs = func(string) string { return "1.0.14" }
	p := NewProvisioner(reg, VersionExact)
	latest := PackageSpec{Name: pkg.Name, Version: "latest"}

	for i := 0; i < 3; i++ {
		if err := p.EnsureInstalled(context.Background(), latest); err != nil {
			t.Fatal(err)
		}
	}
	if n := reg.installCount(); n != 3 {
		t.Errorf("expected a reinstall on every call, got %d installs", n)
	}
}

func TestEnsureInstalled_ResolvedTagInstallsOnce(t *testing.T) {
	reg := newFakeRegistry()
	reg.resolved[pkg.Name+"@latest"] = "1.0.14"
	p := NewProvisioner(reg, VersionResolved)
	latest := PackageSpec{Name: pkg.Name, Version: "latest"}

	for i := 0; i < 3; i++ {
		if err := p.EnsureInstalled(context.Background(), latest); err != nil {
			t.Fatal(err)
		}
	}
	if n := reg.installCount(); n != 1 {
		t.Fatalf("expected one install, got %d", n)
	}
	if reg.installs[0] != pkg.Name+"@1.0.14" {
		t.Errorf("expected the resolved version to be installed, got %s", reg.installs[0])
	}
}

func TestEnsureInstalled_ResolveFailureKeepsInstalled(t *testing.T) {
	reg := newFakeRegistry()
	reg.installed[pkg.Name] = "1.0.3"
	reg.resolveErr = errors.New("offline")
	p := NewProvisioner(reg, VersionResolved)

	if err := p.EnsureInstalled(context.Background(), PackageSpec{Name: pkg.Name, Version: "latest"}); err != nil {
		t.Fatal(err)
	}
	if n := reg.installCount(); n != 0 {
		t.Errorf("expected no install, got %d", n)
	}
}

func TestEnsureInstalled_ResolveFailureInstallsTagWhenMissing(t *testing.T) {
	reg := newFakeRegistry()
	reg.resolveErr = errors.New("offline")
	p := NewProvisioner(reg, VersionResolved)

	if err := p.EnsureInstalled(context.Background(), PackageSpec{Name: pkg.Name, Version: "latest"}); err != nil {
		t.Fatal(err)
	}
	if len(reg.installs) != 1 || reg.installs[0] != pkg.Name+"@latest" {
		t.Errorf("unexpected installs: %v", reg.installs)
	}
}

func TestEnsureInstalled_InstallError(t *testing.T) {
	reg := newFakeRegistry()
	cause := errors.New("EACCES")
	reg.installErr = cause
	p := NewProvisioner(reg, VersionExact)

	err := p.EnsureInstalled(context.Background(), pkg)
	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("expected *InstallError, got %T: %v", err, err)
	}
	if installErr.Package != pkg {
		t.Errorf("unexpected package in error: %v", installErr.Package)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the install error to wrap the cause")
	}
}

func TestParseVersionPolicy(t *testing.T) {
	cases := map[string]VersionPolicy{"": VersionExact, "exact": VersionExact, "resolved": VersionResolved}
	for in, want := range cases {
		got, err := ParseVersionPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseVersionPolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseVersionPolicy("semver"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

// blockingRegistry holds Install open until release is closed.
type blockingRegistry struct {
	*fakeRegistry
	started chan struct{}
	release chan struct{}

	mu         sync.Mutex
	installCtx error
}

func (b *blockingRegistry) Install(ctx context.Context, name, version string) error {
	close(b.started)
	<-b.release
	b.mu.Lock()
	b.installCtx = ctx.Err()
	b.mu.Unlock()
	return b.fakeRegistry.Install(ctx, name, version)
}

func TestEnsureInstalled_CancelledCallerDoesNotFailOthers(t *testing.T) {
	reg := &blockingRegistry{
		fakeRegistry: newFakeRegistry(),
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	p := NewProvisioner(reg, VersionExact)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() { errA <- p.EnsureInstalled(ctxA, pkg) }()
	<-reg.started

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: got %v, want context.Canceled", err)
	}

	errB := make(chan error, 1)
	go func() { errB <- p.EnsureInstalled(context.Background(), pkg) }()
	close(reg.release)

	if err := <-errB; err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if n := reg.installCount(); n != 1 {
		t.Errorf("installs: got %d, want 1", n)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.installCtx != nil {
		t.Errorf("shared install saw cancelled context: %v", reg.installCtx)
	}
}
