package dependency

import (
	"path/filepath"
	"testing"

	"github.com/crystaldolphin/context7-launcher/internal/config"
	"github.com/crystaldolphin/context7-launcher/internal/provision"
)

func TestNew_WiresDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.WorkDir = t.TempDir()

	c, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Server().ServerID() != cfg.ServerID {
		t.Errorf("server id: got %q", c.Server().ServerID())
	}
	if c.Provisioner().Policy() != provision.VersionResolved {
		t.Errorf("policy: got %q", c.Provisioner().Policy())
	}
	wd, err := c.WorkDir()()
	if err != nil || wd != cfg.WorkDir {
		t.Errorf("work dir: got %q, %v", wd, err)
	}
}

func TestNew_RelativeWorkDirIsAbsolute(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.WorkDir = "relative/dir"

	c, err := New(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	wd, err := c.WorkDir()()
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(wd) {
		t.Errorf("expected absolute work dir, got %q", wd)
	}
}

func TestNew_RejectsUnknownPolicy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VersionPolicy = "semver"
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected error for unknown version policy")
	}
}

func TestNewRefresher_InvalidSchedule(t *testing.T) {
	cfg := config.DefaultConfig()
	c, err := New(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.NewRefresher("whenever"); err == nil {
		t.Fatal("expected schedule error")
	}
}
