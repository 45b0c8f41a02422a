package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/context7-launcher/internal/config"
	"github.com/crystaldolphin/context7-launcher/internal/extension"
	"github.com/crystaldolphin/context7-launcher/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show context7-launcher status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	cmdutils.PrintHeader(out, "context7-launcher Status")

	_, statErr := os.Stat(cfgPath)
	fmt.Fprintf(out, "Config:    %s %s\n", cfgPath, cmdutils.Mark(statErr == nil))

	c, err := newContainer()
	if err != nil {
		fmt.Fprintf(out, "  (could not wire services: %v)\n", err)
		return nil
	}
	project, err := currentProject()
	if err != nil {
		return err
	}

	wd, wdErr := c.WorkDir()()
	if wdErr != nil {
		wd = wdErr.Error()
	}
	pkg := c.Server().Package()
	fmt.Fprintf(out, "Work dir:  %s\n", wd)
	fmt.Fprintf(out, "Package:   %s (policy %s)\n", pkg, c.Provisioner().Policy())
	fmt.Fprintf(out, "Project:   %s\n\n", project.Root)

	// Checks run together; the first failure cancels the npm view lookup,
	// which is the only slow one.
	var (
		nodePath, installed, latest string
		hasInstall                  bool
		nodeErr, instErr, latestErr error
		settingsErr                 error
	)
	ctx, cancel := contextWithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nodePath, nodeErr = c.Runtime().ExecutablePath()
		return nodeErr
	})
	g.Go(func() error {
		installed, hasInstall, instErr = c.Registry().InstalledVersion(gctx, pkg.Name)
		return instErr
	})
	g.Go(func() error {
		latest, latestErr = c.Registry().ResolveVersion(gctx, pkg.Name, pkg.Version)
		return latestErr
	})
	g.Go(func() error {
		_, settingsErr = c.Server().Settings(project, extension.CommandPolicy)
		return settingsErr
	})
	firstErr := g.Wait()

	printCheck(out, "Node", nodePath, nodeErr)
	switch {
	case instErr != nil:
		printCheck(out, "Installed", "", instErr)
	case !hasInstall:
		fmt.Fprintf(out, "  %-12s ✗ (not installed, run provision)\n", "Installed")
	default:
		printCheck(out, "Installed", installed, nil)
	}
	if latestErr != nil && gctx.Err() != nil && ctx.Err() == nil && latestErr != firstErr {
		fmt.Fprintf(out, "  %-12s - skipped\n", "Registry")
	} else {
		printCheck(out, "Registry", fmt.Sprintf("%s → %s", pkg.Version, latest), latestErr)
	}
	printCheck(out, "Settings", "valid", settingsErr)

	if firstErr != nil {
		return fmt.Errorf("status check failed: %w", firstErr)
	}
	return nil
}

func printCheck(w io.Writer, label, detail string, err error) {
	if err != nil {
		fmt.Fprintf(w, "  %-12s ✗ %v\n", label, err)
		return
	}
	fmt.Fprintf(w, "  %-12s ✓ %s\n", label, detail)
}
