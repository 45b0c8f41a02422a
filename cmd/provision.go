package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Make sure the server package is installed at the configured version",
	Args:  cobra.NoArgs,
	RunE:  runProvision,
}

var refreshSchedule string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Keep the server package current on a cron schedule",
	Long: `Re-run provisioning on a schedule until interrupted. Accepts a 5-field
cron expression or a descriptor such as "@every 6h" or "@daily".`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshSchedule, "schedule", "", "cron schedule (default from config refresh.schedule)")
}

func runProvision(cmd *cobra.Command, _ []string) error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	pkg := c.Server().Package()
	start := time.Now()
	if err := c.Provisioner().EnsureInstalled(cmd.Context(), pkg); err != nil {
		return err
	}

	installed, ok, err := c.Registry().InstalledVersion(cmd.Context(), pkg.Name)
	if err != nil {
		return err
	}
	if !ok {
		installed = "(unknown)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s@%s (%s, %s)\n",
		pkg.Name, installed, c.Provisioner().Policy(), time.Since(start).Round(time.Millisecond))
	return nil
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	schedule := refreshSchedule
	if schedule == "" {
		schedule = cfg.Refresh.Schedule
	}

	c, err := newContainer()
	if err != nil {
		return err
	}
	r, err := c.NewRefresher(schedule)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One pass up front so a fresh machine does not wait for the first tick.
	// Failures are already logged and recorded in the status.
	_ = r.RunOnce(ctx)

	if err := r.Start(ctx); err != nil {
		return err
	}
	slog.Info("refresh stopped", "runs", r.Status().Runs)
	return nil
}
