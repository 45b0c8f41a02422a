// Package cmd implements the context7-launcher CLI using cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/context7-launcher/internal/config"
	"github.com/crystaldolphin/context7-launcher/internal/dependency"
	"github.com/crystaldolphin/context7-launcher/internal/host"
	"github.com/crystaldolphin/context7-launcher/internal/shared/cmdutils"
)

const version = "0.1.0"
const logo = "📚"

// Persistent flag values.
var (
	configPath  string
	logLevel    string
	logFormat   string
	projectRoot string
	workDir     string
)

// cfg is loaded once per invocation by the root PersistentPreRunE.
var cfg *config.Config

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "context7-launcher",
	Short: logo + " context7-launcher: launch and configure the Context7 MCP server",
	Long: logo + ` context7-launcher resolves per-project settings into the command that
starts the Context7 MCP server and the configuration descriptor shown to users.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.context7-launcher/config.json)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: text or json")
	pf.StringVarP(&projectRoot, "project", "p", ".", "project root holding .context7/settings.yaml")
	pf.StringVar(&workDir, "work-dir", "", "directory the server package is installed into")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(configurationCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(probeCmd)
}

func loadConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if logFormat != "" {
		loaded.Log.Format = logFormat
	}
	if workDir != "" {
		loaded.WorkDir = workDir
	}
	if err := cmdutils.SetupLogging(os.Stderr, loaded.Log.Level, loaded.Log.Format); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func newContainer() (*dependency.Container, error) {
	return dependency.New(cfg)
}

func currentProject() (host.Project, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return host.Project{}, fmt.Errorf("resolve project root: %w", err)
	}
	return host.Project{Root: root}, nil
}
