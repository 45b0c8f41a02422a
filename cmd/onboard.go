package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/context7-launcher/internal/config"
	"github.com/crystaldolphin/context7-launcher/internal/extension"
	"github.com/crystaldolphin/context7-launcher/internal/host"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and a sample project settings file",
	Args:  cobra.NoArgs,
	RunE:  runOnboard,
}

const sampleProjectSettings = `# Settings for the Context7 MCP server in this project.
# Values here override the global settings file key by key.
context_servers:
  %s:
    settings:
      # Optional. Get a key at https://context7.com/dashboard
      # context7_api_key: ""
      # Minimum number of tokens returned per documentation lookup.
      # default_minimum_tokens: "10000"
`

func runOnboard(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
		fmt.Fprint(out, "Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Config refreshed at %s\n", cfgPath)
	} else {
		def := config.DefaultConfig()
		if err := config.Save(&def, cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Created config at %s\n", cfgPath)
	}

	project, err := currentProject()
	if err != nil {
		return err
	}
	serverID := cfg.ServerID
	if serverID == "" {
		serverID = extension.DefaultServerID
	}
	created, err := writeSampleSettings(project, serverID)
	if err != nil {
		return err
	}
	if created != "" {
		fmt.Fprintf(out, "✓ Created %s\n", created)
	}

	fmt.Fprintf(out, "\n%s context7-launcher is ready!\n\n", logo)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Optionally add your Context7 API key to the project settings")
	fmt.Fprintln(out, "  2. Install the server:   context7-launcher provision")
	fmt.Fprintln(out, "  3. Check it starts:      context7-launcher probe")
	return nil
}

// writeSampleSettings creates the first project settings file if none of the
// known names exist. It returns the created path, or "" when one was present.
func writeSampleSettings(project host.Project, serverID string) (string, error) {
	for _, name := range host.ProjectSettingsFiles {
		if _, err := os.Stat(filepath.Join(project.Root, name)); err == nil {
			return "", nil
		}
	}
	p := filepath.Join(project.Root, host.ProjectSettingsFiles[0])
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(p, []byte(fmt.Sprintf(sampleProjectSettings, serverID)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}
