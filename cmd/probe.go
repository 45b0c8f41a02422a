package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/context7-launcher/internal/mcp"
	"github.com/crystaldolphin/context7-launcher/internal/shared/cmdutils"
)

var (
	probeCall    string
	probeArgs    []string
	probeTimeout time.Duration
	probeStderr  bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Start the server, list its tools and optionally call one",
	Example: `  context7-launcher probe
  context7-launcher probe --call resolve-library-id --arg libraryName=react`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	f := probeCmd.Flags()
	f.StringVar(&probeCall, "call", "", "tool to call after listing tools")
	f.StringArrayVar(&probeArgs, "arg", nil, "tool argument as key=value (repeatable)")
	f.DurationVar(&probeTimeout, "timeout", 60*time.Second, "overall probe timeout")
	f.BoolVar(&probeStderr, "server-stderr", false, "copy the server's stderr to ours")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	call, err := parseToolCall(probeCall, probeArgs)
	if err != nil {
		return err
	}

	c, err := newContainer()
	if err != nil {
		return err
	}
	project, err := currentProject()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sc, err := c.Server().Command(ctx, project)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(ctx, probeTimeout)
	defer cancel()

	var serverStderr *os.File
	if probeStderr {
		serverStderr = os.Stderr
	}
	res, err := mcp.Probe(ctx, sc, call, writerOrNil(serverStderr))
	if err != nil {
		return err
	}
	return cmdutils.PrintJSON(cmd.OutOrStdout(), res)
}

// parseToolCall turns --call and --arg key=value pairs into a ToolCall.
// It returns nil when no tool was requested.
func parseToolCall(name string, args []string) (*mcp.ToolCall, error) {
	if name == "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--arg requires --call")
		}
		return nil, nil
	}
	call := &mcp.ToolCall{Name: name, Arguments: make(map[string]any, len(args))}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --arg %q (want key=value)", a)
		}
		call.Arguments[k] = v
	}
	return call, nil
}
