package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crystaldolphin/context7-launcher/internal/shared/cmdutils"
)

var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Install the server package if needed and print its launch command as JSON",
	Args:  cobra.NoArgs,
	RunE:  runCommand,
}

func runCommand(cmd *cobra.Command, _ []string) error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	project, err := currentProject()
	if err != nil {
		return err
	}
	sc, err := c.Server().Command(cmd.Context(), project)
	if err != nil {
		return err
	}
	return cmdutils.PrintJSON(cmd.OutOrStdout(), sc)
}
