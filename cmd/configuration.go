package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/context7-launcher/internal/shared/cmdutils"
)

var configurationPart string

var configurationCmd = &cobra.Command{
	Use:   "configuration",
	Short: "Print the configuration descriptor for the current project",
	Long: `Print the configuration descriptor as JSON, or a single part of it with
--part instructions|settings|schema.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printConfiguration(cmd, configurationPart)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the server settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printConfiguration(cmd, "schema")
	},
}

func init() {
	configurationCmd.Flags().StringVar(&configurationPart, "part", "", "print only instructions, settings or schema")
}

// printConfiguration writes the descriptor, or only the named part of it.
func printConfiguration(cmd *cobra.Command, part string) error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	project, err := currentProject()
	if err != nil {
		return err
	}
	desc, err := c.Server().Configuration(project)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch part {
	case "":
		return cmdutils.PrintJSON(out, desc)
	case "instructions":
		return writeText(out, desc.Instructions)
	case "settings":
		return writeText(out, desc.DefaultSettings)
	case "schema":
		return writeText(out, desc.Schema)
	default:
		return fmt.Errorf("unknown part %q (want instructions, settings or schema)", part)
	}
}

func writeText(w io.Writer, s string) error {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
