package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screenerctl",
		Short: "Tools for the voice screening service",
		Long: `screenerctl works with the voice screening service offline.

It renders and checks interview scripts, and ingests role reference
material into the Qdrant question bank used during document analysis.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newScriptCommand())
	cmd.AddCommand(newIngestCommand())

	return cmd
}
