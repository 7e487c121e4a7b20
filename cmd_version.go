package main

import (
	"github.com/spf13/cobra"

	"github.com/embano1/consult-insights/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		config.PrintVersion(cmd.OutOrStdout())
	},
}
