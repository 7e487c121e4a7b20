package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/embano1/consult-insights/internal/artifact"
)

var locateCmd = &cobra.Command{
	Use:   "locate KEY",
	Short: "Print where the artifacts of a video are expected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printLocations(cmd.OutOrStdout(), args[0])
		return nil
	},
}

func printLocations(w io.Writer, key string) {
	for _, kind := range artifact.Kinds {
		fmt.Fprintf(w, "%-10s %s\n", kind.String()+":", artifact.Locate(key, kind))
	}
}
