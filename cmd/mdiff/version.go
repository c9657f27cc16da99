package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mdiff/internal/javaparse"
	"mdiff/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  exactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		parser := "available"
		if !javaparse.IsAvailable() {
			parser = "unavailable (built without cgo)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Java parser: %s\n", parser)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
