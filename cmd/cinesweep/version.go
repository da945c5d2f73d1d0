package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/JustinTDCT/CineSweep/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "CineSweep %s (%s)\n", version.Load(flagVersionFile).Version, runtime.Version())
	},
}
