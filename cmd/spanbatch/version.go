package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/spanbatch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// No config or logger needed.
	PersistentPreRun: func(*cobra.Command, []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "spanbatch %s\n", version.Version)
		fmt.Fprintf(out, "  commit: %s\n", version.GitCommit)
		fmt.Fprintf(out, "  built:  %s\n", version.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
