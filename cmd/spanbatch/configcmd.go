package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/spanbatch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Write the effective configuration to a file",
	Long: `Write the configuration after applying the config file and flags, so it can
be edited and reused. The default path is ./` + config.FileName + ".",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FileName
		if len(args) == 1 {
			path = args[0]
		}
		if err := cfg.SaveTo(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
