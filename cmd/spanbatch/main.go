// spanbatch exports YAML scene descriptions into batched drawable groups and
// writes a glTF preview of the result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/spanbatch/internal/config"
	"github.com/Faultbox/spanbatch/internal/logger"
	"github.com/Faultbox/spanbatch/internal/version"
)

var (
	flags config.Flags
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "spanbatch",
	Short: "Batch scene geometry into drawable span groups",
	Long: `spanbatch converts tessellated scene meshes into deduplicated per-material
vertex/index spans, classifies them by render level and sort policy, and
batches them into drawable groups per page.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load("", &flags)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		logger.Sugar.Debugf("Config: %+v", cfg)
		return nil
	},
}

func init() {
	flags.Register(rootCmd.PersistentFlags())
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
