package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/logger"
	"github.com/Faultbox/spanbatch/internal/pipeline"
	"github.com/Faultbox/spanbatch/internal/watcher"
)

var watch bool

var exportCmd = &cobra.Command{
	Use:   "export [scene.yaml]",
	Short: "Export a scene into drawable groups and write a preview",
	Long: `Export every object of the scene, finalize the drawable groups and write
them as glTF or GLB to the output directory. With --watch the export runs
again in a fresh session whenever the scene file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-export when the scene file changes")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := exportOnce(cmd, path); err != nil && !watch {
		return err
	}
	if !watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return watchScene(ctx, cmd, path)
}

// exportOnce runs one export. Nonfatal errors still produce output and are
// returned after the dump.
func exportOnce(cmd *cobra.Command, path string) error {
	start := time.Now()
	res, err := pipeline.Run(cfg, path, logger.Log)
	if res == nil {
		logger.Log.Error("export failed", zap.String("scene", path), zap.Error(err))
		return err
	}
	if cfg.Output.Dump {
		pipeline.Dump(cmd.OutOrStdout(), res)
	}
	if err != nil {
		for _, e := range res.Session.Report().Errors() {
			logger.Log.Warn("object skipped", zap.Error(e))
		}
		return err
	}
	logger.Log.Info("export complete",
		zap.String("scene", path),
		zap.String("output", res.Output),
		zap.Duration("took", time.Since(start)))
	return nil
}

func watchScene(ctx context.Context, cmd *cobra.Command, path string) error {
	fw, err := watcher.New(250*time.Millisecond, logger.Log.Named("watch"))
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Watch([]string{path}, func(string) {
		if err := exportOnce(cmd, path); err != nil && !errors.Is(err, logger.ErrNonfatal) {
			logger.Log.Error("re-export failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	logger.Log.Info("watching scene for changes", zap.String("scene", path))
	fw.Run(ctx)
	return nil
}
