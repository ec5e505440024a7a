// Package pipeline runs one export of a scene file: load, export, finalize
// and write the preview document.
package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/spanbatch/internal/compiler"
	"github.com/Faultbox/spanbatch/internal/config"
	"github.com/Faultbox/spanbatch/internal/export"
	"github.com/Faultbox/spanbatch/internal/gltfout"
	"github.com/Faultbox/spanbatch/internal/scene"
)

// Result is what one run produced.
type Result struct {
	Scene   *scene.Scene
	Session *export.Session
	Packer  *compiler.Packer
	// Output is the written document path, empty when nothing was written.
	Output string
}

// Run exports the scene at scenePath with cfg. A fatal error stops the run
// and returns a nil result. Otherwise the result is returned together with
// the report's aggregated nonfatal errors, if any.
func Run(cfg *config.Config, scenePath string, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sc, err := scene.Load(scenePath)
	if err != nil {
		return nil, err
	}
	if cfg.Export.AgeName != "" {
		sc.SetAge(cfg.Export.AgeName)
	}

	res := &Result{Scene: sc, Packer: compiler.NewPacker(log.Named("compiler"))}
	res.Session = export.NewSession(export.Options{
		MaxDependencyDepth: cfg.Export.MaxDependencyDepth,
		SkipFailedObjects:  cfg.Export.SkipFailedObjects,
	}, sc.Materials, sc.Pages, res.Packer, log.Named("export"))

	log.Info("exporting scene",
		zap.String("scene", scenePath),
		zap.String("age", sc.Age),
		zap.Int("objects", len(sc.Objects)))

	if err := res.Session.Export(sc.Objects); err != nil {
		return nil, pkgerrors.Wrapf(err, "export %s", scenePath)
	}
	if !cfg.Export.Finalize {
		return res, res.Session.Report().Err()
	}
	if err := res.Session.Finalize(); err != nil {
		return nil, err
	}

	if cfg.Output.Format != config.FormatNone {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return nil, pkgerrors.Wrap(err, "create output dir")
		}
		res.Output = filepath.Join(cfg.Output.Dir, outputName(sc, scenePath)+"."+cfg.Output.Format)
		doc := gltfout.Build(res.Packer.Packed(), log.Named("gltf"))
		if err := gltfout.Save(res.Output, doc, cfg.Output.Format == config.FormatGLB); err != nil {
			return nil, err
		}
		log.Info("wrote preview", zap.String("path", res.Output))
	}
	return res, res.Session.Report().Err()
}

// outputName is the age name, or the scene file name without extension.
func outputName(sc *scene.Scene, scenePath string) string {
	if sc.Age != "" {
		return sc.Age
	}
	base := filepath.Base(scenePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
