// Package config handles exporter configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/spanbatch/internal/render"
)

// Output formats.
const (
	FormatGLTF = "gltf"
	FormatGLB  = "glb"
	FormatNone = "none"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds export session settings.
type ExportConfig struct {
	AgeName            string `yaml:"age_name"`             // Prefix for page names, empty uses the scene's
	MaxDependencyDepth int    `yaml:"max_dependency_depth"` // Bound on draw-after chains
	SkipFailedObjects  bool   `yaml:"skip_failed_objects"`  // Report capacity errors and continue
	Finalize           bool   `yaml:"finalize"`             // Compose groups after registration
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // gltf, glb or none
	Dump   bool   `yaml:"dump"`   // Dump records and groups to stdout
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			MaxDependencyDepth: render.DefaultMaxDepth,
			SkipFailedObjects:  true,
			Finalize:           true,
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: FormatGLB,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values the YAML decoder cannot.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatGLTF, FormatGLB, FormatNone:
	default:
		return fmt.Errorf("%w: output.format %q (want gltf, glb or none)", ErrInvalid, c.Output.Format)
	}
	if c.Export.MaxDependencyDepth <= 0 {
		return fmt.Errorf("%w: export.max_dependency_depth must be positive, got %d",
			ErrInvalid, c.Export.MaxDependencyDepth)
	}
	if c.Output.Format != FormatNone && c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir is empty", ErrInvalid)
	}
	return nil
}
