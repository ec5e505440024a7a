package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	AgeName    string
	OutputDir  string
	Format     string
	MaxDepth   int
	FailFast   bool
	Dump       bool
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file")
	fs.StringVar(&f.AgeName, "age", "", "Age name used as page prefix")
	fs.StringVarP(&f.OutputDir, "out", "o", "", "Output directory")
	fs.StringVarP(&f.Format, "format", "f", "", "Output format: gltf, glb or none")
	fs.IntVar(&f.MaxDepth, "max-depth", 0, "Bound on draw-after dependency chains")
	fs.BoolVar(&f.FailFast, "fail-fast", false, "Abort on the first object that fails to export")
	fs.BoolVar(&f.Dump, "dump", false, "Dump object records and groups to stdout")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.AgeName != "" {
		cfg.Export.AgeName = f.AgeName
	}
	if f.OutputDir != "" {
		cfg.Output.Dir = f.OutputDir
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.MaxDepth > 0 {
		cfg.Export.MaxDependencyDepth = f.MaxDepth
	}
	if f.FailFast {
		cfg.Export.SkipFailedObjects = false
	}
	if f.Dump {
		cfg.Output.Dump = true
	}
}
