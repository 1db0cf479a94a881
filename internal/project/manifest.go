package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"flowscope/internal/trace"
)

// DefaultPasses is the pipeline used when the manifest names none.
var DefaultPasses = []string{"resolve", "infer"}

// ProgressModes are the accepted [analysis].progress values. auto renders
// the directory progress view only when the output is a terminal.
var ProgressModes = []string{"auto", "on", "off"}

// ErrUnknownKey reports a manifest key no setting reads.
var ErrUnknownKey = errors.New("unknown key")

// Manifest is a loaded flowscope.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest sections.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Trace    TraceConfig    `toml:"trace"`
}

type AnalysisConfig struct {
	MaxDiagnostics   int  `toml:"max_diagnostics"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
	// Jobs bounds parallel files in directory mode; 0 means GOMAXPROCS.
	Jobs      int      `toml:"jobs"`
	Passes    []string `toml:"passes"`
	DiskCache bool     `toml:"disk_cache"`
	Progress  string   `toml:"progress"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// DefaultConfig is the configuration of a project without a manifest.
func DefaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{
			MaxDiagnostics: 100,
			Passes:         slices.Clone(DefaultPasses),
			Progress:       "auto",
		},
		Trace: TraceConfig{Level: "off"},
	}
}

// Load finds and decodes the manifest governing startDir. ok is false when
// there is none; the returned manifest then carries DefaultConfig.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Manifest{Config: DefaultConfig()}, false, nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig decodes the manifest at path over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	if meta.IsDefined("analysis", "passes") && len(cfg.Analysis.Passes) == 0 {
		return Config{}, fmt.Errorf("%s: [analysis].passes is empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Analysis.MaxDiagnostics < 0 {
		return fmt.Errorf("[analysis].max_diagnostics must be >= 0, got %d", c.Analysis.MaxDiagnostics)
	}
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("[analysis].jobs must be >= 0, got %d", c.Analysis.Jobs)
	}
	for _, p := range c.Analysis.Passes {
		if strings.TrimSpace(p) == "" {
			return errors.New("[analysis].passes contains an empty name")
		}
	}
	if !slices.Contains(ProgressModes, c.Analysis.Progress) {
		return fmt.Errorf("[analysis].progress must be one of %s, got %q", strings.Join(ProgressModes, "|"), c.Analysis.Progress)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	return nil
}
