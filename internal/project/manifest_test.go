package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[analysis]
max_diagnostics = 5
warnings_as_errors = true
jobs = 2
passes = ["resolve"]
disk_cache = true
progress = "off"

[trace]
level = "phase"
output = "trace.ndjson"
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	m, ok, err := Load(nested)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, root, m.Root)
	require.Equal(t, AnalysisConfig{
		MaxDiagnostics:   5,
		WarningsAsErrors: true,
		Jobs:             2,
		Passes:           []string{"resolve"},
		DiskCache:        true,
		Progress:         "off",
	}, m.Config.Analysis)
	require.Equal(t, TraceConfig{Level: "phase", Output: "trace.ndjson"}, m.Config.Trace)
}

func TestLoadWithoutManifest(t *testing.T) {
	m, ok, err := Load(t.TempDir())
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, DefaultConfig(), m.Config)
	require.Equal(t, []string{"resolve", "infer"}, m.Config.Analysis.Passes)
}

func TestLoadConfigDefaultsSurvivePartialManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[analysis]\njobs = 4\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Analysis.Jobs)
	require.Equal(t, 100, cfg.Analysis.MaxDiagnostics)
	require.Equal(t, DefaultPasses, cfg.Analysis.Passes)
	require.Equal(t, "auto", cfg.Analysis.Progress)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "syntax", body: "[analysis\n", want: "failed to parse TOML"},
		{name: "unknown key", body: "[analysis]\nthreads = 3\n", want: "unknown key: analysis.threads"},
		{name: "negative jobs", body: "[analysis]\njobs = -1\n", want: "[analysis].jobs must be >= 0"},
		{name: "empty passes", body: "[analysis]\npasses = []\n", want: "[analysis].passes is empty"},
		{name: "progress", body: "[analysis]\nprogress = \"sometimes\"\n", want: "[analysis].progress must be one of auto|on|off"},
		{name: "trace level", body: "[trace]\nlevel = \"loud\"\n", want: "invalid trace level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadConfig(path)
			require.ErrorContains(t, err, tt.want)
		})
	}
}
