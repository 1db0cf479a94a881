package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"flowscope/internal/diagfmt"
	"flowscope/internal/project"
)

const badTree = `{"_type": "Module", "body": [
  {"_type": "Expr", "lineno": 1, "col_offset": 0, "end_lineno": 1, "end_col_offset": 4,
   "value": {"_type": "UnaryOp", "lineno": 1, "col_offset": 0, "end_lineno": 1, "end_col_offset": 4,
     "op": {"_type": "USub"}, "operand": {"_type": "Constant", "value": "s"}}}]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.ast.json")
	require.NoError(t, os.WriteFile(path, []byte(badTree), 0o600))

	out, err := execute(t, "analyze", "--color", "off", "--format", "json", path)
	require.ErrorIs(t, err, errFindings)

	var doc diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, 1, doc.Count)
	require.Equal(t, "TYP4005", doc.Diagnostics[0].Code)
	require.Equal(t, "bad operand type for unary -: 'str'", doc.Diagnostics[0].Message)
}

func TestIRCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.ast.json")
	require.NoError(t, os.WriteFile(path, []byte(badTree), 0o600))
	out, err := execute(t, "ir", path)
	require.NoError(t, err)
	require.Contains(t, out, "module m (line 1)")
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"tool": "flowscope"`)
}

func newAnalyzeCommand() *cobra.Command {
	root := &cobra.Command{Use: "flowscope"}
	root.PersistentFlags().Int("max-diagnostics", 100, "")
	cmd := &cobra.Command{Use: "analyze"}
	addAnalyzeFlags(cmd)
	root.AddCommand(cmd)
	return cmd
}

func TestProgressSettingMergesManifestAndFlag(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, project.ManifestName)
	require.NoError(t, os.WriteFile(manifest, []byte("[analysis]\nprogress = \"on\"\n"), 0o600))

	cmd := newAnalyzeCommand()
	_, af, err := resolveOptions(cmd, dir)
	require.NoError(t, err)
	require.Equal(t, "on", af.progress)

	require.NoError(t, cmd.Flags().Set("ui", " OFF "))
	_, af, err = resolveOptions(cmd, dir)
	require.NoError(t, err)
	require.Equal(t, "off", af.progress)

	require.NoError(t, cmd.Flags().Set("ui", "sometimes"))
	_, _, err = resolveOptions(cmd, dir)
	require.ErrorContains(t, err, "[analysis].progress must be one of auto|on|off")
}

func TestShowProgress(t *testing.T) {
	var buf bytes.Buffer
	require.True(t, showProgress("on", true, &buf))
	require.False(t, showProgress("off", false, os.Stdout))
	require.False(t, showProgress("auto", false, &buf), "auto needs a terminal")
	require.False(t, showProgress("auto", true, os.Stdout), "quiet runs stay silent")
}

func TestAnalyzeFixtureDirectory(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "trees")
	out, err := execute(t, "analyze", "--color", "off", "--ui", "off", "--quiet", "--format", "pretty", "--emit-symbols", dir)
	if err != nil {
		require.ErrorIs(t, err, errFindings)
	}
	require.Contains(t, out, "== symbols "+filepath.Join(dir, "arith.ast.json"))
	require.Contains(t, out, "== symbols "+filepath.Join(dir, "classes.ast.json"))
}

func TestSetupProfiling(t *testing.T) {
	dir := t.TempDir()
	cmd := &cobra.Command{Use: "analyze"}
	cmd.PersistentFlags().String("cpu-profile", filepath.Join(dir, "cpu.pprof"), "")
	cmd.PersistentFlags().String("mem-profile", filepath.Join(dir, "mem.pprof"), "")
	cmd.PersistentFlags().String("runtime-trace", "", "")

	cleanup, err := setupProfiling(cmd)
	require.NoError(t, err)
	cleanup()
	cleanup()

	require.FileExists(t, filepath.Join(dir, "cpu.pprof"))
	require.FileExists(t, filepath.Join(dir, "mem.pprof"))
	require.NoFileExists(t, filepath.Join(dir, "run.trace"))
}
