package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"flowscope/internal/analysis"
	"flowscope/internal/diag"
	"flowscope/internal/observ"
	"flowscope/internal/source"
	"flowscope/internal/testkit"
)

const (
	cleanTree = `{"_type": "Module", "body": [
  {"_type": "Assign", "lineno": 1, "col_offset": 0, "end_lineno": 1, "end_col_offset": 5,
   "targets": [{"_type": "Name", "id": "x", "ctx": {"_type": "Store"}}],
   "value": {"_type": "Constant", "value": 1}}]}`

	mixedTree = `{"_type": "Module", "body": [
  {"_type": "Assign", "lineno": 1, "col_offset": 0, "end_lineno": 1, "end_col_offset": 11,
   "targets": [{"_type": "Name", "id": "x", "ctx": {"_type": "Store"}}],
   "value": {"_type": "BinOp", "lineno": 1, "col_offset": 4, "end_lineno": 1, "end_col_offset": 11,
     "left": {"_type": "Constant", "value": 1}, "op": {"_type": "Add"},
     "right": {"_type": "Constant", "value": "a"}}}]}`

	conflictTree = `{"_type": "Module", "body": [
  {"_type": "FunctionDef", "name": "f", "lineno": 1, "col_offset": 0, "end_lineno": 2, "end_col_offset": 12,
   "args": {"_type": "arguments", "args": [{"_type": "arg", "arg": "a"}]},
   "body": [{"_type": "Global", "names": ["a"], "lineno": 2, "col_offset": 4, "end_lineno": 2, "end_col_offset": 12}],
   "decorator_list": []}]}`

	malformedTree = `{"_type": "Expression", "body": {}}`
)

func writeTree(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+".ast.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestAnalyzeFileCollectsTypeDiagnostics(t *testing.T) {
	path := writeTree(t, t.TempDir(), "m", mixedTree)
	timer := observ.NewTimer()

	res, err := AnalyzeFile(context.Background(), path, Options{Timer: timer})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	fr := res.Files[0]
	require.NotNil(t, fr.Program)
	require.NoError(t, testkit.CheckSpanInvariants(fr.Program.Module))
	require.NoError(t, testkit.CheckProgramInvariants(fr.Program))
	require.Equal(t, []diag.Code{diag.TypUnsupportedOperand}, codes(fr.Bag))
	d := fr.Bag.Items()[0]
	require.Equal(t, "unsupported operand type(s) for +: 'int' and 'str'", d.Message)
	require.Equal(t, uint32(1), d.Primary.Line)
	require.Equal(t, uint32(4), d.Primary.Col)
	require.True(t, res.HasErrors())

	var phases []string
	for _, p := range timer.Report().Phases {
		phases = append(phases, p.Name)
	}
	require.Equal(t, []string{"load", "decode", "translate", "resolve", "infer"}, phases)
}

func TestAnalyzeFileSummarizesSymbols(t *testing.T) {
	path := writeTree(t, t.TempDir(), "m", cleanTree)
	res, err := AnalyzeFile(context.Background(), path, Options{})
	require.NoError(t, err)
	fr := res.Files[0]
	require.Zero(t, fr.Bag.Len())
	require.False(t, res.HasErrors())
	require.Contains(t, fr.Symbols, SymbolSummary{Table: "m", Name: "x", Binding: "local", Gens: 1, Type: "int"})
}

func TestProgramErrorsBecomeDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		tree string
		want diag.Code
	}{
		{name: "scope conflict", tree: conflictTree, want: diag.SemScopeConflict},
		{name: "malformed", tree: malformedTree, want: diag.InMalformedTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTree(t, t.TempDir(), "m", tt.tree)
			res, err := AnalyzeFile(context.Background(), path, Options{})
			require.NoError(t, err)
			require.Equal(t, []diag.Code{tt.want}, codes(res.Files[0].Bag))
		})
	}
}

func TestMissingFileIsADiagnostic(t *testing.T) {
	res, err := AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "gone.ast.json"), Options{})
	require.NoError(t, err)
	require.Equal(t, []diag.Code{diag.InLoadFileError}, codes(res.Files[0].Bag))
}

func TestPipelineContractErrorsAbort(t *testing.T) {
	path := writeTree(t, t.TempDir(), "m", cleanTree)

	_, err := AnalyzeFile(context.Background(), path, Options{Passes: []string{"nope"}})
	require.ErrorIs(t, err, analysis.ErrUnknownPass)

	_, err = AnalyzeFile(context.Background(), path, Options{Passes: []string{"infer", "resolve"}})
	var missing *analysis.MissingResultError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "resolve", missing.Key)
}

func TestResolveOnlyPipeline(t *testing.T) {
	path := writeTree(t, t.TempDir(), "m", mixedTree)
	res, err := AnalyzeFile(context.Background(), path, Options{Passes: []string{"resolve"}})
	require.NoError(t, err)
	fr := res.Files[0]
	require.Zero(t, fr.Bag.Len())
	require.Contains(t, fr.Symbols, SymbolSummary{Table: "m", Name: "x", Binding: "local", Gens: 1})
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)
	path := writeTree(t, t.TempDir(), "m", mixedTree)
	opts := Options{Cache: cache}

	first, err := AnalyzeFile(context.Background(), path, opts)
	require.NoError(t, err)
	require.False(t, first.Files[0].Cached)

	second, err := AnalyzeFile(context.Background(), path, opts)
	require.NoError(t, err)
	fr := second.Files[0]
	require.True(t, fr.Cached)
	require.Nil(t, fr.Program)
	require.Equal(t, first.Files[0].Bag.Items(), fr.Bag.Items())
	require.Equal(t, first.Files[0].Symbols, fr.Symbols)

	// another pipeline is another key
	third, err := AnalyzeFile(context.Background(), path, Options{Cache: cache, Passes: []string{"resolve"}})
	require.NoError(t, err)
	require.False(t, third.Files[0].Cached)

	require.NoError(t, cache.DropAll())
	fourth, err := AnalyzeFile(context.Background(), path, opts)
	require.NoError(t, err)
	require.False(t, fourth.Files[0].Cached)
}

func TestDiskCacheGetAndMiss(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)
	key := cacheKey([32]byte{1}, []string{"resolve"}, 0)
	warn := diag.New(diag.SevWarning, diag.TypInfo, source.Span{Line: 3, EndLine: 3}, "w")
	require.NoError(t, cache.Put(key, &DiskPayload{Passes: []string{"resolve"}, Diagnostics: []diag.Diagnostic{warn}}))

	var payload DiskPayload
	hit, err := cache.Get(key, &payload)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []diag.Diagnostic{warn}, payload.Diagnostics)

	miss, err := cache.Get(cacheKey([32]byte{2}, []string{"resolve"}, 0), &payload)
	require.NoError(t, err)
	require.False(t, miss)
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a", cleanTree)
	writeTree(t, dir, "pkg/b", mixedTree)
	writeTree(t, dir, "pkg/c", conflictTree)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600))

	events := make(chan Event, 64)
	res, err := AnalyzeDir(context.Background(), dir, Options{Jobs: 2, Sink: ChannelSink{Ch: events}})
	require.NoError(t, err)
	close(events)

	require.Len(t, res.Files, 3)
	require.Equal(t, filepath.Join(dir, "a.ast.json"), res.Files[0].Path)
	require.Zero(t, res.Files[0].Bag.Len())
	require.Equal(t, []diag.Code{diag.TypUnsupportedOperand}, codes(res.Files[1].Bag))
	require.Equal(t, []diag.Code{diag.SemScopeConflict}, codes(res.Files[2].Bag))
	require.Equal(t, 3, res.FileSet.Len())

	final := map[string]Status{}
	errs := map[string]int{}
	queued := 0
	for ev := range events {
		switch {
		case ev.Status == StatusQueued:
			queued++
		case ev.Finished():
			final[ev.File] = ev.Status
			errs[ev.File] = ev.Errors
		}
	}
	require.Equal(t, 3, queued)
	require.Equal(t, map[string]Status{
		res.Files[0].Path: StatusDone,
		res.Files[1].Path: StatusError,
		res.Files[2].Path: StatusError,
	}, final)
	require.Equal(t, map[string]int{
		res.Files[0].Path: 0,
		res.Files[1].Path: 1,
		res.Files[2].Path: 1,
	}, errs)

	merged := res.Bag()
	require.Equal(t, 2, merged.Len())
}

func TestAnalyzeDirCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a", cleanTree)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AnalyzeDir(ctx, dir, Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildPipeline(t *testing.T) {
	p, err := BuildPipeline([]string{"resolve", "infer"})
	require.NoError(t, err)
	require.Equal(t, "resolve -> infer", p.String())
	require.Equal(t, []string{"infer", "resolve"}, PassNames())
}
