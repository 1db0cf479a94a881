package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"flowscope/internal/analysis"
	"flowscope/internal/ast"
	"flowscope/internal/diag"
	"flowscope/internal/ir"
	"flowscope/internal/observ"
	"flowscope/internal/resolve"
	"flowscope/internal/source"
	"flowscope/internal/symbols"
	"flowscope/internal/trace"
)

// Options configures an analysis run.
type Options struct {
	// Passes names the pipeline; nil means resolve, infer.
	Passes           []string
	MaxDiagnostics   int
	WarningsAsErrors bool
	// Jobs bounds parallel files in AnalyzeDir; <= 0 means GOMAXPROCS.
	Jobs  int
	Cache *DiskCache
	Sink  ProgressSink
	Timer *observ.Timer
}

func (o Options) passes() []string {
	if len(o.Passes) == 0 {
		return []string{"resolve", "infer"}
	}
	return o.Passes
}

// FileResult is the outcome of analyzing one tree document. Each file is
// its own batch.
type FileResult struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
	// Program and Context are nil when the file was served from the cache
	// or failed before the pipeline ran.
	Program *ir.Program
	Context *analysis.Context
	Symbols []SymbolSummary
	Cached  bool
}

// Result is the outcome of a run.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
}

// Bag merges the diagnostics of every file, sorted.
func (r *Result) Bag() *diag.Bag {
	out := diag.NewBag(0)
	for _, f := range r.Files {
		if f.Bag != nil {
			out.Merge(f.Bag)
		}
	}
	out.Sort()
	return out
}

// HasErrors reports whether any file has an error diagnostic.
func (r *Result) HasErrors() bool {
	return slices.ContainsFunc(r.Files, func(f FileResult) bool {
		return f.Bag != nil && f.Bag.HasErrors()
	})
}

// AnalyzeFile analyzes a single tree document.
func AnalyzeFile(ctx context.Context, path string, opts Options) (*Result, error) {
	pipeline, err := BuildPipeline(opts.passes())
	if err != nil {
		return nil, err
	}
	fileSet := source.NewFileSet()
	fr, err := analyzeFile(ctx, fileSet, path, pipeline, opts)
	if err != nil {
		return nil, err
	}
	return &Result{FileSet: fileSet, Files: []FileResult{fr}}, nil
}

// ListTrees returns every tree document under dir, sorted.
func ListTrees(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, source.TreeSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// AnalyzeDir analyzes every tree document under dir in parallel. Subject
// program errors become diagnostics of their file; only contract errors
// such as a misconfigured pipeline abort the run.
func AnalyzeDir(ctx context.Context, dir string, opts Options) (*Result, error) {
	pipeline, err := BuildPipeline(opts.passes())
	if err != nil {
		return nil, err
	}
	files, err := ListTrees(dir)
	if err != nil {
		return nil, err
	}
	fileSet := source.NewFileSet()
	res := &Result{FileSet: fileSet, Files: make([]FileResult, len(files))}
	if len(files) == 0 {
		return res, nil
	}
	for _, path := range files {
		emit(opts.Sink, Event{File: path, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr, err := analyzeFile(gctx, fileSet, path, pipeline, opts)
			if err != nil {
				return err
			}
			// indexes are unique per goroutine
			res.Files[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// ModuleName derives the module name of a tree document from its path.
func ModuleName(path string) string {
	base := filepath.Base(path)
	if name, ok := strings.CutSuffix(base, source.TreeSuffix); ok {
		return name
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// analyzeFile runs one file end to end. The error return is reserved for
// failures that are not the analyzed program's fault.
func analyzeFile(ctx context.Context, fileSet *source.FileSet, path string, pipeline analysis.Pipeline, opts Options) (FileResult, error) {
	start := time.Now()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeModule, path, trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	fr := FileResult{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics)}
	reporter := diag.BagReporter{Bag: fr.Bag}
	stage := func(s Stage) { emit(opts.Sink, Event{File: path, Stage: s, Status: StatusWorking}) }
	finish := func(status Status, err error) {
		if opts.WarningsAsErrors {
			fr.Bag.Promote()
		}
		emit(opts.Sink, Event{
			File:     path,
			Stage:    StageAnalyze,
			Status:   status,
			Err:      err,
			Elapsed:  time.Since(start),
			Errors:   fr.Bag.Count(diag.SevError),
			Warnings: fr.Bag.Count(diag.SevWarning),
		})
		span.WithExtra("diagnostics", fmt.Sprint(fr.Bag.Len())).End(string(status))
	}

	stage(StageLoad)
	var tree []byte
	err := opts.Timer.Measure("load", func() error {
		var loadErr error
		fr.FileID, tree, loadErr = fileSet.Load(path)
		return loadErr
	})
	if err != nil {
		fr.FileID = fileSet.Add(path, nil, nil, 0)
		diag.ReportError(reporter, diag.InLoadFileError, source.Span{File: fr.FileID},
			"failed to load file: "+err.Error()).Emit()
		finish(StatusError, err)
		return fr, nil
	}

	passes := pipeline.Names()
	key := cacheKey(fileSet.Get(fr.FileID).Hash, passes, opts.MaxDiagnostics)
	if opts.Cache != nil {
		var payload DiskPayload
		hit, cacheErr := opts.Cache.Get(key, &payload)
		if cacheErr == nil && hit && slices.Equal(payload.Passes, passes) {
			for _, d := range payload.Diagnostics {
				fr.Bag.Add(rebase(d, fr.FileID))
			}
			fr.Symbols = payload.Symbols
			fr.Cached = true
			finish(StatusCached, nil)
			return fr, nil
		}
	}

	stage(StageDecode)
	var mod *ast.Module
	err = opts.Timer.Measure("decode", func() error {
		var decErr error
		mod, decErr = ast.Decode(tree, ModuleName(path), fr.FileID)
		return decErr
	})
	if err == nil {
		stage(StageTranslate)
		err = opts.Timer.Measure("translate", func() error {
			var trErr error
			fr.Program, trErr = ir.Translate(mod)
			return trErr
		})
	}
	if err == nil {
		stage(StageAnalyze)
		fr.Context = analysis.NewContext(fr.Program)
		fr.Context.Reporter = reporter
		fr.Context.Timer = opts.Timer
		err = analysis.Run(ctx, fr.Context, pipeline)
	}
	if err != nil {
		d, ok := programDiagnostic(err, fr.FileID)
		if !ok {
			finish(StatusError, err)
			return fr, fmt.Errorf("%s: %w", path, err)
		}
		fr.Bag.Add(d)
	}
	fr.Symbols = summarize(fr.Context)

	if opts.Cache != nil {
		payload := &DiskPayload{Passes: passes, Diagnostics: fr.Bag.Items(), Symbols: fr.Symbols}
		// a failed write only costs a future miss
		_ = opts.Cache.Put(key, payload)
	}
	status := StatusDone
	if fr.Bag.HasErrors() {
		status = StatusError
	}
	finish(status, nil)
	return fr, nil
}

// programDiagnostic turns an error caused by the analyzed program into an
// error diagnostic. ok is false for contract errors.
func programDiagnostic(err error, file source.FileID) (diag.Diagnostic, bool) {
	var (
		dupArg   *ir.DuplicateArgumentError
		conflict *symbols.ScopeConflictError
		nonlocal *resolve.NonlocalAtModuleError
	)
	switch {
	case errors.As(err, &dupArg):
		return diag.NewError(diag.SemDuplicateArgument, dupArg.Span, dupArg.Error()), true
	case errors.As(err, &conflict):
		return diag.NewError(diag.SemScopeConflict, conflict.Span, conflict.Error()), true
	case errors.As(err, &nonlocal):
		return diag.NewError(diag.SemNonlocalAtModule, nonlocal.Span, nonlocal.Error()), true
	case errors.Is(err, ast.ErrMalformed), errors.Is(err, ir.ErrMalformedTree):
		return diag.NewError(diag.InMalformedTree, source.Span{File: file}, err.Error()), true
	}
	return diag.Diagnostic{}, false
}

func rebase(d diag.Diagnostic, file source.FileID) diag.Diagnostic {
	d.Primary.File = file
	for i := range d.Notes {
		d.Notes[i].Span.File = file
	}
	return d
}
