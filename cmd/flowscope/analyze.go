package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"flowscope/internal/analysis"
	"flowscope/internal/diag"
	"flowscope/internal/diagfmt"
	"flowscope/internal/driver"
	"flowscope/internal/infer"
	"flowscope/internal/ir"
	"flowscope/internal/observ"
	"flowscope/internal/project"
	"flowscope/internal/resolve"
	"flowscope/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file.ast.json|directory>",
	Short: "Classify names and infer types of a syntax-tree dump or a directory of them",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	addAnalyzeFlags(analyzeCmd)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().StringSlice("passes", nil, "comma-separated pass pipeline (default from flowscope.toml, else resolve,infer)")
	cmd.Flags().Int("jobs", 0, "max parallel files for directory processing (0=auto)")
	cmd.Flags().Bool("disk-cache", false, "reuse results from the persistent disk cache")
	cmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("emit-ir", false, "print the IR of each file")
	cmd.Flags().Bool("emit-symbols", false, "print the symbol tables of each file")
	cmd.Flags().String("ui", "auto", "progress view for directories (auto|on|off, default from flowscope.toml)")
}

type analyzeFlags struct {
	format      string
	withNotes   bool
	fullPath    bool
	emitIR      bool
	emitSymbols bool
	progress    string
}

// resolveOptions merges the manifest governing target with the flags the
// user set explicitly.
func resolveOptions(cmd *cobra.Command, target string) (driver.Options, analyzeFlags, error) {
	var af analyzeFlags
	manifest, _, err := project.Load(target)
	if err != nil {
		return driver.Options{}, af, err
	}
	cfg := manifest.Config.Analysis

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	if root.Changed("max-diagnostics") {
		if cfg.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
			return driver.Options{}, af, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	if flags.Changed("passes") {
		if cfg.Passes, err = flags.GetStringSlice("passes"); err != nil {
			return driver.Options{}, af, fmt.Errorf("failed to get passes flag: %w", err)
		}
	}
	if flags.Changed("jobs") {
		if cfg.Jobs, err = flags.GetInt("jobs"); err != nil {
			return driver.Options{}, af, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if flags.Changed("disk-cache") {
		if cfg.DiskCache, err = flags.GetBool("disk-cache"); err != nil {
			return driver.Options{}, af, fmt.Errorf("failed to get disk-cache flag: %w", err)
		}
	}
	if flags.Changed("warnings-as-errors") {
		if cfg.WarningsAsErrors, err = flags.GetBool("warnings-as-errors"); err != nil {
			return driver.Options{}, af, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
		}
	}
	if flags.Changed("ui") {
		if cfg.Progress, err = flags.GetString("ui"); err != nil {
			return driver.Options{}, af, fmt.Errorf("failed to get ui flag: %w", err)
		}
		cfg.Progress = strings.ToLower(strings.TrimSpace(cfg.Progress))
	}
	if err := (project.Config{Analysis: cfg, Trace: manifest.Config.Trace}).Validate(); err != nil {
		return driver.Options{}, af, err
	}

	if af.format, err = flags.GetString("format"); err != nil {
		return driver.Options{}, af, fmt.Errorf("failed to get format flag: %w", err)
	}
	af.format = strings.ToLower(af.format)
	if af.format != "pretty" && af.format != "json" {
		return driver.Options{}, af, fmt.Errorf("unsupported format %q (must be pretty or json)", af.format)
	}
	if af.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return driver.Options{}, af, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if af.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return driver.Options{}, af, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if af.emitIR, err = flags.GetBool("emit-ir"); err != nil {
		return driver.Options{}, af, fmt.Errorf("failed to get emit-ir flag: %w", err)
	}
	if af.emitSymbols, err = flags.GetBool("emit-symbols"); err != nil {
		return driver.Options{}, af, fmt.Errorf("failed to get emit-symbols flag: %w", err)
	}
	af.progress = cfg.Progress

	opts := driver.Options{
		Passes:           cfg.Passes,
		MaxDiagnostics:   cfg.MaxDiagnostics,
		WarningsAsErrors: cfg.WarningsAsErrors,
		Jobs:             cfg.Jobs,
	}
	// dumps need the in-memory program, which cached results lack
	if cfg.DiskCache && !af.emitIR && !af.emitSymbols {
		if opts.Cache, err = driver.OpenDiskCache("flowscope"); err != nil {
			return driver.Options{}, af, fmt.Errorf("failed to open disk cache: %w", err)
		}
	}
	return opts, af, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	target := args[0]
	opts, af, err := resolveOptions(cmd, target)
	if err != nil {
		return err
	}
	root := cmd.Root().PersistentFlags()
	showTimings, err := root.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if showTimings {
		opts.Timer = observ.NewTimer()
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", target, err)
	}
	var res *driver.Result
	if info.IsDir() {
		res, err = analyzeDir(cmd.Context(), cmd.OutOrStdout(), target, opts, showProgress(af.progress, quiet, cmd.OutOrStdout()))
	} else {
		res, err = driver.AnalyzeFile(cmd.Context(), target, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if af.emitIR || af.emitSymbols {
		if err := emitDumps(out, res, af); err != nil {
			return err
		}
	}

	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	pathMode := diagfmt.PathModeAuto
	if af.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	bag := res.Bag()
	switch af.format {
	case "json":
		err = diagfmt.JSON(out, bag, res.FileSet, diagfmt.JSONOpts{PathMode: pathMode, IncludeNotes: af.withNotes})
	default:
		err = diagfmt.Pretty(out, bag, res.FileSet, diagfmt.PrettyOpts{Color: colored, PathMode: pathMode, ShowNotes: af.withNotes})
		if err == nil && !quiet {
			err = printSummary(cmd.ErrOrStderr(), res)
		}
	}
	if err != nil {
		return err
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), opts.Timer.Summary())
	}
	if res.HasErrors() {
		return errFindings
	}
	return nil
}

// showProgress resolves the progress setting for a directory run. auto
// renders onto a terminal only, and never under --quiet.
func showProgress(setting string, quiet bool, out io.Writer) bool {
	switch setting {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := out.(*os.File)
	return !quiet && ok && isTerminal(f)
}

func analyzeDir(ctx context.Context, out io.Writer, dir string, opts driver.Options, progress bool) (*driver.Result, error) {
	if !progress {
		return driver.AnalyzeDir(ctx, dir, opts)
	}
	files, err := driver.ListTrees(dir)
	if err != nil {
		return nil, err
	}
	type outcome struct {
		res *driver.Result
		err error
	}
	events := make(chan driver.Event, 256)
	done := make(chan outcome, 1)
	go func() {
		o := opts
		o.Sink = driver.ChannelSink{Ch: events}
		res, err := driver.AnalyzeDir(ctx, dir, o)
		close(events)
		done <- outcome{res: res, err: err}
	}()
	uiErr := ui.RunProgress(out, dir, files, events)
	result := <-done
	if uiErr != nil {
		return result.res, uiErr
	}
	return result.res, result.err
}

func emitDumps(w io.Writer, res *driver.Result, af analyzeFlags) error {
	for _, fr := range res.Files {
		if fr.Program == nil {
			continue
		}
		if af.emitIR {
			if _, err := fmt.Fprintf(w, "== ir %s\n", fr.Path); err != nil {
				return err
			}
			if err := ir.Dump(w, fr.Program); err != nil {
				return err
			}
		}
		if af.emitSymbols && fr.Context != nil {
			if err := dumpSymbols(w, fr.Path, fr.Context); err != nil {
				return err
			}
		}
	}
	return nil
}

func dumpSymbols(w io.Writer, path string, actx *analysis.Context) error {
	res, err := analysis.Result[*resolve.Result](actx, resolve.Name)
	if err != nil {
		// the pipeline stopped before resolution
		return nil
	}
	if _, err := fmt.Fprintf(w, "== symbols %s\n", path); err != nil {
		return err
	}
	if inf, err := analysis.Result[*infer.Result](actx, infer.Name); err == nil {
		return resolve.DumpTables(w, res, inf.TypeName)
	}
	return resolve.DumpTables(w, res, nil)
}

func printSummary(w io.Writer, res *driver.Result) error {
	var errs, warns, cached int
	for _, fr := range res.Files {
		if fr.Cached {
			cached++
		}
		errs += fr.Bag.Count(diag.SevError)
		warns += fr.Bag.Count(diag.SevWarning)
	}
	line := fmt.Sprintf("%d file(s) analyzed: %d error(s), %d warning(s)", len(res.Files), errs, warns)
	if cached > 0 {
		line += fmt.Sprintf(", %d from cache", cached)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
