package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowscope/internal/project"
	"flowscope/internal/trace"
)

// setupTracing reads the trace flags, falling back to the manifest's [trace]
// section for flags left at their defaults, and attaches the tracer to the
// command context. It returns a cleanup function.
func setupTracing(cmd *cobra.Command, args []string) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	if len(args) > 0 && (!flags.Changed("trace-level") || !flags.Changed("trace")) {
		manifest, ok, err := project.Load(args[0])
		if err != nil {
			return nil, err
		}
		if ok {
			if !flags.Changed("trace-level") {
				levelStr = manifest.Config.Trace.Level
			}
			if !flags.Changed("trace") && traceOutput == "" {
				traceOutput = manifest.Config.Trace.Output
			}
		}
	}

	cfg, err := trace.Settings{Level: levelStr, Mode: modeStr, Output: traceOutput, RingSize: ringSize}.Config()
	if err != nil {
		return nil, fmt.Errorf("invalid trace settings: %w", err)
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	if !tracer.Enabled() {
		cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
		return func() {}, nil
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	span := trace.Begin(tracer, trace.ScopeDriver, cmd.Name(), 0)
	ctx = trace.WithSpan(ctx, span)
	cmd.SetContext(ctx)

	done := false
	return func() {
		if done {
			return
		}
		done = true
		span.End("")
		if err := trace.Shutdown(tracer, cmd.ErrOrStderr()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
		}
	}, nil
}
