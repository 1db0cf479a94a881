package analysis

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"flowscope/internal/trace"
)

// Pass is one analysis over every module of a Context. The value returned
// by Run is published in Context.Results under Name.
type Pass interface {
	Name() string
	// Requires lists the result keys that must exist before Run.
	Requires() []string
	Run(ctx context.Context, actx *Context) (any, error)
}

// Pipeline is an ordered list of passes.
type Pipeline []Pass

// Names returns the pass names in order.
func (p Pipeline) Names() []string {
	out := make([]string, len(p))
	for i, pass := range p {
		out[i] = pass.Name()
	}
	return out
}

func (p Pipeline) String() string { return strings.Join(p.Names(), " -> ") }

func (p Pipeline) index(name string) int {
	return slices.IndexFunc(p, func(pass Pass) bool { return pass.Name() == name })
}

// InsertMode places an inserted pass relative to an existing one.
type InsertMode uint8

const (
	Before InsertMode = iota + 1
	After
)

// Insert returns a copy of p with pass placed before or after the pass
// named ref. p itself is never modified.
func Insert(p Pipeline, pass Pass, mode InsertMode, ref string) (Pipeline, error) {
	if mode != Before && mode != After {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInsertMode, mode)
	}
	idx := p.index(ref)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPass, ref)
	}
	if mode == After {
		idx++
	}
	out := make(Pipeline, 0, len(p)+1)
	out = append(out, p[:idx]...)
	out = append(out, pass)
	out = append(out, p[idx:]...)
	return out, nil
}

// Run executes the passes in order. A pass whose dependencies are missing
// fails before it starts; the first failing pass stops the run.
func Run(ctx context.Context, actx *Context, p Pipeline) error {
	tracer := trace.FromContext(ctx)
	for _, pass := range p {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := pass.Name()
		for _, key := range pass.Requires() {
			if _, ok := actx.Results[key]; !ok {
				return &MissingResultError{Key: key, Pass: name}
			}
		}
		if _, ok := actx.Results[name]; ok {
			return &DuplicateResultError{Key: name}
		}

		span := trace.Begin(tracer, trace.ScopePass, name, trace.CurrentSpan(ctx))
		passCtx := trace.WithSpan(ctx, span)
		var result any
		err := actx.Timer.Measure(name, func() error {
			var runErr error
			result, runErr = pass.Run(passCtx, actx)
			return runErr
		})
		if err != nil {
			span.WithExtra("error", err.Error()).End("failed")
			return fmt.Errorf("%s: %w", name, err)
		}
		span.End("")
		actx.Results[name] = result
	}
	return nil
}
