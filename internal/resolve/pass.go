package resolve

import (
	"context"
	"fmt"

	"flowscope/internal/analysis"
	"flowscope/internal/symbols"
	"flowscope/internal/trace"
)

// Name is the result key of the resolution pass.
const Name = "resolve"

// Result is published under Name: the symbol tables of the whole batch.
type Result struct {
	Store *symbols.Store
	// Units holds the module table of each analyzed module, by position.
	Units []symbols.TableID
}

// Replay rewinds every generation chain and walks the batch again in the
// original order, observing unit i through hooks(i). The walk creates no new
// symbols or tables and leaves every cursor where the first walk did.
func (r *Result) Replay(actx *analysis.Context, hooks func(unit int) Hooks) error {
	r.Store.Reset()
	for unit, prog := range actx.Modules {
		var h Hooks
		if hooks != nil {
			h = hooks(unit)
		}
		if _, err := NewWalker(r.Store, prog, unit, h).Run(); err != nil {
			return fmt.Errorf("module %s: %w", prog.Module.Name, err)
		}
	}
	return nil
}

// Pass classifies every name of every module.
type Pass struct{}

func (Pass) Name() string       { return Name }
func (Pass) Requires() []string { return nil }

func (Pass) Run(ctx context.Context, actx *analysis.Context) (any, error) {
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)
	res := &Result{Store: symbols.NewStore()}
	for unit, prog := range actx.Modules {
		span := trace.Begin(tracer, trace.ScopeNode, prog.Module.Name, parent)
		table, err := NewWalker(res.Store, prog, unit, nil).Run()
		if err != nil {
			span.End("failed")
			return nil, fmt.Errorf("module %s: %w", prog.Module.Name, err)
		}
		span.WithExtra("names", fmt.Sprint(res.Store.Table(table).Len())).End("")
		res.Units = append(res.Units, table)
	}
	return res, nil
}
