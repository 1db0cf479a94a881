package infer

import (
	"context"

	"flowscope/internal/analysis"
	"flowscope/internal/ast"
	"flowscope/internal/diag"
	"flowscope/internal/resolve"
	"flowscope/internal/symbols"
	"flowscope/internal/trace"
	"flowscope/internal/types"
)

// Name is the result key of the inference pass.
const Name = "infer"

// Result is published under Name. Symbol and MultiDef types live in the
// resolution store; Result adds the registry they index and the type of
// every evaluated expression.
type Result struct {
	Registry *types.Registry
	Resolve  *resolve.Result

	exprs []map[ast.ExprID]types.TypeID
}

// TypeOf returns the inferred type of expression id of unit, NoTypeID when
// the expression was never evaluated.
func (r *Result) TypeOf(unit int, id ast.ExprID) types.TypeID {
	if unit < 0 || unit >= len(r.exprs) {
		return types.NoTypeID
	}
	return r.exprs[unit][id]
}

// TypeName renders the accumulated type of a name, for DumpTables.
func (r *Result) TypeName(md *symbols.MultiDef) string {
	return r.Registry.Name(md.Type)
}

// NameType returns the accumulated type of name in table.
func (r *Result) NameType(table symbols.TableID, name string) types.TypeID {
	md := r.Resolve.Store.Lookup(table, name)
	if md == nil {
		return types.NoTypeID
	}
	return md.Type
}

// Pass replays the resolution walk and narrows every definition.
type Pass struct{}

func (Pass) Name() string       { return Name }
func (Pass) Requires() []string { return []string{resolve.Name} }

func (Pass) Run(ctx context.Context, actx *analysis.Context) (any, error) {
	res, err := analysis.Result[*resolve.Result](actx, resolve.Name)
	if err != nil {
		return nil, err
	}
	out := &Result{Registry: types.NewRegistry(), Resolve: res}
	reporter := diag.NewDedupReporter(actx.Reporter)
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)

	err = res.Replay(actx, func(unit int) resolve.Hooks {
		in := newInferrer(out.Registry, res.Store, actx.Modules[unit], reporter)
		in.tracer, in.parent = tracer, parent
		out.exprs = append(out.exprs, in.exprs)
		return in
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
