package analysis

import (
	"fmt"

	"flowscope/internal/diag"
	"flowscope/internal/ir"
	"flowscope/internal/observ"
)

// Context is shared by every pass of one pipeline run over a batch of
// translated modules. Passes publish their results under their name.
type Context struct {
	Modules  []*ir.Program
	Results  map[string]any
	Reporter diag.Reporter
	Timer    *observ.Timer
}

// NewContext creates a context over the given modules reporting nowhere.
func NewContext(modules ...*ir.Program) *Context {
	return &Context{
		Modules:  modules,
		Results:  make(map[string]any),
		Reporter: diag.NopReporter{},
	}
}

// Result fetches the result published under key with its concrete type.
func Result[T any](actx *Context, key string) (T, error) {
	var zero T
	raw, ok := actx.Results[key]
	if !ok {
		return zero, &MissingResultError{Key: key}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("result %q has type %T, want %T", key, raw, zero)
	}
	return v, nil
}
