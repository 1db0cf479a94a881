package resolve

import (
	"flowscope/internal/ast"
	"flowscope/internal/ir"
	"flowscope/internal/source"
	"flowscope/internal/symbols"
)

// SiteKind says what kind of construct defined a name.
type SiteKind uint8

const (
	// SiteAssign covers plain, annotated and unpacking assignments.
	SiteAssign SiteKind = iota + 1
	SiteAugAssign
	SiteWalrus
	// SiteIterate covers for-loop and comprehension targets.
	SiteIterate
	SiteWith
	SiteExcept
	SiteCapture
	SiteImport
	SiteParam
	// SiteScope is a def, class, lambda, comprehension or module name.
	SiteScope
)

func (k SiteKind) String() string {
	switch k {
	case SiteAssign:
		return "assign"
	case SiteAugAssign:
		return "augassign"
	case SiteWalrus:
		return "walrus"
	case SiteIterate:
		return "iterate"
	case SiteWith:
		return "with"
	case SiteExcept:
		return "except"
	case SiteCapture:
		return "capture"
	case SiteImport:
		return "import"
	case SiteParam:
		return "param"
	case SiteScope:
		return "scope"
	}
	return "invalid"
}

// Site describes one definition: the generation it created and where the
// bound value comes from.
type Site struct {
	Kind   SiteKind
	Name   string
	Span   source.Span
	Symbol symbols.SymbolID
	// Prev is the generation in effect before this definition.
	Prev symbols.SymbolID
	// Target is the Name node being bound, when there is one.
	Target ast.ExprID
	// Value is the expression whose value flows into the name: the assigned
	// value, the iterable, the context manager or the exception type.
	Value ast.ExprID
	// Unpacked is set when the target is an element of a tuple or list
	// target matched against a non-literal value.
	Unpacked bool
	// Starred is set for a *rest element of an unpacking target.
	Starred bool
	Op      ast.BinOp
	Param   *ast.Arg
	// Scope and Table identify the namespace a SiteScope definition owns.
	Scope ir.ScopeID
	Table symbols.TableID
}

// Hooks observe a walk. Expr is called in post-order, so every
// sub-expression has been reported before its parent. Bind is called right
// after the generation it reports was created, except for SiteScope which
// is reported once the owned scope has been walked.
type Hooks interface {
	Enter(table symbols.TableID, scope *ir.Scope)
	Leave(table symbols.TableID, scope *ir.Scope)
	Expr(table symbols.TableID, id ast.ExprID)
	Bind(table symbols.TableID, site Site)
	Return(table symbols.TableID, value ast.ExprID, span source.Span)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) Enter(symbols.TableID, *ir.Scope)                {}
func (NopHooks) Leave(symbols.TableID, *ir.Scope)                {}
func (NopHooks) Expr(symbols.TableID, ast.ExprID)                {}
func (NopHooks) Bind(symbols.TableID, Site)                      {}
func (NopHooks) Return(symbols.TableID, ast.ExprID, source.Span) {}
