package testkit

import (
	"fmt"

	"flowscope/internal/ast"
	"flowscope/internal/ir"
	"flowscope/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a decoded module:
// 1) every node span points at the module's file
// 2) a span with an end position does not end before it starts
func CheckSpanInvariants(mod *ast.Module) error {
	if mod == nil {
		return fmt.Errorf("nil module")
	}
	for i, s := range mod.Stmts.Slice() {
		if err := checkSpan(mod.File, s.Span); err != nil {
			return fmt.Errorf("stmt %d (%s): %w", i+1, s.Kind, err)
		}
	}
	for i, e := range mod.Exprs.Slice() {
		if err := checkSpan(mod.File, e.Span); err != nil {
			return fmt.Errorf("expr %d (%s): %w", i+1, e.Kind, err)
		}
	}
	return nil
}

func checkSpan(file source.FileID, sp source.Span) error {
	if sp.File != file {
		return fmt.Errorf("span file mismatch: got=%d want=%d", sp.File, file)
	}
	if sp.Empty() || sp.EndLine == 0 {
		return nil
	}
	if sp.EndLine < sp.Line || (sp.EndLine == sp.Line && sp.EndCol < sp.Col) {
		return fmt.Errorf("span ends before it starts: %v", sp)
	}
	return nil
}

// CheckProgramInvariants verifies the scope tree of a translated program:
// the root is the only module scope, every other scope is reachable from the
// root exactly once and names its parent correctly.
func CheckProgramInvariants(prog *ir.Program) error {
	if prog == nil {
		return fmt.Errorf("nil program")
	}
	root := prog.Scope(prog.Root)
	if root == nil || root.Kind != ir.ScopeModule {
		return fmt.Errorf("root scope %d is not a module", prog.Root)
	}
	seen := make(map[ir.ScopeID]bool)
	err := prog.Walk(func(s *ir.Scope) error {
		if seen[s.ID] {
			return fmt.Errorf("scope %d (%s) reached twice", s.ID, s.Name)
		}
		seen[s.ID] = true
		if s.ID == prog.Root {
			return nil
		}
		if s.Kind == ir.ScopeModule {
			return fmt.Errorf("nested module scope %d (%s)", s.ID, s.Name)
		}
		if prog.Scope(s.Parent) == nil {
			return fmt.Errorf("scope %d (%s) has missing parent %d", s.ID, s.Name, s.Parent)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if total := prog.Scopes.Len(); len(seen) != total {
		return fmt.Errorf("%d of %d scopes reachable from root", len(seen), total)
	}
	return nil
}
