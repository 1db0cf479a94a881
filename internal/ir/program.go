package ir

import "flowscope/internal/ast"

// Program is the IR of one source unit.
type Program struct {
	Module *ast.Module
	Scopes *Scopes
	Root   ScopeID
	// Hoisted maps lambda and comprehension expressions to the reference
	// replacing them in their enclosing scope.
	Hoisted map[ast.ExprID]ScopeRef
}

// Scope returns the scope for id.
func (p *Program) Scope(id ScopeID) *Scope { return p.Scopes.Get(id) }

// Resolve follows ref from parent's table.
func (p *Program) Resolve(parent ScopeID, ref ScopeRef) ScopeID {
	s := p.Scopes.Get(parent)
	if s == nil || !ref.Valid() {
		return NoScopeID
	}
	ids := s.Table[ref.Name]
	if ref.Index < 0 || ref.Index >= len(ids) {
		return NoScopeID
	}
	return ids[ref.Index]
}

// HoistedScope returns the scope an expression was lifted into.
func (p *Program) HoistedScope(parent ScopeID, expr ast.ExprID) (ScopeID, bool) {
	ref, ok := p.Hoisted[expr]
	if !ok {
		return NoScopeID, false
	}
	id := p.Resolve(parent, ref)
	return id, id.IsValid()
}

// Walk calls fn for every scope reachable from the root, parents first,
// children in definition order.
func (p *Program) Walk(fn func(*Scope) error) error {
	var visit func(ScopeID) error
	visit = func(id ScopeID) error {
		s := p.Scopes.Get(id)
		if s == nil {
			return nil
		}
		if err := fn(s); err != nil {
			return err
		}
		for _, ref := range s.Refs {
			if err := visit(p.Resolve(id, ref)); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(p.Root)
}
