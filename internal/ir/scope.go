package ir

import (
	"fmt"

	"fortio.org/safecast"

	"flowscope/internal/ast"
	"flowscope/internal/source"
)

// ScopeKind enumerates analysis units.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeModule
	ScopeFunction
	ScopeLambda
	ScopeClass
	ScopeComprehension
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeClass:
		return "class"
	case ScopeComprehension:
		return "comprehension"
	}
	return "invalid"
}

// IsFunctionLike reports whether the scope has parameters.
func (k ScopeKind) IsFunctionLike() bool {
	return k == ScopeFunction || k == ScopeLambda
}

// FuncInfo is present on function and lambda scopes.
type FuncInfo struct {
	Args       *ast.Arguments
	Decorators []ast.ExprID
	Returns    ast.ExprID
	IsAsync    bool
}

// ClassInfo is present on class scopes.
type ClassInfo struct {
	Bases      []ast.ExprID
	Keywords   []ast.Keyword
	Decorators []ast.ExprID
}

// CompInfo is present on comprehension scopes. The first generator's
// iterable belongs to the enclosing scope.
type CompInfo struct {
	Kind       ast.ExprKind
	Elt        ast.ExprID
	Key, Value ast.ExprID
	Generators []ast.Comprehension
}

// Scope is one analysis unit. Kind-specific syntax lives in exactly one of
// Func, Class or Comp.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Name   string
	Parent ScopeID
	Span   source.Span
	// Owner is the defining statement (def, class) or expression (lambda,
	// comprehension); both are unset on the module scope.
	OwnerStmt ast.StmtID
	OwnerExpr ast.ExprID

	Body *FlowContainer
	// Table maps a name to every nested scope defined under it, in
	// definition order.
	Table map[string][]ScopeID
	// Refs lists nested scopes in definition order.
	Refs []ScopeRef

	Func  *FuncInfo
	Class *ClassInfo
	Comp  *CompInfo
}

// Scopes is the arena of every scope in a Program.
type Scopes struct {
	data []Scope
}

func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 16
	}
	return &Scopes{data: make([]Scope, 1, capacity+1)} // index 0 reserved for NoScopeID
}

// New allocates a scope with fresh containers.
func (s *Scopes) New(kind ScopeKind, name string, parent ScopeID, span source.Span) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	id := ScopeID(value)
	s.data = append(s.data, Scope{
		ID:     id,
		Kind:   kind,
		Name:   name,
		Parent: parent,
		Span:   span,
		Body:   newFlowContainer(),
		Table:  make(map[string][]ScopeID),
	})
	return id
}

func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports the number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// register records child under name in parent's table and returns the
// reference that stands in for it.
func (s *Scopes) register(parent, child ScopeID, name string) ScopeRef {
	p := s.Get(parent)
	ref := ScopeRef{Name: name, Index: len(p.Table[name])}
	p.Table[name] = append(p.Table[name], child)
	p.Refs = append(p.Refs, ref)
	return ref
}
