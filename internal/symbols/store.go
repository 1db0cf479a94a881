package symbols

import (
	"flowscope/internal/ir"
	"flowscope/internal/source"
)

// ScopeKey addresses a scope of one unit in a batch.
type ScopeKey struct {
	Unit  int
	Scope ir.ScopeID
}

// Store holds the symbol tables of a whole batch. Root is the batch
// namespace: each unit's name is bound there to a symbol owning the unit's
// module table.
type Store struct {
	Symbols *Symbols
	Tables  *Tables
	Root    TableID

	byScope map[ScopeKey]TableID
}

func NewStore() *Store {
	s := &Store{
		Symbols: NewSymbols(0),
		Tables:  NewTables(0),
		byScope: make(map[ScopeKey]TableID),
	}
	s.Root = s.Tables.New("<batch>", ir.ScopeInvalid, -1, ir.NoScopeID, NoTableID)
	return s
}

// NewTable allocates the table of a scope.
func (s *Store) NewTable(name string, kind ir.ScopeKind, unit int, scope ir.ScopeID, parent TableID) TableID {
	id := s.Tables.New(name, kind, unit, scope, parent)
	if scope.IsValid() {
		s.byScope[ScopeKey{Unit: unit, Scope: scope}] = id
	}
	return id
}

// TableFor returns the table allocated for a scope.
func (s *Store) TableFor(unit int, scope ir.ScopeID) (TableID, bool) {
	id, ok := s.byScope[ScopeKey{Unit: unit, Scope: scope}]
	return id, ok
}

func (s *Store) Table(id TableID) *Table { return s.Tables.Get(id) }

func (s *Store) Symbol(id SymbolID) *Symbol { return s.Symbols.Get(id) }

// Ensure returns the chain for name in table, inserting it with a single
// unclassified generation if absent.
func (s *Store) Ensure(table TableID, name string) *MultiDef {
	t := s.Tables.Get(table)
	if md := t.entries[name]; md != nil {
		return md
	}
	md := &MultiDef{Name: name, Gens: []SymbolID{s.Symbols.New(Symbol{Name: name})}}
	t.entries[name] = md
	t.order = append(t.order, name)
	return md
}

// Lookup returns the chain for name without inserting it.
func (s *Store) Lookup(table TableID, name string) *MultiDef {
	t := s.Tables.Get(table)
	if t == nil {
		return nil
	}
	return t.entries[name]
}

// Current returns the generation of name in effect, inserting the name.
func (s *Store) Current(table TableID, name string) *Symbol {
	return s.Symbols.Get(s.Ensure(table, name).Current())
}

// NextDef advances name to its next generation and returns it.
func (s *Store) NextDef(table TableID, name string, span source.Span) *Symbol {
	sym := s.Symbols.Get(s.Ensure(table, name).NextDef(s.Symbols))
	sym.Span = span
	return sym
}

// SetBinding classifies name in table. The classification belongs to the
// name, so every generation is updated.
func (s *Store) SetBinding(table TableID, name string, to Binding, span source.Span) error {
	md := s.Ensure(table, name)
	cur := s.Symbols.Get(md.Current())
	next, ok := cur.Binding.Change(to)
	if !ok {
		return &ScopeConflictError{Name: name, From: cur.Binding, To: to, IsArg: s.isArg(md), Span: span}
	}
	for _, id := range md.Gens {
		s.Symbols.Get(id).Binding = next
	}
	return nil
}

// MarkLocal classifies an assignment target: local unless already classified.
func (s *Store) MarkLocal(table TableID, name string) {
	md := s.Ensure(table, name)
	if s.Symbols.Get(md.Current()).Binding != BindUnknown {
		return
	}
	for _, id := range md.Gens {
		s.Symbols.Get(id).Binding = BindLocal
	}
}

func (s *Store) isArg(md *MultiDef) bool {
	for _, id := range md.Gens {
		if s.Symbols.Get(id).IsArg {
			return true
		}
	}
	return false
}

// BindingOf returns the classification of name, BindUnknown if absent.
func (s *Store) BindingOf(table TableID, name string) Binding {
	md := s.Lookup(table, name)
	if md == nil {
		return BindUnknown
	}
	return s.Symbols.Get(md.Current()).Binding
}

// Reset rewinds every chain so a pass can replay definitions.
func (s *Store) Reset() {
	for i := range s.Tables.data {
		for _, md := range s.Tables.data[i].entries {
			md.Reset()
		}
	}
}

// Bindings snapshots the classification of every name in table.
func (s *Store) Bindings(table TableID) map[string]Binding {
	t := s.Tables.Get(table)
	out := make(map[string]Binding, len(t.order))
	for _, name := range t.order {
		out[name] = s.Symbols.Get(t.entries[name].Current()).Binding
	}
	return out
}

// Resolve finds the table that actually holds name as seen from table,
// following the enclosing-scope rules: globals go to the module table,
// class namespaces are skipped by nested functions.
func (s *Store) Resolve(table TableID, name string) (TableID, bool) {
	start := s.Tables.Get(table)
	if start == nil {
		return NoTableID, false
	}
	switch s.BindingOf(table, name) {
	case BindLocal:
		return table, true
	case BindGlobal:
		mod := s.moduleOf(table)
		return mod, s.BindingOf(mod, name) != BindUnknown
	}
	for cur := start.Parent; cur.IsValid() && cur != s.Root; {
		t := s.Tables.Get(cur)
		if t.Kind != ir.ScopeClass {
			b := s.BindingOf(cur, name)
			if b == BindLocal || (t.Kind == ir.ScopeModule && b != BindUnknown) {
				return cur, true
			}
			if b == BindGlobal {
				mod := s.moduleOf(cur)
				return mod, s.BindingOf(mod, name) != BindUnknown
			}
		}
		cur = t.Parent
	}
	return NoTableID, false
}

func (s *Store) moduleOf(table TableID) TableID {
	for cur := table; cur.IsValid(); {
		t := s.Tables.Get(cur)
		if t.Kind == ir.ScopeModule {
			return cur
		}
		cur = t.Parent
	}
	return NoTableID
}

// ModuleOf returns the module table enclosing table.
func (s *Store) ModuleOf(table TableID) TableID { return s.moduleOf(table) }
