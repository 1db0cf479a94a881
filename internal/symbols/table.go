package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"flowscope/internal/ir"
)

// Arg binds one parameter to its symbol.
type Arg struct {
	Name   string
	Symbol SymbolID
}

// Arguments mirrors a parameter list with every slot bound to a symbol.
type Arguments struct {
	PosOnly []Arg
	Args    []Arg
	Vararg  *Arg
	KwOnly  []Arg
	Kwarg   *Arg
}

// Len returns the number of parameters.
func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	n := len(a.PosOnly) + len(a.Args) + len(a.KwOnly)
	if a.Vararg != nil {
		n++
	}
	if a.Kwarg != nil {
		n++
	}
	return n
}

// Table is the namespace of one scope.
type Table struct {
	ID     TableID
	Name   string
	Kind   ir.ScopeKind
	Unit   int
	Scope  ir.ScopeID
	Parent TableID
	// Args is set on function and lambda tables.
	Args *Arguments

	entries map[string]*MultiDef
	order   []string
}

// Lookup returns the chain for name, or nil.
func (t *Table) Lookup(name string) *MultiDef {
	return t.entries[name]
}

// Names returns every name in insertion order.
func (t *Table) Names() []string {
	return t.order
}

// Len reports the number of distinct names.
func (t *Table) Len() int { return len(t.order) }

// Tables stores every table in a compact arena.
type Tables struct {
	data []Table
}

func NewTables(capacity uint32) *Tables {
	if capacity == 0 {
		capacity = 16
	}
	return &Tables{data: make([]Table, 1, capacity+1)} // index 0 reserved for NoTableID
}

func (t *Tables) New(name string, kind ir.ScopeKind, unit int, scope ir.ScopeID, parent TableID) TableID {
	value, err := safecast.Conv[uint32](len(t.data))
	if err != nil {
		panic(fmt.Errorf("tables arena overflow: %w", err))
	}
	id := TableID(value)
	t.data = append(t.data, Table{
		ID:      id,
		Name:    name,
		Kind:    kind,
		Unit:    unit,
		Scope:   scope,
		Parent:  parent,
		entries: make(map[string]*MultiDef),
	})
	return id
}

func (t *Tables) Get(id TableID) *Table {
	if !id.IsValid() || int(id) >= len(t.data) {
		return nil
	}
	return &t.data[id]
}

// Len reports number of tables excluding the sentinel.
func (t *Tables) Len() int { return len(t.data) - 1 }
