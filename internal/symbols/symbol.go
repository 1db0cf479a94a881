package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"flowscope/internal/source"
	"flowscope/internal/types"
)

// Symbol is one generation of a name: the state between two definitions.
type Symbol struct {
	Name     string
	Binding  Binding
	Imported bool
	IsArg    bool
	// Table is the namespace owned by the definition bound here: function,
	// lambda, class or comprehension. Unset otherwise.
	Table TableID
	// Type is the type inferred for this generation; NoTypeID until narrowed.
	Type types.TypeID
	Span source.Span
}

// HoldsTable reports whether this generation owns a namespace.
func (s *Symbol) HoldsTable() bool { return s.Table.IsValid() }

// Symbols stores every generation in a compact arena.
type Symbols struct {
	data []Symbol
}

func NewSymbols(capacity uint32) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	return &Symbols{data: make([]Symbol, 1, capacity+1)} // index 0 reserved for NoSymbolID
}

func (s *Symbols) New(sym Symbol) SymbolID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	s.data = append(s.data, sym)
	return SymbolID(value)
}

func (s *Symbols) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports number of stored symbols excluding the sentinel.
func (s *Symbols) Len() int { return len(s.data) - 1 }

// MultiDef is the chain of generations of one name in one table, with a
// cursor at the generation currently in effect. Generation 0 is the state
// before the first definition.
type MultiDef struct {
	Name   string
	Gens   []SymbolID
	cursor int
	// Type accumulates every type narrowed into any generation: the first
	// narrowing sets it, later ones widen it to a union.
	Type types.TypeID
}

// Current returns the generation in effect.
func (m *MultiDef) Current() SymbolID { return m.Gens[m.cursor] }

// Cursor returns the index of the generation in effect.
func (m *MultiDef) Cursor() int { return m.cursor }

// NextDef advances to the next generation, creating it on demand. A new
// generation inherits the name's classification.
func (m *MultiDef) NextDef(syms *Symbols) SymbolID {
	m.cursor++
	if m.cursor == len(m.Gens) {
		prev := syms.Get(m.Gens[m.cursor-1])
		m.Gens = append(m.Gens, syms.New(Symbol{Name: m.Name, Binding: prev.Binding}))
	}
	return m.Gens[m.cursor]
}

// Reset rewinds the cursor to generation 0.
func (m *MultiDef) Reset() { m.cursor = 0 }
