package symbols

// SymbolID identifies one symbol generation in the Symbols arena.
type SymbolID uint32

// TableID identifies a symbol table in the Tables arena.
type TableID uint32

const (
	NoSymbolID SymbolID = 0
	NoTableID  TableID  = 0
)

func (id SymbolID) IsValid() bool { return id != NoSymbolID }
func (id TableID) IsValid() bool  { return id != NoTableID }
