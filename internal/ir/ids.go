package ir

// ScopeID identifies a scope in a Program's arena.
type ScopeID uint32

// NoScopeID marks the absence of a scope.
const NoScopeID ScopeID = 0

func (id ScopeID) IsValid() bool { return id != NoScopeID }

// ScopeRef stands in for a nested scope at its textual position. It resolves
// through the enclosing scope's table: Table[Name][Index].
type ScopeRef struct {
	Name  string
	Index int
}

// NoRef is the zero ScopeRef; real references always carry a name.
var NoRef ScopeRef

func (r ScopeRef) Valid() bool { return r.Name != "" }
