package symbols

import (
	"fmt"

	"flowscope/internal/source"
)

// Binding classifies where a name lives.
type Binding uint8

const (
	BindUnknown Binding = iota
	BindLocal
	BindGlobal
	BindNonlocal
)

func (b Binding) String() string {
	switch b {
	case BindLocal:
		return "local"
	case BindGlobal:
		return "global"
	case BindNonlocal:
		return "nonlocal"
	}
	return "unknown"
}

// Change applies the classification rule: unknown may become anything,
// equal values are a no-op, and a specific value never changes to another.
func (b Binding) Change(to Binding) (Binding, bool) {
	switch {
	case b == BindUnknown:
		return to, true
	case b == to || to == BindUnknown:
		return b, true
	}
	return b, false
}

// ScopeConflictError reports a name classified two incompatible ways.
type ScopeConflictError struct {
	Name  string
	From  Binding
	To    Binding
	IsArg bool
	Span  source.Span
}

func (e *ScopeConflictError) Error() string {
	switch {
	case e.IsArg && e.From == BindLocal:
		return fmt.Sprintf("name '%s' is parameter and %s", e.Name, e.To)
	case e.From == BindLocal:
		return fmt.Sprintf("name '%s' is assigned to before %s declaration", e.Name, e.To)
	case e.From == BindGlobal && e.To == BindNonlocal, e.From == BindNonlocal && e.To == BindGlobal:
		return fmt.Sprintf("name '%s' is nonlocal and global", e.Name)
	}
	return fmt.Sprintf("changing the scope of '%s' from %s to %s", e.Name, e.From, e.To)
}
