package resolve

import (
	"fmt"

	"flowscope/internal/source"
)

// NonlocalAtModuleError is raised by a nonlocal statement at module level.
type NonlocalAtModuleError struct {
	Name string
	Span source.Span
}

func (e *NonlocalAtModuleError) Error() string {
	return fmt.Sprintf("nonlocal declaration not allowed at module level (name '%s')", e.Name)
}
