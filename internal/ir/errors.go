package ir

import (
	"errors"
	"fmt"

	"flowscope/internal/source"
)

// ErrMalformedTree reports a tree the translator cannot handle. It signals a
// bug in the producer, not in the analyzed program.
var ErrMalformedTree = errors.New("malformed syntax tree")

// DuplicateArgumentError is raised when a parameter name repeats.
type DuplicateArgumentError struct {
	Name     string
	Function string
	Span     source.Span
}

func (e *DuplicateArgumentError) Error() string {
	return fmt.Sprintf("duplicate argument '%s' in function definition", e.Name)
}
