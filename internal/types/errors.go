package types

import (
	"fmt"
	"strings"
)

// UnsupportedOperandError is raised when neither operand implements a
// binary operator for the other.
type UnsupportedOperandError struct {
	Op    string
	Left  string
	Right string
}

func (e *UnsupportedOperandError) Error() string {
	return fmt.Sprintf("unsupported operand type(s) for %s: '%s' and '%s'", e.Op, e.Left, e.Right)
}

// UnorderableError is raised by an ordering comparison no operand supports.
type UnorderableError struct {
	Op    string
	Left  string
	Right string
}

func (e *UnorderableError) Error() string {
	return fmt.Sprintf("'%s' not supported between instances of '%s' and '%s'", e.Op, e.Left, e.Right)
}

// NotIterableError is raised when iterating, or testing membership in, a
// value that is not a container.
type NotIterableError struct {
	Type string
	// Membership is set for "in" tests.
	Membership bool
}

func (e *NotIterableError) Error() string {
	if e.Membership {
		return fmt.Sprintf("argument of type '%s' is not iterable", e.Type)
	}
	return fmt.Sprintf("'%s' object is not iterable", e.Type)
}

// BadUnaryError is raised when the operand lacks the unary special method.
type BadUnaryError struct {
	Op   string
	Type string
}

func (e *BadUnaryError) Error() string {
	return fmt.Sprintf("bad operand type for unary %s: '%s'", e.Op, e.Type)
}

// NotSubscriptableError is raised when the value has no __getitem__.
type NotSubscriptableError struct {
	Type string
}

func (e *NotSubscriptableError) Error() string {
	return fmt.Sprintf("'%s' object is not subscriptable", e.Type)
}

// BadIndexError is raised when __getitem__ rejects the index type.
type BadIndexError struct {
	Type  string
	Index string
}

func (e *BadIndexError) Error() string {
	return fmt.Sprintf("%s indices must be integers or slices, not %s", e.Type, e.Index)
}

// MROConflictError is raised when the bases admit no C3 linearization.
type MROConflictError struct {
	Bases []string
}

func (e *MROConflictError) Error() string {
	return "Cannot create a consistent method resolution order (MRO) for bases " + strings.Join(e.Bases, ", ")
}

// DuplicateBaseError is raised when a class lists the same base twice.
type DuplicateBaseError struct {
	Name string
}

func (e *DuplicateBaseError) Error() string {
	return fmt.Sprintf("duplicate base class %s", e.Name)
}

// InheritanceCycleError is raised when a class would inherit from itself.
type InheritanceCycleError struct {
	Name string
}

func (e *InheritanceCycleError) Error() string {
	return fmt.Sprintf("cycle in inheritance of class '%s'", e.Name)
}

// InvalidBaseError is raised when a base is not a class.
type InvalidBaseError struct {
	Type string
}

func (e *InvalidBaseError) Error() string {
	return fmt.Sprintf("bases must be types, not '%s'", e.Type)
}
