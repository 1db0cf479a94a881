package types

import "fmt"

// TypeID uniquely identifies a type inside the registry.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindAny is the top type; "object" in the subject language.
	KindAny
	// KindUnknown marks a type nothing has been inferred for yet.
	KindUnknown
	KindNone
	KindBool
	KindInt
	KindFloat
	KindComplex
	KindStr
	KindBytes
	KindEllipsis
	KindSlice
	KindRange
	KindList
	KindTuple
	KindSet
	KindDict
	KindIterable
	KindNotImplemented
	KindFunction
	KindModule
	KindClass
	KindInstance
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindAny:
		return "any"
	case KindUnknown:
		return "unknown"
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindEllipsis:
		return "ellipsis"
	case KindSlice:
		return "slice"
	case KindRange:
		return "range"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindDict:
		return "dict"
	case KindIterable:
		return "iterable"
	case KindNotImplemented:
		return "notimplemented"
	case KindFunction:
		return "function"
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindUnion:
		return "union"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsContainer reports whether the kind carries an item type.
func (k Kind) IsContainer() bool {
	switch k {
	case KindList, KindTuple, KindSet, KindDict, KindIterable:
		return true
	}
	return false
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Name    string
	Builtin bool
	// Completed is false for classes whose bases could not all be resolved.
	Completed bool
	// Item is the element type of containers; the key type of dicts.
	Item TypeID
	// Value is the value type of dicts.
	Value TypeID
	// Class is the class an instance belongs to.
	Class TypeID
	// Members lists union members sorted by name.
	Members []TypeID
	// Bases are the declared bases of a class.
	Bases []TypeID
	// MRO is the linearization of a class or builtin, starting with itself.
	MRO []TypeID

	ops opTable
	// methods holds the special methods a class defines for its instances.
	methods opTable
}

// HasOp reports whether the type implements the special method.
func (t *Type) HasOp(method string) bool {
	_, ok := t.ops[method]
	return ok
}
