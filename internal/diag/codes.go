package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Input
	InInfo            Code = 1000
	InLoadFileError   Code = 1001
	InMalformedTree   Code = 1002
	InUnsupportedNode Code = 1003

	// Scope and symbol resolution
	SemInfo              Code = 3000
	SemDuplicateArgument Code = 3001
	SemScopeConflict     Code = 3002
	SemNonlocalAtModule  Code = 3003
	SemInheritanceCycle  Code = 3004
	SemDuplicateBase     Code = 3005
	SemInconsistentMRO   Code = 3006

	// Type inference
	TypInfo               Code = 4000
	TypUnsupportedOperand Code = 4001
	TypNotSubscriptable   Code = 4002
	TypNotIterable        Code = 4003
	TypUnorderable        Code = 4004
	TypBadUnaryOperand    Code = 4005
	TypInvalidBase        Code = 4006
	TypBadIndex           Code = 4007

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	InInfo:                "Input information",
	InLoadFileError:       "Cannot load syntax tree",
	InMalformedTree:       "Malformed syntax tree",
	InUnsupportedNode:     "Unsupported syntax-tree node",
	SemInfo:               "Resolution information",
	SemDuplicateArgument:  "Duplicate argument in function definition",
	SemScopeConflict:      "Conflicting scope declarations",
	SemNonlocalAtModule:   "nonlocal declaration at module level",
	SemInheritanceCycle:   "Class inherits from itself",
	SemDuplicateBase:      "Duplicate base class",
	SemInconsistentMRO:    "Inconsistent method resolution order",
	TypInfo:               "Inference information",
	TypUnsupportedOperand: "Unsupported operand types",
	TypNotSubscriptable:   "Object is not subscriptable",
	TypNotIterable:        "Object is not iterable",
	TypUnorderable:        "Comparison not supported between instances",
	TypBadUnaryOperand:    "Bad operand type for unary operator",
	TypInvalidBase:        "Base is not a class",
	TypBadIndex:           "Invalid index type",
	ObsInfo:               "Observability information",
	ObsTimings:            "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
