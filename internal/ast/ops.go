package ast

// BinOp is an arithmetic or bitwise binary operator.
type BinOp uint8

const (
	OpAdd BinOp = iota + 1
	OpSub
	OpMult
	OpMatMult
	OpDiv
	OpMod
	OpPow
	OpLShift
	OpRShift
	OpBitOr
	OpBitXor
	OpBitAnd
	OpFloorDiv
)

var binOps = [...]struct{ name, symbol, method string }{
	OpAdd:      {"Add", "+", "add"},
	OpSub:      {"Sub", "-", "sub"},
	OpMult:     {"Mult", "*", "mul"},
	OpMatMult:  {"MatMult", "@", "matmul"},
	OpDiv:      {"Div", "/", "truediv"},
	OpMod:      {"Mod", "%", "mod"},
	OpPow:      {"Pow", "**", "pow"},
	OpLShift:   {"LShift", "<<", "lshift"},
	OpRShift:   {"RShift", ">>", "rshift"},
	OpBitOr:    {"BitOr", "|", "or"},
	OpBitXor:   {"BitXor", "^", "xor"},
	OpBitAnd:   {"BitAnd", "&", "and"},
	OpFloorDiv: {"FloorDiv", "//", "floordiv"},
}

func (op BinOp) valid() bool { return op > 0 && int(op) < len(binOps) }

func (op BinOp) String() string {
	if !op.valid() {
		return "BinOp(?)"
	}
	return binOps[op].name
}

// Symbol is the printable operator, e.g. "+".
func (op BinOp) Symbol() string {
	if !op.valid() {
		return "?"
	}
	return binOps[op].symbol
}

// Method is the forward special method, e.g. "__add__".
func (op BinOp) Method() string {
	if !op.valid() {
		return ""
	}
	return "__" + binOps[op].method + "__"
}

// Reflected is the reflected special method, e.g. "__radd__".
func (op BinOp) Reflected() string {
	if !op.valid() {
		return ""
	}
	return "__r" + binOps[op].method + "__"
}

// ParseBinOp maps a syntax-tree operator name to a BinOp.
func ParseBinOp(name string) (BinOp, bool) {
	for i := range binOps {
		if i > 0 && binOps[i].name == name {
			return BinOp(i), true
		}
	}
	return 0, false
}

// UnaryOp is a prefix operator.
type UnaryOp uint8

const (
	OpInvert UnaryOp = iota + 1
	OpNot
	OpUAdd
	OpUSub
)

func (op UnaryOp) String() string {
	switch op {
	case OpInvert:
		return "Invert"
	case OpNot:
		return "Not"
	case OpUAdd:
		return "UAdd"
	case OpUSub:
		return "USub"
	}
	return "UnaryOp(?)"
}

func (op UnaryOp) Symbol() string {
	switch op {
	case OpInvert:
		return "~"
	case OpNot:
		return "not"
	case OpUAdd:
		return "+"
	case OpUSub:
		return "-"
	}
	return "?"
}

// Method is the special method implementing op; "not" has none.
func (op UnaryOp) Method() string {
	switch op {
	case OpInvert:
		return "__invert__"
	case OpUAdd:
		return "__pos__"
	case OpUSub:
		return "__neg__"
	}
	return ""
}

func ParseUnaryOp(name string) (UnaryOp, bool) {
	for op := OpInvert; op <= OpUSub; op++ {
		if op.String() == name {
			return op, true
		}
	}
	return 0, false
}

// BoolOp is "and" / "or".
type BoolOp uint8

const (
	OpAnd BoolOp = iota + 1
	OpOr
)

func (op BoolOp) String() string {
	if op == OpAnd {
		return "And"
	}
	return "Or"
}

// CmpOp is a comparison operator.
type CmpOp uint8

const (
	CmpEq CmpOp = iota + 1
	CmpNotEq
	CmpLt
	CmpLtE
	CmpGt
	CmpGtE
	CmpIs
	CmpIsNot
	CmpIn
	CmpNotIn
)

var cmpOps = [...]struct{ name, symbol, method string }{
	CmpEq:    {"Eq", "==", "__eq__"},
	CmpNotEq: {"NotEq", "!=", "__ne__"},
	CmpLt:    {"Lt", "<", "__lt__"},
	CmpLtE:   {"LtE", "<=", "__le__"},
	CmpGt:    {"Gt", ">", "__gt__"},
	CmpGtE:   {"GtE", ">=", "__ge__"},
	CmpIs:    {"Is", "is", ""},
	CmpIsNot: {"IsNot", "is not", ""},
	CmpIn:    {"In", "in", "__contains__"},
	CmpNotIn: {"NotIn", "not in", "__contains__"},
}

func (op CmpOp) valid() bool { return op > 0 && int(op) < len(cmpOps) }

func (op CmpOp) String() string {
	if !op.valid() {
		return "CmpOp(?)"
	}
	return cmpOps[op].name
}

func (op CmpOp) Symbol() string {
	if !op.valid() {
		return "?"
	}
	return cmpOps[op].symbol
}

// Method is the rich-comparison method; identity tests have none.
func (op CmpOp) Method() string {
	if !op.valid() {
		return ""
	}
	return cmpOps[op].method
}

// Swapped is the operator tried on the right operand: a < b  <=>  b > a.
func (op CmpOp) Swapped() CmpOp {
	switch op {
	case CmpLt:
		return CmpGt
	case CmpGt:
		return CmpLt
	case CmpLtE:
		return CmpGtE
	case CmpGtE:
		return CmpLtE
	}
	return op
}

func ParseCmpOp(name string) (CmpOp, bool) {
	for i := range cmpOps {
		if i > 0 && cmpOps[i].name == name {
			return CmpOp(i), true
		}
	}
	return 0, false
}

// Ctx is the expression context recorded on names and containers.
type Ctx uint8

const (
	Load Ctx = iota
	Store
	Del
)

func (c Ctx) String() string {
	switch c {
	case Store:
		return "Store"
	case Del:
		return "Del"
	}
	return "Load"
}
