package ast

import "flowscope/internal/source"

type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprName
	ExprConstant
	ExprBinOp
	ExprUnaryOp
	ExprBoolOp
	ExprCompare
	ExprCall
	ExprAttribute
	ExprSubscript
	ExprSlice
	ExprStarred
	ExprList
	ExprTuple
	ExprSet
	ExprDict
	ExprIfExp
	ExprNamedExpr
	ExprLambda
	ExprListComp
	ExprSetComp
	ExprGeneratorExp
	ExprDictComp
	ExprAwait
	ExprYield
	ExprYieldFrom
	ExprJoinedStr
	ExprFormattedValue
)

var exprKindNames = [...]string{
	ExprInvalid:        "Invalid",
	ExprName:           "Name",
	ExprConstant:       "Constant",
	ExprBinOp:          "BinOp",
	ExprUnaryOp:        "UnaryOp",
	ExprBoolOp:         "BoolOp",
	ExprCompare:        "Compare",
	ExprCall:           "Call",
	ExprAttribute:      "Attribute",
	ExprSubscript:      "Subscript",
	ExprSlice:          "Slice",
	ExprStarred:        "Starred",
	ExprList:           "List",
	ExprTuple:          "Tuple",
	ExprSet:            "Set",
	ExprDict:           "Dict",
	ExprIfExp:          "IfExp",
	ExprNamedExpr:      "NamedExpr",
	ExprLambda:         "Lambda",
	ExprListComp:       "ListComp",
	ExprSetComp:        "SetComp",
	ExprGeneratorExp:   "GeneratorExp",
	ExprDictComp:       "DictComp",
	ExprAwait:          "Await",
	ExprYield:          "Yield",
	ExprYieldFrom:      "YieldFrom",
	ExprJoinedStr:      "JoinedStr",
	ExprFormattedValue: "FormattedValue",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Expr(?)"
}

// IsComprehension reports whether k introduces its own scope over generators.
func (k ExprKind) IsComprehension() bool {
	switch k {
	case ExprListComp, ExprSetComp, ExprGeneratorExp, ExprDictComp:
		return true
	}
	return false
}

// Expr is one expression node. Data holds the kind-specific payload.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData
}

type ExprData interface{ exprData() }

type NameData struct {
	ID  string
	Ctx Ctx
}

// ConstKind classifies literal values.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstComplex
	ConstStr
	ConstBytes
	ConstEllipsis
)

func (k ConstKind) String() string {
	switch k {
	case ConstBool:
		return "bool"
	case ConstInt:
		return "int"
	case ConstFloat:
		return "float"
	case ConstComplex:
		return "complex"
	case ConstStr:
		return "str"
	case ConstBytes:
		return "bytes"
	case ConstEllipsis:
		return "ellipsis"
	}
	return "NoneType"
}

type ConstantData struct {
	Kind ConstKind
	Text string // literal text for numbers, contents for str/bytes
	Bool bool
}

type BinOpData struct {
	Op          BinOp
	Left, Right ExprID
}

type UnaryOpData struct {
	Op      UnaryOp
	Operand ExprID
}

type BoolOpData struct {
	Op     BoolOp
	Values []ExprID
}

type CompareData struct {
	Left        ExprID
	Ops         []CmpOp
	Comparators []ExprID
}

type Keyword struct {
	Arg   string // "" for **kwargs
	Value ExprID
}

type CallData struct {
	Func     ExprID
	Args     []ExprID
	Keywords []Keyword
}

type AttributeData struct {
	Value ExprID
	Attr  string
	Ctx   Ctx
}

type SubscriptData struct {
	Value, Slice ExprID
	Ctx          Ctx
}

type SliceData struct {
	Lower, Upper, Step ExprID
}

// ValueData carries a single operand: Starred, Await, Yield, YieldFrom.
type ValueData struct {
	Value ExprID
	Ctx   Ctx
}

// SeqData carries List, Tuple and Set displays.
type SeqData struct {
	Elts []ExprID
	Ctx  Ctx
}

// DictData pairs keys with values; a NoExprID key is a "**mapping" entry.
type DictData struct {
	Keys, Values []ExprID
}

type IfExpData struct {
	Test, Body, OrElse ExprID
}

type NamedExprData struct {
	Target, Value ExprID
}

type LambdaData struct {
	Args *Arguments
	Body ExprID
}

type Comprehension struct {
	Target  ExprID
	Iter    ExprID
	Ifs     []ExprID
	IsAsync bool
}

// CompData carries every comprehension kind. DictComp uses Key/Value,
// the rest use Elt.
type CompData struct {
	Elt        ExprID
	Key, Value ExprID
	Generators []Comprehension
}

type JoinedStrData struct {
	Values []ExprID
}

type FormattedValueData struct {
	Value      ExprID
	Conversion int
	FormatSpec ExprID
}

func (*NameData) exprData()           {}
func (*ConstantData) exprData()       {}
func (*BinOpData) exprData()          {}
func (*UnaryOpData) exprData()        {}
func (*BoolOpData) exprData()         {}
func (*CompareData) exprData()        {}
func (*CallData) exprData()           {}
func (*AttributeData) exprData()      {}
func (*SubscriptData) exprData()      {}
func (*SliceData) exprData()          {}
func (*ValueData) exprData()          {}
func (*SeqData) exprData()            {}
func (*DictData) exprData()           {}
func (*IfExpData) exprData()          {}
func (*NamedExprData) exprData()      {}
func (*LambdaData) exprData()         {}
func (*CompData) exprData()           {}
func (*JoinedStrData) exprData()      {}
func (*FormattedValueData) exprData() {}
