package ast

import "flowscope/internal/source"

type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtFunctionDef
	StmtClassDef
	StmtReturn
	StmtDelete
	StmtAssign
	StmtAugAssign
	StmtAnnAssign
	StmtFor
	StmtWhile
	StmtIf
	StmtWith
	StmtMatch
	StmtRaise
	StmtTry
	StmtAssert
	StmtImport
	StmtImportFrom
	StmtGlobal
	StmtNonlocal
	StmtExpr
	StmtPass
	StmtBreak
	StmtContinue
)

var stmtKindNames = [...]string{
	StmtInvalid:     "Invalid",
	StmtFunctionDef: "FunctionDef",
	StmtClassDef:    "ClassDef",
	StmtReturn:      "Return",
	StmtDelete:      "Delete",
	StmtAssign:      "Assign",
	StmtAugAssign:   "AugAssign",
	StmtAnnAssign:   "AnnAssign",
	StmtFor:         "For",
	StmtWhile:       "While",
	StmtIf:          "If",
	StmtWith:        "With",
	StmtMatch:       "Match",
	StmtRaise:       "Raise",
	StmtTry:         "Try",
	StmtAssert:      "Assert",
	StmtImport:      "Import",
	StmtImportFrom:  "ImportFrom",
	StmtGlobal:      "Global",
	StmtNonlocal:    "Nonlocal",
	StmtExpr:        "Expr",
	StmtPass:        "Pass",
	StmtBreak:       "Break",
	StmtContinue:    "Continue",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "Stmt(?)"
}

// Stmt is one statement node. Data is nil for Pass, Break and Continue.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

type StmtData interface{ stmtData() }

type FunctionDefData struct {
	Name       string
	Args       *Arguments
	Body       []StmtID
	Decorators []ExprID
	Returns    ExprID
	IsAsync    bool
}

type ClassDefData struct {
	Name       string
	Bases      []ExprID
	Keywords   []Keyword
	Body       []StmtID
	Decorators []ExprID
}

// ExprStmtData carries Return, Expr and the optional value of a statement.
type ExprStmtData struct {
	Value ExprID
}

type DeleteData struct {
	Targets []ExprID
}

type AssignData struct {
	Targets []ExprID
	Value   ExprID
}

type AugAssignData struct {
	Target ExprID
	Op     BinOp
	Value  ExprID
}

type AnnAssignData struct {
	Target     ExprID
	Annotation ExprID
	Value      ExprID // NoExprID for bare annotations
	Simple     bool
}

type ForData struct {
	Target, Iter ExprID
	Body, OrElse []StmtID
	IsAsync      bool
}

// CondData carries While and If.
type CondData struct {
	Test         ExprID
	Body, OrElse []StmtID
}

type WithItem struct {
	Context ExprID
	Vars    ExprID // NoExprID without "as"
}

type WithData struct {
	Items   []WithItem
	Body    []StmtID
	IsAsync bool
}

type MatchCase struct {
	Pattern *Pattern
	Guard   ExprID
	Body    []StmtID
	Span    source.Span
}

type MatchData struct {
	Subject ExprID
	Cases   []MatchCase
}

type RaiseData struct {
	Exc, Cause ExprID
}

type ExceptHandler struct {
	Type ExprID
	Name string
	Body []StmtID
	Span source.Span
}

type TryData struct {
	Body      []StmtID
	Handlers  []ExceptHandler
	OrElse    []StmtID
	FinalBody []StmtID
	IsStar    bool
}

type AssertData struct {
	Test, Msg ExprID
}

type Alias struct {
	Name   string
	AsName string
	Span   source.Span
}

// Bound is the name an import binds: the alias, or the first dotted part.
func (a Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}
	for i := 0; i < len(a.Name); i++ {
		if a.Name[i] == '.' {
			return a.Name[:i]
		}
	}
	return a.Name
}

type ImportData struct {
	Module string // ImportFrom only
	Names  []Alias
	Level  int
}

// NamesData carries Global and Nonlocal.
type NamesData struct {
	Names []string
}

func (*FunctionDefData) stmtData() {}
func (*ClassDefData) stmtData()    {}
func (*ExprStmtData) stmtData()    {}
func (*DeleteData) stmtData()      {}
func (*AssignData) stmtData()      {}
func (*AugAssignData) stmtData()   {}
func (*AnnAssignData) stmtData()   {}
func (*ForData) stmtData()         {}
func (*CondData) stmtData()        {}
func (*WithData) stmtData()        {}
func (*MatchData) stmtData()       {}
func (*RaiseData) stmtData()       {}
func (*TryData) stmtData()         {}
func (*AssertData) stmtData()      {}
func (*ImportData) stmtData()      {}
func (*NamesData) stmtData()       {}
