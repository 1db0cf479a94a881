package ast

import "flowscope/internal/source"

// Builder allocates nodes into a Module. The decoder drives it with real
// positions; hand-built trees get one line per statement.
type Builder struct {
	mod  *Module
	line uint32
}

func NewBuilder(name string, file source.FileID) *Builder {
	return &Builder{mod: &Module{
		Name:  name,
		File:  file,
		Stmts: NewArena[Stmt](1 << 6),
		Exprs: NewArena[Expr](1 << 8),
	}}
}

// Peek gives access to the nodes allocated so far.
func (b *Builder) Peek() *Module { return b.mod }

// Module finishes the tree with the given top-level body.
func (b *Builder) Module(body ...StmtID) *Module {
	b.mod.Body = body
	return b.mod
}

func (b *Builder) NewExpr(kind ExprKind, span source.Span, data ExprData) ExprID {
	return ExprID(b.mod.Exprs.Allocate(Expr{Kind: kind, Span: span, Data: data}))
}

func (b *Builder) NewStmt(kind StmtKind, span source.Span, data StmtData) StmtID {
	return StmtID(b.mod.Stmts.Allocate(Stmt{Kind: kind, Span: span, Data: data}))
}

func (b *Builder) here() source.Span {
	if b.line == 0 {
		b.line = 1
	}
	return source.Span{File: b.mod.File, Line: b.line, EndLine: b.line, EndCol: 1}
}

func (b *Builder) stmt(kind StmtKind, data StmtData) StmtID {
	id := b.NewStmt(kind, b.here(), data)
	b.line++
	return id
}

func (b *Builder) expr(kind ExprKind, data ExprData) ExprID {
	return b.NewExpr(kind, b.here(), data)
}

// Expressions.

func (b *Builder) Name(id string) ExprID {
	return b.expr(ExprName, &NameData{ID: id, Ctx: Load})
}

func (b *Builder) Store(id string) ExprID {
	return b.expr(ExprName, &NameData{ID: id, Ctx: Store})
}

func (b *Builder) Int(text string) ExprID {
	return b.expr(ExprConstant, &ConstantData{Kind: ConstInt, Text: text})
}

func (b *Builder) Float(text string) ExprID {
	return b.expr(ExprConstant, &ConstantData{Kind: ConstFloat, Text: text})
}

func (b *Builder) Str(s string) ExprID {
	return b.expr(ExprConstant, &ConstantData{Kind: ConstStr, Text: s})
}

func (b *Builder) Bool(v bool) ExprID {
	return b.expr(ExprConstant, &ConstantData{Kind: ConstBool, Bool: v})
}

func (b *Builder) None() ExprID {
	return b.expr(ExprConstant, &ConstantData{Kind: ConstNone})
}

func (b *Builder) Bin(op BinOp, left, right ExprID) ExprID {
	return b.expr(ExprBinOp, &BinOpData{Op: op, Left: left, Right: right})
}

func (b *Builder) Unary(op UnaryOp, operand ExprID) ExprID {
	return b.expr(ExprUnaryOp, &UnaryOpData{Op: op, Operand: operand})
}

func (b *Builder) Compare(left ExprID, op CmpOp, right ExprID) ExprID {
	return b.expr(ExprCompare, &CompareData{Left: left, Ops: []CmpOp{op}, Comparators: []ExprID{right}})
}

func (b *Builder) Call(fn ExprID, args ...ExprID) ExprID {
	return b.expr(ExprCall, &CallData{Func: fn, Args: args})
}

func (b *Builder) Attr(value ExprID, attr string) ExprID {
	return b.expr(ExprAttribute, &AttributeData{Value: value, Attr: attr})
}

func (b *Builder) Index(value, slice ExprID) ExprID {
	return b.expr(ExprSubscript, &SubscriptData{Value: value, Slice: slice})
}

func (b *Builder) Slice(lower, upper, step ExprID) ExprID {
	return b.expr(ExprSlice, &SliceData{Lower: lower, Upper: upper, Step: step})
}

func (b *Builder) List(elts ...ExprID) ExprID {
	return b.expr(ExprList, &SeqData{Elts: elts})
}

func (b *Builder) Tuple(elts ...ExprID) ExprID {
	return b.expr(ExprTuple, &SeqData{Elts: elts})
}

func (b *Builder) Walrus(target string, value ExprID) ExprID {
	return b.expr(ExprNamedExpr, &NamedExprData{Target: b.Store(target), Value: value})
}

func (b *Builder) Lambda(args *Arguments, body ExprID) ExprID {
	return b.expr(ExprLambda, &LambdaData{Args: args, Body: body})
}

// ListComp builds [elt for target in iter].
func (b *Builder) ListComp(elt, target, iter ExprID) ExprID {
	return b.expr(ExprListComp, &CompData{Elt: elt, Generators: []Comprehension{{Target: target, Iter: iter}}})
}

// Statements.

func (b *Builder) Assign(target, value ExprID) StmtID {
	return b.stmt(StmtAssign, &AssignData{Targets: []ExprID{target}, Value: value})
}

func (b *Builder) AugAssign(target ExprID, op BinOp, value ExprID) StmtID {
	return b.stmt(StmtAugAssign, &AugAssignData{Target: target, Op: op, Value: value})
}

func (b *Builder) AnnAssign(target, annotation, value ExprID) StmtID {
	return b.stmt(StmtAnnAssign, &AnnAssignData{Target: target, Annotation: annotation, Value: value, Simple: true})
}

func (b *Builder) ExprStmt(value ExprID) StmtID {
	return b.stmt(StmtExpr, &ExprStmtData{Value: value})
}

func (b *Builder) Return(value ExprID) StmtID {
	return b.stmt(StmtReturn, &ExprStmtData{Value: value})
}

func (b *Builder) Pass() StmtID     { return b.stmt(StmtPass, nil) }
func (b *Builder) Break() StmtID    { return b.stmt(StmtBreak, nil) }
func (b *Builder) Continue() StmtID { return b.stmt(StmtContinue, nil) }

func (b *Builder) Raise(exc ExprID) StmtID {
	return b.stmt(StmtRaise, &RaiseData{Exc: exc})
}

func (b *Builder) If(test ExprID, body, orelse []StmtID) StmtID {
	return b.stmt(StmtIf, &CondData{Test: test, Body: body, OrElse: orelse})
}

func (b *Builder) While(test ExprID, body, orelse []StmtID) StmtID {
	return b.stmt(StmtWhile, &CondData{Test: test, Body: body, OrElse: orelse})
}

func (b *Builder) For(target, iter ExprID, body, orelse []StmtID) StmtID {
	return b.stmt(StmtFor, &ForData{Target: target, Iter: iter, Body: body, OrElse: orelse})
}

func (b *Builder) Try(body []StmtID, handlers []ExceptHandler, orelse, final []StmtID) StmtID {
	return b.stmt(StmtTry, &TryData{Body: body, Handlers: handlers, OrElse: orelse, FinalBody: final})
}

func (b *Builder) With(items []WithItem, body []StmtID) StmtID {
	return b.stmt(StmtWith, &WithData{Items: items, Body: body})
}

func (b *Builder) Def(name string, args *Arguments, body ...StmtID) StmtID {
	if args == nil {
		args = &Arguments{}
	}
	return b.stmt(StmtFunctionDef, &FunctionDefData{Name: name, Args: args, Body: body})
}

func (b *Builder) Class(name string, bases []ExprID, body ...StmtID) StmtID {
	return b.stmt(StmtClassDef, &ClassDefData{Name: name, Bases: bases, Body: body})
}

func (b *Builder) Import(names ...Alias) StmtID {
	return b.stmt(StmtImport, &ImportData{Names: names})
}

func (b *Builder) ImportFrom(module string, names ...Alias) StmtID {
	return b.stmt(StmtImportFrom, &ImportData{Module: module, Names: names})
}

func (b *Builder) Global(names ...string) StmtID {
	return b.stmt(StmtGlobal, &NamesData{Names: names})
}

func (b *Builder) Nonlocal(names ...string) StmtID {
	return b.stmt(StmtNonlocal, &NamesData{Names: names})
}

// Params builds a positional-only-free parameter list.
func Params(names ...string) *Arguments {
	args := &Arguments{}
	for _, n := range names {
		args.Args = append(args.Args, Arg{Name: n})
	}
	return args
}
