package infer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"flowscope/internal/analysis"
	"flowscope/internal/ast"
	"flowscope/internal/diag"
	"flowscope/internal/ir"
	"flowscope/internal/resolve"
	"flowscope/internal/source"
	"flowscope/internal/symbols"
)

type fixture struct {
	res *Result
	bag *diag.Bag
	mod symbols.TableID
}

func run(t *testing.T, mod *ast.Module) fixture {
	t.Helper()
	prog, err := ir.Translate(mod)
	require.NoError(t, err)
	actx := analysis.NewContext(prog)
	bag := diag.NewBag(100)
	actx.Reporter = diag.BagReporter{Bag: bag}
	require.NoError(t, analysis.Run(context.Background(), actx, analysis.Pipeline{resolve.Pass{}, Pass{}}))
	res, err := analysis.Result[*Result](actx, Name)
	require.NoError(t, err)
	return fixture{res: res, bag: bag, mod: res.Resolve.Units[0]}
}

// typ renders the accumulated type of name in the module table.
func (f fixture) typ(name string) string {
	return f.res.Registry.Name(f.res.NameType(f.mod, name))
}

func (f fixture) in(table symbols.TableID, name string) string {
	return f.res.Registry.Name(f.res.NameType(table, name))
}

func (f fixture) table(t *testing.T, name string) symbols.TableID {
	t.Helper()
	sym := f.res.Resolve.Store.Current(f.mod, name)
	require.True(t, sym.HoldsTable(), name)
	return sym.Table
}

func (f fixture) codes() []diag.Code {
	var out []diag.Code
	for _, d := range f.bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestLiteralsAndOperators(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	dict := b.NewExpr(ast.ExprDict, source.Span{}, &ast.DictData{
		Keys: []ast.ExprID{b.Str("k")}, Values: []ast.ExprID{b.Int("1")},
	})
	ifExp := b.NewExpr(ast.ExprIfExp, source.Span{}, &ast.IfExpData{
		Test: b.Name("a"), Body: b.Int("1"), OrElse: b.Str("x"),
	})
	mod := b.Module(
		b.Assign(b.Store("a"), b.Int("1")),
		b.Assign(b.Store("q"), b.Bin(ast.OpDiv, b.Name("a"), b.Int("2"))),
		b.Assign(b.Store("s"), b.Bin(ast.OpMult, b.Str("x"), b.Int("3"))),
		b.Assign(b.Store("l"), b.List(b.Int("1"), b.Float("2.0"))),
		b.Assign(b.Store("d"), dict),
		b.Assign(b.Store("tup"), b.Tuple(b.Int("1"), b.Str("s"))),
		b.Assign(b.Store("neg"), b.Unary(ast.OpNot, b.Name("a"))),
		b.Assign(b.Store("lt"), b.Compare(b.Name("a"), ast.CmpLt, b.Float("2.5"))),
		b.Assign(b.Store("item"), b.Index(b.Name("l"), b.Int("0"))),
		b.Assign(b.Store("part"), b.Index(b.Str("abc"), b.Slice(b.Int("1"), ast.NoExprID, ast.NoExprID))),
		b.Assign(b.Store("pick"), ifExp),
		b.Assign(b.Store("empty"), b.List()),
		b.Assign(b.Store("nothing"), b.None()),
	)
	f := run(t, mod)

	for name, want := range map[string]string{
		"a":       "int",
		"q":       "float",
		"s":       "str",
		"l":       "list[Union[float, int]]",
		"d":       "dict[str, int]",
		"tup":     "tuple[Union[int, str]]",
		"neg":     "bool",
		"lt":      "bool",
		"item":    "Union[float, int]",
		"part":    "str",
		"pick":    "Union[int, str]",
		"empty":   "list[unknown]",
		"nothing": "NoneType",
	} {
		require.Equal(t, want, f.typ(name), name)
	}
	require.Zero(t, f.bag.Len())
}

func TestRedefinitionWidensType(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("x"), b.Int("1")),
		b.Assign(b.Store("x"), b.Str("s")),
		b.Assign(b.Store("y"), b.Int("1")),
		b.Assign(b.Store("y"), b.Int("2")),
	)
	f := run(t, mod)
	require.Equal(t, "Union[int, str]", f.typ("x"))
	require.Equal(t, "int", f.typ("y"))

	store := f.res.Resolve.Store
	md := store.Lookup(f.mod, "x")
	require.Len(t, md.Gens, 3)
	require.Equal(t, "int", f.res.Registry.Name(store.Symbol(md.Gens[1]).Type))
	require.Equal(t, "str", f.res.Registry.Name(store.Symbol(md.Gens[2]).Type))
}

func TestTypeErrorsAreReported(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("bad"), b.Bin(ast.OpAdd, b.Int("1"), b.Str("s"))),
		b.Assign(b.Store("sub"), b.Index(b.Int("1"), b.Int("0"))),
		b.Assign(b.Store("idx"), b.Index(b.List(b.Int("1")), b.Str("k"))),
		b.Assign(b.Store("inv"), b.Unary(ast.OpInvert, b.Float("1.0"))),
		b.For(b.Store("z"), b.Int("5"), []ast.StmtID{b.Pass()}, nil),
	)
	f := run(t, mod)
	require.Equal(t, []diag.Code{
		diag.TypUnsupportedOperand,
		diag.TypNotSubscriptable,
		diag.TypBadIndex,
		diag.TypBadUnaryOperand,
		diag.TypNotIterable,
	}, f.codes())
	require.Equal(t, "unsupported operand type(s) for +: 'int' and 'str'", f.bag.Items()[0].Message)

	// the failing expression continues as any
	require.Equal(t, "object", f.typ("bad"))
	require.Equal(t, "object", f.typ("z"))
}

func TestForLoopTargets(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.For(b.Store("i"), b.Call(b.Name("range"), b.Int("3")), []ast.StmtID{b.Pass()}, nil),
		b.For(b.Store("ch"), b.Str("abc"), []ast.StmtID{b.Pass()}, nil),
		b.Assign(b.Store("pairs"), b.List(b.Tuple(b.Int("1"), b.Int("2")))),
		b.For(b.Tuple(b.Store("k"), b.Store("v")), b.Name("pairs"), []ast.StmtID{b.Pass()}, nil),
		b.Def("walk", ast.Params("data"),
			b.For(b.Store("e"), b.Name("data"), []ast.StmtID{b.Pass()}, nil),
		),
	)
	f := run(t, mod)
	require.Equal(t, "int", f.typ("i"))
	require.Equal(t, "str", f.typ("ch"))
	require.Equal(t, "int", f.typ("k"))
	require.Equal(t, "int", f.typ("v"))

	walk := f.table(t, "walk")
	require.Equal(t, "Iterable[unknown]", f.in(walk, "data"), "iterated parameters are forward-narrowed")
	require.Zero(t, f.bag.Len())
}

func TestUnpacking(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	rest := b.NewExpr(ast.ExprStarred, source.Span{}, &ast.ValueData{Value: b.Store("rest"), Ctx: ast.Store})
	mod := b.Module(
		b.Assign(b.Tuple(b.Store("a"), b.Store("s")), b.Tuple(b.Int("1"), b.Str("x"))),
		b.Assign(b.Tuple(b.Store("head"), rest), b.List(b.Float("1"), b.Float("2"), b.Float("3"))),
	)
	f := run(t, mod)
	require.Equal(t, "int", f.typ("a"), "literal targets pair element-wise")
	require.Equal(t, "str", f.typ("s"))
	require.Equal(t, "float", f.typ("head"))
	require.Equal(t, "list[float]", f.typ("rest"))
}

func TestAugmentedAssignment(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("n"), b.Int("1")),
		b.AugAssign(b.Store("n"), ast.OpAdd, b.Float("2.5")),
		b.Assign(b.Store("total"), b.Int("0")),
		b.Def("bump", nil,
			b.Global("total"),
			b.AugAssign(b.Store("total"), ast.OpAdd, b.Float("1.5")),
		),
	)
	f := run(t, mod)
	require.Equal(t, "Union[float, int]", f.typ("n"))
	store := f.res.Resolve.Store
	md := store.Lookup(f.mod, "n")
	require.Equal(t, "float", f.res.Registry.Name(store.Symbol(md.Gens[2]).Type))

	// the global is read from and widened in the module table
	require.Equal(t, "Union[float, int]", f.typ("total"))
}

func TestFunctionsAndCalls(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	annotated := &ast.Arguments{Args: []ast.Arg{
		{Name: "p", Annotation: b.Name("int")},
		{Name: "q", Annotation: b.Bin(ast.OpBitOr, b.Str("Forward"), b.None())},
	}}
	declared := b.NewStmt(ast.StmtFunctionDef, source.Span{}, &ast.FunctionDefData{
		Name: "declared", Args: annotated, Body: []ast.StmtID{b.Pass()}, Returns: b.Name("str"),
	})
	mod := b.Module(
		b.Def("one", ast.Params("x"), b.Return(b.Int("1"))),
		b.Def("noop", nil, b.Pass()),
		b.Def("either", ast.Params("c"),
			b.If(b.Name("c"), []ast.StmtID{b.Return(b.Int("1"))}, nil),
			b.Return(b.Str("s")),
		),
		declared,
		b.Assign(b.Store("r"), b.Call(b.Name("one"), b.Int("0"))),
		b.Assign(b.Store("u"), b.Call(b.Name("unknown_fn"))),
	)
	f := run(t, mod)
	require.Equal(t, "Callable[..., int]", f.typ("one"))
	require.Equal(t, "Callable[..., NoneType]", f.typ("noop"))
	require.Equal(t, "Callable[..., Union[int, str]]", f.typ("either"))
	require.Equal(t, "Callable[..., str]", f.typ("declared"))
	require.Equal(t, "int", f.typ("r"))
	require.Equal(t, "object", f.typ("u"))

	fn := f.table(t, "declared")
	require.Equal(t, "int", f.in(fn, "p"))
	require.Equal(t, "NoneType", f.in(fn, "q"))
	require.Zero(t, f.bag.Len(), "annotations are never diagnosed")
}

func TestBuiltinCalls(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("n"), b.Call(b.Name("len"), b.List())),
		b.Assign(b.Store("chars"), b.Call(b.Name("list"), b.Str("ab"))),
		b.Assign(b.Store("d"), b.Call(b.Name("dict"))),
		b.Assign(b.Store("mag"), b.Call(b.Name("abs"), b.Unary(ast.OpUSub, b.Float("2.5")))),
		b.Assign(b.Store("ok"), b.Call(b.Name("isinstance"), b.Name("n"), b.Name("int"))),
		b.Assign(b.Store("r"), b.Call(b.Name("range"), b.Int("3"))),
		b.Assign(b.Store("text"), b.Call(b.Name("repr"), b.Name("n"))),
	)
	f := run(t, mod)
	for name, want := range map[string]string{
		"n":     "int",
		"chars": "list[str]",
		"d":     "dict[unknown, unknown]",
		"mag":   "float",
		"ok":    "bool",
		"r":     "range",
		"text":  "str",
	} {
		require.Equal(t, want, f.typ(name), name)
	}
}

func TestShadowedBuiltinIsNotSpecial(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Def("len", ast.Params("x"), b.Return(b.Str("s"))),
		b.Assign(b.Store("n"), b.Call(b.Name("len"), b.List())),
	)
	f := run(t, mod)
	require.Equal(t, "str", f.typ("n"))
}

func TestClasses(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Class("A", nil, b.Pass()),
		b.Class("B", []ast.ExprID{b.Name("A")}, b.Pass()),
		b.Class("MyInt", []ast.ExprID{b.Name("int")}, b.Pass()),
		b.Assign(b.Store("obj"), b.Call(b.Name("B"))),
		b.Assign(b.Store("num"), b.Bin(ast.OpAdd, b.Call(b.Name("MyInt")), b.Int("1"))),
	)
	f := run(t, mod)
	require.Equal(t, "type[A]", f.typ("A"))
	require.Equal(t, "B", f.typ("obj"))
	require.Equal(t, "int", f.typ("num"))

	reg := f.res.Registry
	bCls := f.res.NameType(f.mod, "B")
	aCls := f.res.NameType(f.mod, "A")
	require.Equal(t, []string{"B", "A"}, []string{reg.Get(reg.Get(bCls).MRO[0]).Name, reg.Get(reg.Get(bCls).MRO[1]).Name})
	require.True(t, reg.IsSubtype(reg.Instance(bCls), reg.Instance(aCls)))
	require.Zero(t, f.bag.Len())
}

func TestClassMROConflict(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	bases := func(names ...string) []ast.ExprID {
		out := make([]ast.ExprID, len(names))
		for i, n := range names {
			out[i] = b.Name(n)
		}
		return out
	}
	mod := b.Module(
		b.Class("A", nil, b.Pass()),
		b.Class("B", bases("A"), b.Pass()),
		b.Class("C", bases("A"), b.Pass()),
		b.Class("D", bases("B", "C"), b.Pass()),
		b.Class("E", bases("C", "B"), b.Pass()),
		b.Class("F", bases("D", "E"), b.Pass()),
		b.Class("G", bases("A", "A"), b.Pass()),
	)
	f := run(t, mod)
	require.Equal(t, []diag.Code{diag.SemInconsistentMRO, diag.SemDuplicateBase}, f.codes())
	require.Equal(t, "Cannot create a consistent method resolution order (MRO) for bases D, E", f.bag.Items()[0].Message)
	require.Equal(t, "object", f.typ("F"), "a broken class degrades to any")
	require.Equal(t, "type[D]", f.typ("D"))
}

func TestSpecialMethods(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Class("Vec", nil,
			b.Def("__add__", ast.Params("self", "other"), b.Return(b.Name("self"))),
			b.Def("norm", ast.Params("self"), b.Return(b.Float("1.0"))),
		),
		b.Assign(b.Store("v"), b.Call(b.Name("Vec"))),
		b.Assign(b.Store("w"), b.Bin(ast.OpAdd, b.Name("v"), b.Int("1"))),
		b.Assign(b.Store("bad"), b.Bin(ast.OpSub, b.Name("v"), b.Name("v"))),
	)
	f := run(t, mod)
	require.Equal(t, "Vec", f.typ("w"))
	require.Equal(t, []diag.Code{diag.TypUnsupportedOperand}, f.codes())
	require.Equal(t, "unsupported operand type(s) for -: 'Vec' and 'Vec'", f.bag.Items()[0].Message)
}

func TestIterationOverUserClasses(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Class("Bag", nil,
			b.Def("__iter__", ast.Params("self"), b.Return(b.List(b.Str("a")))),
		),
		b.Class("Counter", nil,
			b.Def("__iter__", ast.Params("self"), b.Return(b.Name("self"))),
			b.Def("__next__", ast.Params("self"), b.Return(b.Int("1"))),
		),
		b.Class("Plain", nil, b.Pass()),
		b.For(b.Store("s"), b.Call(b.Name("Bag")), []ast.StmtID{b.Pass()}, nil),
		b.For(b.Store("n"), b.Call(b.Name("Counter")), []ast.StmtID{b.Pass()}, nil),
		b.Assign(b.Store("found"), b.Compare(b.Str("a"), ast.CmpIn, b.Call(b.Name("Bag")))),
		b.For(b.Store("p"), b.Call(b.Name("Plain")), []ast.StmtID{b.Pass()}, nil),
	)
	f := run(t, mod)
	require.Equal(t, "str", f.typ("s"))
	require.Equal(t, "int", f.typ("n"))
	require.Equal(t, "bool", f.typ("found"))
	require.Equal(t, []diag.Code{diag.TypNotIterable}, f.codes())
	require.Equal(t, "'Plain' object is not iterable", f.bag.Items()[0].Message)
}

func TestInheritedOperatorsReachSubclasses(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Class("B", nil,
			b.Def("__add__", ast.Params("self", "o"), b.Return(b.Int("1"))),
		),
		// foo interns the C instance through self before C's bases are linked
		b.Class("C", []ast.ExprID{b.Name("B")},
			b.Def("foo", ast.Params("self"), b.Return(b.Int("1"))),
		),
		b.Assign(b.Store("r"), b.Bin(ast.OpAdd, b.Call(b.Name("C")), b.Int("1"))),
		b.Class("A", nil,
			b.Def("__gt__", ast.Params("self", "o"), b.Return(b.Bool(true))),
		),
		b.Assign(b.Store("lt"), b.Compare(b.Call(b.Name("A")), ast.CmpLt, b.Call(b.Name("A")))),
	)
	f := run(t, mod)
	require.Equal(t, "int", f.typ("r"))
	require.Equal(t, "bool", f.typ("lt"))
	require.Zero(t, f.bag.Len(), "%v", f.codes())
}

func TestLambdaAndComprehensions(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("half"), b.Lambda(ast.Params("v"), b.Bin(ast.OpDiv, b.Name("v"), b.Int("2")))),
		b.Assign(b.Store("sq"), b.ListComp(
			b.Bin(ast.OpMult, b.Name("i"), b.Name("i")), b.Store("i"), b.Call(b.Name("range"), b.Int("4")))),
		b.Assign(b.Store("seen"), b.ListComp(
			b.Walrus("last", b.Name("c")), b.Store("c"), b.Str("abc"))),
	)
	f := run(t, mod)
	require.Equal(t, "Callable[..., object]", f.typ("half"), "unknown operands yield any")
	require.Equal(t, "list[int]", f.typ("sq"))
	require.Equal(t, "list[str]", f.typ("seen"))
	require.Equal(t, "str", f.typ("last"))
}

func TestImportsAndHandlers(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Import(ast.Alias{Name: "os"}),
		b.Class("Oops", []ast.ExprID{b.Name("Exception")}, b.Pass()),
		b.Try([]ast.StmtID{b.Pass()}, []ast.ExceptHandler{
			{Type: b.Name("Oops"), Name: "err", Body: []ast.StmtID{b.Pass()}},
			{Type: b.Name("KeyError"), Name: "other", Body: []ast.StmtID{b.Pass()}},
		}, nil, nil),
	)
	f := run(t, mod)
	require.Equal(t, "module", f.typ("os"))
	require.Equal(t, "Oops", f.typ("err"))
	require.Equal(t, "object", f.typ("other"))

	reg := f.res.Registry
	require.False(t, reg.Get(f.res.NameType(f.mod, "Oops")).Completed, "unresolved bases leave the class incomplete")
}

func TestDumpWithTypes(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("x"), b.Int("1")),
		b.Assign(b.Store("x"), b.Float("1.5")),
	)
	f := run(t, mod)
	var out bytes.Buffer
	require.NoError(t, resolve.DumpTables(&out, f.res.Resolve, f.res.TypeName))
	require.Regexp(t, `x +local +gens=2 : Union\[float, int\]`, out.String())
}
