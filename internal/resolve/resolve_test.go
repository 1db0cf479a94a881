package resolve

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"flowscope/internal/analysis"
	"flowscope/internal/ast"
	"flowscope/internal/ir"
	"flowscope/internal/symbols"
)

func run(t *testing.T, mods ...*ast.Module) (*analysis.Context, *Result, error) {
	t.Helper()
	progs := make([]*ir.Program, 0, len(mods))
	for _, m := range mods {
		p, err := ir.Translate(m)
		require.NoError(t, err)
		progs = append(progs, p)
	}
	actx := analysis.NewContext(progs...)
	err := analysis.Run(context.Background(), actx, analysis.Pipeline{Pass{}})
	if err != nil {
		return actx, nil, err
	}
	res, err := analysis.Result[*Result](actx, Name)
	require.NoError(t, err)
	return actx, res, nil
}

// tableNamed finds the table allocated for the first scope called name.
func tableNamed(t *testing.T, res *Result, name string) symbols.TableID {
	t.Helper()
	for i := 1; i <= res.Store.Tables.Len(); i++ {
		id := symbols.TableID(i)
		if res.Store.Table(id).Name == name {
			return id
		}
	}
	t.Fatalf("no table %q", name)
	return symbols.NoTableID
}

func TestModuleLevelClassification(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("x"), b.Int("1")),
		b.ExprStmt(b.Call(b.Name("print"), b.Name("x"))),
		b.Import(ast.Alias{Name: "os.path"}),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)

	got := res.Store.Bindings(res.Units[0])
	require.Equal(t, map[string]symbols.Binding{
		"x":     symbols.BindLocal,
		"print": symbols.BindUnknown,
		"os":    symbols.BindLocal,
	}, got)
	require.True(t, res.Store.Current(res.Units[0], "os").Imported)
}

func TestFunctionScopes(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("g"), b.Int("0")),
		b.Def("f", ast.Params("a", "b"),
			b.Global("g"),
			b.Assign(b.Store("g"), b.Name("a")),
			b.Assign(b.Store("local"), b.Name("b")),
			b.Return(b.Name("local")),
		),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)

	modTable := res.Units[0]
	require.Equal(t, symbols.BindLocal, res.Store.BindingOf(modTable, "f"))
	fsym := res.Store.Current(modTable, "f")
	require.True(t, fsym.HoldsTable())

	ft := fsym.Table
	require.Equal(t, ir.ScopeFunction, res.Store.Table(ft).Kind)
	require.Equal(t, symbols.BindGlobal, res.Store.BindingOf(ft, "g"))
	require.Equal(t, symbols.BindLocal, res.Store.BindingOf(ft, "local"))
	require.True(t, res.Store.Current(ft, "a").IsArg)

	args := res.Store.Table(ft).Args
	require.Equal(t, 2, args.Len())
	require.Equal(t, "a", args.Args[0].Name)
	require.Equal(t, "b", args.Args[1].Name)

	owner, ok := res.Store.Resolve(ft, "g")
	require.True(t, ok)
	require.Equal(t, modTable, owner)
}

func TestParameterOrder(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	args := &ast.Arguments{
		PosOnly: []ast.Arg{{Name: "p"}},
		Args:    []ast.Arg{{Name: "a"}},
		Vararg:  &ast.Arg{Name: "rest"},
		KwOnly:  []ast.Arg{{Name: "k"}},
		Kwarg:   &ast.Arg{Name: "kw"},
	}
	mod := b.Module(b.Def("f", args, b.Pass()))
	_, res, err := run(t, mod)
	require.NoError(t, err)

	ft := tableNamed(t, res, "f")
	require.Equal(t, []string{"p", "a", "k", "rest", "kw"}, res.Store.Table(ft).Names())
	fargs := res.Store.Table(ft).Args
	require.Equal(t, "rest", fargs.Vararg.Name)
	require.Equal(t, "kw", fargs.Kwarg.Name)
	require.Equal(t, 5, fargs.Len())
}

func TestRedefinitionsAdvanceGenerations(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("x"), b.Int("1")),
		b.For(b.Store("x"), b.Name("items"), []ast.StmtID{
			b.AugAssign(b.Store("x"), ast.OpAdd, b.Int("1")),
		}, nil),
		b.Def("f", nil, b.Pass()),
		b.Def("f", nil, b.Pass()),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)

	md := res.Store.Lookup(res.Units[0], "x")
	require.Len(t, md.Gens, 4, "gen 0 plus assign, for target and augmented assignment")
	require.Equal(t, 3, md.Cursor())

	f := res.Store.Lookup(res.Units[0], "f")
	require.Len(t, f.Gens, 3)
	first := res.Store.Symbol(f.Gens[1]).Table
	second := res.Store.Symbol(f.Gens[2]).Table
	require.NotEqual(t, first, second, "each def owns its own table")
}

func TestUnpackingAndTargets(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Tuple(b.Store("a"), b.Store("b")), b.Name("pair")),
		b.Assign(b.Attr(b.Name("obj"), "field"), b.Int("1")),
		b.With([]ast.WithItem{{Context: b.Call(b.Name("open")), Vars: b.Store("fh")}}, []ast.StmtID{b.Pass()}),
		b.Try([]ast.StmtID{b.Pass()}, []ast.ExceptHandler{{Type: b.Name("ValueError"), Name: "err", Body: []ast.StmtID{b.Pass()}}}, nil, nil),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)
	bind := res.Store.Bindings(res.Units[0])
	for _, name := range []string{"a", "b", "fh", "err"} {
		require.Equal(t, symbols.BindLocal, bind[name], name)
	}
	require.Equal(t, symbols.BindUnknown, bind["obj"])
	_, hasField := bind["field"]
	require.False(t, hasField)
}

func TestClassBodyIsSkippedByMethods(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("size"), b.Int("1")),
		b.Class("C", nil,
			b.Assign(b.Store("size"), b.Int("2")),
			b.Def("get", ast.Params("self"), b.Return(b.Name("size"))),
		),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)

	get := tableNamed(t, res, "get")
	owner, ok := res.Store.Resolve(get, "size")
	require.True(t, ok)
	require.Equal(t, res.Units[0], owner)
	require.Equal(t, ir.ScopeClass, res.Store.Table(res.Store.Table(get).Parent).Kind)
}

func TestNonlocal(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Def("outer", nil,
			b.Assign(b.Store("n"), b.Int("0")),
			b.Def("inner", nil,
				b.Nonlocal("n"),
				b.AugAssign(b.Store("n"), ast.OpAdd, b.Int("1")),
			),
		),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)
	inner := tableNamed(t, res, "inner")
	outer := tableNamed(t, res, "outer")
	require.Equal(t, symbols.BindNonlocal, res.Store.BindingOf(inner, "n"))
	owner, ok := res.Store.Resolve(inner, "n")
	require.True(t, ok)
	require.Equal(t, outer, owner)
}

func TestScopeConflicts(t *testing.T) {
	cases := []struct {
		name string
		body func(b *ast.Builder) []ast.StmtID
		want string
	}{
		{
			name: "assigned before global",
			body: func(b *ast.Builder) []ast.StmtID {
				return []ast.StmtID{b.Assign(b.Store("x"), b.Int("1")), b.Global("x")}
			},
			want: "name 'x' is assigned to before global declaration",
		},
		{
			name: "parameter and global",
			body: func(b *ast.Builder) []ast.StmtID {
				return []ast.StmtID{b.Def("f", ast.Params("x"), b.Global("x"))}
			},
			want: "name 'x' is parameter and global",
		},
		{
			name: "nonlocal and global",
			body: func(b *ast.Builder) []ast.StmtID {
				return []ast.StmtID{b.Def("f", nil, b.Global("x"), b.Nonlocal("x"))}
			},
			want: "name 'x' is nonlocal and global",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := ast.NewBuilder("m", 0)
			_, _, err := run(t, b.Module(tc.body(b)...))
			var conflict *symbols.ScopeConflictError
			require.ErrorAs(t, err, &conflict)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestNonlocalAtModuleLevel(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	_, _, err := run(t, b.Module(b.Nonlocal("x")))
	var nonlocal *NonlocalAtModuleError
	require.ErrorAs(t, err, &nonlocal)
	require.Equal(t, "x", nonlocal.Name)
}

func TestLambdaAndComprehensionScopes(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("sq"), b.Lambda(ast.Params("v"), b.Bin(ast.OpMult, b.Name("v"), b.Name("v")))),
		b.Assign(b.Store("evens"), b.ListComp(
			b.Walrus("last", b.Name("i")), b.Store("i"), b.Name("data"))),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)
	modTable := res.Units[0]

	lam := res.Store.Current(modTable, "<lambda>")
	require.True(t, lam.HoldsTable())
	require.True(t, res.Store.Current(lam.Table, "v").IsArg)

	comp := res.Store.Current(modTable, "<listcomp>")
	require.True(t, comp.HoldsTable())
	require.Equal(t, symbols.BindLocal, res.Store.BindingOf(comp.Table, "i"))
	// the walrus target binds in the enclosing module scope
	require.Equal(t, symbols.BindLocal, res.Store.BindingOf(modTable, "last"))
	require.Nil(t, res.Store.Lookup(comp.Table, "last"))
	// the outermost iterable is evaluated in the module
	require.NotNil(t, res.Store.Lookup(modTable, "data"))
	require.Nil(t, res.Store.Lookup(comp.Table, "data"))
}

type recordingHooks struct {
	NopHooks
	binds []string
}

func (h *recordingHooks) Bind(_ symbols.TableID, site Site) {
	h.binds = append(h.binds, site.Kind.String()+":"+site.Name)
}

func TestReplayIsIdempotent(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Assign(b.Store("x"), b.Int("1")),
		b.Def("f", ast.Params("a"), b.Assign(b.Store("x"), b.Name("a"))),
		b.Assign(b.Store("x"), b.Str("s")),
	)
	actx, res, err := run(t, mod)
	require.NoError(t, err)

	var before bytes.Buffer
	require.NoError(t, res.Store.Dump(&before, nil))
	symbolsBefore := res.Store.Symbols.Len()
	tablesBefore := res.Store.Tables.Len()

	hooks := &recordingHooks{}
	require.NoError(t, res.Replay(actx, func(int) Hooks { return hooks }))

	var after bytes.Buffer
	require.NoError(t, res.Store.Dump(&after, nil))
	require.Equal(t, before.String(), after.String())
	require.Equal(t, symbolsBefore, res.Store.Symbols.Len())
	require.Equal(t, tablesBefore, res.Store.Tables.Len())
	require.Equal(t, []string{
		"assign:x", "param:a", "assign:x", "scope:f", "assign:x", "scope:m",
	}, hooks.binds)
}

func TestDumpTables(t *testing.T) {
	b := ast.NewBuilder("m", 0)
	mod := b.Module(
		b.Import(ast.Alias{Name: "os"}),
		b.Def("f", ast.Params("a"), b.Return(b.Name("a"))),
	)
	_, res, err := run(t, mod)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, DumpTables(&out, res, func(md *symbols.MultiDef) string { return md.Name + "?" }))
	text := out.String()
	require.Contains(t, text, "table m (module)")
	require.Regexp(t, `os +local +gens=1 \[imported\] : os\?`, text)
	require.Regexp(t, `f +local +gens=1 \[namespace\]`, text)
	require.Regexp(t, `a +local +gens=1 \[param\]`, text)
}
