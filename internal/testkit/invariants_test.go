package testkit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowscope/internal/ast"
	"flowscope/internal/ir"
	"flowscope/internal/source"
)

func nestedModule() *ast.Module {
	b := ast.NewBuilder("m", 1)
	inner := b.Assign(b.Store("y"), b.Lambda(ast.Params("a"), b.Name("a")))
	def := b.Def("f", ast.Params("x"), inner, b.Return(b.ListComp(b.Name("i"), b.Store("i"), b.Name("x"))))
	cls := b.Class("C", nil, b.Pass())
	return b.Module(def, cls)
}

func TestBuiltTreesSatisfyInvariants(t *testing.T) {
	mod := nestedModule()
	require.NoError(t, CheckSpanInvariants(mod))

	prog, err := ir.Translate(mod)
	require.NoError(t, err)
	require.NoError(t, CheckProgramInvariants(prog))
	require.Equal(t, 5, prog.Scopes.Len())
}

func TestSpanViolations(t *testing.T) {
	tests := []struct {
		name string
		span source.Span
		want string
	}{
		{name: "other file", span: source.Span{File: 2, Line: 1}, want: "file mismatch"},
		{name: "reversed lines", span: source.Span{File: 1, Line: 3, EndLine: 2}, want: "ends before it starts"},
		{name: "reversed cols", span: source.Span{File: 1, Line: 1, Col: 4, EndLine: 1, EndCol: 2}, want: "ends before it starts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("m", 1)
			e := b.NewExpr(ast.ExprName, tt.span, &ast.NameData{ID: "x", Ctx: ast.Load})
			mod := b.Module(b.ExprStmt(e))
			err := CheckSpanInvariants(mod)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpenEndedSpansAreAccepted(t *testing.T) {
	b := ast.NewBuilder("m", 1)
	e := b.NewExpr(ast.ExprName, source.Span{File: 1, Line: 4, Col: 2}, &ast.NameData{ID: "x", Ctx: ast.Load})
	require.NoError(t, CheckSpanInvariants(b.Module(b.ExprStmt(e))))
}

func TestProgramViolations(t *testing.T) {
	require.Error(t, CheckProgramInvariants(nil))

	prog, err := ir.Translate(nestedModule())
	require.NoError(t, err)
	prog.Scopes.New(ir.ScopeFunction, "orphan", prog.Root, source.Span{})
	err = CheckProgramInvariants(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reachable from root")
}
