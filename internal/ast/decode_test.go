package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const legacyTree = `{"_type": "Module", "body": [
  {"_type": "Assign", "lineno": 1, "col_offset": 0, "end_lineno": 1, "end_col_offset": 5,
   "targets": [{"_type": "Name", "id": "x", "ctx": {"_type": "Store"}}],
   "value": {"_type": "Num", "n": 1}},
  {"_type": "Expr", "lineno": 2, "value": {"_type": "Subscript",
   "value": {"_type": "Name", "id": "x", "ctx": {"_type": "Load"}},
   "slice": {"_type": "Index", "value": {"_type": "Str", "s": "k"}},
   "ctx": {"_type": "Load"}}},
  {"_type": "Expr", "lineno": 3, "value": {"_type": "Subscript",
   "value": {"_type": "Name", "id": "m", "ctx": {"_type": "Load"}},
   "slice": {"_type": "ExtSlice", "dims": [
     {"_type": "Slice", "lower": null, "upper": null, "step": null},
     {"_type": "Index", "value": {"_type": "Num", "n": 2.5}}]}}},
  {"_type": "Expr", "lineno": 4, "value": {"_type": "NameConstant", "value": true}},
  {"_type": "Expr", "lineno": 5, "value": {"_type": "Constant", "value": {"_type": "bytes", "repr": "b'a'"}}},
  {"_type": "Assign", "lineno": 6,
   "targets": [{"_type": "Name", "id": "ﬁ", "ctx": {"_type": "Store"}}],
   "value": {"_type": "Ellipsis"}}
]}`

func constOf(t *testing.T, m *Module, id ExprID) *ConstantData {
	t.Helper()
	e := m.Expr(id)
	require.NotNil(t, e)
	require.Equal(t, ExprConstant, e.Kind)
	return e.Data.(*ConstantData)
}

func TestDecodeNormalizesLegacyNodes(t *testing.T) {
	m, err := Decode([]byte(legacyTree), "legacy", 3)
	require.NoError(t, err)
	require.Len(t, m.Body, 6)

	assign := m.Stmt(m.Body[0])
	require.Equal(t, StmtAssign, assign.Kind)
	require.Equal(t, uint32(1), assign.Span.Line)
	require.Equal(t, uint32(3), uint32(assign.Span.File))
	ad := assign.Data.(*AssignData)
	require.Equal(t, []string{"x"}, m.TargetNames(ad.Targets[0]))
	require.Equal(t, ConstInt, constOf(t, m, ad.Value).Kind)

	sub := m.Expr(m.Stmt(m.Body[1]).Data.(*ExprStmtData).Value).Data.(*SubscriptData)
	key := constOf(t, m, sub.Slice)
	require.Equal(t, ConstStr, key.Kind)
	require.Equal(t, "k", key.Text)

	ext := m.Expr(m.Expr(m.Stmt(m.Body[2]).Data.(*ExprStmtData).Value).Data.(*SubscriptData).Slice)
	require.Equal(t, ExprTuple, ext.Kind)
	dims := ext.Data.(*SeqData).Elts
	require.Len(t, dims, 2)
	require.Equal(t, ExprSlice, m.Expr(dims[0]).Kind)
	require.Equal(t, ConstFloat, constOf(t, m, dims[1]).Kind)

	b := constOf(t, m, m.Stmt(m.Body[3]).Data.(*ExprStmtData).Value)
	require.Equal(t, ConstBool, b.Kind)
	require.True(t, b.Bool)

	require.Equal(t, ConstBytes, constOf(t, m, m.Stmt(m.Body[4]).Data.(*ExprStmtData).Value).Kind)

	last := m.Stmt(m.Body[5]).Data.(*AssignData)
	name, ok := m.NameOf(last.Targets[0])
	require.True(t, ok)
	require.Equal(t, "fi", name)
	require.Equal(t, ConstEllipsis, constOf(t, m, last.Value).Kind)
}

func TestDecodeFunctionAndMatch(t *testing.T) {
	src := `{"_type": "Module", "body": [
	  {"_type": "AsyncFunctionDef", "name": "f", "decorator_list": [], "returns": null,
	   "args": {"_type": "arguments", "posonlyargs": [{"_type": "arg", "arg": "a"}],
	            "args": [{"_type": "arg", "arg": "b"}], "vararg": {"_type": "arg", "arg": "rest"},
	            "kwonlyargs": [{"_type": "arg", "arg": "k"}], "kw_defaults": [null],
	            "kwarg": {"_type": "arg", "arg": "kw"}, "defaults": []},
	   "body": [{"_type": "Match", "subject": {"_type": "Name", "id": "a"}, "cases": [
	     {"_type": "match_case", "guard": null, "body": [{"_type": "Pass"}],
	      "pattern": {"_type": "MatchSequence", "patterns": [
	        {"_type": "MatchAs", "pattern": null, "name": "head"},
	        {"_type": "MatchStar", "name": "tail"}]}}]}]}
	]}`
	m, err := Decode([]byte(src), "fn", 0)
	require.NoError(t, err)

	fn := m.Stmt(m.Body[0]).Data.(*FunctionDefData)
	require.True(t, fn.IsAsync)
	var names []string
	for _, a := range fn.Args.All() {
		names = append(names, a.Name)
	}
	require.Equal(t, []string{"a", "b", "k", "rest", "kw"}, names)
	require.Empty(t, fn.Args.DefaultExprs())

	match := m.Stmt(fn.Body[0]).Data.(*MatchData)
	require.Len(t, match.Cases, 1)
	require.Equal(t, []string{"head", "tail"}, match.Cases[0].Pattern.Captures())
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"wrong root":    `{"_type": "Expression", "body": {}}`,
		"unknown stmt":  `{"_type": "Module", "body": [{"_type": "Print"}]}`,
		"unknown expr":  `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Repr"}}]}`,
		"bad binop":     `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "BinOp", "op": {"_type": "Spaceship"}}}]}`,
		"compare arity": `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Compare", "ops": [{"_type": "Lt"}], "comparators": []}}]}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(src), "bad", 0)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestOperatorTables(t *testing.T) {
	require.Equal(t, "__add__", OpAdd.Method())
	require.Equal(t, "__rfloordiv__", OpFloorDiv.Reflected())
	require.Equal(t, "//", OpFloorDiv.Symbol())
	require.Equal(t, "__or__", OpBitOr.Method())
	require.Equal(t, CmpGt, CmpLt.Swapped())
	require.Equal(t, CmpEq, CmpEq.Swapped())
	require.Equal(t, "__contains__", CmpNotIn.Method())
	require.Empty(t, CmpIs.Method())
	require.Equal(t, "__neg__", OpUSub.Method())
	require.Empty(t, OpNot.Method())
	op, ok := ParseBinOp("MatMult")
	require.True(t, ok)
	require.Equal(t, "@", op.Symbol())
}

func TestAliasBound(t *testing.T) {
	require.Equal(t, "os", Alias{Name: "os.path"}.Bound())
	require.Equal(t, "p", Alias{Name: "os.path", AsName: "p"}.Bound())
}

func TestDecodeDropsReversedEnd(t *testing.T) {
	src := `{"_type": "Module", "body": [
	  {"_type": "Pass", "lineno": 3, "col_offset": 4, "end_lineno": 2, "end_col_offset": 0},
	  {"_type": "Pass", "lineno": 4, "col_offset": 0, "end_lineno": 4, "end_col_offset": 4}]}`
	m, err := Decode([]byte(src), "m", 1)
	require.NoError(t, err)
	first := m.Stmt(m.Body[0]).Span
	require.Equal(t, uint32(3), first.Line)
	require.Zero(t, first.EndLine)
	require.Equal(t, uint32(4), m.Stmt(m.Body[1]).Span.EndCol)
}
