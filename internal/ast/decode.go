package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"flowscope/internal/source"
)

// ErrMalformed wraps every decoding failure.
var ErrMalformed = errors.New("malformed syntax tree")

// node is one JSON object of the tree dump: "_type" plus the node's fields.
type node map[string]json.RawMessage

type decoder struct {
	b    *Builder
	file source.FileID
	err  error
}

// Decode builds a Module from the JSON dump of a syntax tree. Deprecated node
// shapes are rewritten on the fly: Num, Str, Bytes, NameConstant and Ellipsis
// become Constant, Index is replaced by its value and ExtSlice by a Tuple of
// its dimensions. Identifiers are NFKC-normalized.
func Decode(data []byte, name string, file source.FileID) (*Module, error) {
	var root node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	d := &decoder{b: NewBuilder(name, file), file: file}
	if typ := d.typ(root); typ != "Module" {
		return nil, fmt.Errorf("%w: root node is %q, want \"Module\"", ErrMalformed, typ)
	}
	body := d.stmts(root["body"])
	if d.err != nil {
		return nil, d.err
	}
	return d.b.Module(body...), nil
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
	}
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func (d *decoder) object(raw json.RawMessage) node {
	if isNull(raw) || d.err != nil {
		return nil
	}
	var n node
	if err := json.Unmarshal(raw, &n); err != nil {
		d.fail("expected node object: %v", err)
		return nil
	}
	return n
}

func (d *decoder) list(raw json.RawMessage) []json.RawMessage {
	if isNull(raw) || d.err != nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.fail("expected list: %v", err)
		return nil
	}
	return items
}

func (d *decoder) typ(n node) string {
	var s string
	if raw, ok := n["_type"]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			d.fail("bad _type: %v", err)
		}
	}
	return s
}

func (d *decoder) str(n node, key string) string {
	raw := n[key]
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.fail("%s.%s: expected string", d.typ(n), key)
	}
	return s
}

func (d *decoder) ident(n node, key string) string {
	return norm.NFKC.String(d.str(n, key))
}

func (d *decoder) int(n node, key string) int {
	raw := n[key]
	if isNull(raw) {
		return 0
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail("%s.%s: expected integer", d.typ(n), key)
	}
	return v
}

func (d *decoder) span(n node) source.Span {
	pos := func(key string) uint32 {
		v := d.int(n, key)
		if v < 0 {
			return 0
		}
		return uint32(v) //nolint:gosec // bounded by source size
	}
	sp := source.Span{
		File:    d.file,
		Line:    pos("lineno"),
		Col:     pos("col_offset"),
		EndLine: pos("end_lineno"),
		EndCol:  pos("end_col_offset"),
	}
	if sp.EndLine < sp.Line || (sp.EndLine == sp.Line && sp.EndCol < sp.Col) {
		// an end before the start is dropped rather than trusted
		sp.EndLine, sp.EndCol = 0, 0
	}
	return sp
}

func (d *decoder) ctx(n node) Ctx {
	c := d.object(n["ctx"])
	if c == nil {
		return Load
	}
	switch d.typ(c) {
	case "Store", "AugStore", "Param":
		return Store
	case "Del":
		return Del
	}
	return Load
}

func (d *decoder) stmts(raw json.RawMessage) []StmtID {
	items := d.list(raw)
	out := make([]StmtID, 0, len(items))
	for _, item := range items {
		if id := d.stmt(item); id.IsValid() {
			out = append(out, id)
		}
	}
	return out
}

func (d *decoder) exprs(raw json.RawMessage) []ExprID {
	items := d.list(raw)
	out := make([]ExprID, 0, len(items))
	for _, item := range items {
		// Dict keys keep their null slots.
		out = append(out, d.expr(item))
	}
	return out
}

func (d *decoder) names(raw json.RawMessage) []string {
	items := d.list(raw)
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			d.fail("expected identifier: %v", err)
			return out
		}
		out = append(out, norm.NFKC.String(s))
	}
	return out
}

func (d *decoder) stmt(raw json.RawMessage) StmtID {
	n := d.object(raw)
	if n == nil {
		return NoStmtID
	}
	sp := d.span(n)
	typ := d.typ(n)
	switch typ {
	case "FunctionDef", "AsyncFunctionDef":
		return d.b.NewStmt(StmtFunctionDef, sp, &FunctionDefData{
			Name:       d.ident(n, "name"),
			Args:       d.arguments(n["args"]),
			Body:       d.stmts(n["body"]),
			Decorators: d.exprs(n["decorator_list"]),
			Returns:    d.expr(n["returns"]),
			IsAsync:    typ == "AsyncFunctionDef",
		})
	case "ClassDef":
		return d.b.NewStmt(StmtClassDef, sp, &ClassDefData{
			Name:       d.ident(n, "name"),
			Bases:      d.exprs(n["bases"]),
			Keywords:   d.keywords(n["keywords"]),
			Body:       d.stmts(n["body"]),
			Decorators: d.exprs(n["decorator_list"]),
		})
	case "Return":
		return d.b.NewStmt(StmtReturn, sp, &ExprStmtData{Value: d.expr(n["value"])})
	case "Expr":
		return d.b.NewStmt(StmtExpr, sp, &ExprStmtData{Value: d.expr(n["value"])})
	case "Delete":
		return d.b.NewStmt(StmtDelete, sp, &DeleteData{Targets: d.exprs(n["targets"])})
	case "Assign":
		return d.b.NewStmt(StmtAssign, sp, &AssignData{Targets: d.exprs(n["targets"]), Value: d.expr(n["value"])})
	case "AugAssign":
		return d.b.NewStmt(StmtAugAssign, sp, &AugAssignData{
			Target: d.expr(n["target"]),
			Op:     d.binOp(n["op"]),
			Value:  d.expr(n["value"]),
		})
	case "AnnAssign":
		return d.b.NewStmt(StmtAnnAssign, sp, &AnnAssignData{
			Target:     d.expr(n["target"]),
			Annotation: d.expr(n["annotation"]),
			Value:      d.expr(n["value"]),
			Simple:     d.int(n, "simple") != 0,
		})
	case "For", "AsyncFor":
		return d.b.NewStmt(StmtFor, sp, &ForData{
			Target:  d.expr(n["target"]),
			Iter:    d.expr(n["iter"]),
			Body:    d.stmts(n["body"]),
			OrElse:  d.stmts(n["orelse"]),
			IsAsync: typ == "AsyncFor",
		})
	case "While", "If":
		kind := StmtWhile
		if typ == "If" {
			kind = StmtIf
		}
		return d.b.NewStmt(kind, sp, &CondData{
			Test:   d.expr(n["test"]),
			Body:   d.stmts(n["body"]),
			OrElse: d.stmts(n["orelse"]),
		})
	case "With", "AsyncWith":
		return d.b.NewStmt(StmtWith, sp, &WithData{
			Items:   d.withItems(n["items"]),
			Body:    d.stmts(n["body"]),
			IsAsync: typ == "AsyncWith",
		})
	case "Match":
		return d.b.NewStmt(StmtMatch, sp, &MatchData{Subject: d.expr(n["subject"]), Cases: d.matchCases(n["cases"])})
	case "Raise":
		return d.b.NewStmt(StmtRaise, sp, &RaiseData{Exc: d.expr(n["exc"]), Cause: d.expr(n["cause"])})
	case "Try", "TryStar":
		return d.b.NewStmt(StmtTry, sp, &TryData{
			Body:      d.stmts(n["body"]),
			Handlers:  d.handlers(n["handlers"]),
			OrElse:    d.stmts(n["orelse"]),
			FinalBody: d.stmts(n["finalbody"]),
			IsStar:    typ == "TryStar",
		})
	case "Assert":
		return d.b.NewStmt(StmtAssert, sp, &AssertData{Test: d.expr(n["test"]), Msg: d.expr(n["msg"])})
	case "Import":
		return d.b.NewStmt(StmtImport, sp, &ImportData{Names: d.aliases(n["names"])})
	case "ImportFrom":
		return d.b.NewStmt(StmtImportFrom, sp, &ImportData{
			Module: d.str(n, "module"),
			Names:  d.aliases(n["names"]),
			Level:  d.int(n, "level"),
		})
	case "Global":
		return d.b.NewStmt(StmtGlobal, sp, &NamesData{Names: d.names(n["names"])})
	case "Nonlocal":
		return d.b.NewStmt(StmtNonlocal, sp, &NamesData{Names: d.names(n["names"])})
	case "Pass":
		return d.b.NewStmt(StmtPass, sp, nil)
	case "Break":
		return d.b.NewStmt(StmtBreak, sp, nil)
	case "Continue":
		return d.b.NewStmt(StmtContinue, sp, nil)
	}
	d.fail("unknown statement node %q", typ)
	return NoStmtID
}

func (d *decoder) expr(raw json.RawMessage) ExprID {
	n := d.object(raw)
	if n == nil {
		return NoExprID
	}
	sp := d.span(n)
	typ := d.typ(n)
	switch typ {
	case "Name":
		return d.b.NewExpr(ExprName, sp, &NameData{ID: d.ident(n, "id"), Ctx: d.ctx(n)})
	case "Constant", "NameConstant":
		return d.b.NewExpr(ExprConstant, sp, d.constant(n["value"]))
	case "Num":
		return d.b.NewExpr(ExprConstant, sp, d.constant(n["n"]))
	case "Str":
		return d.b.NewExpr(ExprConstant, sp, &ConstantData{Kind: ConstStr, Text: d.str(n, "s")})
	case "Bytes":
		return d.b.NewExpr(ExprConstant, sp, &ConstantData{Kind: ConstBytes, Text: d.str(n, "s")})
	case "Ellipsis":
		return d.b.NewExpr(ExprConstant, sp, &ConstantData{Kind: ConstEllipsis, Text: "..."})
	case "Index":
		return d.expr(n["value"])
	case "ExtSlice":
		return d.b.NewExpr(ExprTuple, sp, &SeqData{Elts: d.exprs(n["dims"])})
	case "BinOp":
		return d.b.NewExpr(ExprBinOp, sp, &BinOpData{
			Left:  d.expr(n["left"]),
			Op:    d.binOp(n["op"]),
			Right: d.expr(n["right"]),
		})
	case "UnaryOp":
		op, ok := ParseUnaryOp(d.typ(d.object(n["op"])))
		if !ok {
			d.fail("unknown unary operator")
		}
		return d.b.NewExpr(ExprUnaryOp, sp, &UnaryOpData{Op: op, Operand: d.expr(n["operand"])})
	case "BoolOp":
		op := OpOr
		if d.typ(d.object(n["op"])) == "And" {
			op = OpAnd
		}
		return d.b.NewExpr(ExprBoolOp, sp, &BoolOpData{Op: op, Values: d.exprs(n["values"])})
	case "Compare":
		data := &CompareData{Left: d.expr(n["left"]), Comparators: d.exprs(n["comparators"])}
		for _, raw := range d.list(n["ops"]) {
			op, ok := ParseCmpOp(d.typ(d.object(raw)))
			if !ok {
				d.fail("unknown comparison operator")
			}
			data.Ops = append(data.Ops, op)
		}
		if len(data.Ops) != len(data.Comparators) {
			d.fail("Compare: %d operators for %d comparators", len(data.Ops), len(data.Comparators))
		}
		return d.b.NewExpr(ExprCompare, sp, data)
	case "Call":
		return d.b.NewExpr(ExprCall, sp, &CallData{
			Func:     d.expr(n["func"]),
			Args:     d.exprs(n["args"]),
			Keywords: d.keywords(n["keywords"]),
		})
	case "Attribute":
		return d.b.NewExpr(ExprAttribute, sp, &AttributeData{Value: d.expr(n["value"]), Attr: d.ident(n, "attr"), Ctx: d.ctx(n)})
	case "Subscript":
		return d.b.NewExpr(ExprSubscript, sp, &SubscriptData{Value: d.expr(n["value"]), Slice: d.expr(n["slice"]), Ctx: d.ctx(n)})
	case "Slice":
		return d.b.NewExpr(ExprSlice, sp, &SliceData{Lower: d.expr(n["lower"]), Upper: d.expr(n["upper"]), Step: d.expr(n["step"])})
	case "Starred":
		return d.b.NewExpr(ExprStarred, sp, &ValueData{Value: d.expr(n["value"]), Ctx: d.ctx(n)})
	case "Await", "Yield", "YieldFrom":
		kind := map[string]ExprKind{"Await": ExprAwait, "Yield": ExprYield, "YieldFrom": ExprYieldFrom}[typ]
		return d.b.NewExpr(kind, sp, &ValueData{Value: d.expr(n["value"])})
	case "List", "Tuple", "Set":
		kind := map[string]ExprKind{"List": ExprList, "Tuple": ExprTuple, "Set": ExprSet}[typ]
		return d.b.NewExpr(kind, sp, &SeqData{Elts: d.exprs(n["elts"]), Ctx: d.ctx(n)})
	case "Dict":
		data := &DictData{Keys: d.exprs(n["keys"]), Values: d.exprs(n["values"])}
		if len(data.Keys) != len(data.Values) {
			d.fail("Dict: %d keys for %d values", len(data.Keys), len(data.Values))
		}
		return d.b.NewExpr(ExprDict, sp, data)
	case "IfExp":
		return d.b.NewExpr(ExprIfExp, sp, &IfExpData{Test: d.expr(n["test"]), Body: d.expr(n["body"]), OrElse: d.expr(n["orelse"])})
	case "NamedExpr":
		return d.b.NewExpr(ExprNamedExpr, sp, &NamedExprData{Target: d.expr(n["target"]), Value: d.expr(n["value"])})
	case "Lambda":
		return d.b.NewExpr(ExprLambda, sp, &LambdaData{Args: d.arguments(n["args"]), Body: d.expr(n["body"])})
	case "ListComp", "SetComp", "GeneratorExp":
		kind := map[string]ExprKind{"ListComp": ExprListComp, "SetComp": ExprSetComp, "GeneratorExp": ExprGeneratorExp}[typ]
		return d.b.NewExpr(kind, sp, &CompData{Elt: d.expr(n["elt"]), Generators: d.generators(n["generators"])})
	case "DictComp":
		return d.b.NewExpr(ExprDictComp, sp, &CompData{Key: d.expr(n["key"]), Value: d.expr(n["value"]), Generators: d.generators(n["generators"])})
	case "JoinedStr":
		return d.b.NewExpr(ExprJoinedStr, sp, &JoinedStrData{Values: d.exprs(n["values"])})
	case "FormattedValue":
		return d.b.NewExpr(ExprFormattedValue, sp, &FormattedValueData{
			Value:      d.expr(n["value"]),
			Conversion: d.int(n, "conversion"),
			FormatSpec: d.expr(n["format_spec"]),
		})
	}
	d.fail("unknown expression node %q", typ)
	return NoExprID
}

func (d *decoder) binOp(raw json.RawMessage) BinOp {
	name := d.typ(d.object(raw))
	op, ok := ParseBinOp(name)
	if !ok {
		d.fail("unknown binary operator %q", name)
	}
	return op
}

// constant decodes a literal value. JSON scalars map directly; values JSON
// cannot carry are dumped as {"_type": "bytes"|"complex"|"float"|"int"|"Ellipsis", "repr": ...}.
func (d *decoder) constant(raw json.RawMessage) *ConstantData {
	raw = bytes.TrimSpace(raw)
	switch {
	case isNull(raw):
		return &ConstantData{Kind: ConstNone}
	case bytes.Equal(raw, []byte("true")):
		return &ConstantData{Kind: ConstBool, Bool: true}
	case bytes.Equal(raw, []byte("false")):
		return &ConstantData{Kind: ConstBool}
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			d.fail("bad string constant: %v", err)
		}
		return &ConstantData{Kind: ConstStr, Text: s}
	case raw[0] == '{':
		n := d.object(raw)
		text := d.str(n, "repr")
		switch d.typ(n) {
		case "bytes":
			return &ConstantData{Kind: ConstBytes, Text: text}
		case "complex":
			return &ConstantData{Kind: ConstComplex, Text: text}
		case "float":
			return &ConstantData{Kind: ConstFloat, Text: text}
		case "int":
			return &ConstantData{Kind: ConstInt, Text: text}
		case "Ellipsis":
			return &ConstantData{Kind: ConstEllipsis, Text: "..."}
		}
		d.fail("unknown constant object %q", d.typ(n))
		return &ConstantData{Kind: ConstNone}
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		d.fail("bad constant: %v", err)
		return &ConstantData{Kind: ConstNone}
	}
	if bytes.ContainsAny(raw, ".eE") {
		return &ConstantData{Kind: ConstFloat, Text: num.String()}
	}
	return &ConstantData{Kind: ConstInt, Text: num.String()}
}

func (d *decoder) arg(raw json.RawMessage) *Arg {
	n := d.object(raw)
	if n == nil {
		return nil
	}
	return &Arg{Name: d.ident(n, "arg"), Annotation: d.expr(n["annotation"]), Span: d.span(n)}
}

func (d *decoder) argList(raw json.RawMessage) []Arg {
	items := d.list(raw)
	out := make([]Arg, 0, len(items))
	for _, item := range items {
		if a := d.arg(item); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func (d *decoder) arguments(raw json.RawMessage) *Arguments {
	n := d.object(raw)
	if n == nil {
		return &Arguments{}
	}
	return &Arguments{
		PosOnly:    d.argList(n["posonlyargs"]),
		Args:       d.argList(n["args"]),
		Vararg:     d.arg(n["vararg"]),
		KwOnly:     d.argList(n["kwonlyargs"]),
		KwDefaults: d.exprs(n["kw_defaults"]),
		Kwarg:      d.arg(n["kwarg"]),
		Defaults:   d.exprs(n["defaults"]),
	}
}

func (d *decoder) keywords(raw json.RawMessage) []Keyword {
	items := d.list(raw)
	out := make([]Keyword, 0, len(items))
	for _, item := range items {
		n := d.object(item)
		if n == nil {
			continue
		}
		out = append(out, Keyword{Arg: d.ident(n, "arg"), Value: d.expr(n["value"])})
	}
	return out
}

func (d *decoder) aliases(raw json.RawMessage) []Alias {
	items := d.list(raw)
	out := make([]Alias, 0, len(items))
	for _, item := range items {
		n := d.object(item)
		if n == nil {
			continue
		}
		out = append(out, Alias{Name: d.ident(n, "name"), AsName: d.ident(n, "asname"), Span: d.span(n)})
	}
	return out
}

func (d *decoder) withItems(raw json.RawMessage) []WithItem {
	items := d.list(raw)
	out := make([]WithItem, 0, len(items))
	for _, item := range items {
		n := d.object(item)
		if n == nil {
			continue
		}
		out = append(out, WithItem{Context: d.expr(n["context_expr"]), Vars: d.expr(n["optional_vars"])})
	}
	return out
}

func (d *decoder) handlers(raw json.RawMessage) []ExceptHandler {
	items := d.list(raw)
	out := make([]ExceptHandler, 0, len(items))
	for _, item := range items {
		n := d.object(item)
		if n == nil {
			continue
		}
		out = append(out, ExceptHandler{
			Type: d.expr(n["type"]),
			Name: d.ident(n, "name"),
			Body: d.stmts(n["body"]),
			Span: d.span(n),
		})
	}
	return out
}

func (d *decoder) generators(raw json.RawMessage) []Comprehension {
	items := d.list(raw)
	out := make([]Comprehension, 0, len(items))
	for _, item := range items {
		n := d.object(item)
		if n == nil {
			continue
		}
		out = append(out, Comprehension{
			Target:  d.expr(n["target"]),
			Iter:    d.expr(n["iter"]),
			Ifs:     d.exprs(n["ifs"]),
			IsAsync: d.int(n, "is_async") != 0,
		})
	}
	return out
}

func (d *decoder) matchCases(raw json.RawMessage) []MatchCase {
	items := d.list(raw)
	out := make([]MatchCase, 0, len(items))
	for _, item := range items {
		n := d.object(item)
		if n == nil {
			continue
		}
		pat := d.pattern(n["pattern"])
		mc := MatchCase{Pattern: pat, Guard: d.expr(n["guard"]), Body: d.stmts(n["body"])}
		if pat != nil {
			mc.Span = pat.Span
		}
		out = append(out, mc)
	}
	return out
}

func (d *decoder) patterns(raw json.RawMessage) []*Pattern {
	items := d.list(raw)
	out := make([]*Pattern, 0, len(items))
	for _, item := range items {
		if p := d.pattern(item); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (d *decoder) pattern(raw json.RawMessage) *Pattern {
	n := d.object(raw)
	if n == nil {
		return nil
	}
	p := &Pattern{Span: d.span(n)}
	switch typ := d.typ(n); typ {
	case "MatchValue":
		p.Kind = PatValue
		p.Value = d.expr(n["value"])
	case "MatchSingleton":
		p.Kind = PatSingleton
		p.Value = d.b.NewExpr(ExprConstant, p.Span, d.constant(n["value"]))
	case "MatchSequence":
		p.Kind = PatSequence
		p.Patterns = d.patterns(n["patterns"])
	case "MatchMapping":
		p.Kind = PatMapping
		p.Keys = d.exprs(n["keys"])
		p.Patterns = d.patterns(n["patterns"])
		p.Name = d.ident(n, "rest")
	case "MatchClass":
		p.Kind = PatClass
		p.Cls = d.expr(n["cls"])
		p.Patterns = d.patterns(n["patterns"])
		p.KwdAttrs = d.names(n["kwd_attrs"])
		p.KwdPatterns = d.patterns(n["kwd_patterns"])
	case "MatchStar":
		p.Kind = PatStar
		p.Name = d.ident(n, "name")
	case "MatchAs":
		p.Kind = PatAs
		p.Pattern = d.pattern(n["pattern"])
		p.Name = d.ident(n, "name")
	case "MatchOr":
		p.Kind = PatOr
		p.Patterns = d.patterns(n["patterns"])
	default:
		d.fail("unknown pattern node %q", typ)
		return nil
	}
	return p
}
