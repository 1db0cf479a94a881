package infer

import (
	"strconv"
	"strings"

	"flowscope/internal/ast"
	"flowscope/internal/diag"
	"flowscope/internal/ir"
	"flowscope/internal/resolve"
	"flowscope/internal/source"
	"flowscope/internal/symbols"
	"flowscope/internal/trace"
	"flowscope/internal/types"
)

type frame struct {
	table   symbols.TableID
	scope   *ir.Scope
	returns []types.TypeID
	yields  []types.TypeID
	// class is the class under construction for a class body.
	class types.TypeID
	// methods maps special methods defined in a class body to their
	// return types.
	methods map[string]types.TypeID
}

// inferrer observes one module of a replayed resolution walk. Expressions
// arrive in post-order, so operands are always typed before their parent.
type inferrer struct {
	reg      *types.Registry
	bt       types.Builtins
	store    *symbols.Store
	prog     *ir.Program
	mod      *ast.Module
	reporter diag.Reporter

	exprs   map[ast.ExprID]types.TypeID
	hoisted map[ast.ExprID]types.TypeID
	// quiet holds annotation expressions; they are typed but never
	// diagnosed since annotation syntax is not evaluated as code.
	quiet  map[ast.ExprID]bool
	frames []*frame
	closed *frame

	tracer trace.Tracer
	parent uint64
	span   *trace.Span
}

var _ resolve.Hooks = (*inferrer)(nil)

func newInferrer(reg *types.Registry, store *symbols.Store, prog *ir.Program, reporter diag.Reporter) *inferrer {
	return &inferrer{
		reg:      reg,
		bt:       reg.Builtins(),
		store:    store,
		prog:     prog,
		mod:      prog.Module,
		reporter: reporter,
		exprs:    make(map[ast.ExprID]types.TypeID),
		hoisted:  make(map[ast.ExprID]types.TypeID),
		quiet:    annotations(prog.Module),
	}
}

func (in *inferrer) top() *frame {
	if len(in.frames) == 0 {
		return nil
	}
	return in.frames[len(in.frames)-1]
}

func (in *inferrer) Enter(table symbols.TableID, s *ir.Scope) {
	f := &frame{table: table, scope: s}
	outer := in.store.Table(table).Parent
	switch s.Kind {
	case ir.ScopeModule:
		in.span = trace.Begin(in.tracer, trace.ScopeNode, "infer "+s.Name, in.parent)
	case ir.ScopeClass:
		// declared up front so methods can refer to their own class
		f.class = in.reg.Declare(s.Name)
		f.methods = make(map[string]types.TypeID)
		if md := in.store.Lookup(outer, s.Name); md != nil {
			in.store.Symbol(md.Current()).Type = f.class
		}
	}
	in.frames = append(in.frames, f)
}

func (in *inferrer) Leave(_ symbols.TableID, s *ir.Scope) {
	in.closed = in.top()
	in.frames = in.frames[:len(in.frames)-1]
	if s.Kind == ir.ScopeModule && in.span != nil {
		in.span.WithExtra("exprs", strconv.Itoa(len(in.exprs))).End("")
		in.span = nil
	}
}

func (in *inferrer) Expr(table symbols.TableID, id ast.ExprID) {
	in.exprs[id] = in.eval(table, id)
}

func (in *inferrer) Return(_ symbols.TableID, value ast.ExprID, _ source.Span) {
	f := in.top()
	if f == nil {
		return
	}
	t := in.bt.None
	if value.IsValid() {
		t = in.typeOf(value)
	}
	f.returns = append(f.returns, t)
}

func (in *inferrer) Bind(table symbols.TableID, site resolve.Site) {
	var t types.TypeID
	switch site.Kind {
	case resolve.SiteAssign, resolve.SiteWalrus:
		t = in.unpack(site, in.typeOf(site.Value))
	case resolve.SiteIterate:
		t = in.iterate(table, site)
	case resolve.SiteAugAssign:
		prev := in.store.Symbol(site.Prev).Type
		if !prev.IsValid() {
			prev = in.outerType(table, site.Name)
		}
		res, err := in.reg.BinaryOp(site.Op, prev, in.typeOf(site.Value))
		t = in.check(site.Span, res, err)
	case resolve.SiteWith:
		// __enter__ is taken to return the context manager itself
		t = in.unpack(site, in.typeOf(site.Value))
	case resolve.SiteExcept:
		t = in.exception(in.typeOf(site.Value))
	case resolve.SiteCapture:
		t = in.bt.Any
	case resolve.SiteImport:
		t = in.bt.Module
	case resolve.SiteParam:
		t = in.param(table, site.Param)
	case resolve.SiteScope:
		t = in.scope(table, site)
	}
	in.narrow(table, site.Name, site.Symbol, t)
}

// narrow records t on the generation sym and widens the accumulated type
// of the name. A name declared global or nonlocal also widens its owner.
func (in *inferrer) narrow(table symbols.TableID, name string, sym symbols.SymbolID, t types.TypeID) {
	if !t.IsValid() {
		t = in.bt.Unknown
	}
	s := in.store.Symbol(sym)
	if s == nil {
		return
	}
	s.Type = t
	in.widen(in.store.Lookup(table, name), t)
	if s.Binding == symbols.BindGlobal || s.Binding == symbols.BindNonlocal {
		if owner, ok := in.store.Resolve(table, name); ok && owner != table {
			in.widen(in.store.Lookup(owner, name), t)
		}
	}
}

func (in *inferrer) widen(md *symbols.MultiDef, t types.TypeID) {
	if md == nil {
		return
	}
	if !md.Type.IsValid() {
		md.Type = t
		return
	}
	md.Type = in.reg.Union(md.Type, t)
}

// nameType is the type a load of name sees from table: the generation in
// effect for names of the same table, the accumulated type otherwise.
func (in *inferrer) nameType(table symbols.TableID, name string) types.TypeID {
	owner, ok := in.store.Resolve(table, name)
	if !ok {
		if t, ok := builtinValue(in.bt, name); ok {
			return t
		}
		return in.bt.Unknown
	}
	md := in.store.Lookup(owner, name)
	cur := in.store.Symbol(md.Current()).Type
	if owner == table && cur.IsValid() {
		return cur
	}
	if md.Type.IsValid() {
		return md.Type
	}
	if cur.IsValid() {
		return cur
	}
	return in.bt.Unknown
}

// outerType is the accumulated type of name in the table that owns it
// when that is not table itself.
func (in *inferrer) outerType(table symbols.TableID, name string) types.TypeID {
	owner, ok := in.store.Resolve(table, name)
	if !ok || owner == table {
		return in.bt.Unknown
	}
	if md := in.store.Lookup(owner, name); md != nil && md.Type.IsValid() {
		return md.Type
	}
	return in.bt.Unknown
}

func (in *inferrer) typeOf(id ast.ExprID) types.TypeID {
	if t, ok := in.exprs[id]; ok {
		return t
	}
	return in.bt.Unknown
}

// unpack applies the unpacking flags of site to the type of its value.
func (in *inferrer) unpack(site resolve.Site, t types.TypeID) types.TypeID {
	if site.Unpacked {
		item, err := in.reg.ItemType(t)
		t = in.check(site.Span, item, err)
	}
	if site.Starred {
		t = in.reg.List(t)
	}
	return t
}

func (in *inferrer) iterate(table symbols.TableID, site resolve.Site) types.TypeID {
	it := in.typeOf(site.Value)
	if in.reg.KindOf(it) == types.KindUnknown {
		in.forward(table, site.Value)
	}
	item, err := in.reg.ItemType(it)
	return in.unpack(site, in.check(in.spanOf(site.Value, site.Span), item, err))
}

// forward narrows a plain name iterated while its type is still unknown:
// whatever it is, it must be iterable.
func (in *inferrer) forward(table symbols.TableID, value ast.ExprID) {
	name, ok := in.mod.NameOf(value)
	if !ok {
		return
	}
	owner, ok := in.store.Resolve(table, name)
	if !ok {
		return
	}
	md := in.store.Lookup(owner, name)
	in.narrow(owner, name, md.Current(), in.reg.Iterable(in.bt.Unknown))
}

func (in *inferrer) exception(t types.TypeID) types.TypeID {
	switch in.reg.KindOf(t) {
	case types.KindClass:
		return in.reg.Instance(t)
	case types.KindTuple:
		return in.exception(in.reg.Get(t).Item)
	case types.KindUnion:
		members := in.reg.MembersOf(t)
		out := make([]types.TypeID, len(members))
		for i, m := range members {
			out[i] = in.exception(m)
		}
		return in.reg.Union(out...)
	}
	return in.bt.Any
}

// param types a parameter from its annotation. The first parameter of a
// plain method is an instance of the enclosing class.
func (in *inferrer) param(table symbols.TableID, arg *ast.Arg) types.TypeID {
	if arg == nil {
		return in.bt.Unknown
	}
	if arg.Annotation.IsValid() {
		return in.annotation(arg.Annotation)
	}
	f := in.top()
	if f == nil || f.scope.Kind != ir.ScopeFunction || len(in.frames) < 2 {
		return in.bt.Unknown
	}
	cls := in.frames[len(in.frames)-2]
	if !cls.class.IsValid() || !in.isFirstParam(table, arg.Name) {
		return in.bt.Unknown
	}
	switch decoratorKind(in.mod, f.scope.Func.Decorators) {
	case "staticmethod":
		return in.bt.Unknown
	case "classmethod":
		return cls.class
	}
	return in.reg.Instance(cls.class)
}

func (in *inferrer) isFirstParam(table symbols.TableID, name string) bool {
	names := in.store.Table(table).Names()
	return len(names) > 0 && names[0] == name
}

func decoratorKind(mod *ast.Module, decorators []ast.ExprID) string {
	for _, d := range decorators {
		if name, ok := mod.NameOf(d); ok && (name == "staticmethod" || name == "classmethod") {
			return name
		}
	}
	return ""
}

// annotation evaluates a type annotation to the type of values it admits.
func (in *inferrer) annotation(id ast.ExprID) types.TypeID {
	e := in.mod.Expr(id)
	if e == nil {
		return in.bt.Unknown
	}
	switch d := e.Data.(type) {
	case *ast.ConstantData:
		if d.Kind == ast.ConstNone {
			return in.bt.None
		}
	case *ast.NameData:
		t := in.declared(id)
		if in.reg.KindOf(t) == types.KindClass {
			return in.reg.Instance(t)
		}
		if in.reg.IsDynamic(t) && in.reg.KindOf(t) != types.KindAny {
			return in.bt.Unknown
		}
		return t
	case *ast.BinOpData:
		if d.Op == ast.OpBitOr {
			return in.reg.Union(in.annotation(d.Left), in.annotation(d.Right))
		}
	case *ast.SubscriptData:
		return in.annotation(d.Value)
	}
	return in.bt.Unknown
}

// declared types an expression in a position that names a type: builtin
// class names stand for the builtin types.
func (in *inferrer) declared(id ast.ExprID) types.TypeID {
	if name, ok := in.mod.NameOf(id); ok {
		if _, resolved := in.store.Resolve(in.top().table, name); !resolved {
			if t, ok := builtinClass(in.reg, name); ok {
				return t
			}
		}
	}
	return in.typeOf(id)
}

// scope types the name a def, class, lambda, comprehension or module binds,
// right after its body was walked.
func (in *inferrer) scope(table symbols.TableID, site resolve.Site) types.TypeID {
	s := in.prog.Scope(site.Scope)
	f := in.closed
	if s == nil || f == nil {
		return in.bt.Unknown
	}
	var t types.TypeID
	switch s.Kind {
	case ir.ScopeModule:
		t = in.bt.Module
	case ir.ScopeFunction, ir.ScopeLambda:
		t = in.function(s, f)
		if owner := in.top(); owner != nil && owner.methods != nil && isSpecial(s.Name) {
			owner.methods[s.Name] = in.reg.Get(t).Item
		}
	case ir.ScopeClass:
		t = in.class(s, site, f)
	case ir.ScopeComprehension:
		t = in.comprehension(s)
	}
	if s.OwnerExpr.IsValid() {
		in.hoisted[s.OwnerExpr] = t
	}
	return t
}

func isSpecial(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

func (in *inferrer) function(s *ir.Scope, f *frame) types.TypeID {
	if len(f.yields) > 0 {
		return in.reg.Callable(in.reg.Iterable(in.reg.UnionOr(in.bt.Unknown, f.yields...)))
	}
	ret := in.reg.Union(f.returns...)
	if !ret.IsValid() {
		ret = in.bt.None
		if s.Func != nil && s.Func.Returns.IsValid() {
			ret = in.annotation(s.Func.Returns)
		}
	}
	return in.reg.Callable(ret)
}

// class links the class declared on entry to its bases. A class whose
// bases cannot be linearized degrades to any.
func (in *inferrer) class(s *ir.Scope, site resolve.Site, f *frame) types.TypeID {
	bases := make([]types.TypeID, 0, len(s.Class.Bases))
	for _, b := range s.Class.Bases {
		t := in.declared(b)
		if in.reg.IsDynamic(t) && in.reg.KindOf(t) != types.KindAny {
			t = in.bt.Unknown
		}
		bases = append(bases, t)
	}
	if err := in.reg.SetBases(f.class, bases); err != nil {
		in.fail(site.Span, err)
		return in.bt.Any
	}
	for name, ret := range f.methods {
		in.reg.DefineMethod(f.class, name, ret)
	}
	return f.class
}

func (in *inferrer) comprehension(s *ir.Scope) types.TypeID {
	c := s.Comp
	switch c.Kind {
	case ast.ExprListComp:
		return in.reg.List(in.typeOf(c.Elt))
	case ast.ExprSetComp:
		return in.reg.Set(in.typeOf(c.Elt))
	case ast.ExprDictComp:
		return in.reg.Dict(in.typeOf(c.Key), in.typeOf(c.Value))
	}
	return in.reg.Iterable(in.typeOf(c.Elt))
}

// annotations collects every expression inside a type annotation.
func annotations(mod *ast.Module) map[ast.ExprID]bool {
	out := make(map[ast.ExprID]bool)
	var mark func(ast.ExprID)
	mark = func(id ast.ExprID) {
		if !id.IsValid() || out[id] {
			return
		}
		out[id] = true
		for _, c := range mod.Children(id) {
			mark(c)
		}
	}
	for _, s := range mod.Stmts.Slice() {
		switch d := s.Data.(type) {
		case *ast.FunctionDefData:
			for _, a := range d.Args.All() {
				mark(a.Annotation)
			}
			mark(d.Returns)
		case *ast.AnnAssignData:
			mark(d.Annotation)
		}
	}
	return out
}
