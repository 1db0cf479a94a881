package resolve

import (
	"fmt"

	"flowscope/internal/ast"
	"flowscope/internal/ir"
	"flowscope/internal/source"
	"flowscope/internal/symbols"
)

// Walker visits one translated module in execution order, classifying
// names and advancing a generation at every definition. Walking again
// after Store.Reset replays the same generations and allocates nothing,
// which is how later passes recover the symbol in effect at each point.
type Walker struct {
	Store *symbols.Store
	Prog  *ir.Program
	Unit  int
	Hooks Hooks

	mod    *ast.Module
	frames []frame
}

type frame struct {
	scope ir.ScopeID
	table symbols.TableID
	kind  ir.ScopeKind
}

// NewWalker prepares a walk of prog as unit number unit of the batch.
func NewWalker(store *symbols.Store, prog *ir.Program, unit int, hooks Hooks) *Walker {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Walker{Store: store, Prog: prog, Unit: unit, Hooks: hooks, mod: prog.Module}
}

// Run walks the module and returns its table.
func (w *Walker) Run() (symbols.TableID, error) {
	root := w.Prog.Scope(w.Prog.Root)
	if root == nil {
		return symbols.NoTableID, fmt.Errorf("%w: program without root scope", ir.ErrMalformedTree)
	}
	w.frames = w.frames[:0]
	w.frames = append(w.frames, frame{scope: ir.NoScopeID, table: w.Store.Root})
	table, err := w.scope(root, root.Span)
	w.frames = w.frames[:0]
	return table, err
}

func (w *Walker) cur() frame { return w.frames[len(w.frames)-1] }

// advance creates the next generation of name in table and classifies it.
func (w *Walker) advance(table symbols.TableID, name string, span source.Span) (prev, next symbols.SymbolID) {
	md := w.Store.Ensure(table, name)
	prev = md.Current()
	w.Store.NextDef(table, name, span)
	w.Store.MarkLocal(table, name)
	return prev, md.Current()
}

func (w *Walker) define(table symbols.TableID, site Site) {
	site.Prev, site.Symbol = w.advance(table, site.Name, site.Span)
	w.Hooks.Bind(table, site)
}

func (w *Walker) tableOf(s *ir.Scope, parent symbols.TableID) symbols.TableID {
	if id, ok := w.Store.TableFor(w.Unit, s.ID); ok {
		return id
	}
	return w.Store.NewTable(s.Name, s.Kind, w.Unit, s.ID, parent)
}

// scope binds the name of s in the current table, walks s, and reports the
// definition. Header expressions must have been walked by the caller.
func (w *Walker) scope(s *ir.Scope, span source.Span) (symbols.TableID, error) {
	outer := w.cur()
	prev, symID := w.advance(outer.table, s.Name, span)
	table := w.tableOf(s, outer.table)
	w.Store.Symbol(symID).Table = table

	w.frames = append(w.frames, frame{scope: s.ID, table: table, kind: s.Kind})
	w.Hooks.Enter(table, s)

	var err error
	switch s.Kind {
	case ir.ScopeFunction, ir.ScopeLambda:
		w.params(table, s.Func.Args)
		err = w.flow(s.Body)
	case ir.ScopeComprehension:
		err = w.comprehension(s)
	default:
		err = w.flow(s.Body)
	}

	w.Hooks.Leave(table, s)
	w.frames = w.frames[:len(w.frames)-1]
	if err != nil {
		return table, err
	}
	w.Hooks.Bind(outer.table, Site{
		Kind: SiteScope, Name: s.Name, Span: span, Symbol: symID, Prev: prev,
		Scope: s.ID, Table: table,
	})
	return table, nil
}

// params binds every parameter as a local generation of the function table.
func (w *Walker) params(table symbols.TableID, args *ast.Arguments) {
	out := &symbols.Arguments{}
	bind := func(a *ast.Arg) symbols.Arg {
		prev, id := w.advance(table, a.Name, a.Span)
		w.Store.Symbol(id).IsArg = true
		w.Hooks.Bind(table, Site{Kind: SiteParam, Name: a.Name, Span: a.Span, Symbol: id, Prev: prev, Param: a})
		return symbols.Arg{Name: a.Name, Symbol: id}
	}
	if args != nil {
		for i := range args.PosOnly {
			out.PosOnly = append(out.PosOnly, bind(&args.PosOnly[i]))
		}
		for i := range args.Args {
			out.Args = append(out.Args, bind(&args.Args[i]))
		}
		for i := range args.KwOnly {
			out.KwOnly = append(out.KwOnly, bind(&args.KwOnly[i]))
		}
		if args.Vararg != nil {
			a := bind(args.Vararg)
			out.Vararg = &a
		}
		if args.Kwarg != nil {
			a := bind(args.Kwarg)
			out.Kwarg = &a
		}
	}
	w.Store.Table(table).Args = out
}

func (w *Walker) comprehension(s *ir.Scope) error {
	for i, g := range s.Comp.Generators {
		// the first iterable belongs to the enclosing scope
		if i > 0 {
			if err := w.expr(g.Iter); err != nil {
				return err
			}
		}
		if err := w.target(g.Target, Site{Kind: SiteIterate, Value: g.Iter}); err != nil {
			return err
		}
		if err := w.exprs(g.Ifs); err != nil {
			return err
		}
	}
	return w.exprs([]ast.ExprID{s.Comp.Elt, s.Comp.Key, s.Comp.Value})
}

func (w *Walker) flow(fc *ir.FlowContainer) error {
	for i := range fc.Items {
		item := &fc.Items[i]
		switch item.Kind {
		case ir.FlowCode:
			for _, ci := range item.Code.Items {
				if err := w.codeItem(ci); err != nil {
					return err
				}
			}
		case ir.FlowBlock:
			if err := w.block(item.Block); err != nil {
				return err
			}
		case ir.FlowReturn:
			if err := w.expr(item.Value); err != nil {
				return err
			}
			w.Hooks.Return(w.cur().table, item.Value, item.Span)
		case ir.FlowRaise, ir.FlowAssert:
			if err := w.exprs([]ast.ExprID{item.Value, item.Extra}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Walker) codeItem(ci ir.CodeItem) error {
	if !ci.Ref.Valid() {
		return w.stmt(ci.Stmt)
	}
	// def or class: header expressions first, in the enclosing scope
	if err := w.exprs(w.mod.StmtExprs(ci.Stmt)); err != nil {
		return err
	}
	child := w.Prog.Scope(w.Prog.Resolve(w.cur().scope, ci.Ref))
	if child == nil {
		return fmt.Errorf("%w: dangling scope reference %s#%d", ir.ErrMalformedTree, ci.Ref.Name, ci.Ref.Index)
	}
	_, err := w.scope(child, w.mod.Stmt(ci.Stmt).Span)
	return err
}

func (w *Walker) block(b *ir.Block) error {
	switch b.Kind {
	case ir.BlockIf, ir.BlockWhile:
		if err := w.expr(b.Test); err != nil {
			return err
		}
	case ir.BlockFor:
		if err := w.expr(b.Iter); err != nil {
			return err
		}
		if err := w.target(b.Target, Site{Kind: SiteIterate, Value: b.Iter}); err != nil {
			return err
		}
	case ir.BlockWith:
		for _, it := range b.Items {
			if err := w.expr(it.Context); err != nil {
				return err
			}
			if it.Vars.IsValid() {
				if err := w.target(it.Vars, Site{Kind: SiteWith, Value: it.Context}); err != nil {
					return err
				}
			}
		}
	case ir.BlockMatch:
		if err := w.expr(b.Subject); err != nil {
			return err
		}
		for _, c := range b.Cases {
			if err := w.exprs(c.Pattern.Exprs()); err != nil {
				return err
			}
			for _, name := range c.Pattern.Captures() {
				w.define(w.cur().table, Site{Kind: SiteCapture, Name: name, Span: c.Span, Value: b.Subject})
			}
			if err := w.expr(c.Guard); err != nil {
				return err
			}
			if err := w.flow(c.Body); err != nil {
				return err
			}
		}
		return nil
	case ir.BlockTry:
		if err := w.flow(b.Body); err != nil {
			return err
		}
		for _, h := range b.Handlers {
			if err := w.expr(h.Type); err != nil {
				return err
			}
			if h.Name != "" {
				w.define(w.cur().table, Site{Kind: SiteExcept, Name: h.Name, Span: h.Span, Value: h.Type})
			}
			if err := w.flow(h.Body); err != nil {
				return err
			}
		}
		if err := w.flow(b.OrElse); err != nil {
			return err
		}
		return w.flow(b.FinalBody)
	}
	for _, fc := range b.Containers() {
		if err := w.flow(fc); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) stmt(id ast.StmtID) error {
	s := w.mod.Stmt(id)
	if s == nil {
		return fmt.Errorf("%w: dangling statement %d", ir.ErrMalformedTree, id)
	}
	table := w.cur().table
	switch d := s.Data.(type) {
	case *ast.ExprStmtData:
		return w.expr(d.Value)

	case *ast.AssignData:
		if err := w.expr(d.Value); err != nil {
			return err
		}
		for _, t := range d.Targets {
			if err := w.target(t, Site{Kind: SiteAssign, Value: d.Value}); err != nil {
				return err
			}
		}

	case *ast.AugAssignData:
		if name, ok := w.mod.NameOf(d.Target); ok {
			w.Store.Ensure(table, name)
			if err := w.expr(d.Value); err != nil {
				return err
			}
			w.define(table, Site{Kind: SiteAugAssign, Name: name, Span: w.mod.Expr(d.Target).Span,
				Target: d.Target, Value: d.Value, Op: d.Op})
			return nil
		}
		if err := w.targetLoads(d.Target); err != nil {
			return err
		}
		return w.expr(d.Value)

	case *ast.AnnAssignData:
		if err := w.expr(d.Annotation); err != nil {
			return err
		}
		if d.Value.IsValid() {
			if err := w.expr(d.Value); err != nil {
				return err
			}
			return w.target(d.Target, Site{Kind: SiteAssign, Value: d.Value})
		}
		if name, ok := w.mod.NameOf(d.Target); ok {
			w.Store.MarkLocal(table, name)
			return nil
		}
		return w.targetLoads(d.Target)

	case *ast.DeleteData:
		for _, t := range d.Targets {
			names := w.mod.TargetNames(t)
			for _, name := range names {
				w.Store.MarkLocal(table, name)
			}
			if len(names) == 0 {
				if err := w.targetLoads(t); err != nil {
					return err
				}
			}
		}

	case *ast.ImportData:
		for _, a := range d.Names {
			name := a.Bound()
			if name == "*" {
				continue
			}
			prev, sym := w.advance(table, name, a.Span)
			w.Store.Symbol(sym).Imported = true
			w.Hooks.Bind(table, Site{Kind: SiteImport, Name: name, Span: a.Span, Symbol: sym, Prev: prev})
		}

	case *ast.NamesData:
		to := symbols.BindGlobal
		if s.Kind == ast.StmtNonlocal {
			to = symbols.BindNonlocal
			if w.cur().kind == ir.ScopeModule && len(d.Names) > 0 {
				return &NonlocalAtModuleError{Name: d.Names[0], Span: s.Span}
			}
		}
		for _, name := range d.Names {
			if err := w.Store.SetBinding(table, name, to, s.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

// target binds every name of an assignment target. A tuple or list target
// matched against a literal of the same length binds element-wise.
func (w *Walker) target(id ast.ExprID, site Site) error {
	e := w.mod.Expr(id)
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case *ast.NameData:
		site.Name, site.Span, site.Target = d.ID, e.Span, id
		w.define(w.cur().table, site)
		return nil
	case *ast.SeqData:
		if values, ok := w.literalElts(site.Value, len(d.Elts)); ok && !site.Unpacked {
			for i, elt := range d.Elts {
				sub := site
				sub.Value = values[i]
				if err := w.target(elt, sub); err != nil {
					return err
				}
			}
			return nil
		}
		for _, elt := range d.Elts {
			sub := site
			sub.Unpacked = true
			if err := w.target(elt, sub); err != nil {
				return err
			}
		}
		return nil
	case *ast.ValueData:
		if e.Kind == ast.ExprStarred {
			site.Starred = true
			return w.target(d.Value, site)
		}
	}
	return w.targetLoads(id)
}

// literalElts returns the elements of a tuple or list display of length n
// without starred elements.
func (w *Walker) literalElts(value ast.ExprID, n int) ([]ast.ExprID, bool) {
	e := w.mod.Expr(value)
	if e == nil {
		return nil, false
	}
	seq, ok := e.Data.(*ast.SeqData)
	if !ok || e.Kind == ast.ExprSet || len(seq.Elts) != n {
		return nil, false
	}
	for _, elt := range seq.Elts {
		if w.mod.Expr(elt).Kind == ast.ExprStarred {
			return nil, false
		}
	}
	return seq.Elts, true
}

// targetLoads walks the loads inside an attribute or subscript target.
func (w *Walker) targetLoads(id ast.ExprID) error {
	e := w.mod.Expr(id)
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case *ast.AttributeData:
		return w.expr(d.Value)
	case *ast.SubscriptData:
		return w.exprs([]ast.ExprID{d.Value, d.Slice})
	}
	return w.expr(id)
}

func (w *Walker) exprs(ids []ast.ExprID) error {
	for _, id := range ids {
		if err := w.expr(id); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) expr(id ast.ExprID) error {
	e := w.mod.Expr(id)
	if e == nil {
		return nil
	}
	f := w.cur()
	switch d := e.Data.(type) {
	case *ast.NameData:
		if d.Ctx == ast.Del {
			w.Store.MarkLocal(f.table, d.ID)
		} else {
			w.Store.Ensure(f.table, d.ID)
		}

	case *ast.NamedExprData:
		if err := w.expr(d.Value); err != nil {
			return err
		}
		name, ok := w.mod.NameOf(d.Target)
		if !ok {
			return fmt.Errorf("%w: assignment expression target is not a name", ir.ErrMalformedTree)
		}
		w.define(w.walrusTable(), Site{Kind: SiteWalrus, Name: name, Span: w.mod.Expr(d.Target).Span,
			Target: d.Target, Value: d.Value})

	case *ast.LambdaData:
		if err := w.exprs(d.Args.DefaultExprs()); err != nil {
			return err
		}
		if err := w.hoisted(f, id, e.Span); err != nil {
			return err
		}

	case *ast.CompData:
		if len(d.Generators) > 0 {
			if err := w.expr(d.Generators[0].Iter); err != nil {
				return err
			}
		}
		if err := w.hoisted(f, id, e.Span); err != nil {
			return err
		}

	default:
		if err := w.exprs(w.mod.Children(id)); err != nil {
			return err
		}
	}
	w.Hooks.Expr(f.table, id)
	return nil
}

func (w *Walker) hoisted(f frame, id ast.ExprID, span source.Span) error {
	child, ok := w.Prog.HoistedScope(f.scope, id)
	if !ok {
		return fmt.Errorf("%w: expression %d was not hoisted", ir.ErrMalformedTree, id)
	}
	_, err := w.scope(w.Prog.Scope(child), span)
	return err
}

// walrusTable is the nearest enclosing table that is not a comprehension.
func (w *Walker) walrusTable() symbols.TableID {
	for i := len(w.frames) - 1; i > 0; i-- {
		if w.frames[i].kind != ir.ScopeComprehension {
			return w.frames[i].table
		}
	}
	return w.cur().table
}
