package ir

import (
	"fmt"

	"flowscope/internal/ast"
	"flowscope/internal/source"
)

// Translate lowers a module into the IR. Nested scopes are hoisted into
// their parent's table and replaced by references; control flow becomes
// Blocks separated from straight-line CodeBlocks.
func Translate(mod *ast.Module) (*Program, error) {
	if mod == nil {
		return nil, fmt.Errorf("%w: nil module", ErrMalformedTree)
	}
	t := &translator{
		mod: mod,
		prog: &Program{
			Module:  mod,
			Scopes:  NewScopes(0),
			Hoisted: make(map[ast.ExprID]ScopeRef),
		},
	}
	root := t.prog.Scopes.New(ScopeModule, mod.Name, NoScopeID, spanOfBody(mod))
	t.prog.Root = root
	if err := t.stmts(root, t.prog.Scopes.Get(root).Body, mod.Body); err != nil {
		return nil, err
	}
	return t.prog, nil
}

type translator struct {
	mod  *ast.Module
	prog *Program
}

func spanOfBody(mod *ast.Module) (sp source.Span) {
	for _, id := range mod.Body {
		sp = sp.Cover(mod.Stmt(id).Span)
	}
	return sp
}

func (t *translator) stmts(scope ScopeID, fc *FlowContainer, body []ast.StmtID) error {
	for _, id := range body {
		if err := t.stmt(scope, fc, id); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) stmt(scope ScopeID, fc *FlowContainer, id ast.StmtID) error {
	s := t.mod.Stmt(id)
	if s == nil {
		return fmt.Errorf("%w: dangling statement %d", ErrMalformedTree, id)
	}
	// Header expressions run in the enclosing scope before the construct.
	if err := t.hoistAll(scope, t.mod.StmtExprs(id)); err != nil {
		return err
	}

	switch d := s.Data.(type) {
	case *ast.FunctionDefData:
		child := t.prog.Scopes.New(ScopeFunction, d.Name, scope, s.Span)
		cs := t.prog.Scopes.Get(child)
		cs.OwnerStmt = id
		cs.Func = &FuncInfo{Args: d.Args, Decorators: d.Decorators, Returns: d.Returns, IsAsync: d.IsAsync}
		ref := t.prog.Scopes.register(scope, child, d.Name)
		fc.AddCode(CodeItem{Stmt: id, Ref: ref})
		if err := checkParams(d.Name, d.Args); err != nil {
			return err
		}
		return t.stmts(child, cs.Body, d.Body)

	case *ast.ClassDefData:
		child := t.prog.Scopes.New(ScopeClass, d.Name, scope, s.Span)
		cs := t.prog.Scopes.Get(child)
		cs.OwnerStmt = id
		cs.Class = &ClassInfo{Bases: d.Bases, Keywords: d.Keywords, Decorators: d.Decorators}
		ref := t.prog.Scopes.register(scope, child, d.Name)
		fc.AddCode(CodeItem{Stmt: id, Ref: ref})
		return t.stmts(child, cs.Body, d.Body)

	case *ast.ExprStmtData:
		if s.Kind == ast.StmtReturn {
			fc.add(FlowItem{Kind: FlowReturn, Span: s.Span, Stmt: id, Value: d.Value})
			return nil
		}
		fc.AddCode(CodeItem{Stmt: id})
		return nil

	case *ast.RaiseData:
		fc.add(FlowItem{Kind: FlowRaise, Span: s.Span, Stmt: id, Value: d.Exc, Extra: d.Cause})
		return nil

	case *ast.AssertData:
		fc.add(FlowItem{Kind: FlowAssert, Span: s.Span, Stmt: id, Value: d.Test, Extra: d.Msg})
		return nil

	case *ast.CondData:
		kind := BlockIf
		if s.Kind == ast.StmtWhile {
			kind = BlockWhile
		}
		b := NewBlock(kind, s.Span, id)
		b.Test = d.Test
		fc.add(FlowItem{Kind: FlowBlock, Span: s.Span, Stmt: id, Block: b})
		if err := t.stmts(scope, b.Body, d.Body); err != nil {
			return err
		}
		return t.stmts(scope, b.OrElse, d.OrElse)

	case *ast.ForData:
		b := NewBlock(BlockFor, s.Span, id)
		b.Target, b.Iter, b.IsAsync = d.Target, d.Iter, d.IsAsync
		fc.add(FlowItem{Kind: FlowBlock, Span: s.Span, Stmt: id, Block: b})
		if err := t.stmts(scope, b.Body, d.Body); err != nil {
			return err
		}
		return t.stmts(scope, b.OrElse, d.OrElse)

	case *ast.WithData:
		b := NewBlock(BlockWith, s.Span, id)
		b.Items, b.IsAsync = d.Items, d.IsAsync
		fc.add(FlowItem{Kind: FlowBlock, Span: s.Span, Stmt: id, Block: b})
		return t.stmts(scope, b.Body, d.Body)

	case *ast.TryData:
		b := NewBlock(BlockTry, s.Span, id)
		fc.add(FlowItem{Kind: FlowBlock, Span: s.Span, Stmt: id, Block: b})
		if err := t.stmts(scope, b.Body, d.Body); err != nil {
			return err
		}
		for _, h := range d.Handlers {
			hb := NewBlock(BlockHandler, h.Span, id)
			hb.Type, hb.Name = h.Type, h.Name
			if err := t.hoist(scope, h.Type); err != nil {
				return err
			}
			b.Handlers = append(b.Handlers, hb)
			if err := t.stmts(scope, hb.Body, h.Body); err != nil {
				return err
			}
		}
		if err := t.stmts(scope, b.OrElse, d.OrElse); err != nil {
			return err
		}
		return t.stmts(scope, b.FinalBody, d.FinalBody)

	case *ast.MatchData:
		b := NewBlock(BlockMatch, s.Span, id)
		b.Subject = d.Subject
		fc.add(FlowItem{Kind: FlowBlock, Span: s.Span, Stmt: id, Block: b})
		for _, c := range d.Cases {
			cb := NewBlock(BlockCase, c.Span, id)
			cb.Pattern, cb.Guard = c.Pattern, c.Guard
			if err := t.hoistAll(scope, c.Pattern.Exprs()); err != nil {
				return err
			}
			if err := t.hoist(scope, c.Guard); err != nil {
				return err
			}
			b.Cases = append(b.Cases, cb)
			if err := t.stmts(scope, cb.Body, c.Body); err != nil {
				return err
			}
		}
		return nil
	}

	switch s.Kind {
	case ast.StmtBreak:
		fc.add(FlowItem{Kind: FlowBreak, Span: s.Span, Stmt: id})
		return nil
	case ast.StmtContinue:
		fc.add(FlowItem{Kind: FlowContinue, Span: s.Span, Stmt: id})
		return nil
	case ast.StmtPass, ast.StmtDelete, ast.StmtAssign, ast.StmtAugAssign, ast.StmtAnnAssign,
		ast.StmtImport, ast.StmtImportFrom, ast.StmtGlobal, ast.StmtNonlocal:
		fc.AddCode(CodeItem{Stmt: id})
		return nil
	}
	return fmt.Errorf("%w: unhandled statement %s", ErrMalformedTree, s.Kind)
}

func (t *translator) hoistAll(scope ScopeID, ids []ast.ExprID) error {
	for _, id := range ids {
		if err := t.hoist(scope, id); err != nil {
			return err
		}
	}
	return nil
}

// hoist lifts every lambda and comprehension found under id into a nested
// scope of scope.
func (t *translator) hoist(scope ScopeID, id ast.ExprID) error {
	e := t.mod.Expr(id)
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case *ast.LambdaData:
		if err := t.hoistAll(scope, d.Args.DefaultExprs()); err != nil {
			return err
		}
		child := t.prog.Scopes.New(ScopeLambda, "<lambda>", scope, e.Span)
		cs := t.prog.Scopes.Get(child)
		cs.OwnerExpr = id
		cs.Func = &FuncInfo{Args: d.Args}
		t.prog.Hoisted[id] = t.prog.Scopes.register(scope, child, cs.Name)
		if err := checkParams(cs.Name, d.Args); err != nil {
			return err
		}
		cs.Body.add(FlowItem{Kind: FlowReturn, Span: e.Span, Value: d.Body})
		return t.hoist(child, d.Body)

	case *ast.CompData:
		if len(d.Generators) == 0 {
			return fmt.Errorf("%w: %s without generators", ErrMalformedTree, e.Kind)
		}
		// The outermost iterable is evaluated in the enclosing scope.
		if err := t.hoist(scope, d.Generators[0].Iter); err != nil {
			return err
		}
		child := t.prog.Scopes.New(ScopeComprehension, compName(e.Kind), scope, e.Span)
		cs := t.prog.Scopes.Get(child)
		cs.OwnerExpr = id
		cs.Comp = &CompInfo{Kind: e.Kind, Elt: d.Elt, Key: d.Key, Value: d.Value, Generators: d.Generators}
		t.prog.Hoisted[id] = t.prog.Scopes.register(scope, child, cs.Name)
		for i, g := range d.Generators {
			if i > 0 {
				if err := t.hoist(child, g.Iter); err != nil {
					return err
				}
			}
			if err := t.hoist(child, g.Target); err != nil {
				return err
			}
			if err := t.hoistAll(child, g.Ifs); err != nil {
				return err
			}
		}
		return t.hoistAll(child, []ast.ExprID{d.Elt, d.Key, d.Value})
	}
	return t.hoistAll(scope, t.mod.Children(id))
}

func compName(kind ast.ExprKind) string {
	switch kind {
	case ast.ExprListComp:
		return "<listcomp>"
	case ast.ExprSetComp:
		return "<setcomp>"
	case ast.ExprDictComp:
		return "<dictcomp>"
	}
	return "<genexpr>"
}

func checkParams(fn string, args *ast.Arguments) error {
	seen := make(map[string]struct{})
	for _, a := range args.All() {
		if _, dup := seen[a.Name]; dup {
			return &DuplicateArgumentError{Name: a.Name, Function: fn, Span: a.Span}
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}
