package ast

// Children returns the direct sub-expressions of id in evaluation order.
// Lambda and comprehension children include everything their scopes
// evaluate; callers that hoist those scopes handle them before recursing.
func (m *Module) Children(id ExprID) []ExprID {
	e := m.Expr(id)
	if e == nil {
		return nil
	}
	var out []ExprID
	add := func(ids ...ExprID) {
		for _, c := range ids {
			if c.IsValid() {
				out = append(out, c)
			}
		}
	}
	switch d := e.Data.(type) {
	case *NameData, *ConstantData:
	case *BinOpData:
		add(d.Left, d.Right)
	case *UnaryOpData:
		add(d.Operand)
	case *BoolOpData:
		add(d.Values...)
	case *CompareData:
		add(d.Left)
		add(d.Comparators...)
	case *CallData:
		add(d.Func)
		add(d.Args...)
		for _, kw := range d.Keywords {
			add(kw.Value)
		}
	case *AttributeData:
		add(d.Value)
	case *SubscriptData:
		add(d.Value, d.Slice)
	case *SliceData:
		add(d.Lower, d.Upper, d.Step)
	case *ValueData:
		add(d.Value)
	case *SeqData:
		add(d.Elts...)
	case *DictData:
		for i := range d.Values {
			if i < len(d.Keys) {
				add(d.Keys[i])
			}
			add(d.Values[i])
		}
	case *IfExpData:
		add(d.Test, d.Body, d.OrElse)
	case *NamedExprData:
		add(d.Value, d.Target)
	case *LambdaData:
		add(d.Args.DefaultExprs()...)
		add(d.Body)
	case *CompData:
		for _, g := range d.Generators {
			add(g.Iter, g.Target)
			add(g.Ifs...)
		}
		add(d.Elt, d.Key, d.Value)
	case *JoinedStrData:
		add(d.Values...)
	case *FormattedValueData:
		add(d.Value, d.FormatSpec)
	}
	return out
}

// StmtExprs returns the expressions a simple statement evaluates in its own
// scope, values before targets. Compound statements and definitions return
// their header expressions only.
func (m *Module) StmtExprs(id StmtID) []ExprID {
	s := m.Stmt(id)
	if s == nil {
		return nil
	}
	var out []ExprID
	add := func(ids ...ExprID) {
		for _, c := range ids {
			if c.IsValid() {
				out = append(out, c)
			}
		}
	}
	switch d := s.Data.(type) {
	case *FunctionDefData:
		add(d.Decorators...)
		add(d.Args.DefaultExprs()...)
		for _, a := range d.Args.All() {
			add(a.Annotation)
		}
		add(d.Returns)
	case *ClassDefData:
		add(d.Decorators...)
		add(d.Bases...)
		for _, kw := range d.Keywords {
			add(kw.Value)
		}
	case *ExprStmtData:
		add(d.Value)
	case *DeleteData:
		add(d.Targets...)
	case *AssignData:
		add(d.Value)
		add(d.Targets...)
	case *AugAssignData:
		add(d.Value, d.Target)
	case *AnnAssignData:
		add(d.Annotation, d.Value, d.Target)
	case *ForData:
		add(d.Iter, d.Target)
	case *CondData:
		add(d.Test)
	case *WithData:
		for _, it := range d.Items {
			add(it.Context, it.Vars)
		}
	case *MatchData:
		add(d.Subject)
	case *RaiseData:
		add(d.Exc, d.Cause)
	case *AssertData:
		add(d.Test, d.Msg)
	}
	return out
}
