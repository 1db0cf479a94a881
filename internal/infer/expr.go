package infer

import (
	"flowscope/internal/ast"
	"flowscope/internal/symbols"
	"flowscope/internal/types"
)

func (in *inferrer) eval(table symbols.TableID, id ast.ExprID) types.TypeID {
	e := in.mod.Expr(id)
	if e == nil {
		return in.bt.Unknown
	}
	switch d := e.Data.(type) {
	case *ast.ConstantData:
		return in.constant(d.Kind)

	case *ast.NameData:
		if d.Ctx != ast.Load {
			return in.bt.Unknown
		}
		return in.nameType(table, d.ID)

	case *ast.BinOpData:
		t, err := in.reg.BinaryOp(d.Op, in.typeOf(d.Left), in.typeOf(d.Right))
		return in.checkExpr(id, t, err)

	case *ast.UnaryOpData:
		t, err := in.reg.Unary(d.Op, in.typeOf(d.Operand))
		return in.checkExpr(id, t, err)

	case *ast.BoolOpData:
		vals := make([]types.TypeID, len(d.Values))
		for i, v := range d.Values {
			vals[i] = in.typeOf(v)
		}
		return in.reg.UnionOr(in.bt.Unknown, vals...)

	case *ast.CompareData:
		left := in.typeOf(d.Left)
		results := make([]types.TypeID, 0, len(d.Ops))
		for i, op := range d.Ops {
			right := in.typeOf(d.Comparators[i])
			t, err := in.reg.Compare(op, left, right)
			results = append(results, in.checkExpr(id, t, err))
			left = right
		}
		return in.reg.UnionOr(in.bt.Bool, results...)

	case *ast.CallData:
		return in.call(table, d)

	case *ast.SubscriptData:
		if d.Ctx != ast.Load {
			return in.bt.Unknown
		}
		t, err := in.reg.Subscript(in.typeOf(d.Value), in.typeOf(d.Slice))
		return in.checkExpr(id, t, err)

	case *ast.SliceData:
		return in.bt.Slice

	case *ast.ValueData:
		return in.value(id, e.Kind, d)

	case *ast.SeqData:
		item := in.elements(d.Elts)
		switch e.Kind {
		case ast.ExprList:
			return in.reg.List(item)
		case ast.ExprTuple:
			return in.reg.Tuple(item)
		case ast.ExprSet:
			return in.reg.Set(item)
		}

	case *ast.DictData:
		return in.dict(d)

	case *ast.IfExpData:
		return in.reg.UnionOr(in.bt.Unknown, in.typeOf(d.Body), in.typeOf(d.OrElse))

	case *ast.NamedExprData:
		return in.typeOf(d.Value)

	case *ast.LambdaData, *ast.CompData:
		if t, ok := in.hoisted[id]; ok {
			return t
		}
		return in.bt.Unknown

	case *ast.JoinedStrData, *ast.FormattedValueData:
		return in.bt.Str
	}
	// attributes are not modeled
	return in.bt.Any
}

func (in *inferrer) constant(kind ast.ConstKind) types.TypeID {
	switch kind {
	case ast.ConstBool:
		return in.bt.Bool
	case ast.ConstInt:
		return in.bt.Int
	case ast.ConstFloat:
		return in.bt.Float
	case ast.ConstComplex:
		return in.bt.Complex
	case ast.ConstStr:
		return in.bt.Str
	case ast.ConstBytes:
		return in.bt.Bytes
	case ast.ConstEllipsis:
		return in.bt.Ellipsis
	}
	return in.bt.None
}

func (in *inferrer) value(id ast.ExprID, kind ast.ExprKind, d *ast.ValueData) types.TypeID {
	switch kind {
	case ast.ExprStarred:
		return in.typeOf(d.Value)
	case ast.ExprYield, ast.ExprYieldFrom:
		f := in.top()
		if f == nil {
			return in.bt.Any
		}
		t := in.bt.None
		if d.Value.IsValid() {
			t = in.typeOf(d.Value)
		}
		if kind == ast.ExprYieldFrom {
			item, err := in.reg.ItemType(t)
			t = in.checkExpr(id, item, err)
		}
		f.yields = append(f.yields, t)
	}
	return in.bt.Any
}

// elements is the union of the element types of a display; a starred
// element contributes the items it unpacks.
func (in *inferrer) elements(elts []ast.ExprID) types.TypeID {
	out := make([]types.TypeID, 0, len(elts))
	for _, elt := range elts {
		t := in.typeOf(elt)
		if e := in.mod.Expr(elt); e != nil && e.Kind == ast.ExprStarred {
			item, err := in.reg.ItemType(t)
			t = in.checkExpr(elt, item, err)
		}
		out = append(out, t)
	}
	return in.reg.UnionOr(in.bt.Unknown, out...)
}

func (in *inferrer) dict(d *ast.DictData) types.TypeID {
	keys := make([]types.TypeID, 0, len(d.Keys))
	vals := make([]types.TypeID, 0, len(d.Values))
	for i, k := range d.Keys {
		v := in.typeOf(d.Values[i])
		if !k.IsValid() {
			// **mapping
			if in.reg.KindOf(v) == types.KindDict {
				m := in.reg.Get(v)
				keys = append(keys, m.Item)
				vals = append(vals, m.Value)
			}
			continue
		}
		keys = append(keys, in.typeOf(k))
		vals = append(vals, v)
	}
	return in.reg.Dict(in.reg.Union(keys...), in.reg.Union(vals...))
}

// call types a call: recognized builtins first, then classes and
// functions whose types are known.
func (in *inferrer) call(table symbols.TableID, d *ast.CallData) types.TypeID {
	if name, ok := in.mod.NameOf(d.Func); ok {
		if _, resolved := in.store.Resolve(table, name); !resolved {
			if t, ok := in.builtinCall(name, d); ok {
				return t
			}
		}
	}
	fn := in.typeOf(d.Func)
	switch in.reg.KindOf(fn) {
	case types.KindClass:
		return in.reg.Instance(fn)
	case types.KindFunction:
		if ret := in.reg.Get(fn).Item; ret.IsValid() {
			return ret
		}
	}
	return in.bt.Any
}
