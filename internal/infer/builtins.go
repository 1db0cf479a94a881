package infer

import (
	"flowscope/internal/ast"
	"flowscope/internal/types"
)

// builtinCall types calls of the recognized builtin functions. ok is false
// for any other name.
func (in *inferrer) builtinCall(name string, d *ast.CallData) (types.TypeID, bool) {
	bt := in.bt
	switch name {
	case "len", "int", "hash", "ord":
		return bt.Int, true
	case "float":
		return bt.Float, true
	case "str", "repr", "chr":
		return bt.Str, true
	case "bool", "isinstance", "issubclass", "callable":
		return bt.Bool, true
	case "range":
		return bt.Range, true
	case "print":
		return bt.None, true
	case "abs":
		if len(d.Args) == 0 {
			return bt.Any, true
		}
		switch in.reg.KindOf(in.typeOf(d.Args[0])) {
		case types.KindInt, types.KindBool:
			return bt.Int, true
		case types.KindFloat, types.KindComplex:
			return bt.Float, true
		}
		return bt.Any, true
	case "list", "tuple", "set", "sorted":
		item := in.argItems(d)
		switch name {
		case "tuple":
			return in.reg.Tuple(item), true
		case "set":
			return in.reg.Set(item), true
		}
		return in.reg.List(item), true
	case "dict":
		if len(d.Args) > 0 {
			if t := in.typeOf(d.Args[0]); in.reg.KindOf(t) == types.KindDict {
				return t, true
			}
		}
		return in.reg.Dict(bt.Unknown, bt.Unknown), true
	}
	return types.NoTypeID, false
}

// argItems is the item type of the first argument, unknown without one.
func (in *inferrer) argItems(d *ast.CallData) types.TypeID {
	if len(d.Args) == 0 {
		return in.bt.Unknown
	}
	arg := d.Args[0]
	t := in.typeOf(arg)
	if in.reg.IsDynamic(t) {
		return in.bt.Unknown
	}
	item, err := in.reg.ItemType(t)
	return in.checkExpr(arg, item, err)
}

// builtinValue types loads of builtin constants that are spelled as names.
func builtinValue(bt types.Builtins, name string) (types.TypeID, bool) {
	switch name {
	case "NotImplemented":
		return bt.NotImplemented, true
	case "Ellipsis":
		return bt.Ellipsis, true
	}
	return types.NoTypeID, false
}

// builtinClass maps builtin class names to the types of their instances.
// object maps to Any.
func builtinClass(r *types.Registry, name string) (types.TypeID, bool) {
	bt := r.Builtins()
	switch name {
	case "object":
		return bt.Any, true
	case "int":
		return bt.Int, true
	case "bool":
		return bt.Bool, true
	case "float":
		return bt.Float, true
	case "complex":
		return bt.Complex, true
	case "str":
		return bt.Str, true
	case "bytes":
		return bt.Bytes, true
	case "range":
		return bt.Range, true
	case "slice":
		return bt.Slice, true
	case "list":
		return r.List(bt.Unknown), true
	case "tuple":
		return r.Tuple(bt.Unknown), true
	case "set":
		return r.Set(bt.Unknown), true
	case "dict":
		return r.Dict(bt.Unknown, bt.Unknown), true
	}
	return types.NoTypeID, false
}
