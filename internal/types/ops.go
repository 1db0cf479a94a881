package types

// opFunc implements one special method. other is NoTypeID for unary
// methods. Returning the NotImplemented type rejects the operands.
type opFunc func(r *Registry, self, other TypeID) TypeID

type opEntry struct {
	fn opFunc
	// owner is the type that defines the method; inherited entries keep the
	// owner of the base, which is how overrides are detected. Kind tables
	// leave it unset.
	owner TypeID
}

type opTable map[string]opEntry

var (
	arithMethods   = []string{"add", "sub", "mul", "mod", "pow", "lshift", "rshift", "or", "xor", "and", "floordiv"}
	compareMethods = []string{"__lt__", "__le__", "__gt__", "__ge__", "__eq__", "__ne__"}
)

func dunder(name string) string    { return "__" + name + "__" }
func reflected(name string) string { return "__r" + name + "__" }

func (t opTable) set(owner TypeID, fn opFunc, methods ...string) {
	for _, m := range methods {
		t[m] = opEntry{fn: fn, owner: owner}
	}
}

// setBoth installs fn under the forward and reflected names of each
// operator, e.g. "add" installs __add__ and __radd__.
func (t opTable) setBoth(owner TypeID, fn opFunc, names ...string) {
	for _, n := range names {
		t.set(NoTypeID, fn, dunder(n), reflected(n))
	}
}

func (t opTable) clone() opTable {
	out := make(opTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// accepts returns an operator yielding result when other is a subtype of
// one of the accepted types.
func accepts(result TypeID, accepted ...TypeID) opFunc {
	return func(r *Registry, _, other TypeID) TypeID {
		for _, a := range accepted {
			if r.IsSubtype(other, a) {
				return result
			}
		}
		return r.builtins.NotImplemented
	}
}

func always(result TypeID) opFunc {
	return func(*Registry, TypeID, TypeID) TypeID { return result }
}

// sameKind accepts operands of the receiver's own kind, e.g. list + list.
func sameKind(result func(r *Registry, self, other TypeID) TypeID) opFunc {
	return func(r *Registry, self, other TypeID) TypeID {
		if r.KindOf(other) != r.KindOf(self) {
			return r.builtins.NotImplemented
		}
		return result(r, self, other)
	}
}

func selfType(_ *Registry, self, _ TypeID) TypeID { return self }

func (r *Registry) installOps() {
	b := r.builtins
	boolean := always(b.Bool)

	ints := opTable{}
	ints.setBoth(b.Int, accepts(b.Int, b.Int), arithMethods...)
	ints.setBoth(b.Int, accepts(b.Float, b.Int), "truediv")
	ints.set(b.Int, accepts(b.Bool, b.Int), compareMethods...)
	ints.set(b.Int, always(b.Int), "__neg__", "__pos__", "__invert__")
	r.types[b.Int].ops = ints

	bools := ints.clone()
	bools.setBoth(b.Bool, func(r *Registry, _, other TypeID) TypeID {
		switch {
		case r.IsSubtype(other, b.Bool):
			return b.Bool
		case r.IsSubtype(other, b.Int):
			return b.Int
		}
		return b.NotImplemented
	}, "and", "or", "xor")
	r.types[b.Bool].ops = bools

	floats := opTable{}
	floats.setBoth(b.Float, accepts(b.Float, b.Int, b.Float), "add", "sub", "mul", "truediv", "floordiv", "mod", "pow")
	floats.set(b.Float, accepts(b.Bool, b.Int, b.Float), compareMethods...)
	floats.set(b.Float, always(b.Float), "__neg__", "__pos__")
	r.types[b.Float].ops = floats

	complexes := opTable{}
	complexes.setBoth(b.Complex, accepts(b.Complex, b.Int, b.Float, b.Complex), "add", "sub", "mul", "truediv", "pow")
	complexes.set(b.Complex, accepts(b.Bool, b.Int, b.Float, b.Complex), "__eq__", "__ne__")
	complexes.set(b.Complex, always(b.Complex), "__neg__", "__pos__")
	r.types[b.Complex].ops = complexes

	strs := opTable{}
	strs.set(b.Str, accepts(b.Str, b.Str), "__add__")
	strs.set(b.Str, accepts(b.Str, b.Int), "__mul__", "__rmul__")
	strs.set(b.Str, always(b.Str), "__mod__")
	strs.set(b.Str, accepts(b.Bool, b.Str), compareMethods...)
	strs.set(b.Str, accepts(b.Bool, b.Str), "__contains__")
	strs.set(b.Str, accepts(b.Str, b.Int, b.Slice), "__getitem__")
	r.types[b.Str].ops = strs

	byteStrs := opTable{}
	byteStrs.set(b.Bytes, accepts(b.Bytes, b.Bytes), "__add__")
	byteStrs.set(b.Bytes, accepts(b.Bytes, b.Int), "__mul__", "__rmul__")
	byteStrs.set(b.Bytes, always(b.Bytes), "__mod__")
	byteStrs.set(b.Bytes, accepts(b.Bool, b.Bytes), compareMethods...)
	byteStrs.set(b.Bytes, accepts(b.Bool, b.Int, b.Bytes), "__contains__")
	byteStrs.set(b.Bytes, func(r *Registry, _, index TypeID) TypeID {
		switch {
		case r.IsSubtype(index, b.Int):
			return b.Int
		case r.IsSubtype(index, b.Slice):
			return b.Bytes
		}
		return b.NotImplemented
	}, "__getitem__")
	r.types[b.Bytes].ops = byteStrs

	ranges := opTable{}
	ranges.set(b.Range, boolean, "__contains__")
	ranges.set(b.Range, sameKind(func(*Registry, TypeID, TypeID) TypeID { return b.Bool }), "__eq__", "__ne__")
	ranges.set(b.Range, func(r *Registry, self, index TypeID) TypeID {
		switch {
		case r.IsSubtype(index, b.Int):
			return b.Int
		case r.IsSubtype(index, b.Slice):
			return self
		}
		return b.NotImplemented
	}, "__getitem__")
	r.types[b.Range].ops = ranges

	r.kindOps = map[Kind]opTable{
		KindList:     sequenceOps("list"),
		KindTuple:    sequenceOps("tuple"),
		KindSet:      setOps(),
		KindDict:     dictOps(),
		KindIterable: {},
		KindInstance: {},
	}
}

// sequenceOps is shared by list and tuple.
func sequenceOps(label string) opTable {
	t := opTable{}
	t.set(NoTypeID, sameKind(func(r *Registry, self, other TypeID) TypeID {
		item := r.Union(r.Get(self).Item, r.Get(other).Item)
		return r.container(r.KindOf(self), label, item)
	}), "__add__")
	t.set(NoTypeID, func(r *Registry, self, other TypeID) TypeID {
		if r.IsSubtype(other, r.builtins.Int) {
			return self
		}
		return r.builtins.NotImplemented
	}, "__mul__", "__rmul__")
	t.set(NoTypeID, func(r *Registry, self, index TypeID) TypeID {
		switch {
		case r.IsSubtype(index, r.builtins.Int):
			return r.Get(self).Item
		case r.IsSubtype(index, r.builtins.Slice):
			return self
		}
		return r.builtins.NotImplemented
	}, "__getitem__")
	t.set(NoTypeID, func(r *Registry, _, _ TypeID) TypeID { return r.builtins.Bool }, "__contains__")
	t.set(NoTypeID, sameKind(func(r *Registry, _, _ TypeID) TypeID { return r.builtins.Bool }), compareMethods...)
	return t
}

func setOps() opTable {
	t := opTable{}
	t.set(NoTypeID, sameKind(func(r *Registry, self, other TypeID) TypeID {
		return r.Set(r.Union(r.Get(self).Item, r.Get(other).Item))
	}), "__or__", "__xor__")
	t.set(NoTypeID, sameKind(selfType), "__and__", "__sub__")
	t.set(NoTypeID, func(r *Registry, _, _ TypeID) TypeID { return r.builtins.Bool }, "__contains__")
	t.set(NoTypeID, sameKind(func(r *Registry, _, _ TypeID) TypeID { return r.builtins.Bool }), compareMethods...)
	return t
}

func dictOps() opTable {
	t := opTable{}
	t.set(NoTypeID, func(r *Registry, self, _ TypeID) TypeID { return r.Get(self).Value }, "__getitem__")
	t.set(NoTypeID, func(r *Registry, _, _ TypeID) TypeID { return r.builtins.Bool }, "__contains__")
	t.set(NoTypeID, sameKind(func(r *Registry, _, _ TypeID) TypeID { return r.builtins.Bool }), "__eq__", "__ne__")
	t.set(NoTypeID, sameKind(func(r *Registry, self, other TypeID) TypeID {
		a, o := *r.Get(self), *r.Get(other)
		return r.Dict(r.Union(a.Item, o.Item), r.Union(a.Value, o.Value))
	}), "__or__")
	return t
}
