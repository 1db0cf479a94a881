package types

import "flowscope/internal/ast"

// call invokes method on self. ok is false when self lacks the method or
// the implementation rejected other.
func (r *Registry) call(self TypeID, method string, other TypeID) (TypeID, bool) {
	t := r.Get(self)
	if t == nil || method == "" {
		return NoTypeID, false
	}
	e, ok := t.ops[method]
	if !ok {
		return NoTypeID, false
	}
	res := e.fn(r, self, other)
	if res == r.builtins.NotImplemented || !res.IsValid() {
		return NoTypeID, false
	}
	return res, true
}

// reflectedFirst reports whether rhs gets the first chance: it must be a
// strict subtype of lhs that provides its own reflected method.
func (r *Registry) reflectedFirst(lhs, rhs TypeID, method string) bool {
	if lhs == rhs || !r.IsSubtype(rhs, lhs) {
		return false
	}
	re, ok := r.Get(rhs).ops[method]
	if !ok {
		return false
	}
	le, ok := r.Get(lhs).ops[method]
	return !ok || le.owner != re.owner
}

// dispatch runs the forward/reflected protocol. Arithmetic operands of the
// same type never try the reflected method; comparisons always fall back to
// the swapped one, so a < b may be answered by b.__gt__.
func (r *Registry) dispatch(lhs, rhs TypeID, forward, reflected string, swapSame bool) (TypeID, bool) {
	if r.reflectedFirst(lhs, rhs, reflected) {
		if res, ok := r.call(rhs, reflected, lhs); ok {
			return res, true
		}
		return r.call(lhs, forward, rhs)
	}
	if res, ok := r.call(lhs, forward, rhs); ok {
		return res, true
	}
	if lhs == rhs && !swapSame {
		return NoTypeID, false
	}
	return r.call(rhs, reflected, lhs)
}

// distribute applies op to every member combination of union operands.
// The result is the union of the successful combinations; when none
// succeeds the error of fail is returned.
func (r *Registry) distribute(lhs, rhs TypeID, op func(l, r TypeID) (TypeID, error), fail func() error) (TypeID, error) {
	var results []TypeID
	for _, l := range r.MembersOf(lhs) {
		for _, rr := range r.MembersOf(rhs) {
			if res, err := op(l, rr); err == nil {
				results = append(results, res)
			}
		}
	}
	if len(results) == 0 {
		return r.builtins.Any, fail()
	}
	return r.Union(results...), nil
}

func (r *Registry) isUnion(id TypeID) bool { return r.KindOf(id) == KindUnion }

// BinaryOp infers lhs <op> rhs.
func (r *Registry) BinaryOp(op ast.BinOp, lhs, rhs TypeID) (TypeID, error) {
	if r.IsDynamic(lhs) || r.IsDynamic(rhs) {
		return r.builtins.Any, nil
	}
	fail := func() error {
		return &UnsupportedOperandError{Op: op.Symbol(), Left: r.Name(lhs), Right: r.Name(rhs)}
	}
	if r.isUnion(lhs) || r.isUnion(rhs) {
		return r.distribute(lhs, rhs, func(l, rr TypeID) (TypeID, error) { return r.BinaryOp(op, l, rr) }, fail)
	}
	if res, ok := r.dispatch(lhs, rhs, op.Method(), op.Reflected(), false); ok {
		return res, nil
	}
	return r.builtins.Any, fail()
}

// Compare infers lhs <op> rhs for one link of a comparison chain.
func (r *Registry) Compare(op ast.CmpOp, lhs, rhs TypeID) (TypeID, error) {
	b := r.builtins
	switch op {
	case ast.CmpIs, ast.CmpIsNot:
		return b.Bool, nil
	case ast.CmpIn, ast.CmpNotIn:
		return r.contains(op, lhs, rhs)
	}
	if r.IsDynamic(lhs) || r.IsDynamic(rhs) {
		return b.Bool, nil
	}
	fail := func() error {
		return &UnorderableError{Op: op.Symbol(), Left: r.Name(lhs), Right: r.Name(rhs)}
	}
	if r.isUnion(lhs) || r.isUnion(rhs) {
		return r.distribute(lhs, rhs, func(l, rr TypeID) (TypeID, error) { return r.Compare(op, l, rr) }, fail)
	}
	if res, ok := r.dispatch(lhs, rhs, op.Method(), op.Swapped().Method(), true); ok {
		return res, nil
	}
	if op == ast.CmpEq || op == ast.CmpNotEq {
		// identity comparison
		return b.Bool, nil
	}
	return b.Any, fail()
}

// contains dispatches "in" to the right operand only.
func (r *Registry) contains(op ast.CmpOp, item, container TypeID) (TypeID, error) {
	b := r.builtins
	if r.IsDynamic(container) {
		return b.Bool, nil
	}
	if r.isUnion(container) {
		return r.distribute(item, container, func(l, rr TypeID) (TypeID, error) { return r.contains(op, l, rr) },
			func() error { return &NotIterableError{Type: r.Name(container), Membership: true} })
	}
	t := r.Get(container)
	if t.HasOp("__contains__") {
		if r.IsDynamic(item) {
			return b.Bool, nil
		}
		if res, ok := r.call(container, "__contains__", item); ok {
			return res, nil
		}
		return b.Any, &UnsupportedOperandError{Op: op.Symbol(), Left: r.Name(item), Right: r.Name(container)}
	}
	if _, err := r.ItemType(container); err == nil {
		return b.Bool, nil
	}
	return b.Any, &NotIterableError{Type: r.Name(container), Membership: true}
}

// Unary infers <op> operand.
func (r *Registry) Unary(op ast.UnaryOp, operand TypeID) (TypeID, error) {
	if op == ast.OpNot {
		return r.builtins.Bool, nil
	}
	if r.IsDynamic(operand) {
		return r.builtins.Any, nil
	}
	fail := func() error { return &BadUnaryError{Op: op.Symbol(), Type: r.Name(operand)} }
	if r.isUnion(operand) {
		return r.distribute(operand, r.builtins.None, func(l, _ TypeID) (TypeID, error) { return r.Unary(op, l) }, fail)
	}
	if res, ok := r.call(operand, op.Method(), NoTypeID); ok {
		return res, nil
	}
	return r.builtins.Any, fail()
}

// Subscript infers value[index].
func (r *Registry) Subscript(value, index TypeID) (TypeID, error) {
	if r.IsDynamic(value) {
		return r.builtins.Any, nil
	}
	if r.isUnion(value) || r.isUnion(index) {
		return r.distribute(value, index, r.Subscript, func() error {
			return &NotSubscriptableError{Type: r.Name(value)}
		})
	}
	t := r.Get(value)
	if !t.HasOp("__getitem__") {
		return r.builtins.Any, &NotSubscriptableError{Type: r.Name(value)}
	}
	if r.IsDynamic(index) {
		return r.builtins.Any, nil
	}
	if res, ok := r.call(value, "__getitem__", index); ok {
		return res, nil
	}
	return r.builtins.Any, &BadIndexError{Type: t.Kind.String(), Index: r.Name(index)}
}

// maxIterChain bounds how many __iter__ results are followed before the
// item type is given up as any.
const maxIterChain = 8

// ItemType returns the type produced by iterating over t.
func (r *Registry) ItemType(id TypeID) (TypeID, error) {
	return r.itemType(id, 0)
}

func (r *Registry) itemType(id TypeID, depth int) (TypeID, error) {
	b := r.builtins
	if r.IsDynamic(id) {
		return b.Any, nil
	}
	t := r.Get(id)
	switch t.Kind {
	case KindList, KindTuple, KindSet, KindDict, KindIterable:
		return t.Item, nil
	case KindStr:
		return b.Str, nil
	case KindBytes, KindRange:
		return b.Int, nil
	case KindInstance:
		return r.instanceItem(id, depth)
	case KindUnion:
		return r.distribute(id, b.None, func(l, _ TypeID) (TypeID, error) { return r.itemType(l, depth) },
			func() error { return &NotIterableError{Type: r.Name(id)} })
	}
	return b.Any, &NotIterableError{Type: r.Name(id)}
}

// instanceItem follows the iteration protocol of a user class: the iterator
// returned by __iter__ yields what its __next__ returns, or what iterating
// over it yields. Without __iter__ the legacy __getitem__ protocol applies.
func (r *Registry) instanceItem(id TypeID, depth int) (TypeID, error) {
	b := r.builtins
	if it, ok := r.call(id, "__iter__", NoTypeID); ok {
		switch {
		case r.IsDynamic(it):
			return b.Any, nil
		case r.Get(it).HasOp("__next__"):
			if next, ok := r.call(it, "__next__", NoTypeID); ok {
				return next, nil
			}
			return b.Any, nil
		case it == id || depth >= maxIterChain:
			return b.Any, nil
		}
		if item, err := r.itemType(it, depth+1); err == nil {
			return item, nil
		}
		return b.Any, &NotIterableError{Type: r.Name(it)}
	}
	if item, ok := r.call(id, "__getitem__", b.Int); ok {
		return item, nil
	}
	return b.Any, &NotIterableError{Type: r.Name(id)}
}
