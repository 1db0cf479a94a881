package types

import "slices"

// Declare allocates a class with no bases yet. Its MRO is just itself.
func (r *Registry) Declare(name string) TypeID {
	id := r.add(Type{Kind: KindClass, Name: name, Completed: true, methods: opTable{}})
	r.types[id].MRO = []TypeID{id}
	return id
}

// NewClass declares a class and sets its bases. On error the class is
// still allocated with an MRO of itself.
func (r *Registry) NewClass(name string, bases []TypeID) (TypeID, error) {
	id := r.Declare(name)
	return id, r.SetBases(id, bases)
}

// SetBases validates bases and computes the C3 linearization of cls.
// object and dynamic bases carry no linearization: object is skipped,
// anything dynamic marks the class incomplete.
func (r *Registry) SetBases(cls TypeID, bases []TypeID) error {
	kept := make([]TypeID, 0, len(bases))
	complete := true
	for _, base := range bases {
		t := r.Get(base)
		switch {
		case t == nil || t.Kind == KindUnknown:
			complete = false
			continue
		case t.Kind == KindAny:
			continue
		case base == cls || slices.Contains(t.MRO, cls):
			return &InheritanceCycleError{Name: r.Get(cls).Name}
		case !r.isClassLike(t):
			return &InvalidBaseError{Type: r.Name(base)}
		case slices.Contains(kept, base):
			return &DuplicateBaseError{Name: t.Name}
		}
		kept = append(kept, base)
	}
	mro, err := r.linearize(cls, kept)
	if err != nil {
		return err
	}
	c := r.Get(cls)
	c.Bases = kept
	c.MRO = mro
	c.Completed = complete
	r.refreshInstances(cls)
	return nil
}

// refreshInstances recomputes the operator tables of every interned instance
// whose class derives from cls. Instances may be interned while a class body
// is still being walked, before its bases or methods are known.
func (r *Registry) refreshInstances(cls TypeID) {
	for key, id := range r.index {
		if key.Kind != KindInstance {
			continue
		}
		if slices.Contains(r.Get(key.Class).MRO, cls) {
			r.types[id].ops = r.instanceOps(key.Class)
		}
	}
}

// isClassLike reports whether t may appear as a base.
func (r *Registry) isClassLike(t *Type) bool {
	switch t.Kind {
	case KindClass, KindInt, KindFloat, KindComplex, KindStr, KindBytes:
		return true
	}
	return false
}

// linearize merges the base linearizations and the base list itself,
// repeatedly taking the first head that appears in no tail.
func (r *Registry) linearize(cls TypeID, bases []TypeID) ([]TypeID, error) {
	seqs := make([][]TypeID, 0, len(bases)+1)
	for _, b := range bases {
		seqs = append(seqs, slices.Clone(r.Get(b).MRO))
	}
	seqs = append(seqs, slices.Clone(bases))

	out := []TypeID{cls}
	for {
		seqs = slices.DeleteFunc(seqs, func(s []TypeID) bool { return len(s) == 0 })
		if len(seqs) == 0 {
			return out, nil
		}
		head := goodHead(seqs)
		if !head.IsValid() {
			names := make([]string, len(bases))
			for i, b := range bases {
				names[i] = r.Get(b).Name
			}
			return nil, &MROConflictError{Bases: names}
		}
		out = append(out, head)
		for i := range seqs {
			if seqs[i][0] == head {
				seqs[i] = seqs[i][1:]
			}
		}
	}
}

func goodHead(seqs [][]TypeID) TypeID {
	for _, s := range seqs {
		head := s[0]
		inTail := false
		for _, other := range seqs {
			if slices.Contains(other[1:], head) {
				inTail = true
				break
			}
		}
		if !inTail {
			return head
		}
	}
	return NoTypeID
}

// IsSubtype reports whether a values are acceptable where b is expected.
// object accepts everything and dynamic types are accepted anywhere.
// Containers are covariant in their item types.
func (r *Registry) IsSubtype(a, b TypeID) bool {
	if a == b {
		return true
	}
	ta, tb := r.Get(a), r.Get(b)
	if ta == nil || tb == nil {
		return false
	}
	if tb.Kind == KindAny || ta.Kind == KindAny || ta.Kind == KindUnknown {
		return true
	}
	if ta.Kind == KindUnion {
		for _, m := range ta.Members {
			if !r.IsSubtype(m, b) {
				return false
			}
		}
		return true
	}
	if tb.Kind == KindUnion {
		for _, m := range tb.Members {
			if r.IsSubtype(a, m) {
				return true
			}
		}
		return false
	}
	switch {
	case ta.Kind == KindInstance && tb.Kind == KindInstance:
		return slices.Contains(r.Get(ta.Class).MRO, tb.Class)
	case ta.Kind == KindInstance && tb.Kind != KindClass && tb.Kind != KindIterable:
		// instances of classes deriving from builtins
		return slices.Contains(r.Get(ta.Class).MRO, b)
	case tb.Kind == KindIterable:
		item, err := r.ItemType(a)
		return err == nil && r.IsSubtype(item, tb.Item)
	case ta.Kind.IsContainer() && ta.Kind == tb.Kind:
		return r.IsSubtype(ta.Item, tb.Item) && r.IsSubtype(ta.Value, tb.Value)
	}
	return slices.Contains(ta.MRO, b)
}

// DefineMethod records that instances of cls implement the special method
// name, producing result for any operand. Instance types that already exist,
// of cls or of its subclasses, pick the method up as well.
func (r *Registry) DefineMethod(cls TypeID, name string, result TypeID) {
	c := r.Get(cls)
	if c == nil || c.Kind != KindClass {
		return
	}
	c.methods.set(cls, always(r.orUnknown(result)), name)
	r.refreshInstances(cls)
}
