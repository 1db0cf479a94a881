package types

import (
	"slices"
	"strconv"
	"strings"
)

// Union returns the union of types. Nested unions are flattened, members
// are deduplicated and sorted by name, and a single member collapses to
// itself. Any absorbs every other member; Unknown is dropped next to known
// members. Returns NoTypeID when types is empty.
func (r *Registry) Union(types ...TypeID) TypeID {
	return r.UnionOr(NoTypeID, types...)
}

// UnionOr is Union with a fallback for an empty member list.
func (r *Registry) UnionOr(fallback TypeID, types ...TypeID) TypeID {
	members := make([]TypeID, 0, len(types))
	sawUnknown := false
	for _, id := range types {
		t := r.Get(id)
		switch {
		case t == nil:
			continue
		case t.Kind == KindAny:
			return id
		case t.Kind == KindUnknown:
			sawUnknown = true
		case t.Kind == KindUnion:
			members = append(members, t.Members...)
		default:
			members = append(members, id)
		}
	}
	slices.SortFunc(members, func(a, b TypeID) int {
		if c := strings.Compare(r.Name(a), r.Name(b)); c != 0 {
			return c
		}
		return int(a) - int(b)
	})
	members = slices.Compact(members)
	switch len(members) {
	case 0:
		if sawUnknown {
			return r.builtins.Unknown
		}
		return fallback
	case 1:
		return members[0]
	}
	return r.internUnion(members)
}

func (r *Registry) internUnion(members []TypeID) TypeID {
	var key strings.Builder
	names := make([]string, len(members))
	for i, m := range members {
		if i > 0 {
			key.WriteByte(',')
		}
		key.WriteString(strconv.FormatUint(uint64(m), 10))
		names[i] = r.Name(m)
	}
	if id, ok := r.unions[key.String()]; ok {
		return id
	}
	id := r.add(Type{
		Kind:      KindUnion,
		Name:      "Union[" + strings.Join(names, ", ") + "]",
		Builtin:   true,
		Completed: true,
		Members:   members,
	})
	r.types[id].MRO = []TypeID{id}
	r.unions[key.String()] = id
	return id
}

// MembersOf returns the members of a union, or id itself.
func (r *Registry) MembersOf(id TypeID) []TypeID {
	if t := r.Get(id); t != nil && t.Kind == KindUnion {
		return t.Members
	}
	return []TypeID{id}
}
