package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the predefined types.
type Builtins struct {
	Any            TypeID
	Unknown        TypeID
	None           TypeID
	Bool           TypeID
	Int            TypeID
	Float          TypeID
	Complex        TypeID
	Str            TypeID
	Bytes          TypeID
	Ellipsis       TypeID
	Slice          TypeID
	Range          TypeID
	NotImplemented TypeID
	Function       TypeID
	Module         TypeID
}

// Registry owns every type of a batch. Structural types (containers,
// instances, unions) are interned so equal descriptors share a TypeID;
// classes are nominal and always get a fresh one.
type Registry struct {
	types    []Type
	index    map[typeKey]TypeID
	unions   map[string]TypeID
	builtins Builtins
	kindOps  map[Kind]opTable
}

type typeKey struct {
	Kind  Kind
	Item  TypeID
	Value TypeID
	Class TypeID
}

// NewRegistry constructs a registry seeded with the builtin types.
func NewRegistry() *Registry {
	r := &Registry{
		types:  make([]Type, 1, 64), // index 0 reserved for NoTypeID
		index:  make(map[typeKey]TypeID, 64),
		unions: make(map[string]TypeID),
	}
	b := &r.builtins
	b.Any = r.builtin(KindAny, "object")
	b.Unknown = r.builtin(KindUnknown, "unknown")
	b.None = r.builtin(KindNone, "NoneType")
	b.Int = r.builtin(KindInt, "int")
	b.Bool = r.builtin(KindBool, "bool")
	b.Float = r.builtin(KindFloat, "float")
	b.Complex = r.builtin(KindComplex, "complex")
	b.Str = r.builtin(KindStr, "str")
	b.Bytes = r.builtin(KindBytes, "bytes")
	b.Ellipsis = r.builtin(KindEllipsis, "ellipsis")
	b.Slice = r.builtin(KindSlice, "slice")
	b.Range = r.builtin(KindRange, "range")
	b.NotImplemented = r.builtin(KindNotImplemented, "NotImplementedType")
	b.Function = r.builtin(KindFunction, "function")
	b.Module = r.builtin(KindModule, "module")
	r.types[b.Bool].MRO = []TypeID{b.Bool, b.Int}
	r.installOps()
	return r
}

// Builtins returns TypeIDs for the predefined types.
func (r *Registry) Builtins() Builtins {
	return r.builtins
}

func (r *Registry) builtin(kind Kind, name string) TypeID {
	id := r.add(Type{Kind: kind, Name: name, Builtin: true, Completed: true})
	r.types[id].MRO = []TypeID{id}
	r.index[typeKey{Kind: kind}] = id
	return id
}

func (r *Registry) add(t Type) TypeID {
	value, err := safecast.Conv[uint32](len(r.types))
	if err != nil {
		panic(fmt.Errorf("type registry overflow: %w", err))
	}
	r.types = append(r.types, t)
	return TypeID(value)
}

// Get returns the descriptor for id, or nil. The pointer is only valid
// until the next type is added.
func (r *Registry) Get(id TypeID) *Type {
	if !id.IsValid() || int(id) >= len(r.types) {
		return nil
	}
	return &r.types[id]
}

// Len reports number of stored types excluding the sentinel.
func (r *Registry) Len() int { return len(r.types) - 1 }

// KindOf returns the kind of id, KindInvalid when unknown to the registry.
func (r *Registry) KindOf(id TypeID) Kind {
	if t := r.Get(id); t != nil {
		return t.Kind
	}
	return KindInvalid
}

// Name returns the printable name of id.
func (r *Registry) Name(id TypeID) string {
	t := r.Get(id)
	switch {
	case t == nil:
		return "unknown"
	case t.Kind == KindClass:
		return "type[" + t.Name + "]"
	}
	return t.Name
}

// IsDynamic reports whether id carries no static information.
func (r *Registry) IsDynamic(id TypeID) bool {
	switch r.KindOf(id) {
	case KindAny, KindUnknown, KindInvalid:
		return true
	}
	return false
}

func (r *Registry) orUnknown(id TypeID) TypeID {
	if !id.IsValid() {
		return r.builtins.Unknown
	}
	return id
}

func (r *Registry) intern(key typeKey, name string) TypeID {
	if id, ok := r.index[key]; ok {
		return id
	}
	id := r.add(Type{
		Kind:      key.Kind,
		Name:      name,
		Builtin:   key.Kind != KindInstance,
		Completed: true,
		Item:      key.Item,
		Value:     key.Value,
		Class:     key.Class,
		ops:       r.kindOps[key.Kind],
	})
	r.types[id].MRO = []TypeID{id}
	r.index[key] = id
	return id
}

func (r *Registry) container(kind Kind, label string, item TypeID) TypeID {
	item = r.orUnknown(item)
	return r.intern(typeKey{Kind: kind, Item: item}, fmt.Sprintf("%s[%s]", label, r.Name(item)))
}

// List returns list[item].
func (r *Registry) List(item TypeID) TypeID { return r.container(KindList, "list", item) }

// Tuple returns tuple[item]; the element type is the union of all fields.
func (r *Registry) Tuple(item TypeID) TypeID { return r.container(KindTuple, "tuple", item) }

// Set returns set[item].
func (r *Registry) Set(item TypeID) TypeID { return r.container(KindSet, "set", item) }

// Iterable returns Iterable[item].
func (r *Registry) Iterable(item TypeID) TypeID {
	return r.container(KindIterable, "Iterable", item)
}

// Dict returns dict[key, value].
func (r *Registry) Dict(key, value TypeID) TypeID {
	key, value = r.orUnknown(key), r.orUnknown(value)
	return r.intern(typeKey{Kind: KindDict, Item: key, Value: value},
		fmt.Sprintf("dict[%s, %s]", r.Name(key), r.Name(value)))
}

// Instance returns the type of instances of cls. Instances of builtin types
// are the builtin types themselves.
func (r *Registry) Instance(cls TypeID) TypeID {
	if r.KindOf(cls) != KindClass {
		return cls
	}
	key := typeKey{Kind: KindInstance, Class: cls}
	if id, ok := r.index[key]; ok {
		return id
	}
	id := r.intern(key, r.Get(cls).Name)
	r.types[id].ops = r.instanceOps(cls)
	return id
}

// instanceOps merges the special methods along the MRO of cls, nearest
// definition winning. Builtin bases contribute their operator tables.
func (r *Registry) instanceOps(cls TypeID) opTable {
	mro := r.Get(cls).MRO
	ops := opTable{}
	for i := len(mro) - 1; i >= 0; i-- {
		base := r.Get(mro[i])
		src := base.ops
		if base.Kind == KindClass {
			src = base.methods
		}
		for k, v := range src {
			ops[k] = v
		}
	}
	return ops
}

// Callable returns the type of functions returning ret.
func (r *Registry) Callable(ret TypeID) TypeID {
	ret = r.orUnknown(ret)
	return r.intern(typeKey{Kind: KindFunction, Item: ret}, fmt.Sprintf("Callable[..., %s]", r.Name(ret)))
}
