package driver

import (
	"strings"

	"flowscope/internal/analysis"
	"flowscope/internal/infer"
	"flowscope/internal/resolve"
	"flowscope/internal/symbols"
)

// SymbolSummary is one name of one table, flattened for caching and output.
type SymbolSummary struct {
	Table   string `msgpack:"table" json:"table"`
	Name    string `msgpack:"name" json:"name"`
	Binding string `msgpack:"binding" json:"binding"`
	Gens    int    `msgpack:"gens" json:"gens"`
	Type    string `msgpack:"type,omitempty" json:"type,omitempty"`
}

// summarize flattens the symbol tables of a finished batch. It returns nil
// when resolution did not run.
func summarize(actx *analysis.Context) []SymbolSummary {
	res, err := analysis.Result[*resolve.Result](actx, resolve.Name)
	if err != nil {
		return nil
	}
	inf, _ := analysis.Result[*infer.Result](actx, infer.Name)

	store := res.Store
	var out []SymbolSummary
	for i := 1; i <= store.Tables.Len(); i++ {
		id := symbols.TableID(i) //nolint:gosec // bounded by arena length
		if id == store.Root {
			continue
		}
		t := store.Table(id)
		qual := qualifiedName(store, id)
		for _, name := range t.Names() {
			md := t.Lookup(name)
			s := SymbolSummary{
				Table:   qual,
				Name:    name,
				Binding: store.Symbol(md.Current()).Binding.String(),
				Gens:    len(md.Gens) - 1,
			}
			if inf != nil {
				s.Type = inf.TypeName(md)
			}
			out = append(out, s)
		}
	}
	return out
}

func qualifiedName(store *symbols.Store, id symbols.TableID) string {
	var parts []string
	for id.IsValid() && id != store.Root {
		t := store.Table(id)
		parts = append(parts, t.Name)
		id = t.Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}
