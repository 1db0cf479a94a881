package symbols

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes every table of the batch, one line per name listing the
// classification, flags and generations.
func (s *Store) Dump(w io.Writer, typeName func(*MultiDef) string) error {
	for i := 1; i <= s.Tables.Len(); i++ {
		id := TableID(i) //nolint:gosec // bounded by arena length
		t := s.Tables.Get(id)
		if id == s.Root {
			continue
		}
		if _, err := fmt.Fprintf(w, "table %s (%s)\n", t.Name, t.Kind); err != nil {
			return err
		}
		for _, name := range t.order {
			md := t.entries[name]
			cur := s.Symbols.Get(md.Current())
			var flags []string
			if s.isArg(md) {
				flags = append(flags, "param")
			}
			for _, g := range md.Gens {
				if s.Symbols.Get(g).Imported {
					flags = append(flags, "imported")
					break
				}
			}
			for _, g := range md.Gens {
				if s.Symbols.Get(g).HoldsTable() {
					flags = append(flags, "namespace")
					break
				}
			}
			line := fmt.Sprintf("  %-16s %-8s gens=%d", name, cur.Binding, len(md.Gens)-1)
			if len(flags) > 0 {
				line += " [" + strings.Join(flags, ",") + "]"
			}
			if typeName != nil {
				line += " : " + typeName(md)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
