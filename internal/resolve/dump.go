package resolve

import (
	"io"

	"flowscope/internal/symbols"
)

// DumpTables writes every symbol table of the batch. typeName renders the
// accumulated type of a name; nil omits types.
func DumpTables(w io.Writer, res *Result, typeName func(*symbols.MultiDef) string) error {
	return res.Store.Dump(w, typeName)
}
