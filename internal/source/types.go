package source

type (
	// FileID identifies a source unit within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source unit.
	FileFlags uint8
)

const (
	// FileVirtual marks units added from memory (tests, stdin).
	FileVirtual FileFlags = 1 << iota
	// FileHasText marks units whose original program text was found next to the tree.
	FileHasText
)

// File captures one analyzed unit: the syntax-tree document and, when
// available, the program text it was dumped from.
type File struct {
	ID    FileID
	Path  string // tree document path
	Text  []byte // program text, nil when unavailable
	Lines []uint32
	Hash  [32]byte // sha256 of the tree document
	Flags FileFlags
}
