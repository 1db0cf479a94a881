package source

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// TreeSuffix is the extension of syntax-tree documents.
const TreeSuffix = ".ast.json"

// FileSet owns every unit of one run. It is safe for concurrent use.
type FileSet struct {
	mu    sync.RWMutex
	files []File
	index map[string]FileID
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]FileID)}
}

// Add registers a unit and returns its ID. The tree content is only hashed;
// callers keep the bytes they decode.
func (fileSet *FileSet) Add(path string, tree, text []byte, flags FileFlags) FileID {
	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()

	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	if text != nil {
		flags |= FileHasText
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	fileSet.files = append(fileSet.files, File{
		ID:    id,
		Path:  clean,
		Text:  text,
		Lines: buildLineIndex(text),
		Hash:  sha256.Sum256(tree),
		Flags: flags,
	})
	fileSet.index[clean] = id
	return id
}

// Load reads a tree document and its companion program text, if any.
// For "pkg/mod.ast.json" the text is looked up at "pkg/mod.py".
func (fileSet *FileSet) Load(path string) (FileID, []byte, error) {
	// #nosec G304 -- path is provided by the caller
	tree, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	var text []byte
	if base, ok := strings.CutSuffix(path, TreeSuffix); ok {
		// #nosec G304 -- derived from caller path
		text, err = os.ReadFile(base + ".py")
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, nil, err
		}
		text = bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))
	}
	return fileSet.Add(path, tree, text, 0), tree, nil
}

// Get returns the unit for id.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// Lookup returns the ID most recently registered for path.
func (fileSet *FileSet) Lookup(path string) (FileID, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	id, ok := fileSet.index[filepath.ToSlash(filepath.Clean(path))]
	return id, ok
}

// Len returns the number of registered units.
func (fileSet *FileSet) Len() int {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	return len(fileSet.files)
}

// DisplayPath strips the tree suffix so messages name the program file.
func (f *File) DisplayPath() string {
	if base, ok := strings.CutSuffix(f.Path, TreeSuffix); ok {
		return base + ".py"
	}
	return f.Path
}

// GetLine returns line lineNum (1-based) of the program text, or "".
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 || f.Text == nil {
		return ""
	}
	idx := int(lineNum) - 1
	if idx >= len(f.Lines) {
		return ""
	}
	start := f.Lines[idx]
	end := uint32(len(f.Text))
	if idx+1 < len(f.Lines) {
		end = f.Lines[idx+1] - 1
	}
	return strings.TrimSuffix(string(f.Text[start:end]), "\n")
}

// buildLineIndex records the byte offset where each line starts.
func buildLineIndex(text []byte) []uint32 {
	if text == nil {
		return nil
	}
	lines := []uint32{0}
	for i, b := range text {
		if b == '\n' && i+1 < len(text) {
			off, err := safecast.Conv[uint32](i + 1)
			if err != nil {
				panic(fmt.Errorf("line offset overflow: %w", err))
			}
			lines = append(lines, off)
		}
	}
	return lines
}
