package source

import "fmt"

// Span is a region of program text in line/column coordinates, as recorded
// on syntax-tree nodes. Lines are 1-based, columns 0-based byte offsets.
type Span struct {
	File    FileID
	Line    uint32
	Col     uint32
	EndLine uint32
	EndCol  uint32
}

// Empty reports whether the span carries no position.
func (s Span) Empty() bool {
	return s.Line == 0
}

func (s Span) String() string {
	if s.Empty() {
		return fmt.Sprintf("%d:?", s.File)
	}
	return fmt.Sprintf("%d:%d:%d-%d:%d", s.File, s.Line, s.Col+1, s.EndLine, s.EndCol+1)
}

// Before orders spans by start position.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if s.File != other.File || other.Empty() {
		return s
	}
	if s.Empty() {
		return other
	}
	if other.Before(s) {
		s.Line, s.Col = other.Line, other.Col
	}
	if other.EndLine > s.EndLine || (other.EndLine == s.EndLine && other.EndCol > s.EndCol) {
		s.EndLine, s.EndCol = other.EndLine, other.EndCol
	}
	return s
}
