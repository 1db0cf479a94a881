package diag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowscope/internal/source"
)

func sp(line, col uint32) source.Span {
	return source.Span{Line: line, Col: col, EndLine: line, EndCol: col + 1}
}

func TestBagLimitAndDropped(t *testing.T) {
	b := NewBag(2)
	require.True(t, b.Add(NewError(TypNotIterable, sp(1, 0), "a")))
	require.True(t, b.Add(NewError(TypNotIterable, sp(2, 0), "b")))
	require.False(t, b.Add(NewError(TypNotIterable, sp(3, 0), "c")))
	require.Equal(t, 2, b.Len())
	require.Equal(t, 1, b.Dropped())
}

func TestBagSortDedup(t *testing.T) {
	b := NewBag(0)
	b.Add(New(SevWarning, TypUnorderable, sp(3, 1), "w"))
	b.Add(NewError(TypUnsupportedOperand, sp(1, 4), "e"))
	b.Add(NewError(TypUnsupportedOperand, sp(1, 4), "e"))
	b.Add(NewError(TypNotSubscriptable, sp(1, 0), "s"))

	b.Dedup()
	b.Sort()
	items := b.Items()
	require.Len(t, items, 3)
	require.Equal(t, TypNotSubscriptable, items[0].Code)
	require.Equal(t, TypUnsupportedOperand, items[1].Code)
	require.Equal(t, TypUnorderable, items[2].Code)
	require.True(t, b.HasErrors())

	b.Promote()
	require.Equal(t, SevError, b.Items()[2].Severity)
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: b})
	for range 3 {
		ReportError(r, TypNotIterable, sp(4, 2), "'int' object is not iterable").
			WithNote(sp(1, 0), "defined here").
			Emit()
	}
	require.Equal(t, 1, b.Len())
	require.Len(t, b.Items()[0].Notes, 1)
}

func TestCodeID(t *testing.T) {
	require.Equal(t, "TYP4001", TypUnsupportedOperand.ID())
	require.Equal(t, "SEM3006", SemInconsistentMRO.ID())
	require.Equal(t, "IN1002", InMalformedTree.ID())
	require.Contains(t, SemDuplicateBase.String(), "Duplicate base class")
}
