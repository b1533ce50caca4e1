package sheetbuf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSheet(t *testing.T) (*Workbook, *SheetStore) {
	t.Helper()
	wb := NewWorkbook()
	s, err := wb.AddSheet("Sheet1")
	require.NoError(t, err)
	return wb, s
}

func TestSheetStore_SetGet(t *testing.T) {
	_, s := newTestSheet(t)

	require.NoError(t, s.SetCell(2, 3, NumberValue(1.5)))
	c := s.GetCell(2, 3)
	assert.True(t, c.Value.Equal(NumberValue(1.5)))
	assert.Equal(t, StyleNone, c.Style)

	// absent positions report Empty with no style, never an error
	c = s.GetCell(100, 100)
	assert.True(t, c.Value.IsEmpty())
	assert.Equal(t, StyleNone, c.Style)

	// overwrite
	require.NoError(t, s.SetCell(2, 3, BoolValue(true)))
	assert.True(t, s.GetCell(2, 3).Value.Equal(BoolValue(true)))
}

func TestSheetStore_StyledCell(t *testing.T) {
	wb, s := newTestSheet(t)
	h := wb.Styles().Insert(testStyle())

	require.NoError(t, s.SetStyledCell(1, 1, StringValue("header"), h))
	assert.Equal(t, h, s.GetCell(1, 1).Style)
}

func TestSheetStore_OutOfRangeRejection(t *testing.T) {
	_, s := newTestSheet(t)

	err := s.SetCell(MaxRows+1, 1, NumberValue(1))
	assert.True(t, errors.Is(err, ErrOutOfRange))

	err = s.SetCell(1, MaxCols+1, NumberValue(1))
	assert.True(t, errors.Is(err, ErrOutOfRange))

	err = s.SetCell(0, 1, NumberValue(1))
	assert.True(t, errors.Is(err, ErrOutOfRange))

	err = s.SetCell(1, 0, NumberValue(1))
	assert.True(t, errors.Is(err, ErrOutOfRange))

	// the ceilings themselves are addressable
	assert.NoError(t, s.SetCell(MaxRows, MaxCols, NumberValue(1)))
}

func TestSheetStore_BoundsTracking(t *testing.T) {
	_, s := newTestSheet(t)

	_, ok := s.Bounds()
	assert.False(t, ok)

	require.NoError(t, s.SetCell(5, 3, NumberValue(1)))
	b, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, Bounds{MinRow: 5, MaxRow: 5, MinCol: 3, MaxCol: 3}, b)

	require.NoError(t, s.SetCell(2, 8, NumberValue(2)))
	b, _ = s.Bounds()
	assert.Equal(t, Bounds{MinRow: 2, MaxRow: 5, MinCol: 3, MaxCol: 8}, b)

	// clearing writes never shrink the box
	require.NoError(t, s.SetCell(2, 8, EmptyValue()))
	b, _ = s.Bounds()
	assert.Equal(t, Bounds{MinRow: 2, MaxRow: 5, MinCol: 3, MaxCol: 8}, b)
}

func TestSheetStore_RecomputeBounds(t *testing.T) {
	_, s := newTestSheet(t)

	require.NoError(t, s.SetCell(1, 1, NumberValue(1)))
	require.NoError(t, s.SetCell(10, 10, NumberValue(2)))
	require.NoError(t, s.SetCell(10, 10, EmptyValue()))

	s.RecomputeBounds()
	b, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, Bounds{MinRow: 1, MaxRow: 1, MinCol: 1, MaxCol: 1}, b)

	require.NoError(t, s.SetCell(1, 1, EmptyValue()))
	s.RecomputeBounds()
	_, ok = s.Bounds()
	assert.False(t, ok)
}

func TestSheetStore_OccupiedRows(t *testing.T) {
	wb, s := newTestSheet(t)

	require.NoError(t, s.SetCell(7, 1, NumberValue(1)))
	require.NoError(t, s.SetCell(3, 2, StringValue("x")))
	require.NoError(t, s.SetCell(3, 9, BoolValue(false)))
	assert.Equal(t, []int{3, 7}, s.OccupiedRows())

	// a style-only cell does not make its row occupied
	h := wb.Styles().Insert(testStyle())
	require.NoError(t, s.SetStyledCell(5, 1, EmptyValue(), h))
	assert.Equal(t, []int{3, 7}, s.OccupiedRows())

	require.NoError(t, s.SetCell(7, 1, EmptyValue()))
	assert.Equal(t, []int{3}, s.OccupiedRows())
}

func TestSheetStore_CellCount(t *testing.T) {
	_, s := newTestSheet(t)
	assert.Equal(t, 0, s.CellCount())

	require.NoError(t, s.SetCell(1, 1, NumberValue(1)))
	require.NoError(t, s.SetCell(1, 2, NumberValue(2)))
	require.NoError(t, s.SetCell(1, 2, NumberValue(3))) // overwrite
	assert.Equal(t, 2, s.CellCount())

	require.NoError(t, s.SetCell(1, 1, EmptyValue()))
	assert.Equal(t, 1, s.CellCount())
}

func TestSheetStore_ColumnWidthRowHeight(t *testing.T) {
	_, s := newTestSheet(t)

	_, ok := s.ColumnWidth(2)
	assert.False(t, ok)

	s.SetColumnWidth(2, 18.5)
	w, ok := s.ColumnWidth(2)
	require.True(t, ok)
	assert.Equal(t, 18.5, w)

	s.SetColumnWidth(2, 0)
	_, ok = s.ColumnWidth(2)
	assert.False(t, ok)

	s.SetRowHeight(3, 24)
	h, ok := s.RowHeight(3)
	require.True(t, ok)
	assert.Equal(t, 24.0, h)

	s.SetRowHeight(3, -1)
	_, ok = s.RowHeight(3)
	assert.False(t, ok)
}

func TestSheetStore_SetSharedText(t *testing.T) {
	wb, s := newTestSheet(t)

	require.NoError(t, s.SetSharedText(1, 1, "red"))
	require.NoError(t, s.SetSharedText(2, 1, "red"))
	assert.Equal(t, 1, wb.Strings().Count())

	h1, ok := s.GetCell(1, 1).Value.SharedString()
	require.True(t, ok)
	h2, _ := s.GetCell(2, 1).Value.SharedString()
	assert.Equal(t, h1, h2)

	text, err := wb.Strings().Resolve(h1)
	require.NoError(t, err)
	assert.Equal(t, "red", text)
}
