package sheetbuf

import (
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
)

// Format hard ceilings for cell addressing.
const (
	MaxRows = 1_048_576
	MaxCols = 16_384
)

// StyleNone marks a cell that carries no style handle.
const StyleNone = -1

// Cell pairs a value with an optional style handle into the owning
// workbook's StyleTable. The zero value is not a valid cell; absent
// positions are reported as Cell{Value: EmptyValue(), Style: StyleNone}.
type Cell struct {
	Value CellValue
	Style int
}

// Bounds is the smallest rectangle containing every non-empty cell of
// a sheet. All coordinates are 1-based and inclusive.
type Bounds struct {
	MinRow, MaxRow int
	MinCol, MaxCol int
}

// Area returns the number of addressable positions inside the box.
func (b Bounds) Area() int64 {
	return int64(b.MaxRow-b.MinRow+1) * int64(b.MaxCol-b.MinCol+1)
}

// SheetStore owns the cells of one sheet, addressed by 1-based
// (row, column). The occupied bounding box is extended incrementally on
// every non-empty write, so export never needs a full scan; it does not
// shrink on clearing writes (see RecomputeBounds).
//
// A SheetStore is not safe for concurrent mutation; it is exclusively
// owned by one logical caller at a time.
type SheetStore struct {
	Name string

	book       *Workbook
	rows       map[int]map[int]Cell
	colWidths  map[int]float64
	rowHeights map[int]float64
	bounds     Bounds
	hasBounds  bool
}

// SetColumnWidth sets the display width of a column in character units.
// A non-positive width reverts the column to the default.
func (s *SheetStore) SetColumnWidth(col int, w float64) {
	if col <= 0 {
		return
	}
	if w <= 0.0 {
		delete(s.colWidths, col)
	} else {
		s.colWidths[col] = w
	}
}

// ColumnWidth reports the display width of a column; ok is false when
// the column uses the default width.
func (s *SheetStore) ColumnWidth(col int) (w float64, ok bool) {
	w, ok = s.colWidths[col]
	return w, ok
}

// SetRowHeight sets the display height of a row in points. A
// non-positive height reverts the row to the default.
func (s *SheetStore) SetRowHeight(row int, h float64) {
	if row <= 0 {
		return
	}
	if h <= 0.0 {
		delete(s.rowHeights, row)
	} else {
		s.rowHeights[row] = h
	}
}

// RowHeight reports the display height of a row; ok is false when the
// row uses the default height.
func (s *SheetStore) RowHeight(row int) (h float64, ok bool) {
	h, ok = s.rowHeights[row]
	return h, ok
}

// SetCell writes value at (row, col) without a style handle. Writing an
// Empty value clears the position. The bounding box grows to cover
// non-empty writes and never shrinks on clears.
func (s *SheetStore) SetCell(row, col int, value CellValue) error {
	return s.setCell(row, col, Cell{Value: value, Style: StyleNone})
}

// SetStyledCell writes value at (row, col) with a style handle minted
// by the workbook's StyleTable.
func (s *SheetStore) SetStyledCell(row, col int, value CellValue, style int) error {
	return s.setCell(row, col, Cell{Value: value, Style: style})
}

// SetSharedText interns text in the workbook's shared string table and
// writes the resulting SharedString value at (row, col).
func (s *SheetStore) SetSharedText(row, col int, text string) error {
	h := s.book.Strings().Insert(text)
	return s.SetCell(row, col, SharedStringValue(h))
}

func (s *SheetStore) setCell(row, col int, c Cell) error {
	if row < 1 || row > MaxRows {
		return fmt.Errorf("row %d outside 1..%d: %w", row, MaxRows, ErrOutOfRange)
	}
	if col < 1 || col > MaxCols {
		return fmt.Errorf("column %d outside 1..%d: %w", col, MaxCols, ErrOutOfRange)
	}
	if c.Value.IsEmpty() && c.Style == StyleNone {
		// clearing write; the slot is reclaimed, the bounds are not
		if r, ok := s.rows[row]; ok {
			delete(r, col)
			if len(r) == 0 {
				delete(s.rows, row)
			}
		}
		return nil
	}
	r := s.rows[row]
	if r == nil {
		r = map[int]Cell{}
		s.rows[row] = r
	}
	r[col] = c
	if !c.Value.IsEmpty() {
		s.extendBounds(row, col)
	}
	return nil
}

// GetCell reports the cell at (row, col). It never fails; absent
// positions report an Empty value with no style.
func (s *SheetStore) GetCell(row, col int) Cell {
	if r, ok := s.rows[row]; ok {
		if c, ok := r[col]; ok {
			return c
		}
	}
	return Cell{Value: EmptyValue(), Style: StyleNone}
}

// OccupiedRows returns the ascending row numbers holding at least one
// non-empty cell.
func (s *SheetStore) OccupiedRows() []int {
	rows := make([]int, 0, len(s.rows))
	for n, r := range s.rows {
		for _, c := range r {
			if !c.Value.IsEmpty() {
				rows = append(rows, n)
				break
			}
		}
	}
	slices.Sort(rows)
	return rows
}

// CellCount returns the number of non-empty cells in the sheet.
func (s *SheetStore) CellCount() int {
	n := 0
	for _, r := range s.rows {
		for _, c := range r {
			if !c.Value.IsEmpty() {
				n++
			}
		}
	}
	return n
}

// Bounds reports the occupied bounding box. ok is false while the sheet
// has never held a non-empty cell.
func (s *SheetStore) Bounds() (b Bounds, ok bool) {
	return s.bounds, s.hasBounds
}

// RecomputeBounds rebuilds the bounding box from a full scan. This is
// the explicit compaction pass after mass-clearing cells; no incremental
// shrink happens on individual clears.
func (s *SheetStore) RecomputeBounds() {
	s.hasBounds = false
	for n, r := range s.rows {
		for col, c := range r {
			if !c.Value.IsEmpty() {
				s.extendBounds(n, col)
			}
		}
	}
}

func (s *SheetStore) extendBounds(row, col int) {
	if !s.hasBounds {
		s.bounds = Bounds{MinRow: row, MaxRow: row, MinCol: col, MaxCol: col}
		s.hasBounds = true
		return
	}
	if row < s.bounds.MinRow {
		s.bounds.MinRow = row
	}
	if row > s.bounds.MaxRow {
		s.bounds.MaxRow = row
	}
	if col < s.bounds.MinCol {
		s.bounds.MinCol = col
	}
	if col > s.bounds.MaxCol {
		s.bounds.MaxCol = col
	}
}

func enumerate[M ~map[K]V, K constraints.Ordered, V any](m M, callback func(k K, v V) error) error {
	keys := maps.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		err := callback(k, m[k])
		if err != nil {
			return err
		}
	}
	return nil
}
