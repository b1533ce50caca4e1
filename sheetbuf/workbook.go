package sheetbuf

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Workbook is the root document object: it owns the sheets (insertion
// order preserved) and the single SharedStringTable and StyleTable
// shared by every sheet. Workbooks are independent of each other; a
// process may hold any number of them.
type Workbook struct {
	Sheets []*SheetStore

	sheetMap map[string]*SheetStore
	strings  *SharedStringTable
	styles   *StyleTable
}

func NewWorkbook() *Workbook {
	return &Workbook{
		sheetMap: map[string]*SheetStore{},
		strings:  NewSharedStringTable(),
		styles:   NewStyleTable(),
	}
}

// AddSheet creates an empty sheet with the given name.
func (wb *Workbook) AddSheet(name string) (*SheetStore, error) {
	if _, exists := wb.sheetMap[name]; exists {
		return nil, fmt.Errorf("duplicate sheet name '%s'", name)
	}

	if err := validateSheetName(name); err != nil {
		return nil, err
	}

	sheet := &SheetStore{
		Name:       name,
		book:       wb,
		rows:       map[int]map[int]Cell{},
		colWidths:  map[int]float64{},
		rowHeights: map[int]float64{},
	}

	wb.Sheets = append(wb.Sheets, sheet)
	wb.sheetMap[name] = sheet
	logger.Debug().Str("sheet", name).Msg("sheet added")

	return sheet, nil
}

// RemoveSheet destroys the named sheet and its cells. Shared string and
// style table entries stay live; handles are stable for the workbook's
// lifetime.
func (wb *Workbook) RemoveSheet(name string) error {
	sheet, exists := wb.sheetMap[name]
	if !exists {
		return fmt.Errorf("no sheet named '%s'", name)
	}
	delete(wb.sheetMap, name)
	for i, s := range wb.Sheets {
		if s == sheet {
			wb.Sheets = append(wb.Sheets[:i], wb.Sheets[i+1:]...)
			break
		}
	}
	logger.Debug().Str("sheet", name).Msg("sheet removed")
	return nil
}

// Sheet returns the named sheet, or nil when absent.
func (wb *Workbook) Sheet(name string) *SheetStore {
	return wb.sheetMap[name]
}

// SheetNames returns the sheet names in insertion order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

// Strings returns the workbook's shared string table.
func (wb *Workbook) Strings() *SharedStringTable { return wb.strings }

// Styles returns the workbook's style table.
func (wb *Workbook) Styles() *StyleTable { return wb.styles }

func validateSheetName(s string) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return errors.New("empty sheet name is not allowed")
	} else if n > 31 {
		return errors.New("the sheet name is too long")
	}
	if strings.HasPrefix(s, "'") || strings.HasSuffix(s, "'") {
		return errors.New("the first or last character of the sheet name can not be a single quote")
	}
	if strings.ContainsAny(s, ":\\/?*[]") {
		return errors.New("the sheet can not contain any of the characters :\\/?*[]")
	}
	return nil
}

// Snapshot is a read-only copy of a workbook's cell values, taken so a
// recalculation pass can resolve cross-cell references without
// observing partial updates from writes made after the snapshot.
// Styles are not captured. Shared string handles resolve against the
// table content as of snapshot time.
type Snapshot struct {
	names   []string
	cells   map[string]map[int]map[int]CellValue
	strings []string
}

// Snapshot captures the current cell values of every sheet.
func (wb *Workbook) Snapshot() *Snapshot {
	sn := &Snapshot{
		names: wb.SheetNames(),
		cells: make(map[string]map[int]map[int]CellValue, len(wb.Sheets)),
	}
	sn.strings = append(sn.strings, wb.strings.list...)
	for _, s := range wb.Sheets {
		rows := make(map[int]map[int]CellValue, len(s.rows))
		for n, r := range s.rows {
			cols := make(map[int]CellValue, len(r))
			for col, c := range r {
				if !c.Value.IsEmpty() {
					cols[col] = c.Value
				}
			}
			if len(cols) > 0 {
				rows[n] = cols
			}
		}
		sn.cells[s.Name] = rows
	}
	return sn
}

// SheetNames returns the captured sheet names in insertion order.
func (sn *Snapshot) SheetNames() []string {
	return sn.names
}

// Value reports the captured value at (row, col) of the named sheet.
// ok is false for absent sheets and empty positions.
func (sn *Snapshot) Value(sheet string, row, col int) (CellValue, bool) {
	if r, exists := sn.cells[sheet]; exists {
		if cols, exists := r[row]; exists {
			if v, exists := cols[col]; exists {
				return v, true
			}
		}
	}
	return EmptyValue(), false
}

// ResolveString resolves a shared string handle against the captured
// table content.
func (sn *Snapshot) ResolveString(handle int) (string, error) {
	if handle < 0 || handle >= len(sn.strings) {
		return "", fmt.Errorf("shared string handle %d: %w", handle, ErrOutOfRange)
	}
	return sn.strings[handle], nil
}
