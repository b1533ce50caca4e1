package sheetbuf

import "fmt"

// SharedStringTable deduplicates text repeated across a workbook,
// returning a stable integer handle per unique string. Handles form the
// dense range [0, Count) and are never reassigned to different text.
//
// Spreadsheet text is highly repetitive (a status column of 50,000 rows
// drawn from 5 distinct values), so memory scales with distinct-value
// count instead of row count.
type SharedStringTable struct {
	list  []string
	index map[string]int // reverse lookup for O(1) dedup
}

// NewSharedStringTable creates an empty table.
func NewSharedStringTable() *SharedStringTable {
	return &SharedStringTable{
		index: map[string]int{},
	}
}

// Insert returns the handle for s, minting a new one when the text has
// not been seen before. Equality is exact, not normalized.
func (t *SharedStringTable) Insert(s string) int {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := len(t.list)
	t.list = append(t.list, s)
	t.index[s] = i
	return i
}

// Resolve returns the text for a previously minted handle.
func (t *SharedStringTable) Resolve(handle int) (string, error) {
	if handle < 0 || handle >= len(t.list) {
		return "", fmt.Errorf("shared string handle %d: %w", handle, ErrOutOfRange)
	}
	return t.list[handle], nil
}

// Count returns the number of unique strings in the table.
func (t *SharedStringTable) Count() int {
	return len(t.list)
}
