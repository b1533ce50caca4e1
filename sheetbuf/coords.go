package sheetbuf

import (
	"fmt"
	"strconv"
)

func ColumnNumberAsLetters(n int) string {
	if n < 1 {
		panic("invalid column number")
	}
	var s string
	for n > 0 {
		s = string(rune((n-1)%26+65)) + s
		n = (n - 1) / 26
	}
	return s
}

func CellCoordAsString(col, row int) string {
	if row < 0 {
		panic("invalid row number")
	}
	return ColumnNumberAsLetters(col) + strconv.Itoa(row)
}

// ParseCellCoord parses an A1-style coordinate like "B5" or "$B$5" into
// 1-based column and row numbers.
func ParseCellCoord(s string) (col, row int, err error) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '$' && col == 0 {
			i++
			continue
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			break
		}
		col = col*26 + int(c-'A'+1)
		i++
	}
	if col == 0 || i == len(s) {
		return 0, 0, fmt.Errorf("invalid cell coordinate %q", s)
	}
	if s[i] == '$' {
		i++
	}
	row, err = strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid cell coordinate %q", s)
	}
	return col, row, nil
}
