package sheetbuf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkbook_AddSheet(t *testing.T) {
	wb := NewWorkbook()

	s1, err := wb.AddSheet("Data")
	require.NoError(t, err)
	require.NotNil(t, s1)

	_, err = wb.AddSheet("Data")
	assert.Error(t, err, "duplicate names are rejected")

	_, err = wb.AddSheet("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Summary"}, wb.SheetNames())

	assert.Same(t, s1, wb.Sheet("Data"))
	assert.Nil(t, wb.Sheet("Missing"))
}

func TestWorkbook_SheetNameValidation(t *testing.T) {
	wb := NewWorkbook()

	for _, name := range []string{
		"",
		strings.Repeat("x", 32),
		"'leading",
		"trailing'",
		"a:b",
		"a[b]",
	} {
		_, err := wb.AddSheet(name)
		assert.Error(t, err, "name %q should be rejected", name)
	}

	_, err := wb.AddSheet(strings.Repeat("x", 31))
	assert.NoError(t, err)
}

func TestWorkbook_RemoveSheet(t *testing.T) {
	wb := NewWorkbook()
	_, err := wb.AddSheet("A")
	require.NoError(t, err)
	_, err = wb.AddSheet("B")
	require.NoError(t, err)

	require.NoError(t, wb.RemoveSheet("A"))
	assert.Equal(t, []string{"B"}, wb.SheetNames())
	assert.Nil(t, wb.Sheet("A"))

	assert.Error(t, wb.RemoveSheet("A"))

	// the name is reusable after removal
	_, err = wb.AddSheet("A")
	assert.NoError(t, err)
}

func TestWorkbook_TablesSharedAcrossSheets(t *testing.T) {
	wb := NewWorkbook()
	s1, err := wb.AddSheet("A")
	require.NoError(t, err)
	s2, err := wb.AddSheet("B")
	require.NoError(t, err)

	require.NoError(t, s1.SetSharedText(1, 1, "shared"))
	require.NoError(t, s2.SetSharedText(9, 9, "shared"))
	assert.Equal(t, 1, wb.Strings().Count())

	h1, _ := s1.GetCell(1, 1).Value.SharedString()
	h2, _ := s2.GetCell(9, 9).Value.SharedString()
	assert.Equal(t, h1, h2)
}

func TestWorkbook_IndependentWorkbooks(t *testing.T) {
	wb1 := NewWorkbook()
	wb2 := NewWorkbook()

	wb1.Strings().Insert("only in wb1")
	assert.Equal(t, 1, wb1.Strings().Count())
	assert.Equal(t, 0, wb2.Strings().Count())
}

func TestSnapshot_Isolation(t *testing.T) {
	wb := NewWorkbook()
	s, err := wb.AddSheet("Data")
	require.NoError(t, err)
	require.NoError(t, s.SetCell(1, 1, NumberValue(1)))
	require.NoError(t, s.SetSharedText(2, 1, "before"))

	sn := wb.Snapshot()

	// later writes are not observed by the snapshot
	require.NoError(t, s.SetCell(1, 1, NumberValue(99)))
	require.NoError(t, s.SetCell(3, 1, BoolValue(true)))

	v, ok := sn.Value("Data", 1, 1)
	require.True(t, ok)
	assert.True(t, v.Equal(NumberValue(1)))

	_, ok = sn.Value("Data", 3, 1)
	assert.False(t, ok)

	v, ok = sn.Value("Data", 2, 1)
	require.True(t, ok)
	h, _ := v.SharedString()
	text, err := sn.ResolveString(h)
	require.NoError(t, err)
	assert.Equal(t, "before", text)

	assert.Equal(t, []string{"Data"}, sn.SheetNames())
}

func TestSnapshot_EvaluatorWriteBack(t *testing.T) {
	wb := NewWorkbook()
	s, err := wb.AddSheet("Calc")
	require.NoError(t, err)
	require.NoError(t, s.SetCell(1, 1, NumberValue(2)))
	require.NoError(t, s.SetCell(1, 2, FormulaValue("A1*2", nil)))

	// an external evaluator reads the snapshot and persists its result
	sn := wb.Snapshot()
	v, ok := sn.Value("Calc", 1, 1)
	require.True(t, ok)
	n, _ := v.Number()
	result := NumberValue(n * 2)
	require.NoError(t, s.SetCell(1, 2, FormulaValue("A1*2", &result)))

	_, cached, ok := s.GetCell(1, 2).Value.Formula()
	require.True(t, ok)
	require.NotNil(t, cached)
	assert.True(t, cached.Equal(NumberValue(4)))
}
