package sheetbuf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedStringTable_DedupIdempotence(t *testing.T) {
	st := NewSharedStringTable()

	h1 := st.Insert("red")
	h2 := st.Insert("red")
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, st.Count())

	h3 := st.Insert("green")
	assert.NotEqual(t, h1, h3)
	assert.Equal(t, 2, st.Count())
}

func TestSharedStringTable_ExactEquality(t *testing.T) {
	st := NewSharedStringTable()

	// equality is exact, not normalized
	assert.NotEqual(t, st.Insert("Red"), st.Insert("red"))
	assert.NotEqual(t, st.Insert("red "), st.Insert("red"))
	assert.Equal(t, 3, st.Count())
}

func TestSharedStringTable_DenseHandles(t *testing.T) {
	st := NewSharedStringTable()

	for i, s := range []string{"a", "b", "c"} {
		assert.Equal(t, i, st.Insert(s))
	}
}

func TestSharedStringTable_Resolve(t *testing.T) {
	st := NewSharedStringTable()
	h := st.Insert("status")

	s, err := st.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, "status", s)

	_, err = st.Resolve(st.Count())
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = st.Resolve(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}
