package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryIndex_AssignFirstSeenOrder(t *testing.T) {
	index := NewCategoryIndex()

	assert.Equal(t, 0, index.Assign("cat"))
	assert.Equal(t, 1, index.Assign("dog"))
	assert.Equal(t, 0, index.Assign("cat"))
	assert.Equal(t, 2, index.Assign("bird"))
	assert.Equal(t, 3, index.Len())
}

func TestCategoryIndex_CodeAndValueAreInverse(t *testing.T) {
	index := NewCategoryIndex()
	values := []string{"red", "green", "blue"}
	for _, v := range values {
		index.Assign(v)
	}

	for _, v := range values {
		code, ok := index.Code(v)
		require.True(t, ok)
		back, ok := index.Value(code)
		require.True(t, ok)
		assert.Equal(t, v, back)
	}

	_, ok := index.Code("never-seen")
	assert.False(t, ok)
	_, ok = index.Value(99)
	assert.False(t, ok)
	_, ok = index.Value(-1)
	assert.False(t, ok)
}

func TestCategoryIndex_PairsInAssignmentOrder(t *testing.T) {
	index := NewCategoryIndex()
	index.Assign("b")
	index.Assign("a")
	index.Assign("c")

	assert.Equal(t, []CategoryPair{
		{Category: "b", Code: 0},
		{Category: "a", Code: 1},
		{Category: "c", Code: 2},
	}, index.Pairs())
}
