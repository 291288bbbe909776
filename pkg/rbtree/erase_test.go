package rbtree //nolint:testpackage // tests require access to unexported fields (storage, root, sentinel, etc.)

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEraseRedLeaf(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet(t, 10, 20, 30, 40, 50)
	require.Equal(t, "20B(10B,40B(30R,50R))", shape(tree))

	require.NoError(t, tree.Erase(tree.Find(30)))
	require.NoError(t, tree.Verify())
	assert.Equal(t, []int{10, 20, 40, 50}, tree.Keys())
	assert.Equal(t, "20B(10B,40B(.,50R))", shape(tree))
}

func TestEraseTwoChildrenCopiesSuccessor(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet(t, 10, 20, 30, 40, 50)
	root := tree.Root()
	successor := tree.Find(30)

	require.NoError(t, tree.Erase(root))
	require.NoError(t, tree.Verify())
	assert.Equal(t, []int{10, 30, 40, 50}, tree.Keys())
	assert.Equal(t, "30B(10B,40B(.,50R))", shape(tree))

	// The erased reference now carries the successor's key.
	assert.Equal(t, 30, tree.Key(root))
	assert.Equal(t, root, tree.Find(30))
	require.ErrorIs(t, tree.Erase(successor), ErrInvalidArgument)
}

func TestEraseFixupCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		keys     []int
		erase    []int
		expected string
	}{
		{"case 2 propagates to root", []int{1, 2, 3, 4}, []int{4, 1}, "2B(.,3R)"},
		{"case 3 then 4", []int{10, 20, 30, 40, 50}, []int{50, 10}, "30B(20B,40B)"},
		{"case 4", []int{10, 20, 30, 40, 50}, []int{10}, "40B(20B(.,30R),50B)"},
		{"case 1 then 2", []int{1, 2, 3, 4, 5, 6}, []int{1}, "4B(2B(.,3R),5B(.,6R))"},
		{"mirrored case 4", []int{50, 40, 30, 20, 10}, []int{50}, "20B(10B,40B(30R,.))"},
		{"red child replaces black", []int{2, 1, 3, 4}, []int{3}, "2B(1B,4B)"},
		{"last node", []int{1}, []int{1}, "."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tree := testNewIntSet(t, tc.keys...)

			for _, key := range tc.erase {
				require.NoError(t, tree.Erase(tree.Find(key)))
				require.NoError(t, tree.Verify())
			}

			assert.Equal(t, tc.expected, shape(tree))
		})
	}
}

func TestEraseInvalid(t *testing.T) {
	t.Parallel()

	empty := New[int]()
	require.ErrorIs(t, empty.Erase(Nil), ErrInvalidArgument)
	require.ErrorIs(t, empty.Erase(empty.Find(1)), ErrInvalidArgument)
	require.ErrorIs(t, empty.Erase(empty.Root()), ErrInvalidArgument)

	tree := testNewIntSet(t, 1, 2, 3)
	other := testNewIntSet(t, 1, 2, 3)
	before := shape(tree)

	require.ErrorIs(t, tree.Erase(Nil), ErrInvalidArgument)
	require.ErrorIs(t, tree.Erase(tree.Find(7)), ErrInvalidArgument)
	require.ErrorIs(t, tree.Erase(other.Find(2)), ErrInvalidArgument)
	require.ErrorIs(t, empty.Erase(tree.Find(2)), ErrInvalidArgument)

	// A forged slot beyond the arena.
	require.ErrorIs(t, tree.Erase(NodeRef{owner: tree.id, slot: 99}), ErrInvalidArgument)

	assert.Equal(t, before, shape(tree))
	assert.Equal(t, 3, tree.Len())
	require.NoError(t, tree.Verify())
}

func TestEraseAll(t *testing.T) {
	t.Parallel()

	orders := map[string][]int{
		"ascending":  {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		"descending": {15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		"outside-in": {0, 15, 1, 14, 2, 13, 3, 12, 4, 11, 5, 10, 6, 9, 7, 8},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tree := New[int]()
			for key := range 16 {
				tree.Insert(key)
			}

			for erased, key := range order {
				require.True(t, tree.EraseKey(key))
				require.NoError(t, tree.Verify())
				assert.Equal(t, 16-erased-1, tree.Len())
			}

			assert.True(t, tree.Empty())
			assert.True(t, tree.Root().IsNil())
			assert.Equal(t, 0, tree.Allocator().Used())
		})
	}
}

func TestEraseResetsSentinel(t *testing.T) {
	t.Parallel()

	tree := testNewIntSet(t, 1, 2, 3, 4, 5)
	require.True(t, tree.EraseKey(1))

	nodes := tree.storage()
	assert.Equal(t, sentinel, nodes[sentinel].parent)
	assert.Equal(t, Black, nodes[sentinel].color)
}
