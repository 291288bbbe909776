package rbtree //nolint:testpackage // tests corrupt the arena directly.

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyDetectsCorruption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		corrupt func(tree *Tree[int])
		err     error
	}{
		{
			name:    "red root",
			corrupt: func(tree *Tree[int]) { tree.storage()[tree.root].color = Red },
			err:     ErrRootNotBlack,
		},
		{
			name: "red sentinel",
			corrupt: func(tree *Tree[int]) {
				tree.storage()[sentinel].color = Red
			},
			err: ErrSentinel,
		},
		{
			name: "red-red edge",
			corrupt: func(tree *Tree[int]) {
				nodes := tree.storage()
				nodes[tree.Find(4).slot].color = Red
				nodes[tree.Find(6).slot].color = Red
			},
			err: ErrRedViolation,
		},
		{
			name: "black-height",
			corrupt: func(tree *Tree[int]) {
				tree.storage()[tree.Find(7).slot].color = Black
			},
			err: ErrBlackHeight,
		},
		{
			name: "order",
			corrupt: func(tree *Tree[int]) {
				tree.storage()[tree.Find(1).slot].key = 100
			},
			err: ErrOrder,
		},
		{
			name: "parent link",
			corrupt: func(tree *Tree[int]) {
				tree.storage()[tree.Find(3).slot].parent = tree.Find(7).slot
			},
			err: ErrParentLink,
		},
		{
			name:    "count",
			corrupt: func(tree *Tree[int]) { tree.count++ },
			err:     ErrCount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// 2B(1B,4R(3B,6B(5R,7R)))
			tree := testNewIntSet(t, 1, 2, 3, 4, 5, 6, 7)
			tc.corrupt(tree)

			require.ErrorIs(t, tree.Verify(), tc.err)
		})
	}
}
