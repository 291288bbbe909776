package rbtree

// rotate performs a tree rotation around pivot.
// isLeft=true performs a left rotation, isLeft=false a right rotation.
// Colours and the in-order sequence are left untouched.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[K]) rotate(pivot uint32, isLeft bool) {
	nodes := tree.storage()

	// A left rotation promotes the right child and vice versa.
	child := nodes[pivot].child(!isLeft)
	doAssert(pivot != sentinel && child != sentinel)

	// Move the inner subtree.
	inner := nodes[child].child(isLeft)
	nodes[pivot].setChild(!isLeft, inner)

	if inner != sentinel {
		nodes[inner].parent = pivot
	}

	// Update parent links.
	parent := nodes[pivot].parent
	nodes[child].parent = parent

	switch {
	case parent == sentinel:
		tree.root = child
	case pivot == nodes[parent].left:
		nodes[parent].left = child
	default:
		nodes[parent].right = child
	}

	// Complete the rotation.
	nodes[child].setChild(isLeft, pivot)
	nodes[pivot].parent = child
}

func (tree *Tree[K]) rotateLeft(pivot uint32) {
	tree.rotate(pivot, true)
}

func (tree *Tree[K]) rotateRight(pivot uint32) {
	tree.rotate(pivot, false)
}
