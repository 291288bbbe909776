package rbtree

// Erase removes the node referenced by ref.
//
// When the node has two children its key is overwritten with the key of its
// in-order successor and the successor's node is released instead. A caller
// holding ref therefore keeps a valid reference that now carries the next key,
// while references to the successor become stale.
//
// Erase returns ErrInvalidArgument, leaving the tree untouched, if ref is Nil,
// stale, or belongs to another tree.
func (tree *Tree[K]) Erase(ref NodeRef) error {
	nodeIdx, err := tree.resolve(ref)
	if err != nil {
		return err
	}

	tree.doErase(nodeIdx)

	return nil
}

// EraseKey removes key from the tree. Returns true iff the key was found.
func (tree *Tree[K]) EraseKey(key K) bool {
	ref := tree.Find(key)
	if ref.IsNil() {
		return false
	}

	tree.doErase(ref.slot)

	return true
}

func (tree *Tree[K]) doErase(nodeIdx uint32) {
	nodes := tree.storage()

	removed := nodeIdx
	if nodes[nodeIdx].left != sentinel && nodes[nodeIdx].right != sentinel {
		removed = tree.minimum(nodes[nodeIdx].right)
		nodes[nodeIdx].key = nodes[removed].key
	}

	removedColor := nodes[removed].color

	child := nodes[removed].left
	if child == sentinel {
		child = nodes[removed].right
	}

	tree.transplant(removed, child)
	tree.allocator.free(removed)
	tree.count--

	// Removing a red node never changes a black-height.
	if removedColor == Black {
		tree.eraseFixup(child)
	}

	nodes[sentinel].parent = sentinel
}

// transplant puts replacement in the place of old under old's parent.
// The sentinel's parent is set too so that eraseFixup can climb from it.
func (tree *Tree[K]) transplant(old, replacement uint32) {
	nodes := tree.storage()
	parent := nodes[old].parent

	switch {
	case parent == sentinel:
		tree.root = replacement
	case old == nodes[parent].left:
		nodes[parent].left = replacement
	default:
		nodes[parent].right = replacement
	}

	nodes[replacement].parent = parent
}

// eraseFixup removes the extra black carried by nodeIdx after a black node
// was spliced out above it.
func (tree *Tree[K]) eraseFixup(nodeIdx uint32) {
	nodes := tree.storage()

	for nodeIdx != tree.root && nodes[nodeIdx].color == Black {
		parent := nodes[nodeIdx].parent
		isLeft := nodeIdx == nodes[parent].left
		sibling := nodes[parent].child(!isLeft)

		// Case 1: red sibling. Rotate it above the parent so the new sibling is black.
		if nodes[sibling].color == Red {
			nodes[sibling].color = Black
			nodes[parent].color = Red
			tree.rotate(parent, isLeft)
			sibling = nodes[parent].child(!isLeft)
		}

		near := nodes[sibling].child(isLeft)
		far := nodes[sibling].child(!isLeft)

		// Case 2: both nephews black. Push the deficit up to the parent.
		if nodes[near].color == Black && nodes[far].color == Black {
			nodes[sibling].color = Red
			nodeIdx = parent

			continue
		}

		// Case 3: only the near nephew is red. Turn it into the far one.
		if nodes[far].color == Black {
			nodes[near].color = Black
			nodes[sibling].color = Red
			tree.rotate(sibling, !isLeft)
			sibling = nodes[parent].child(!isLeft)
			far = nodes[sibling].child(!isLeft)
		}

		// Case 4: far nephew red. One rotation at the parent absorbs the deficit.
		nodes[sibling].color = nodes[parent].color
		nodes[parent].color = Black
		nodes[far].color = Black
		tree.rotate(parent, isLeft)
		nodeIdx = tree.root
	}

	nodes[nodeIdx].color = Black
}
