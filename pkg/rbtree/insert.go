package rbtree

import "cmp"

// Insert adds key to the tree and returns its node. If the key is already
// present the existing node is returned and the tree is not modified.
func (tree *Tree[K]) Insert(key K) NodeRef {
	nodes := tree.storage()
	parent := sentinel
	cursor := tree.root
	comp := 0

	for cursor != sentinel {
		parent = cursor
		comp = cmp.Compare(key, nodes[cursor].key)

		switch {
		case comp == 0:
			return tree.ref(cursor)
		case comp < 0:
			cursor = nodes[cursor].left
		default:
			cursor = nodes[cursor].right
		}
	}

	// The arena may grow, so the storage slice is fetched again.
	nodeIdx := tree.allocator.malloc(key)
	nodes = tree.storage()
	nodes[nodeIdx].parent = parent

	switch {
	case parent == sentinel:
		tree.root = nodeIdx
	case comp < 0:
		nodes[parent].left = nodeIdx
	default:
		nodes[parent].right = nodeIdx
	}

	tree.count++
	tree.insertFixup(nodeIdx)

	return tree.ref(nodeIdx)
}

// insertFixup restores the red-black properties after nodeIdx was linked as
// a red leaf. Only a red parent can be in violation.
func (tree *Tree[K]) insertFixup(nodeIdx uint32) {
	nodes := tree.storage()

	for nodes[nodes[nodeIdx].parent].color == Red {
		parent := nodes[nodeIdx].parent
		grandparent := nodes[parent].parent
		parentIsLeft := parent == nodes[grandparent].left
		uncle := nodes[grandparent].child(!parentIsLeft)

		// Case 1: parent and uncle are both red.
		// Then paint both black and make grandparent red.
		if nodes[uncle].color == Red {
			nodes[parent].color = Black
			nodes[uncle].color = Black
			nodes[grandparent].color = Red
			nodeIdx = grandparent

			continue
		}

		// Case 2: the node is the inner grandchild; turn it into the outer one.
		if nodeIdx == nodes[parent].child(!parentIsLeft) {
			nodeIdx = parent
			tree.rotate(nodeIdx, parentIsLeft)
			parent = nodes[nodeIdx].parent
		}

		// Case 3: the node is the outer grandchild.
		nodes[parent].color = Black
		nodes[grandparent].color = Red
		tree.rotate(grandparent, !parentIsLeft)

		break
	}

	nodes[tree.root].color = Black
}
