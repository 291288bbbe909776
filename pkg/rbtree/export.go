package rbtree

// ExportSorted fills buf with the keys in increasing order and returns the
// number of keys written, which is min(len(buf), Len()).
func (tree *Tree[K]) ExportSorted(buf []K) int {
	if len(buf) == 0 || tree.root == sentinel {
		return 0
	}

	nodes := tree.storage()
	written := 0

	for slot := tree.minimum(tree.root); slot != sentinel && written < len(buf); slot = tree.successor(slot) {
		buf[written] = nodes[slot].key
		written++
	}

	return written
}

// Keys returns all the keys in increasing order.
func (tree *Tree[K]) Keys() []K {
	keys := make([]K, tree.count)

	return keys[:tree.ExportSorted(keys)]
}

// Destroy releases every node in post-order and then the sentinel, and returns
// the number of nodes released. The tree cannot be used afterwards.
func (tree *Tree[K]) Destroy() int {
	nodes := tree.storage()
	stack := make([]uint32, 0, tree.Height())
	released := 0
	last := sentinel
	cursor := tree.root

	for cursor != sentinel || len(stack) > 0 {
		if cursor != sentinel {
			stack = append(stack, cursor)
			cursor = nodes[cursor].left

			continue
		}

		top := stack[len(stack)-1]

		if right := nodes[top].right; right != sentinel && right != last {
			cursor = right

			continue
		}

		stack = stack[:len(stack)-1]
		tree.allocator.free(top)
		released++
		last = top
	}

	doAssert(released == tree.count)

	tree.allocator.release()
	tree.root = sentinel
	tree.count = 0
	tree.destroyed = true

	return released
}

// Clone performs a deep copy of the tree. The copy has its own arena and
// identity: NodeRefs of the original are not valid in the clone.
func (tree *Tree[K]) Clone() *Tree[K] {
	tree.storage()

	return &Tree[K]{
		allocator: tree.allocator.clone(),
		root:      tree.root,
		count:     tree.count,
		id:        lastTreeID.Add(1),
	}
}
