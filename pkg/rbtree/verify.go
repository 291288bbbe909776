package rbtree

import (
	"cmp"
	"errors"
	"fmt"
)

// Invariant violations reported by Verify.
var (
	ErrSentinel     = errors.New("sentinel is corrupted")
	ErrRootNotBlack = errors.New("root is not black")
	ErrRedViolation = errors.New("red node has a red child")
	ErrBlackHeight  = errors.New("black-height mismatch")
	ErrOrder        = errors.New("keys are not strictly increasing")
	ErrParentLink   = errors.New("parent link mismatch")
	ErrCount        = errors.New("node count mismatch")
)

// Verify walks the whole tree and checks the red-black invariants, the
// in-order key sequence, the parent links and the node count.
// It is O(n) and meant for tests and diagnostics.
func (tree *Tree[K]) Verify() error {
	nodes := tree.storage()

	if nodes[sentinel].color != Black || nodes[sentinel].left != sentinel ||
		nodes[sentinel].right != sentinel || nodes[sentinel].parent != sentinel {
		return ErrSentinel
	}

	if tree.root == sentinel {
		if tree.count != 0 {
			return fmt.Errorf("%w: empty tree counts %d nodes", ErrCount, tree.count)
		}

		return nil
	}

	if nodes[tree.root].color != Black {
		return ErrRootNotBlack
	}

	if nodes[tree.root].parent != sentinel {
		return fmt.Errorf("%w: root %v has a parent", ErrParentLink, nodes[tree.root].key)
	}

	err := tree.verifyStructure(nodes)
	if err != nil {
		return err
	}

	return tree.verifyOrder(nodes)
}

func (tree *Tree[K]) verifyStructure(nodes []node[K]) error {
	type frame struct {
		slot   uint32
		blacks int
	}

	expectedBlacks := -1
	visited := 0
	stack := []frame{{tree.root, 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := &nodes[top.slot]

		visited++
		if visited > tree.count {
			return fmt.Errorf("%w: more than %d reachable nodes", ErrCount, tree.count)
		}

		if !nd.live {
			return fmt.Errorf("%w: released slot %d is linked", ErrParentLink, top.slot)
		}

		blacks := top.blacks
		if nd.color == Black {
			blacks++
		}

		for _, child := range [2]uint32{nd.left, nd.right} {
			if child == sentinel {
				if expectedBlacks < 0 {
					expectedBlacks = blacks
				} else if blacks != expectedBlacks {
					return fmt.Errorf("%w: %d instead of %d below %v", ErrBlackHeight, blacks, expectedBlacks, nd.key)
				}

				continue
			}

			if nodes[child].parent != top.slot {
				return fmt.Errorf("%w: child %v of %v", ErrParentLink, nodes[child].key, nd.key)
			}

			if nd.color == Red && nodes[child].color == Red {
				return fmt.Errorf("%w: %v -> %v", ErrRedViolation, nd.key, nodes[child].key)
			}

			stack = append(stack, frame{child, blacks})
		}
	}

	if visited != tree.count {
		return fmt.Errorf("%w: %d reachable, %d counted", ErrCount, visited, tree.count)
	}

	return nil
}

func (tree *Tree[K]) verifyOrder(nodes []node[K]) error {
	prev := tree.minimum(tree.root)

	for slot := tree.successor(prev); slot != sentinel; slot = tree.successor(slot) {
		if cmp.Compare(nodes[prev].key, nodes[slot].key) >= 0 {
			return fmt.Errorf("%w: %v before %v", ErrOrder, nodes[prev].key, nodes[slot].key)
		}

		prev = slot
	}

	return nil
}
