// Package rbtree provides an order-preserving red-black tree with O(log n)
// worst-case insert, erase, lookup, minimum/maximum and ordered export.
//
// Nodes live in an arena owned by the tree and address each other by slot
// index. Slot 0 is the tree's sentinel: a black node that stands in for every
// absent child and for the root's parent, so the balancing code never checks
// for nil. Callers hold NodeRef handles, which carry the owning tree and the
// slot generation and therefore cannot be confused across trees or after the
// node has been released.
//
// A Tree is not safe for concurrent use. Serialize access externally if it
// is shared between goroutines.
package rbtree

import (
	"cmp"
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrInvalidArgument is returned when a NodeRef is nil, the sentinel, stale,
	// or belongs to another tree.
	ErrInvalidArgument = errors.New("invalid node reference")
	// ErrEmptyTree is returned by operations that require at least one node.
	ErrEmptyTree = errors.New("tree is empty")
)

// Color is the colour of a tree node.
type Color bool

// Node colours.
const (
	Red   Color = false
	Black Color = true
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}

	return "red"
}

// NodeRef is a handle to a node of a particular Tree.
//
// The zero value, Nil, is the "no node" marker returned on lookup misses.
type NodeRef struct {
	owner uint32
	slot  uint32
	gen   uint32
}

// Nil is the sentinel-equivalent NodeRef.
var Nil = NodeRef{}

// IsNil reports whether the reference points at no node.
func (ref NodeRef) IsNil() bool {
	return ref.slot == sentinel
}

func (ref NodeRef) String() string {
	if ref.IsNil() {
		return "nil"
	}

	return fmt.Sprintf("#%d.%d@%d", ref.slot, ref.gen, ref.owner)
}

var lastTreeID atomic.Uint32

// Tree is a red-black tree of unique keys.
type Tree[K cmp.Ordered] struct {
	allocator *Allocator[K]
	root      uint32
	count     int
	id        uint32
	destroyed bool
}

// New creates an empty tree with its own arena and sentinel.
func New[K cmp.Ordered]() *Tree[K] {
	return &Tree[K]{
		allocator: newAllocator[K](),
		root:      sentinel,
		id:        lastTreeID.Add(1),
	}
}

// Allocator returns the arena owned by the tree.
func (tree *Tree[K]) Allocator() *Allocator[K] {
	return tree.allocator
}

func (tree *Tree[K]) storage() []node[K] {
	if tree.destroyed {
		panic("destroyed trees cannot be used")
	}

	if tree.allocator.storage == nil {
		panic("hibernated trees cannot be used")
	}

	return tree.allocator.storage
}

// Len returns the number of keys in the tree.
func (tree *Tree[K]) Len() int {
	return tree.count
}

// Empty reports whether the tree holds no keys.
func (tree *Tree[K]) Empty() bool {
	return tree.count == 0
}

// Root returns the root node, or Nil for an empty tree.
func (tree *Tree[K]) Root() NodeRef {
	return tree.ref(tree.root)
}

// Find returns the node holding key, or Nil.
func (tree *Tree[K]) Find(key K) NodeRef {
	nodes := tree.storage()
	cursor := tree.root

	for cursor != sentinel {
		switch comp := cmp.Compare(key, nodes[cursor].key); {
		case comp == 0:
			return tree.ref(cursor)
		case comp < 0:
			cursor = nodes[cursor].left
		default:
			cursor = nodes[cursor].right
		}
	}

	return Nil
}

// Contains reports whether key is stored in the tree.
func (tree *Tree[K]) Contains(key K) bool {
	return !tree.Find(key).IsNil()
}

// Min returns the node with the smallest key, or Nil for an empty tree.
func (tree *Tree[K]) Min() NodeRef {
	if tree.root == sentinel {
		return Nil
	}

	return tree.ref(tree.minimum(tree.root))
}

// Max returns the node with the largest key, or Nil for an empty tree.
func (tree *Tree[K]) Max() NodeRef {
	if tree.root == sentinel {
		return Nil
	}

	return tree.ref(tree.maximum(tree.root))
}

// MinKey returns the smallest key.
func (tree *Tree[K]) MinKey() (K, error) {
	ref := tree.Min()
	if ref.IsNil() {
		var zero K

		return zero, fmt.Errorf("min: %w", ErrEmptyTree)
	}

	return tree.Key(ref), nil
}

// MaxKey returns the largest key.
func (tree *Tree[K]) MaxKey() (K, error) {
	ref := tree.Max()
	if ref.IsNil() {
		var zero K

		return zero, fmt.Errorf("max: %w", ErrEmptyTree)
	}

	return tree.Key(ref), nil
}

// Key returns the key held by ref.
//
// REQUIRES: ref is a live node of this tree. The key of a node may change when
// it is erased while having two children: see Erase.
func (tree *Tree[K]) Key(ref NodeRef) K {
	return tree.storage()[tree.mustResolve(ref)].key
}

// Color returns the colour of ref. Nil is black, like the sentinel.
func (tree *Tree[K]) Color(ref NodeRef) Color {
	if ref.IsNil() {
		return Black
	}

	return tree.storage()[tree.mustResolve(ref)].color
}

// Left returns the left child of ref, or Nil.
func (tree *Tree[K]) Left(ref NodeRef) NodeRef {
	return tree.ref(tree.storage()[tree.mustResolve(ref)].left)
}

// Right returns the right child of ref, or Nil.
func (tree *Tree[K]) Right(ref NodeRef) NodeRef {
	return tree.ref(tree.storage()[tree.mustResolve(ref)].right)
}

// Parent returns the parent of ref, or Nil for the root.
func (tree *Tree[K]) Parent(ref NodeRef) NodeRef {
	return tree.ref(tree.storage()[tree.mustResolve(ref)].parent)
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (tree *Tree[K]) Height() int {
	nodes := tree.storage()

	type frame struct {
		slot  uint32
		depth int
	}

	height := 0
	stack := []frame{{tree.root, 1}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.slot == sentinel {
			continue
		}

		height = max(height, top.depth)
		stack = append(stack,
			frame{nodes[top.slot].left, top.depth + 1},
			frame{nodes[top.slot].right, top.depth + 1})
	}

	return height
}

// BlackHeight returns the number of black nodes below the root on any path
// to the sentinel. The root and the sentinel are not counted.
func (tree *Tree[K]) BlackHeight() int {
	nodes := tree.storage()
	height := 0

	if tree.root == sentinel {
		return 0
	}

	for cursor := nodes[tree.root].left; cursor != sentinel; cursor = nodes[cursor].left {
		if nodes[cursor].color == Black {
			height++
		}
	}

	return height
}

func (tree *Tree[K]) ref(slot uint32) NodeRef {
	if slot == sentinel {
		return Nil
	}

	return NodeRef{owner: tree.id, slot: slot, gen: tree.storage()[slot].gen}
}

// resolve maps ref to a live slot of this tree.
func (tree *Tree[K]) resolve(ref NodeRef) (uint32, error) {
	if ref.IsNil() {
		return sentinel, fmt.Errorf("%w: nil", ErrInvalidArgument)
	}

	if ref.owner != tree.id {
		return sentinel, fmt.Errorf("%w: %v belongs to another tree", ErrInvalidArgument, ref)
	}

	nodes := tree.storage()

	if int(ref.slot) >= len(nodes) || !nodes[ref.slot].live || nodes[ref.slot].gen != ref.gen {
		return sentinel, fmt.Errorf("%w: %v was released", ErrInvalidArgument, ref)
	}

	return ref.slot, nil
}

func (tree *Tree[K]) mustResolve(ref NodeRef) uint32 {
	slot, err := tree.resolve(ref)
	if err != nil {
		panic(err)
	}

	return slot
}

func (tree *Tree[K]) minimum(slot uint32) uint32 {
	nodes := tree.storage()

	for nodes[slot].left != sentinel {
		slot = nodes[slot].left
	}

	return slot
}

func (tree *Tree[K]) maximum(slot uint32) uint32 {
	nodes := tree.storage()

	for nodes[slot].right != sentinel {
		slot = nodes[slot].right
	}

	return slot
}

// successor returns the in-order successor of slot, or the sentinel.
func (tree *Tree[K]) successor(slot uint32) uint32 {
	nodes := tree.storage()

	if nodes[slot].right != sentinel {
		return tree.minimum(nodes[slot].right)
	}

	parent := nodes[slot].parent

	for parent != sentinel && slot == nodes[parent].right {
		slot = parent
		parent = nodes[parent].parent
	}

	return parent
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}
