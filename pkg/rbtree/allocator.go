package rbtree

import (
	"cmp"
	"math"
)

// sentinel is the arena slot reserved for the tree's nil node.
const sentinel uint32 = 0

// maxSlots bounds the arena so that every slot index fits into uint32.
const maxSlots = math.MaxUint32

type node[K cmp.Ordered] struct {
	key                 K
	parent, left, right uint32
	gen                 uint32
	color               Color
	live                bool
}

func (nd *node[K]) child(left bool) uint32 {
	if left {
		return nd.left
	}

	return nd.right
}

func (nd *node[K]) setChild(left bool, slot uint32) {
	if left {
		nd.left = slot
	} else {
		nd.right = slot
	}
}

// Allocator is the node arena owned by a single Tree.
//
// Slot 0 holds the sentinel: it is always black and its links point back
// to itself. Released slots are recycled in LIFO order; every release bumps
// the slot generation so that stale NodeRefs are rejected.
type Allocator[K cmp.Ordered] struct {
	storage  []node[K]
	freeList []uint32

	// HibernationThreshold is the minimal arena size Hibernate() compresses.
	HibernationThreshold int

	hibernated hibernatedArena[K]
}

func newAllocator[K cmp.Ordered]() *Allocator[K] {
	return &Allocator[K]{
		storage:  []node[K]{{color: Black}},
		freeList: []uint32{},
	}
}

// Size returns the number of arena slots, including the sentinel and free slots.
func (allocator *Allocator[K]) Size() int {
	if allocator.storage == nil {
		return allocator.hibernated.length
	}

	return len(allocator.storage)
}

// Used returns the number of live nodes held by the arena.
func (allocator *Allocator[K]) Used() int {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	return len(allocator.storage) - 1 - len(allocator.freeList)
}

// malloc acquires a fully initialised red leaf holding key. No tree link is
// touched, so a panic here leaves the tree as it was.
func (allocator *Allocator[K]) malloc(key K) uint32 {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	var slot uint32

	if last := len(allocator.freeList) - 1; last >= 0 {
		slot = allocator.freeList[last]
		allocator.freeList = allocator.freeList[:last]
	} else {
		if uint64(len(allocator.storage)) >= maxSlots {
			panic("the rbtree arena has reached the maximum value for uint32")
		}

		slot = uint32(len(allocator.storage))
		allocator.storage = append(allocator.storage, node[K]{})
	}

	nd := &allocator.storage[slot]
	nd.key = key
	nd.parent = sentinel
	nd.left = sentinel
	nd.right = sentinel
	nd.color = Red
	nd.live = true

	return slot
}

func (allocator *Allocator[K]) free(slot uint32) {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}

	if slot == sentinel {
		panic("the sentinel cannot be released while the tree is alive")
	}

	doAssert(allocator.storage[slot].live)

	allocator.storage[slot] = node[K]{gen: allocator.storage[slot].gen + 1}
	allocator.freeList = append(allocator.freeList, slot)
}

// release drops the whole arena, sentinel included.
func (allocator *Allocator[K]) release() {
	allocator.storage = nil
	allocator.freeList = nil
	allocator.hibernated = hibernatedArena[K]{}
}

func (allocator *Allocator[K]) clone() *Allocator[K] {
	if allocator.storage == nil {
		panic("cannot clone a hibernated allocator")
	}

	return &Allocator[K]{
		storage:              append(make([]node[K], 0, cap(allocator.storage)), allocator.storage...),
		freeList:             append([]uint32{}, allocator.freeList...),
		HibernationThreshold: allocator.HibernationThreshold,
	}
}
