package rbtree

import (
	"cmp"
	"errors"
	"slices"
	"sync"
)

// Arena columns packed by Hibernate.
const (
	columnParent = iota
	columnLeft
	columnRight
	columnGen
	columnFlags
	columnFree
	columnCount
)

const (
	flagBlack = 1 << iota
	flagLive
)

type hibernatedArena[K cmp.Ordered] struct {
	columns [columnCount][]byte
	keys    []K
	length  int
	freeLen int
}

// Hibernated reports whether the arena is currently compressed.
func (allocator *Allocator[K]) Hibernated() bool {
	return allocator.storage == nil && allocator.hibernated.length > 0
}

// Hibernate compresses the arena topology. Arenas smaller than
// HibernationThreshold are left as they are. No tree operation may run until
// Boot() is called.
func (allocator *Allocator[K]) Hibernate() {
	if allocator.Hibernated() {
		panic("cannot hibernate an already hibernated Allocator")
	}

	if allocator.storage == nil || len(allocator.storage) < allocator.HibernationThreshold {
		return
	}

	length := len(allocator.storage)
	buffers := [columnFree][]uint32{}

	for idx := range buffers {
		buffers[idx] = make([]uint32, length)
	}

	keys := make([]K, length)

	// We deinterleave to achieve a better compression ratio.
	for idx, nd := range allocator.storage {
		keys[idx] = nd.key
		buffers[columnParent][idx] = nd.parent
		buffers[columnLeft][idx] = nd.left
		buffers[columnRight][idx] = nd.right
		buffers[columnGen][idx] = nd.gen

		if nd.color == Black {
			buffers[columnFlags][idx] |= flagBlack
		}

		if nd.live {
			buffers[columnFlags][idx] |= flagLive
		}
	}

	// Free slots are recycled in ascending order after Boot().
	free := slices.Clone(allocator.freeList)
	slices.SortFunc(free, func(a, b uint32) int { return cmp.Compare(b, a) })
	DeltaEncodeUInt32Slice(free)

	state := hibernatedArena[K]{keys: keys, length: length, freeLen: len(free)}

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx, buffer := range buffers {
		go func(bufIdx int, buf []uint32) {
			defer wg.Done()

			state.columns[bufIdx] = CompressUInt32Slice(buf)
		}(idx, buffer)
	}

	go func() {
		defer wg.Done()

		state.columns[columnFree] = CompressUInt32Slice(free)
	}()

	wg.Wait()

	allocator.storage = nil
	allocator.freeList = nil
	allocator.hibernated = state
}

// Boot performs the opposite of Hibernate() - decompresses and restores the arena.
func (allocator *Allocator[K]) Boot() error {
	if !allocator.Hibernated() {
		return nil
	}

	state := &allocator.hibernated
	buffers := [columnCount][]uint32{}
	errs := [columnCount]error{}

	wg := &sync.WaitGroup{}
	wg.Add(columnCount)

	for idx := range buffers {
		size := state.length
		if idx == columnFree {
			size = state.freeLen
		}

		go func(bufIdx, bufSize int) {
			defer wg.Done()

			buffers[bufIdx] = make([]uint32, bufSize)
			errs[bufIdx] = DecompressUInt32Slice(state.columns[bufIdx], buffers[bufIdx])
		}(idx, size)
	}

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		return err
	}

	storage := make([]node[K], state.length, state.length+state.length/2)

	for idx := range storage {
		nd := &storage[idx]
		nd.key = state.keys[idx]
		nd.parent = buffers[columnParent][idx]
		nd.left = buffers[columnLeft][idx]
		nd.right = buffers[columnRight][idx]
		nd.gen = buffers[columnGen][idx]
		nd.color = buffers[columnFlags][idx]&flagBlack != 0
		nd.live = buffers[columnFlags][idx]&flagLive != 0
	}

	free := buffers[columnFree]
	DeltaDecodeUInt32Slice(free)

	allocator.storage = storage
	allocator.freeList = free
	allocator.hibernated = hibernatedArena[K]{}

	return nil
}

// Hibernate compresses the tree's arena while it is idle. See Allocator.Hibernate.
func (tree *Tree[K]) Hibernate() {
	if tree.destroyed {
		panic("destroyed trees cannot be used")
	}

	tree.allocator.Hibernate()
}

// Boot restores a hibernated tree.
func (tree *Tree[K]) Boot() error {
	if tree.destroyed {
		panic("destroyed trees cannot be used")
	}

	return tree.allocator.Boot()
}
