package rbtree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/ordtree/pkg/rbtree"
)

// Delta encoding test constants.
const (
	deltaTestSize     = 1000
	deltaTestConstVal = 7
	deltaSortStep     = 3
)

func TestCompressDecompressUInt32Slice(t *testing.T) {
	t.Parallel()

	data := make([]uint32, deltaTestSize)
	for idx := range data {
		data[idx] = deltaTestConstVal
	}

	packed := rbtree.CompressUInt32Slice(data)

	// Repetitive data must actually shrink.
	assert.Less(t, len(packed), len(data)*4)

	restored := make([]uint32, len(data))
	require.NoError(t, rbtree.DecompressUInt32Slice(packed, restored))
	assert.Equal(t, data, restored)
}

func TestCompressIncompressible(t *testing.T) {
	t.Parallel()

	data := []uint32{0xdeadbeef, 0x01234567, 0x89abcdef}
	packed := rbtree.CompressUInt32Slice(data)

	restored := make([]uint32, len(data))
	require.NoError(t, rbtree.DecompressUInt32Slice(packed, restored))
	assert.Equal(t, data, restored)
}

func TestCompressEmpty(t *testing.T) {
	t.Parallel()

	packed := rbtree.CompressUInt32Slice(nil)
	require.NotEmpty(t, packed)
	require.NoError(t, rbtree.DecompressUInt32Slice(packed, []uint32{}))
}

func TestDecompressCorrupt(t *testing.T) {
	t.Parallel()

	packed := rbtree.CompressUInt32Slice([]uint32{1, 2, 3})

	require.ErrorIs(t, rbtree.DecompressUInt32Slice(nil, make([]uint32, 3)), rbtree.ErrCorruptColumn)
	require.ErrorIs(t, rbtree.DecompressUInt32Slice([]byte{9}, make([]uint32, 3)), rbtree.ErrCorruptColumn)
	require.ErrorIs(t, rbtree.DecompressUInt32Slice(packed, make([]uint32, 4)), rbtree.ErrCorruptColumn)
}

func TestDeltaEncodeSortedAscending(t *testing.T) {
	t.Parallel()

	original := make([]uint32, deltaTestSize)
	for i := range original {
		original[i] = uint32(i * deltaSortStep)
	}

	data := append([]uint32{}, original...)

	rbtree.DeltaEncodeUInt32Slice(data)
	assert.Equal(t, original[0], data[0])

	for i := 1; i < len(data); i++ {
		assert.Equal(t, uint32(deltaSortStep), data[i], "delta at index %d", i)
	}

	rbtree.DeltaDecodeUInt32Slice(data)
	assert.Equal(t, original, data)
}

func TestDeltaEncodeWraps(t *testing.T) {
	t.Parallel()

	original := []uint32{0, 1, ^uint32(0), ^uint32(0) - 1, 0}
	data := append([]uint32{}, original...)

	rbtree.DeltaEncodeUInt32Slice(data)
	rbtree.DeltaDecodeUInt32Slice(data)

	assert.Equal(t, original, data)
}

func BenchmarkInsertErase(b *testing.B) {
	for range b.N {
		tree := rbtree.New[int]()
		for key := range 1024 {
			tree.Insert(key)
		}

		for key := range 1024 {
			tree.EraseKey(key)
		}
	}
}
