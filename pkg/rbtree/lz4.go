package rbtree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// ErrCorruptColumn is returned when a packed column cannot be restored.
var ErrCorruptColumn = errors.New("corrupt packed column")

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Packed column encodings, stored in the first byte.
const (
	columnRaw byte = iota
	columnLZ4
)

// CompressUInt32Slice packs a slice of uint32-s, compressed with LZ4 unless
// the data is incompressible, in which case it is stored as is.
func CompressUInt32Slice(data []uint32) []byte {
	raw := make([]byte, 0, len(data)*uint32ByteSize)
	for _, value := range data {
		raw = binary.LittleEndian.AppendUint32(raw, value)
	}

	if len(raw) == 0 {
		return []byte{columnRaw}
	}

	compressed := make([]byte, 1+lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, compressed[1:], nil)
	if err != nil || written == 0 {
		return append([]byte{columnRaw}, raw...)
	}

	compressed[0] = columnLZ4

	return compressed[:1+written]
}

// DecompressUInt32Slice restores a slice packed by CompressUInt32Slice.
// `result` must be preallocated with the original length.
func DecompressUInt32Slice(data []byte, result []uint32) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", ErrCorruptColumn)
	}

	expected := len(result) * uint32ByteSize
	raw := data[1:]

	switch data[0] {
	case columnRaw:
	case columnLZ4:
		raw = make([]byte, expected)

		read, err := lz4.UncompressBlock(data[1:], raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptColumn, err)
		}

		raw = raw[:read]
	default:
		return fmt.Errorf("%w: unknown encoding %d", ErrCorruptColumn, data[0])
	}

	if len(raw) != expected {
		return fmt.Errorf("%w: %d bytes instead of %d", ErrCorruptColumn, len(raw), expected)
	}

	for idx := range result {
		result[idx] = binary.LittleEndian.Uint32(raw[idx*uint32ByteSize:])
	}

	return nil
}

// DeltaEncodeUInt32Slice replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged. This transforms
// sorted sequences into small, repetitive values that compress better with LZ4.
func DeltaEncodeUInt32Slice(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecodeUInt32Slice performs a prefix-sum to restore original values from
// deltas produced by DeltaEncodeUInt32Slice. The operation is performed in place.
func DeltaDecodeUInt32Slice(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
