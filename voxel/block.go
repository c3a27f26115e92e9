// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package voxel

import (
	"fmt"
	"unsafe"

	"github.com/blockvol/blockvol/ints"
)

// minBlockSide and maxBlockSide bound the block side length.
// The upper bound limits the cost of a single
// (un)compression to 16Mi voxels.
const (
	minBlockSide = 2
	maxBlockSide = 256
)

// Block is a cubic tile of voxels with a power-of-two side
// length. At any moment exactly one representation is
// authoritative: the flat uncompressed buffer (x-fastest,
// then y, then z) or the run-length pair lists. Blocks are
// created and paged by a Volume; the Volume performs all
// external bounds checking before delegating here.
type Block[T comparable] struct {
	side int

	// data is the uncompressed buffer; nil while compressed.
	data []T

	// runLengths/runValues encode the buffer as run-length
	// pairs; every length is in [1,255] and the lengths sum
	// to side^3. Empty lists mean one implicit run of the
	// zero value covering the whole block.
	runLengths []uint8
	runValues  []T

	compressed bool
	dirty      bool

	// timestamp is set by the owning volume on every access
	// to the uncompressed buffer; the residency policy
	// evicts the smallest one.
	timestamp uint64
}

// NewBlock constructs a compressed block holding the zero
// value of T everywhere. The side length must be a power of
// two in [2,256].
func NewBlock[T comparable](side int) (*Block[T], error) {
	if err := checkBlockSide(side); err != nil {
		return nil, err
	}
	return &Block[T]{
		side:       side,
		compressed: true,
	}, nil
}

// newFilled constructs a compressed block holding v
// everywhere. The caller must have validated side.
func newFilled[T comparable](side int, v T) *Block[T] {
	b := &Block[T]{
		side:       side,
		compressed: true,
	}
	var zero T
	if v != zero {
		b.setRunsFilled(v)
	}
	return b
}

func checkBlockSide(side int) error {
	if !ints.IsPowerOfTwo(side) || side < minBlockSide || side > maxBlockSide {
		return fmt.Errorf("voxel: block side length %d not a power of two in [%d,%d]: %w",
			side, minBlockSide, maxBlockSide, ErrInvalidArgument)
	}
	return nil
}

// Side returns the side length of the block.
func (b *Block[T]) Side() int { return b.side }

// IsCompressed reports whether the run-length form is the
// authoritative representation.
func (b *Block[T]) IsCompressed() bool { return b.compressed }

// Get reads the voxel at the in-block position (x, y, z).
// The block must be uncompressed; calling Get on a
// compressed block panics.
func (b *Block[T]) Get(x, y, z int) T {
	return b.data[x+y*b.side+z*b.side*b.side]
}

// Set writes the voxel at the in-block position (x, y, z)
// and marks the buffer dirty. The block must be
// uncompressed; calling Set on a compressed block panics.
func (b *Block[T]) Set(x, y, z int, v T) {
	b.data[x+y*b.side+z*b.side*b.side] = v
	b.dirty = true
}

// Fill writes v to every voxel in the block. The block must
// be uncompressed.
func (b *Block[T]) Fill(v T) {
	if b.data == nil {
		panic("voxel: Fill on a compressed block")
	}
	fillSlice(b.data, v)
	b.dirty = true
}

// Resize changes the side length. The uncompressed buffer,
// if present, is reallocated and its contents discarded; a
// compressed block drops its run lists so that it decodes
// to the zero value at the new size.
func (b *Block[T]) Resize(side int) error {
	if err := checkBlockSide(side); err != nil {
		return err
	}
	b.side = side
	b.runLengths = nil
	b.runValues = nil
	if b.data != nil {
		b.data = make([]T, side*side*side)
		b.dirty = true
	}
	return nil
}

// Compress discards the uncompressed buffer. If the buffer
// was mutated since the last compression the run lists are
// re-encoded first; otherwise the stored run lists are
// still authoritative and encoding is skipped.
func (b *Block[T]) Compress() {
	if b.data == nil {
		return
	}
	if b.dirty {
		b.encodeRuns()
	}
	b.data = nil
	b.compressed = true
	b.dirty = false
}

// Uncompress materializes the flat buffer from the run
// lists. It is a no-op if the buffer is already present.
func (b *Block[T]) Uncompress() {
	if b.data != nil {
		return
	}
	n := b.side * b.side * b.side
	b.data = make([]T, n)
	// empty run lists decode to the zero value, which a
	// fresh allocation already holds
	off := 0
	for i, r := range b.runLengths {
		fillSlice(b.data[off:off+int(r)], b.runValues[i])
		off += int(r)
	}
	b.compressed = false
	b.dirty = false
}

func (b *Block[T]) encodeRuns() {
	b.runLengths = b.runLengths[:0]
	b.runValues = b.runValues[:0]
	cur := b.data[0]
	run := uint8(1)
	for _, v := range b.data[1:] {
		if v == cur && run < 255 {
			run++
			continue
		}
		b.runLengths = append(b.runLengths, run)
		b.runValues = append(b.runValues, cur)
		cur = v
		run = 1
	}
	b.runLengths = append(b.runLengths, run)
	b.runValues = append(b.runValues, cur)
}

// setRunsFilled sets the run lists to encode v repeated
// side^3 times.
func (b *Block[T]) setRunsFilled(v T) {
	n := b.side * b.side * b.side
	b.runLengths = b.runLengths[:0]
	b.runValues = b.runValues[:0]
	for n > 0 {
		r := n
		if r > 255 {
			r = 255
		}
		b.runLengths = append(b.runLengths, uint8(r))
		b.runValues = append(b.runValues, v)
		n -= r
	}
}

// appendRLE appends the wire form of the block contents to
// dst: a sequence of (u8 runLength, value) pairs whose
// lengths sum to side^3, values in host byte order. The
// block state is not modified; a dirty buffer is scanned
// directly. An all-zero block may encode to nothing.
func (b *Block[T]) appendRLE(dst []byte) []byte {
	if b.data != nil && b.dirty {
		cur := b.data[0]
		run := uint8(1)
		for _, v := range b.data[1:] {
			if v == cur && run < 255 {
				run++
				continue
			}
			dst = append(dst, run)
			dst = appendValue(dst, cur)
			cur = v
			run = 1
		}
		dst = append(dst, run)
		return appendValue(dst, cur)
	}
	for i, r := range b.runLengths {
		dst = append(dst, r)
		dst = appendValue(dst, b.runValues[i])
	}
	return dst
}

// decodeRuns replaces the block contents with the decoded
// wire form in src, leaving the block compressed. The run
// lengths must be non-zero and sum to side^3; an empty src
// decodes to the zero value.
func (b *Block[T]) decodeRuns(src []byte) error {
	elem := elemSize[T]()
	var lengths []uint8
	var values []T
	total := 0
	for off := 0; off < len(src); {
		if len(src)-off < 1+elem {
			return fmt.Errorf("voxel: truncated run pair at byte %d: %w", off, ErrCorrupt)
		}
		r := src[off]
		if r == 0 {
			return fmt.Errorf("voxel: zero run length at byte %d: %w", off, ErrCorrupt)
		}
		lengths = append(lengths, r)
		values = append(values, readValue[T](src[off+1:]))
		total += int(r)
		off += 1 + elem
	}
	if len(src) > 0 && total != b.side*b.side*b.side {
		return fmt.Errorf("voxel: runs sum to %d voxels; want %d: %w",
			total, b.side*b.side*b.side, ErrCorrupt)
	}
	b.runLengths = lengths
	b.runValues = values
	b.data = nil
	b.compressed = true
	b.dirty = false
	return nil
}

// fillSlice writes v to every element of dst by doubling
// copies.
func fillSlice[T any](dst []T, v T) {
	if len(dst) == 0 {
		return
	}
	dst[0] = v
	for filled := 1; filled < len(dst); filled *= 2 {
		copy(dst[filled:], dst[:filled])
	}
}

// elemSize returns the in-memory size of the voxel type.
func elemSize[T comparable]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// appendValue appends the raw bytes of v in host order.
// The voxel type must be fixed-size and pointer-free.
func appendValue[T comparable](dst []byte, v T) []byte {
	sz := unsafe.Sizeof(v)
	return append(dst, unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz)...)
}

// readValue reads a value previously written by appendValue.
func readValue[T comparable](src []byte) T {
	var v T
	sz := unsafe.Sizeof(v)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz), src[:sz])
	return v
}
