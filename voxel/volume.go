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

// Package voxel implements a paged, compressed, block-partitioned
// store for large three-dimensional arrays of discrete samples.
//
// A Volume decomposes a cubic domain into fixed-size cubic blocks.
// Blocks alternate between a run-length-encoded form and an
// uncompressed working form under a residency budget, and blocks
// holding a single repeated value are transparently deduplicated
// behind copy-on-write. An Iterator walks a region in row-major
// order with a cached fast path into the current block.
//
// A Volume and its Iterators form a single logical actor: the
// caller must serialize all mutating operations.
package voxel

import (
	"fmt"
	"log"
	"math"

	"github.com/blockvol/blockvol/heap"
	"github.com/blockvol/blockvol/ints"
)

// maxVolumeSide bounds the domain side length.
const maxVolumeSide = 1 << 16

// Volume is a cubic voxel domain of power-of-two side length,
// partitioned into power-of-two blocks. Reading an untouched
// position returns the background value.
//
// The voxel type T must be fixed-size and pointer-free
// (integers, or small structs thereof).
type Volume[T comparable] struct {
	side      int
	blockSide int
	blockPow  uint

	// blocksPer is the number of blocks along one axis.
	blocksPer int

	background T

	// blocks is the row-major grid of block handles. A slot
	// flagged in isShared references a deduplicated singleton
	// encoding homog[i] everywhere; shared blocks are
	// compressed and never mutated in place.
	blocks   []*Block[T]
	isShared []bool
	homog    []T

	// sharable flags blocks that may have become homogeneous;
	// eviction rescans them before compressing.
	sharable []uint64

	// singles caches one shared block per homogeneous value.
	singles map[T]*Block[T]

	// residents lists the indices of blocks currently holding
	// an uncompressed buffer; len(residents) <= maxResident
	// at every quiescent moment.
	residents   []int
	maxResident int

	// tick is the access clock behind LRU eviction; gen is
	// bumped by every mutation or residency change so that
	// iterators can revalidate their cached block state.
	tick uint64
	gen  uint64

	codec  string
	logger *log.Logger
}

// New constructs a volume of the given side length divided
// into blocks of the given side length, with every position
// initially holding background. Both lengths must be powers
// of two, with 2 <= blockSide <= 256 and
// blockSide <= side <= 65536.
func New[T comparable](side, blockSide int, background T) (*Volume[T], error) {
	if err := checkBlockSide(blockSide); err != nil {
		return nil, err
	}
	if !ints.IsPowerOfTwo(side) || side > maxVolumeSide {
		return nil, fmt.Errorf("voxel: volume side length %d not a power of two in [%d,%d]: %w",
			side, blockSide, maxVolumeSide, ErrInvalidArgument)
	}
	if side < blockSide {
		return nil, fmt.Errorf("voxel: volume side %d smaller than block side %d: %w",
			side, blockSide, ErrInvalidArgument)
	}
	n := side / blockSide
	nb := n * n * n
	budget := nb / 4
	if budget < 1 {
		budget = 1
	}
	v := &Volume[T]{
		side:        side,
		blockSide:   blockSide,
		blockPow:    ints.Log2(blockSide),
		blocksPer:   n,
		background:  background,
		blocks:      make([]*Block[T], nb),
		isShared:    make([]bool, nb),
		homog:       make([]T, nb),
		sharable:    make([]uint64, ints.ChunkCount(uint(nb), 64)),
		singles:     make(map[T]*Block[T]),
		maxResident: budget,
	}
	single := v.singleton(background)
	for i := range v.blocks {
		v.blocks[i] = single
		v.isShared[i] = true
	}
	fillSlice(v.homog, background)
	return v, nil
}

// SideLength returns the domain side length in voxels.
func (v *Volume[T]) SideLength() int { return v.side }

// BlockSideLength returns the block side length in voxels.
func (v *Volume[T]) BlockSideLength() int { return v.blockSide }

// DiagonalLength returns the length of the domain diagonal.
func (v *Volume[T]) DiagonalLength() float64 {
	return float64(v.side) * math.Sqrt(3)
}

// Background returns the value of untouched positions.
func (v *Volume[T]) Background() T { return v.background }

// SetLogger directs eviction and re-sharing events to l.
// A nil logger silences them.
func (v *Volume[T]) SetLogger(l *log.Logger) { v.logger = l }

// UncompressedBlocks returns the number of blocks currently
// holding an uncompressed buffer.
func (v *Volume[T]) UncompressedBlocks() int { return len(v.residents) }

// MaxUncompressedBlocks returns the residency budget.
func (v *Volume[T]) MaxUncompressedBlocks() int { return v.maxResident }

// IsShared reports whether the block at block coordinates
// (bx, by, bz) is a reference to a deduplicated homogeneous
// block.
func (v *Volume[T]) IsShared(bx, by, bz int) bool {
	return v.isShared[v.blockIndex(bx, by, bz)]
}

// SetMaxUncompressedBlocks adjusts the residency budget.
// Shrinking it below the current number of uncompressed
// blocks evicts the least recently used ones immediately.
func (v *Volume[T]) SetMaxUncompressedBlocks(n int) error {
	if n < 1 {
		return fmt.Errorf("voxel: residency budget %d below 1: %w", n, ErrInvalidArgument)
	}
	v.maxResident = n
	if len(v.residents) <= n {
		return nil
	}
	// bulk eviction: pop residents oldest-first
	order := append([]int(nil), v.residents...)
	less := func(a, b int) bool {
		return v.blocks[a].timestamp < v.blocks[b].timestamp
	}
	heap.OrderSlice(order, less)
	for len(v.residents) > n && len(order) > 0 {
		v.evictIndex(heap.PopSlice(&order, less))
	}
	return nil
}

// Get reads the voxel at (x, y, z).
func (v *Volume[T]) Get(x, y, z int) (T, error) {
	if !v.inBounds(x, y, z) {
		var zero T
		return zero, fmt.Errorf("voxel: position (%d,%d,%d) outside %d^3 volume: %w",
			x, y, z, v.side, ErrOutOfBounds)
	}
	bi := v.blockIndexAt(x, y, z)
	if v.isShared[bi] {
		return v.homog[bi], nil
	}
	blk := v.blocks[bi]
	v.ensureResident(bi)
	v.touch(blk)
	return blk.data[v.voxelIndexAt(x, y, z)], nil
}

// Set writes val at (x, y, z). Writing the homogeneous value
// of a shared block is a no-op; any other write to a shared
// slot first materializes a private copy.
func (v *Volume[T]) Set(x, y, z int, val T) error {
	if !v.inBounds(x, y, z) {
		return fmt.Errorf("voxel: position (%d,%d,%d) outside %d^3 volume: %w",
			x, y, z, v.side, ErrOutOfBounds)
	}
	bi := v.blockIndexAt(x, y, z)
	li := v.voxelIndexAt(x, y, z)
	if v.isShared[bi] {
		if v.homog[bi] == val {
			return nil
		}
		v.materialize(bi)
		blk := v.blocks[bi]
		blk.data[li] = val
		blk.dirty = true
		// the block now holds two distinct values
		ints.ClearBit(v.sharable, bi)
		return nil
	}
	blk := v.blocks[bi]
	v.ensureResident(bi)
	v.touch(blk)
	blk.data[li] = val
	blk.dirty = true
	ints.SetBit(v.sharable, bi)
	v.gen++
	return nil
}

func (v *Volume[T]) inBounds(x, y, z int) bool {
	return x >= 0 && x < v.side &&
		y >= 0 && y < v.side &&
		z >= 0 && z < v.side
}

func (v *Volume[T]) blockIndex(bx, by, bz int) int {
	return bx + by*v.blocksPer + bz*v.blocksPer*v.blocksPer
}

func (v *Volume[T]) blockIndexAt(x, y, z int) int {
	return v.blockIndex(x>>v.blockPow, y>>v.blockPow, z>>v.blockPow)
}

func (v *Volume[T]) voxelIndexAt(x, y, z int) int {
	m := v.blockSide - 1
	return (x & m) + (y&m)*v.blockSide + (z&m)*v.blockSide*v.blockSide
}

// voxelOrBackground reads (x, y, z), returning the
// background value for positions outside the volume. It is
// the fallback path of iterator peeks at block and domain
// boundaries.
func (v *Volume[T]) voxelOrBackground(x, y, z int) T {
	if !v.inBounds(x, y, z) {
		return v.background
	}
	bi := v.blockIndexAt(x, y, z)
	if v.isShared[bi] {
		return v.homog[bi]
	}
	blk := v.blocks[bi]
	v.ensureResident(bi)
	v.touch(blk)
	return blk.data[v.voxelIndexAt(x, y, z)]
}

// singleton returns the shared compressed block encoding
// val everywhere, creating and caching it on first use.
func (v *Volume[T]) singleton(val T) *Block[T] {
	if s, ok := v.singles[val]; ok {
		return s
	}
	s := newFilled(v.blockSide, val)
	v.singles[val] = s
	return s
}

// touch marks blk most recently used.
func (v *Volume[T]) touch(blk *Block[T]) {
	v.tick++
	blk.timestamp = v.tick
}

// ensureResident uncompresses the private block at bi,
// evicting the least recently used resident first if the
// budget is full. The target block is never an eviction
// candidate: it has no uncompressed buffer yet.
func (v *Volume[T]) ensureResident(bi int) {
	blk := v.blocks[bi]
	if blk.data != nil {
		return
	}
	for len(v.residents) >= v.maxResident {
		v.evictOne()
	}
	blk.Uncompress()
	v.residents = append(v.residents, bi)
	v.gen++
}

// materialize replaces the shared reference at bi with a
// private uncompressed block holding the slot's homogeneous
// value.
func (v *Volume[T]) materialize(bi int) {
	for len(v.residents) >= v.maxResident {
		v.evictOne()
	}
	blk := newFilled(v.blockSide, v.homog[bi])
	blk.Uncompress()
	v.blocks[bi] = blk
	v.isShared[bi] = false
	v.residents = append(v.residents, bi)
	v.touch(blk)
	v.gen++
}

// evictOne evicts the resident block with the smallest
// timestamp.
func (v *Volume[T]) evictOne() {
	if len(v.residents) == 0 {
		return
	}
	at := 0
	for i := 1; i < len(v.residents); i++ {
		if v.blocks[v.residents[i]].timestamp < v.blocks[v.residents[at]].timestamp {
			at = i
		}
	}
	v.evictIndex(v.residents[at])
}

// evictIndex pages out the block at grid index bi. A block
// flagged potentially sharable is rescanned first: if it
// has become homogeneous, the slot reverts to the shared
// singleton and the private block is dropped.
func (v *Volume[T]) evictIndex(bi int) {
	blk := v.blocks[bi]
	if blk.data == nil {
		return
	}
	if ints.TestBit(v.sharable, bi) {
		ints.ClearBit(v.sharable, bi)
		if val, ok := homogeneous(blk.data); ok {
			v.blocks[bi] = v.singleton(val)
			v.isShared[bi] = true
			v.homog[bi] = val
			v.dropResident(bi)
			v.gen++
			if v.logger != nil {
				v.logger.Printf("re-shared homogeneous block %d", bi)
			}
			return
		}
	}
	blk.Compress()
	v.dropResident(bi)
	v.gen++
	if v.logger != nil {
		v.logger.Printf("compressed block %d (timestamp %d)", bi, blk.timestamp)
	}
}

func (v *Volume[T]) dropResident(bi int) {
	for i, r := range v.residents {
		if r == bi {
			v.residents[i] = v.residents[len(v.residents)-1]
			v.residents = v.residents[:len(v.residents)-1]
			return
		}
	}
}

// homogeneous reports whether every element of data equals
// the first one.
func homogeneous[T comparable](data []T) (T, bool) {
	v := data[0]
	for _, x := range data[1:] {
		if x != v {
			return v, false
		}
	}
	return v, true
}
