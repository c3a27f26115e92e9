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

	"github.com/blockvol/blockvol/ints"
)

// Iterator is a positional cursor over a volume, constrained
// to a region. It caches the current block's uncompressed
// buffer and a flat index into it, so that a step or a peek
// that stays inside the block touches no maps, no divisions
// and no bounds checks.
//
// An iterator holds a non-owning reference to its volume.
// Mutating the volume directly (not through this iterator's
// Set) leaves the cursor stale; the next operation on the
// iterator revalidates its cached block state against the
// volume's generation counter. Reading an unpositioned
// iterator, or peeking with offsets outside {-1,0,+1},
// panics.
type Iterator[T comparable] struct {
	vol *Volume[T]
	gen uint64

	// absolute position, block coordinates and in-block
	// position of the cursor
	x, y, z        int
	bx, by, bz, bi int
	lx, ly, lz, li int

	// buf is the current block's uncompressed storage; the
	// fast path indexes it at li directly.
	blk *Block[T]
	buf []T

	// region bounds in voxel space and block space
	x0, y0, z0, x1, y1, z1       int
	bx0, by0, bz0, bx1, by1, bz1 int

	valid bool
}

// Iterator returns an unpositioned iterator whose region is
// the whole volume. Call Seek before reading or stepping.
func (v *Volume[T]) Iterator() *Iterator[T] {
	it := &Iterator[T]{vol: v}
	r, _ := RegionOf(0, 0, 0, v.side-1, v.side-1, v.side-1)
	it.SetRegion(r)
	return it
}

// IteratorOver returns an iterator bound to region r and
// positioned at its lower corner.
func (v *Volume[T]) IteratorOver(r Region) (*Iterator[T], error) {
	it := &Iterator[T]{vol: v}
	if err := it.SetRegion(r); err != nil {
		return nil, err
	}
	if err := it.Seek(r.x0, r.y0, r.z0); err != nil {
		return nil, err
	}
	return it, nil
}

// SetRegion bounds the iterator to r, which must lie inside
// the volume. The current position and validity are
// unchanged; Seek into the new region before stepping.
func (it *Iterator[T]) SetRegion(r Region) error {
	v := it.vol
	if !v.inBounds(r.x0, r.y0, r.z0) || !v.inBounds(r.x1, r.y1, r.z1) {
		return fmt.Errorf("voxel: region %s outside %d^3 volume: %w", r, v.side, ErrOutOfBounds)
	}
	it.x0, it.y0, it.z0 = r.x0, r.y0, r.z0
	it.x1, it.y1, it.z1 = r.x1, r.y1, r.z1
	it.bx0, it.by0, it.bz0 = r.x0>>v.blockPow, r.y0>>v.blockPow, r.z0>>v.blockPow
	it.bx1, it.by1, it.bz1 = r.x1>>v.blockPow, r.y1>>v.blockPow, r.z1>>v.blockPow
	return nil
}

// Seek positions the cursor at the absolute position
// (x, y, z), paging in the owning block.
func (it *Iterator[T]) Seek(x, y, z int) error {
	v := it.vol
	if !v.inBounds(x, y, z) {
		return fmt.Errorf("voxel: position (%d,%d,%d) outside %d^3 volume: %w",
			x, y, z, v.side, ErrOutOfBounds)
	}
	it.x, it.y, it.z = x, y, z
	it.bx, it.by, it.bz = x>>v.blockPow, y>>v.blockPow, z>>v.blockPow
	it.bi = v.blockIndex(it.bx, it.by, it.bz)
	it.loadBlock()
	bs := v.blockSide
	it.lx = x - it.bx*bs
	it.ly = y - it.by*bs
	it.lz = z - it.bz*bs
	it.li = it.lx + it.ly*bs + it.lz*bs*bs
	it.valid = true
	return nil
}

// loadBlock pages in the block at it.bi, breaking sharing if
// needed, and refreshes the cached buffer. A block
// materialized from a shared slot is flagged potentially
// sharable so that eviction can restore the sharing if it is
// never written.
func (it *Iterator[T]) loadBlock() {
	v := it.vol
	if v.isShared[it.bi] {
		v.materialize(it.bi)
		ints.SetBit(v.sharable, it.bi)
	} else {
		v.ensureResident(it.bi)
	}
	it.blk = v.blocks[it.bi]
	v.touch(it.blk)
	it.buf = it.blk.data
	it.gen = v.gen
}

// revalidate refreshes the cached block state after a direct
// volume mutation or an eviction elsewhere.
func (it *Iterator[T]) revalidate() {
	if it.buf == nil {
		panic("voxel: iterator not positioned")
	}
	if it.gen == it.vol.gen {
		return
	}
	it.loadBlock()
}

// X returns the cursor's absolute x position.
func (it *Iterator[T]) X() int { return it.x }

// Y returns the cursor's absolute y position.
func (it *Iterator[T]) Y() int { return it.y }

// Z returns the cursor's absolute z position.
func (it *Iterator[T]) Z() int { return it.z }

// Valid reports whether the cursor is still inside its
// region; it turns false when Next steps past the region's
// last position and stays false until the next Seek.
func (it *Iterator[T]) Valid() bool { return it.valid }

// Get reads the voxel under the cursor.
func (it *Iterator[T]) Get() T {
	it.revalidate()
	it.vol.touch(it.blk)
	return it.buf[it.li]
}

// Set writes the voxel under the cursor. Unlike a direct
// volume write, it does not invalidate this iterator.
func (it *Iterator[T]) Set(val T) {
	it.revalidate()
	it.buf[it.li] = val
	it.blk.dirty = true
	ints.SetBit(it.vol.sharable, it.bi)
	it.vol.touch(it.blk)
}

// Peek reads the voxel displaced from the cursor by
// (dx, dy, dz), each in {-1, 0, +1}. A neighbour inside the
// current block is read through the cached buffer; a
// neighbour across a block face is resolved through the
// volume, and a neighbour outside the volume reads as the
// background value.
func (it *Iterator[T]) Peek(dx, dy, dz int) T {
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || dz < -1 || dz > 1 {
		panic("voxel: peek offset outside {-1,0,+1}")
	}
	it.revalidate()
	bs := it.vol.blockSide
	if (dx != -1 || it.lx != 0) && (dx != 1 || it.lx != bs-1) &&
		(dy != -1 || it.ly != 0) && (dy != 1 || it.ly != bs-1) &&
		(dz != -1 || it.lz != 0) && (dz != 1 || it.lz != bs-1) {
		return it.buf[it.li+dx+dy*bs+dz*bs*bs]
	}
	return it.vol.voxelOrBackground(it.x+dx, it.y+dy, it.z+dz)
}

// Averaged returns the fraction of non-background samples in
// the (2*radius+1)^3 cube centered on the cursor. The cube
// must lie entirely inside the volume; it panics otherwise.
func (it *Iterator[T]) Averaged(radius int) float64 {
	v := it.vol
	if radius < 0 ||
		it.x-radius < 0 || it.x+radius >= v.side ||
		it.y-radius < 0 || it.y+radius >= v.side ||
		it.z-radius < 0 || it.z+radius >= v.side {
		panic("voxel: averaging kernel extends outside the volume")
	}
	sum := 0
	for z := it.z - radius; z <= it.z+radius; z++ {
		for y := it.y - radius; y <= it.y+radius; y++ {
			for x := it.x - radius; x <= it.x+radius; x++ {
				if v.voxelOrBackground(x, y, z) != v.background {
					sum++
				}
			}
		}
	}
	side := 2*radius + 1
	return float64(sum) / float64(side*side*side)
}

// Next advances the cursor one step in row-major order
// (x fastest, then y, then z) restricted to the region, and
// reports whether the cursor still points at a region
// position. Once it returns false the iterator is exhausted
// until repositioned.
func (it *Iterator[T]) Next() bool {
	if !it.valid {
		return false
	}
	it.revalidate()
	v := it.vol
	bs := v.blockSide

	it.lx++
	it.li++
	it.x++
	if it.lx == bs || it.x > it.x1 {
		// wrap to the start of the next row within this block
		it.x = maxInt(it.x0, it.bx*bs)
		it.lx = it.x - it.bx*bs
		it.li = it.lx + it.ly*bs + it.lz*bs*bs

		it.ly++
		it.y++
		it.li += bs
		if it.ly == bs || it.y > it.y1 {
			it.y = maxInt(it.y0, it.by*bs)
			it.ly = it.y - it.by*bs
			it.li = it.lx + it.ly*bs + it.lz*bs*bs

			it.lz++
			it.z++
			it.li += bs * bs
			if it.lz == bs || it.z > it.z1 {
				// left the current block; find the next one
				it.bx++
				if it.bx > it.bx1 {
					it.bx = it.bx0
					it.by++
					if it.by > it.by1 {
						it.by = it.by0
						it.bz++
						if it.bz > it.bz1 {
							it.valid = false
							return false
						}
					}
				}
				it.bi = v.blockIndex(it.bx, it.by, it.bz)

				it.x = maxInt(it.x0, it.bx*bs)
				it.y = maxInt(it.y0, it.by*bs)
				it.z = maxInt(it.z0, it.bz*bs)
				it.lx = it.x - it.bx*bs
				it.ly = it.y - it.by*bs
				it.lz = it.z - it.bz*bs
				it.li = it.lx + it.ly*bs + it.lz*bs*bs

				it.loadBlock()
			}
		}
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
