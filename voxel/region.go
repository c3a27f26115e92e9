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

import "fmt"

// Region is a closed axis-aligned box of voxel positions:
// both corners are inside the region.
type Region struct {
	x0, y0, z0 int
	x1, y1, z1 int
}

// RegionOf builds the region [x0,x1] x [y0,y1] x [z0,z1].
// The lower corner must not exceed the upper corner on any
// axis.
func RegionOf(x0, y0, z0, x1, y1, z1 int) (Region, error) {
	if x0 > x1 || y0 > y1 || z0 > z1 {
		return Region{}, fmt.Errorf("voxel: region (%d,%d,%d)..(%d,%d,%d) has lower corner above upper: %w",
			x0, y0, z0, x1, y1, z1, ErrInvalidArgument)
	}
	return Region{x0, y0, z0, x1, y1, z1}, nil
}

// RegionBetween builds a region from two corner points.
func RegionBetween(lo, hi Pt32) (Region, error) {
	return RegionOf(int(lo.X), int(lo.Y), int(lo.Z), int(hi.X), int(hi.Y), int(hi.Z))
}

// Lower returns the lower corner.
func (r Region) Lower() Pt32 {
	return Pt32{X: uint32(r.x0), Y: uint32(r.y0), Z: uint32(r.z0)}
}

// Upper returns the upper corner.
func (r Region) Upper() Pt32 {
	return Pt32{X: uint32(r.x1), Y: uint32(r.y1), Z: uint32(r.z1)}
}

func (r Region) MinX() int { return r.x0 }
func (r Region) MinY() int { return r.y0 }
func (r Region) MinZ() int { return r.z0 }
func (r Region) MaxX() int { return r.x1 }
func (r Region) MaxY() int { return r.y1 }
func (r Region) MaxZ() int { return r.z1 }

// Contains returns whether (x, y, z) lies inside the region.
func (r Region) Contains(x, y, z int) bool {
	return x >= r.x0 && x <= r.x1 &&
		y >= r.y0 && y <= r.y1 &&
		z >= r.z0 && z <= r.z1
}

// Intersects returns whether r and other share any position.
func (r Region) Intersects(other Region) bool {
	return r.x0 <= other.x1 && other.x0 <= r.x1 &&
		r.y0 <= other.y1 && other.y0 <= r.y1 &&
		r.z0 <= other.z1 && other.z0 <= r.z1
}

// Size returns the number of positions in the region.
func (r Region) Size() int {
	return (r.x1 - r.x0 + 1) * (r.y1 - r.y0 + 1) * (r.z1 - r.z0 + 1)
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d,%d)..(%d,%d,%d)", r.x0, r.y0, r.z0, r.x1, r.y1, r.z1)
}
