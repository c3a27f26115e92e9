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

import "golang.org/x/exp/constraints"

// Point is a 3D integer position. The axis width is chosen
// by the caller; positions inside a volume always fit the
// 32-bit form.
type Point[U constraints.Unsigned] struct {
	X, Y, Z U
}

// Pt8, Pt16 and Pt32 are the commonly used axis widths.
type (
	Pt8  = Point[uint8]
	Pt16 = Point[uint16]
	Pt32 = Point[uint32]
)

// Less orders points by (z, y, x), the order in which an
// iterator visits the positions of a single block. Across
// blocks an iterator goes block by block, which is not
// this order.
func (p Point[U]) Less(q Point[U]) bool {
	if p.Z != q.Z {
		return p.Z < q.Z
	}
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}
