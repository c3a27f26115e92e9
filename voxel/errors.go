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

import "errors"

var (
	// ErrInvalidArgument indicates a malformed construction
	// parameter: a non-power-of-two side length, a block side
	// larger than the volume side, or a region with a lower
	// corner above its upper corner.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfBounds indicates a position outside the volume.
	ErrOutOfBounds = errors.New("position out of bounds")

	// ErrCorrupt indicates an encoded block or snapshot whose
	// run lengths do not reconstruct the original contents.
	ErrCorrupt = errors.New("corrupt encoding")
)
