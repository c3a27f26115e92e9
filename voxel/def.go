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

	"sigs.k8s.io/yaml"

	"github.com/blockvol/blockvol/compr"
	"github.com/blockvol/blockvol/ints"
)

// Definition is the declarative form of a volume's
// construction parameters. It can be decoded from JSON or
// YAML.
type Definition struct {
	// SideLength is the domain side length in voxels.
	SideLength int `json:"side_length"`
	// BlockSideLength is the block side length in voxels.
	BlockSideLength int `json:"block_side_length"`
	// MaxUncompressedBlocks is the residency budget; zero
	// picks the default (a quarter of the block grid).
	MaxUncompressedBlocks int `json:"max_uncompressed_blocks,omitempty"`
	// Compression names the codec used by Snapshot:
	// "rle", "zstd", "zstd-better" or "s2". Empty leaves
	// snapshots uncompressed.
	Compression string `json:"compression,omitempty"`
}

// DecodeDefinition parses a JSON or YAML definition and
// validates it.
func DecodeDefinition(buf []byte) (*Definition, error) {
	d := new(Definition)
	if err := yaml.Unmarshal(buf, d); err != nil {
		return nil, fmt.Errorf("voxel: decoding definition: %w", err)
	}
	if err := d.Check(); err != nil {
		return nil, err
	}
	return d, nil
}

// Check validates the definition shape.
func (d *Definition) Check() error {
	if err := checkBlockSide(d.BlockSideLength); err != nil {
		return err
	}
	if !ints.IsPowerOfTwo(d.SideLength) || d.SideLength > maxVolumeSide || d.SideLength < d.BlockSideLength {
		return fmt.Errorf("voxel: definition side length %d not a power of two in [%d,%d]: %w",
			d.SideLength, d.BlockSideLength, maxVolumeSide, ErrInvalidArgument)
	}
	if d.MaxUncompressedBlocks < 0 {
		return fmt.Errorf("voxel: negative residency budget %d: %w",
			d.MaxUncompressedBlocks, ErrInvalidArgument)
	}
	if d.Compression != "" && compr.Compression(d.Compression) == nil {
		return fmt.Errorf("voxel: unknown compression %q: %w",
			d.Compression, ErrInvalidArgument)
	}
	return nil
}

// NewFromDefinition constructs a volume from a validated
// definition, with every position initially holding
// background.
func NewFromDefinition[T comparable](d *Definition, background T) (*Volume[T], error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	v, err := New[T](d.SideLength, d.BlockSideLength, background)
	if err != nil {
		return nil, err
	}
	if d.MaxUncompressedBlocks > 0 {
		if err := v.SetMaxUncompressedBlocks(d.MaxUncompressedBlocks); err != nil {
			return nil, err
		}
	}
	v.codec = d.Compression
	return v, nil
}
