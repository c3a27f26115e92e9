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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefinitionYAML(t *testing.T) {
	d, err := DecodeDefinition([]byte(`
side_length: 64
block_side_length: 16
max_uncompressed_blocks: 8
compression: zstd
`))
	require.NoError(t, err)
	assert.Equal(t, 64, d.SideLength)
	assert.Equal(t, 16, d.BlockSideLength)
	assert.Equal(t, 8, d.MaxUncompressedBlocks)
	assert.Equal(t, "zstd", d.Compression)
}

func TestDecodeDefinitionJSON(t *testing.T) {
	d, err := DecodeDefinition([]byte(`{"side_length": 32, "block_side_length": 8}`))
	require.NoError(t, err)
	assert.Equal(t, 32, d.SideLength)
	assert.Equal(t, 8, d.BlockSideLength)
	assert.Zero(t, d.MaxUncompressedBlocks)
	assert.Empty(t, d.Compression)
}

func TestDecodeDefinitionInvalid(t *testing.T) {
	cases := []string{
		`{"side_length": 48, "block_side_length": 16}`,
		`{"side_length": 64, "block_side_length": 9}`,
		`{"side_length": 8, "block_side_length": 16}`,
		`{"side_length": 64, "block_side_length": 16, "max_uncompressed_blocks": -1}`,
		`{"side_length": 64, "block_side_length": 16, "compression": "lz77"}`,
	}
	for _, c := range cases {
		_, err := DecodeDefinition([]byte(c))
		assert.ErrorIs(t, err, ErrInvalidArgument, "definition %s", c)
	}
	_, err := DecodeDefinition([]byte(`side_length: [`))
	assert.Error(t, err)
}

func TestNewFromDefinition(t *testing.T) {
	def := &Definition{
		SideLength:            32,
		BlockSideLength:       8,
		MaxUncompressedBlocks: 2,
		Compression:           "s2",
	}
	v, err := NewFromDefinition[uint8](def, 4)
	require.NoError(t, err)
	assert.Equal(t, 32, v.SideLength())
	assert.Equal(t, 8, v.BlockSideLength())
	assert.Equal(t, 2, v.MaxUncompressedBlocks())
	got, err := v.Get(9, 9, 9)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), got)
}
