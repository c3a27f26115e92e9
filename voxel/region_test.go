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

func TestRegionOf(t *testing.T) {
	r, err := RegionOf(1, 2, 3, 4, 5, 6)
	require.NoError(t, err)
	assert.Equal(t, Pt32{X: 1, Y: 2, Z: 3}, r.Lower())
	assert.Equal(t, Pt32{X: 4, Y: 5, Z: 6}, r.Upper())
	assert.Equal(t, 4*4*4, r.Size())

	for _, bad := range [][6]int{
		{5, 2, 3, 4, 5, 6},
		{1, 6, 3, 4, 5, 6},
		{1, 2, 7, 4, 5, 6},
	} {
		_, err := RegionOf(bad[0], bad[1], bad[2], bad[3], bad[4], bad[5])
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestRegionContains(t *testing.T) {
	r, err := RegionOf(2, 2, 2, 5, 5, 5)
	require.NoError(t, err)
	assert.True(t, r.Contains(2, 2, 2))
	assert.True(t, r.Contains(5, 5, 5))
	assert.True(t, r.Contains(3, 4, 2))
	assert.False(t, r.Contains(1, 2, 2))
	assert.False(t, r.Contains(2, 6, 2))
	assert.False(t, r.Contains(2, 2, 6))
}

func TestRegionIntersects(t *testing.T) {
	a, err := RegionOf(0, 0, 0, 4, 4, 4)
	require.NoError(t, err)
	b, err := RegionOf(4, 4, 4, 8, 8, 8)
	require.NoError(t, err)
	c, err := RegionOf(5, 0, 0, 9, 4, 4)
	require.NoError(t, err)
	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
	assert.False(t, a.Intersects(c))
}

func TestRegionBetween(t *testing.T) {
	r, err := RegionBetween(Pt32{X: 1, Y: 1, Z: 1}, Pt32{X: 2, Y: 2, Z: 2})
	require.NoError(t, err)
	assert.Equal(t, 8, r.Size())
}

func TestPointLess(t *testing.T) {
	// ordered by (z, y, x)
	seq := []Pt16{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 9, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 9, Y: 9, Z: 1},
	}
	for i := range seq {
		for j := range seq {
			want := i < j
			if got := seq[i].Less(seq[j]); got != want {
				t.Errorf("%v < %v = %v, want %v", seq[i], seq[j], got, want)
			}
		}
	}
}
