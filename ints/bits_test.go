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

package ints

import "testing"

func TestBitOps(t *testing.T) {
	words := make([]uint64, ChunkCount(uint64(200), 64))
	for _, k := range []int{0, 1, 63, 64, 65, 130, 199} {
		if TestBit(words, k) {
			t.Errorf("bit %d set in fresh bitset", k)
		}
		SetBit(words, k)
		if !TestBit(words, k) {
			t.Errorf("bit %d not set after SetBit", k)
		}
		ClearBit(words, k)
		if TestBit(words, k) {
			t.Errorf("bit %d still set after ClearBit", k)
		}
	}
	SetBit(words, 64)
	if TestBit(words, 63) || TestBit(words, 65) {
		t.Error("SetBit touched adjacent bits")
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 256, 65536} {
		if !IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = false", n)
		}
	}
	for _, n := range []int{0, -2, 3, 6, 255, 257} {
		if IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = true", n)
		}
	}
}

func TestLog2(t *testing.T) {
	for pow := 0; pow < 32; pow++ {
		if got := Log2(1 << pow); got != uint(pow) {
			t.Errorf("Log2(1<<%d) = %d", pow, got)
		}
	}
}
