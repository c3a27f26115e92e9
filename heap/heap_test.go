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

package heap

import (
	"math/rand"
	"sort"
	"testing"
)

func TestOrderPop(t *testing.T) {
	less := func(x, y int) bool { return x < y }
	for _, size := range []int{1, 2, 3, 10, 100} {
		vals := make([]int, size)
		for i := range vals {
			vals[i] = rand.Intn(1000)
		}
		want := append([]int(nil), vals...)
		sort.Ints(want)
		OrderSlice(vals, less)
		for i := range want {
			got := PopSlice(&vals, less)
			if got != want[i] {
				t.Fatalf("size %d: pop %d = %d, want %d", size, i, got, want[i])
			}
		}
		if len(vals) != 0 {
			t.Fatalf("size %d: %d leftover elements", size, len(vals))
		}
	}
}
