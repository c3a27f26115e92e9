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

package compr

import (
	"bytes"
	"fmt"
)

// rleCodec encodes a byte stream as (u8 runLength, element)
// pairs over fixed-width elements. Run lengths never exceed
// 255; longer runs are split.
type rleCodec struct {
	width int
}

// RLE returns the run-length codec over elements of the
// given byte width. Inputs to Compress must be a multiple
// of the element width.
func RLE(width int) Compressor {
	if width <= 0 {
		panic("compr: non-positive RLE element width")
	}
	return rleCodec{width: width}
}

// RLEDecoder is the decode half of RLE.
func RLEDecoder(width int) Decompressor {
	if width <= 0 {
		panic("compr: non-positive RLE element width")
	}
	return rleCodec{width: width}
}

func (r rleCodec) Name() string {
	if r.width == 1 {
		return "rle"
	}
	return fmt.Sprintf("rle%d", r.width)
}

func (r rleCodec) MaxCompressedSize(n int) int {
	// worst case: every element distinct
	elems := (n + r.width - 1) / r.width
	return elems * (1 + r.width)
}

func (r rleCodec) Compress(src, dst []byte) []byte {
	w := r.width
	if len(src)%w != 0 {
		panic("compr: RLE input not a multiple of the element width")
	}
	if len(src) == 0 {
		return dst
	}
	cur := src[:w]
	run := byte(1)
	for off := w; off < len(src); off += w {
		next := src[off : off+w]
		if run < 255 && bytes.Equal(next, cur) {
			run++
			continue
		}
		dst = append(dst, run)
		dst = append(dst, cur...)
		cur = next
		run = 1
	}
	dst = append(dst, run)
	return append(dst, cur...)
}

func (r rleCodec) Decompress(src, dst []byte) error {
	w := r.width
	off := 0
	for len(src) > 0 {
		if len(src) < 1+w {
			return fmt.Errorf("rle: truncated run at offset %d", off)
		}
		run := int(src[0])
		if run == 0 {
			return fmt.Errorf("rle: zero-length run at offset %d", off)
		}
		elem := src[1 : 1+w]
		src = src[1+w:]
		if off+run*w > len(dst) {
			return fmt.Errorf("rle: runs overflow %d-byte output", len(dst))
		}
		for i := 0; i < run; i++ {
			copy(dst[off:], elem)
			off += w
		}
	}
	if off != len(dst) {
		return fmt.Errorf("rle: runs decode to %d bytes; want %d", off, len(dst))
	}
	return nil
}
