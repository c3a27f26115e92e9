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
	"testing"
)

func TestRoundtrip(t *testing.T) {
	ctl := bytes.Repeat([]byte("foo"), 1000)
	for _, name := range []string{"rle", "zstd", "zstd-better", "s2"} {
		comp := Compression(name)
		if comp == nil {
			t.Fatalf("no compressor %q", name)
		}
		dec := Decompression(name)
		if dec == nil {
			t.Fatalf("no decompressor %q", name)
		}
		src := append([]byte(nil), ctl...)
		cmp := comp.Compress(src, nil)
		if max := comp.MaxCompressedSize(len(src)); len(cmp) > max {
			t.Errorf("%s: compressed %d bytes > bound %d", name, len(cmp), max)
		}
		dst := make([]byte, len(src))
		if err := dec.Decompress(cmp, dst); err != nil {
			t.Errorf("%s: %v", name, err)
		} else if !bytes.Equal(ctl, dst) {
			t.Errorf("%s: mismatch", name)
		}
	}
}

func TestUnknownName(t *testing.T) {
	if Compression("nope") != nil {
		t.Error("Compression should not know \"nope\"")
	}
	if Decompression("nope") != nil {
		t.Error("Decompression should not know \"nope\"")
	}
}

func TestRLERunBoundary(t *testing.T) {
	// 300 equal bytes force a 255-run split
	src := append(bytes.Repeat([]byte{7}, 300), 1, 2, 3)
	comp := RLE(1)
	cmp := comp.Compress(src, nil)
	want := []byte{255, 7, 45, 7, 1, 1, 1, 2, 1, 3}
	if !bytes.Equal(cmp, want) {
		t.Fatalf("encoded %v, want %v", cmp, want)
	}
	dst := make([]byte, len(src))
	if err := RLEDecoder(1).Decompress(cmp, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst, src) {
		t.Fatal("roundtrip mismatch")
	}
}

func TestRLEWide(t *testing.T) {
	src := []byte{
		1, 0, 1, 0, 1, 0, // three copies of the u16 0x0001
		2, 0, // one run of 0x0002
	}
	comp := RLE(2)
	cmp := comp.Compress(src, nil)
	want := []byte{3, 1, 0, 1, 2, 0}
	if !bytes.Equal(cmp, want) {
		t.Fatalf("encoded %v, want %v", cmp, want)
	}
	dst := make([]byte, len(src))
	if err := RLEDecoder(2).Decompress(cmp, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst, src) {
		t.Fatal("roundtrip mismatch")
	}
}

func TestRLECorrupt(t *testing.T) {
	dec := RLEDecoder(1)
	dst := make([]byte, 4)
	// zero run length
	if err := dec.Decompress([]byte{0, 9}, dst); err == nil {
		t.Error("zero-length run not rejected")
	}
	// truncated pair
	if err := dec.Decompress([]byte{4}, dst); err == nil {
		t.Error("truncated run not rejected")
	}
	// short decode
	if err := dec.Decompress([]byte{2, 9}, dst); err == nil {
		t.Error("short decode not rejected")
	}
	// overflowing decode
	if err := dec.Decompress([]byte{255, 9}, dst); err == nil {
		t.Error("overflowing decode not rejected")
	}
}
