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
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dchest/siphash"

	"github.com/blockvol/blockvol/compr"
)

// snapshot layout:
//
//	u32le header length | JSON header | payload
//
// The payload is the per-block stream below, optionally run
// through the codec named in the header:
//
//	u8 tag (0 = shared, 1 = private)
//	shared:  one value (host order)
//	private: u32le byte length | RLE run pairs
//
// The SipHash tag in the header covers the payload as stored
// (after compression).
const snapshotVersion = 1

// fixed SipHash-2-4 key; the tag detects corruption, it is
// not an authenticator
const (
	snapKey0 = 0x626c6f636b766f6c // "blockvol"
	snapKey1 = 0x736e617073686f74 // "snapshot"
)

type snapshotHeader struct {
	Version               int    `json:"version"`
	SideLength            int    `json:"side_length"`
	BlockSideLength       int    `json:"block_side_length"`
	MaxUncompressedBlocks int    `json:"max_uncompressed_blocks"`
	ElemSize              int    `json:"elem_size"`
	Background            string `json:"background"`
	Compression           string `json:"compression,omitempty"`
	RawSize               int    `json:"raw_size"`
	Checksum              string `json:"checksum"`
}

const (
	tagShared  = 0
	tagPrivate = 1
)

// Snapshot serializes the volume contents: grid shape,
// sharing structure and per-block run-length data. The
// payload is compressed with the codec from the volume's
// definition ("rle", "zstd", "zstd-better", "s2"; empty
// stores it raw) and carries a SipHash integrity tag.
// Snapshot does not modify the volume.
func (v *Volume[T]) Snapshot() ([]byte, error) {
	var raw []byte
	for bi, blk := range v.blocks {
		if v.isShared[bi] {
			raw = append(raw, tagShared)
			raw = appendValue(raw, v.homog[bi])
			continue
		}
		raw = append(raw, tagPrivate)
		at := len(raw)
		raw = append(raw, 0, 0, 0, 0)
		raw = blk.appendRLE(raw)
		binary.LittleEndian.PutUint32(raw[at:], uint32(len(raw)-at-4))
	}
	payload := raw
	if v.codec != "" {
		comp := compr.Compression(v.codec)
		if comp == nil {
			return nil, fmt.Errorf("voxel: unknown compression %q: %w", v.codec, ErrInvalidArgument)
		}
		payload = comp.Compress(raw, nil)
	}
	hdr := snapshotHeader{
		Version:               snapshotVersion,
		SideLength:            v.side,
		BlockSideLength:       v.blockSide,
		MaxUncompressedBlocks: v.maxResident,
		ElemSize:              elemSize[T](),
		Background:            hex.EncodeToString(appendValue(nil, v.background)),
		Compression:           v.codec,
		RawSize:               len(raw),
		Checksum:              fmt.Sprintf("%016x", siphash.Hash(snapKey0, snapKey1, payload)),
	}
	hj, err := json.Marshal(&hdr)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4, 4+len(hj)+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(hj)))
	out = append(out, hj...)
	return append(out, payload...), nil
}

// Restore reconstructs a volume from a Snapshot image. The
// voxel type must match the one the snapshot was taken
// with.
func Restore[T comparable](buf []byte) (*Volume[T], error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("voxel: snapshot shorter than its header length: %w", ErrCorrupt)
	}
	hlen := int(binary.LittleEndian.Uint32(buf))
	if len(buf) < 4+hlen {
		return nil, fmt.Errorf("voxel: truncated snapshot header: %w", ErrCorrupt)
	}
	var hdr snapshotHeader
	if err := json.Unmarshal(buf[4:4+hlen], &hdr); err != nil {
		return nil, fmt.Errorf("voxel: decoding snapshot header: %w", err)
	}
	if hdr.Version != snapshotVersion {
		return nil, fmt.Errorf("voxel: unsupported snapshot version %d: %w", hdr.Version, ErrInvalidArgument)
	}
	if hdr.ElemSize != elemSize[T]() {
		return nil, fmt.Errorf("voxel: snapshot voxel size %d does not match %d: %w",
			hdr.ElemSize, elemSize[T](), ErrInvalidArgument)
	}
	payload := buf[4+hlen:]
	if sum := fmt.Sprintf("%016x", siphash.Hash(snapKey0, snapKey1, payload)); sum != hdr.Checksum {
		return nil, fmt.Errorf("voxel: snapshot checksum %s does not match %s: %w",
			sum, hdr.Checksum, ErrCorrupt)
	}
	raw := payload
	if hdr.Compression != "" {
		dec := compr.Decompression(hdr.Compression)
		if dec == nil {
			return nil, fmt.Errorf("voxel: unknown compression %q: %w", hdr.Compression, ErrInvalidArgument)
		}
		raw = make([]byte, hdr.RawSize)
		if err := dec.Decompress(payload, raw); err != nil {
			return nil, fmt.Errorf("voxel: decompressing snapshot: %w", err)
		}
	} else if len(raw) != hdr.RawSize {
		return nil, fmt.Errorf("voxel: snapshot payload is %d bytes; header says %d: %w",
			len(raw), hdr.RawSize, ErrCorrupt)
	}
	bg, err := hex.DecodeString(hdr.Background)
	if err != nil || len(bg) != hdr.ElemSize {
		return nil, fmt.Errorf("voxel: malformed background value %q: %w", hdr.Background, ErrCorrupt)
	}
	background := readValue[T](bg)
	v, err := New[T](hdr.SideLength, hdr.BlockSideLength, background)
	if err != nil {
		return nil, err
	}
	if hdr.MaxUncompressedBlocks > 0 {
		if err := v.SetMaxUncompressedBlocks(hdr.MaxUncompressedBlocks); err != nil {
			return nil, err
		}
	}
	v.codec = hdr.Compression
	elem := hdr.ElemSize
	off := 0
	for bi := range v.blocks {
		if off >= len(raw) {
			return nil, fmt.Errorf("voxel: snapshot ends at block %d of %d: %w",
				bi, len(v.blocks), ErrCorrupt)
		}
		tag := raw[off]
		off++
		switch tag {
		case tagShared:
			if len(raw)-off < elem {
				return nil, fmt.Errorf("voxel: truncated shared value at block %d: %w", bi, ErrCorrupt)
			}
			val := readValue[T](raw[off:])
			off += elem
			if val != background {
				v.blocks[bi] = v.singleton(val)
				v.homog[bi] = val
			}
		case tagPrivate:
			if len(raw)-off < 4 {
				return nil, fmt.Errorf("voxel: truncated block length at block %d: %w", bi, ErrCorrupt)
			}
			n := int(binary.LittleEndian.Uint32(raw[off:]))
			off += 4
			if len(raw)-off < n {
				return nil, fmt.Errorf("voxel: truncated block data at block %d: %w", bi, ErrCorrupt)
			}
			blk, err := NewBlock[T](hdr.BlockSideLength)
			if err != nil {
				return nil, err
			}
			if err := blk.decodeRuns(raw[off : off+n]); err != nil {
				return nil, fmt.Errorf("voxel: block %d: %w", bi, err)
			}
			off += n
			v.blocks[bi] = blk
			v.isShared[bi] = false
		default:
			return nil, fmt.Errorf("voxel: unknown block tag %d at block %d: %w", tag, bi, ErrCorrupt)
		}
	}
	if off != len(raw) {
		return nil, fmt.Errorf("voxel: %d trailing bytes after last block: %w", len(raw)-off, ErrCorrupt)
	}
	return v, nil
}
