// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wire is C1: the framed wire codec. VLQ is big-endian base-128,
// signed VLQ is the protocol's own sign+magnitude scheme (not true zig-zag),
// and frames are T|svlq(size)|body with optional per-frame zlib.
package wire

import (
	"io"

	"starnetd/internal/errs"
)

// AppendVLQ appends the base-128 big-endian encoding of n (n >= 0) to dst.
func AppendVLQ(dst []byte, n uint64) []byte {
	if n == 0 {
		return append(dst, 0x00)
	}
	var tmp [10]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte(n & 0x7f)
		n >>= 7
	}
	for j := i; j < len(tmp)-1; j++ {
		dst = append(dst, tmp[j]|0x80)
	}
	dst = append(dst, tmp[len(tmp)-1])
	return dst
}

// AppendSVLQ appends the signed VLQ encoding of n: 2|n| for n>=0, 2|n|-1 for n<0.
func AppendSVLQ(dst []byte, n int64) []byte {
	var mag uint64
	if n >= 0 {
		mag = uint64(n) * 2
	} else {
		mag = uint64(-n)*2 - 1
	}
	return AppendVLQ(dst, mag)
}

// ReadVLQ reads a base-128 VLQ from r, returning the decoded value and the
// number of bytes consumed.
func ReadVLQ(r io.ByteReader) (uint64, int, error) {
	var v uint64
	var n int
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, n, errs.ErrIncompletePacket
		}
		n++
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, n, nil
		}
		if n > 10 {
			return 0, n, errs.ErrInvalidFixedLength
		}
	}
}

// ReadSVLQ reads a signed VLQ, returning the decoded value and bytes consumed.
func ReadSVLQ(r io.ByteReader) (int64, int, error) {
	mag, n, err := ReadVLQ(r)
	if err != nil {
		return 0, n, err
	}
	if mag%2 == 0 {
		return int64(mag / 2), n, nil
	}
	return -int64((mag + 1) / 2), n, nil
}

// DecodeVLQ decodes a VLQ from the start of buf, returning the value and the
// number of bytes consumed.
func DecodeVLQ(buf []byte) (uint64, int, error) {
	var v uint64
	for i, b := range buf {
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		if i >= 9 {
			return 0, 0, errs.ErrInvalidFixedLength
		}
	}
	return 0, 0, errs.ErrIncompletePacket
}

// DecodeSVLQ decodes a signed VLQ from the start of buf.
func DecodeSVLQ(buf []byte) (int64, int, error) {
	mag, n, err := DecodeVLQ(buf)
	if err != nil {
		return 0, 0, err
	}
	if mag%2 == 0 {
		return int64(mag / 2), n, nil
	}
	return -int64((mag + 1) / 2), n, nil
}
