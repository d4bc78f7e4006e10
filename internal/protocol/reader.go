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

package protocol

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"

	"starnetd/internal/errs"
	"starnetd/internal/wire"
)

// Reader decodes the primitives of spec.md §4.2 from a message body.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

func (r *Reader) Remaining() []byte { return r.buf[r.pos:] }
func (r *Reader) Len() int          { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Len() < n {
		return errs.ErrProtocolDecode
	}
	return nil
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

func (r *Reader) ReadVLQ() (uint64, error) {
	v, n, err := wire.DecodeVLQ(r.buf[r.pos:])
	if err != nil {
		return 0, errs.ErrProtocolDecode
	}
	r.pos += n
	return v, nil
}

func (r *Reader) ReadSVLQ() (int64, error) {
	v, n, err := wire.DecodeSVLQ(r.buf[r.pos:])
	if err != nil {
		return 0, errs.ErrProtocolDecode
	}
	r.pos += n
	return v, nil
}

func (r *Reader) ReadN(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadByteArray() ([]byte, error) {
	n, err := r.ReadVLQ()
	if err != nil {
		return nil, err
	}
	return r.ReadN(int(n))
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadByteArray()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadStringSet() ([]string, error) {
	n, err := r.ReadVLQ()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// UUID is the protocol's 16-byte identifier. google/uuid's String() already
// canonicalizes to lowercase hex (spec.md §4.2); the wire form omits the
// standard dashed grouping and is just the 16 raw bytes.
type UUID = uuid.UUID

func (r *Reader) ReadUUID() (UUID, error) {
	b, err := r.ReadN(16)
	if err != nil {
		return UUID{}, err
	}
	return uuid.FromBytes(b)
}

type Vec2F struct{ X, Y float32 }
type Vec2I struct{ X, Y int32 }
type Vec2U struct{ X, Y uint32 }
type Vec3I struct{ X, Y, Z int32 }

func (r *Reader) ReadVec2F() (Vec2F, error) {
	x, err := r.ReadF32()
	if err != nil {
		return Vec2F{}, err
	}
	y, err := r.ReadF32()
	if err != nil {
		return Vec2F{}, err
	}
	return Vec2F{x, y}, nil
}

func (r *Reader) ReadVec2I() (Vec2I, error) {
	x, err := r.ReadI32()
	if err != nil {
		return Vec2I{}, err
	}
	y, err := r.ReadI32()
	if err != nil {
		return Vec2I{}, err
	}
	return Vec2I{x, y}, nil
}

func (r *Reader) ReadVec2U() (Vec2U, error) {
	x, err := r.ReadU32()
	if err != nil {
		return Vec2U{}, err
	}
	y, err := r.ReadU32()
	if err != nil {
		return Vec2U{}, err
	}
	return Vec2U{x, y}, nil
}

func (r *Reader) ReadVec3I() (Vec3I, error) {
	x, err := r.ReadI32()
	if err != nil {
		return Vec3I{}, err
	}
	y, err := r.ReadI32()
	if err != nil {
		return Vec3I{}, err
	}
	z, err := r.ReadI32()
	if err != nil {
		return Vec3I{}, err
	}
	return Vec3I{x, y, z}, nil
}

// ReadMaybe reads the 1-byte present flag and, if set, calls fn.
func ReadMaybe[T any](r *Reader, fn func(*Reader) (T, error)) (*T, error) {
	present, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := fn(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ReadSet reads a VLQ length followed by N T's.
func ReadSet[T any](r *Reader, fn func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadVLQ()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
