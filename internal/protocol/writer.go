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

	"starnetd/internal/wire"
)

// Writer builds a message body, the inverse of Reader.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

func (w *Writer) WriteU16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }

func (w *Writer) WriteU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteU64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

func (w *Writer) WriteVLQ(v uint64) { w.buf = wire.AppendVLQ(w.buf, v) }
func (w *Writer) WriteSVLQ(v int64) { w.buf = wire.AppendSVLQ(w.buf, v) }

func (w *Writer) WriteRaw(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) WriteByteArray(b []byte) {
	w.WriteVLQ(uint64(len(b)))
	w.WriteRaw(b)
}

func (w *Writer) WriteString(s string) { w.WriteByteArray([]byte(s)) }

func (w *Writer) WriteStringSet(ss []string) {
	w.WriteVLQ(uint64(len(ss)))
	for _, s := range ss {
		w.WriteString(s)
	}
}

func (w *Writer) WriteUUID(u UUID) { w.WriteRaw(u[:]) }

func (w *Writer) WriteVec2F(v Vec2F) { w.WriteF32(v.X); w.WriteF32(v.Y) }
func (w *Writer) WriteVec2I(v Vec2I) { w.WriteI32(v.X); w.WriteI32(v.Y) }
func (w *Writer) WriteVec2U(v Vec2U) { w.WriteU32(v.X); w.WriteU32(v.Y) }
func (w *Writer) WriteVec3I(v Vec3I) { w.WriteI32(v.X); w.WriteI32(v.Y); w.WriteI32(v.Z) }

// WriteMaybe writes the present flag and, if v != nil, calls fn.
func WriteMaybe[T any](w *Writer, v *T, fn func(*Writer, T)) {
	w.WriteBool(v != nil)
	if v != nil {
		fn(w, *v)
	}
}

// WriteSet writes a VLQ length followed by each element.
func WriteSet[T any](w *Writer, vs []T, fn func(*Writer, T)) {
	w.WriteVLQ(uint64(len(vs)))
	for _, v := range vs {
		fn(w, v)
	}
}
