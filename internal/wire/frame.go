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

package wire

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/valyala/bytebufferpool"

	"starnetd/internal/errs"
)

// Direction doubles as to-client/from-server and to-server/from-client,
// depending on which relay task stamped it (spec.md §3).
type Direction uint8

const (
	ToClient Direction = iota
	ToServer
)

// Frame is the raw wire unit read by C1, before C2 touches it.
type Frame struct {
	Type       uint8
	Compressed bool
	Body       []byte // post-decompression
	Original   []byte // exact bytes as seen on the wire
	Direction  Direction
}

var bufPool bytebufferpool.Pool

// ReadFrame reads one frame: T (1 byte) | S (signed VLQ) | B (|S| bytes).
// A negative S means B is zlib-compressed. Any short read surfaces as
// errs.ErrIncompletePacket, the normal peer-closed path.
func ReadFrame(r *bufio.Reader, dir Direction) (*Frame, error) {
	t, err := r.ReadByte()
	if err != nil {
		return nil, errs.ErrIncompletePacket
	}

	sizeBuf := bufPool.Get()
	defer bufPool.Put(sizeBuf)

	size, _, err := ReadSVLQ(r)
	if err != nil {
		return nil, errs.ErrIncompletePacket
	}
	// Recompute the exact bytes consumed for the size field, since ReadSVLQ
	// only reports a byte count, not the bytes themselves.
	sizeBuf.B = AppendSVLQ(sizeBuf.B[:0], size)

	compressed := size < 0
	n := size
	if compressed {
		n = -size
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errs.ErrIncompletePacket
	}

	original := make([]byte, 0, 1+len(sizeBuf.B)+len(body))
	original = append(original, t)
	original = append(original, sizeBuf.B...)
	original = append(original, body...)

	decoded := body
	if compressed {
		decoded, err = inflate(body)
		if err != nil {
			return nil, errs.ErrIncompletePacket
		}
	}

	return &Frame{
		Type:       t,
		Compressed: compressed,
		Body:       decoded,
		Original:   original,
		Direction:  dir,
	}, nil
}

// WriteFrame emits T, a signed VLQ of ±len(body) matching the compressed
// flag, then the body (re-compressed if the flag is set).
func WriteFrame(w io.Writer, f *Frame) error {
	body := f.Body
	if f.Compressed {
		compressed, err := deflate(body)
		if err != nil {
			return err
		}
		body = compressed
	}

	buf := bufPool.Get()
	defer bufPool.Put(buf)

	buf.B = append(buf.B[:0], f.Type)
	size := int64(len(body))
	if f.Compressed {
		size = -size
	}
	buf.B = AppendSVLQ(buf.B, size)
	buf.B = append(buf.B, body...)

	_, err := w.Write(buf.B)
	return err
}

func inflate(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(&byteReader{b: body})
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func deflate(body []byte) ([]byte, error) {
	out := bufPool.Get()
	defer bufPool.Put(out)
	zw := zlib.NewWriter(out)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	result := make([]byte, len(out.B))
	copy(result, out.B)
	return result, nil
}

type byteReader struct {
	b []byte
	i int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}
