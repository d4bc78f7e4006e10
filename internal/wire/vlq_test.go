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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLQRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40}
	for _, v := range values {
		buf := AppendVLQ(nil, v)
		got, n, err := DecodeVLQ(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestSVLQEncoding(t *testing.T) {
	// 2|n| for n>=0, 2|n|-1 for n<0 — not zig-zag.
	cases := []struct {
		n    int64
		mag  uint64
	}{
		{0, 0},
		{1, 2},
		{-1, 1},
		{5, 10},
		{-5, 9},
	}
	for _, c := range cases {
		buf := AppendSVLQ(nil, c.n)
		mag, _, err := DecodeVLQ(buf)
		require.NoError(t, err)
		assert.Equal(t, c.mag, mag)

		got, _, err := DecodeSVLQ(buf)
		require.NoError(t, err)
		assert.Equal(t, c.n, got)
	}
}

func TestReadSVLQFromReader(t *testing.T) {
	buf := AppendSVLQ(nil, -12345)
	r := bufio.NewReader(bytes.NewReader(buf))
	n, consumed, err := ReadSVLQ(r)
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), n)
	assert.Equal(t, len(buf), consumed)
}

func TestDecodeVLQIncomplete(t *testing.T) {
	_, _, err := DecodeVLQ([]byte{0x80, 0x80})
	assert.Error(t, err)
}
