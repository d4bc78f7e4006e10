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

	"starnetd/internal/errs"
)

func TestFrameRoundTripUncompressed(t *testing.T) {
	in := &Frame{Type: 7, Body: []byte("hello world"), Direction: ToClient}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, in))

	out, err := ReadFrame(bufio.NewReader(&buf), ToClient)
	require.NoError(t, err)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.Body, out.Body)
	assert.False(t, out.Compressed)
}

func TestFrameRoundTripCompressed(t *testing.T) {
	in := &Frame{Type: 20, Body: bytes.Repeat([]byte("x"), 4096), Compressed: true, Direction: ToServer}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, in))

	out, err := ReadFrame(bufio.NewReader(&buf), ToServer)
	require.NoError(t, err)
	assert.True(t, out.Compressed)
	assert.Equal(t, in.Body, out.Body)
}

func TestReadFrameTruncated(t *testing.T) {
	in := &Frame{Type: 1, Body: []byte("not enough")}
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, in))

	truncated := buf.Bytes()[:buf.Len()-3]
	_, err := ReadFrame(bufio.NewReader(bytes.NewReader(truncated)), ToClient)
	assert.ErrorIs(t, err, errs.ErrIncompletePacket)
}
