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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starnetd/internal/errs"
)

func roundTrip(t *testing.T, pt PacketType, v interface{}) interface{} {
	t.Helper()
	body, err := EncodeBody(pt, v)
	require.NoError(t, err)
	got, err := DecodeBody(pt, body)
	require.NoError(t, err)
	return got
}

func TestUniverseTimeUpdateRoundTrip(t *testing.T) {
	got := roundTrip(t, UniverseTimeUpdate, UniverseTimeUpdateMsg{Time: 123.5})
	assert.Equal(t, UniverseTimeUpdateMsg{Time: 123.5}, got)
}

func TestChatSentRoundTrip(t *testing.T) {
	in := ChatSentMsg{Text: "/kick griefer", SendMode: ChatSendLocal}
	got := roundTrip(t, ChatSent, in)
	assert.Equal(t, in, got)
}

func TestChatReceivedRoundTrip(t *testing.T) {
	in := ChatReceivedMsg{
		Header:  ChatHeader{Mode: ChatRecvBroadcast, Channel: "global"},
		Name:    "server",
		Message: "welcome",
	}
	got := roundTrip(t, ChatReceived, in)
	assert.Equal(t, in, got)
}

func TestConnectSuccessRoundTrip(t *testing.T) {
	in := ConnectSuccessMsg{
		ClientID:               7,
		ServerUUID:             uuid.New(),
		PlanetOrbitalLevels:    3,
		SatelliteOrbitalLevels: 2,
		ChunkSize:              32,
		XYRange:                Vec2I{X: -100, Y: 100},
		ZRange:                 Vec2I{X: 0, Y: 255},
	}
	got := roundTrip(t, ConnectSuccess, in)
	assert.Equal(t, in, got)
}

func TestStepUpdateRoundTrip(t *testing.T) {
	got := roundTrip(t, StepUpdate, StepUpdateMsg{RemoteStep: 99})
	assert.Equal(t, StepUpdateMsg{RemoteStep: 99}, got)
}

func TestGiveItemRoundTrip(t *testing.T) {
	in := GiveItemMsg{Name: "torch", Count: 5, Params: JSONNullValue()}
	got := roundTrip(t, GiveItem, in)
	assert.Equal(t, in, got)
}

func TestDecodeBodyUnregisteredTypeIsNotImplemented(t *testing.T) {
	_, err := DecodeBody(WorldClientStateUpdate, []byte{0x01})
	assert.ErrorIs(t, err, errs.ErrNotImplemented)
}
