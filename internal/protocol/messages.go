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

import "starnetd/internal/errs"

// ProtocolRequestMsg is PROTOCOL_REQUEST's body: the client's requested
// protocol version.
type ProtocolRequestMsg struct {
	RequestVersion uint32
}

// ProtocolResponseMsg is PROTOCOL_RESPONSE's body: whether the server
// accepted the requested version.
type ProtocolResponseMsg struct {
	Allowed bool
}

// ServerDisconnectMsg carries the human-readable disconnect reason.
type ServerDisconnectMsg struct {
	Reason string
}

// ConnectSuccessMsg is CONNECT_SUCCESS's body.
type ConnectSuccessMsg struct {
	ClientID               uint64
	ServerUUID             UUID
	PlanetOrbitalLevels    int32
	SatelliteOrbitalLevels int32
	ChunkSize              int32
	XYRange                Vec2I
	ZRange                 Vec2I
}

// ConnectFailureMsg carries the human-readable rejection reason.
type ConnectFailureMsg struct {
	Reason string
}

// HandshakeChallengeMsg / HandshakeResponseMsg wrap the opaque password-auth
// exchange; the proxy never interprets the bytes, only relays them.
type HandshakeChallengeMsg struct {
	Challenge []byte
}

type HandshakeResponseMsg struct {
	Response []byte
}

// ChatReceivedMsg is a chat line forwarded from server to client.
type ChatReceivedMsg struct {
	Header  ChatHeader
	Name    string
	Junk    byte
	Message string
}

// ChatSentMsg is a chat line sent from client to server.
type ChatSentMsg struct {
	Text     string
	SendMode ChatSendMode
}

// UniverseTimeUpdateMsg carries the server's universe clock.
type UniverseTimeUpdateMsg struct {
	Time float64
}

// PlayerWarpMsg requests a warp for the player.
type PlayerWarpMsg struct {
	Action *WarpAction
	Deploy bool
}

// PlayerWarpResultMsg is the server's reply to a warp request.
type PlayerWarpResultMsg struct {
	Success bool
	Action  *WarpAction
	Deploy  bool
}

// FlyShipMsg requests ship flight to a system location.
type FlyShipMsg struct {
	Position Vec3I
	Location *SystemLocation
}

// ClientConnectMsg is the client's initial connect handshake body.
type ClientConnectMsg struct {
	AssetDigest      []byte
	AllowAssetMismatch bool
	UUID             UUID
	Name             string
	Species          string
	Chunks           WorldChunks
	Upgrades         ShipUpgrades
	IntroComplete    bool
	Account          string
}

// ClientContextUpdateMsg carries a batch of RPC calls as TaggedJSON values.
//
// The to-client direction of this type is observed in the wild with a
// sub-length of zero for reasons the protocol does not document; when that
// happens the body is captured opaquely in RawTail instead of being parsed,
// and Encode refuses to rebuild it (see the registered codec below).
type ClientContextUpdateMsg struct {
	Calls   []*TaggedJSON
	RawTail []byte
}

// WorldStartMsg is the body of WORLD_START.
type WorldStartMsg struct {
	Template           *TaggedJSON
	Sky                []byte
	Weather            []byte
	PlayerStart        Vec2F
	PlayerRespawn      Vec2F
	RespawnInWorld     bool
	WorldProperties    *TaggedJSON
	DungeonIDGravity   map[uint16]float32
	DungeonIDBreathable map[uint16]bool
	ProtectedDungeons  map[uint16]struct{}
	ClientID           uint16
	LocalInterpolation bool
}

// StepUpdateMsg carries the server's remote step counter.
type StepUpdateMsg struct {
	RemoteStep uint64
}

// GiveItemMsg requests an item be given to the player.
type GiveItemMsg struct {
	Name  string
	Count uint64
	Params *TaggedJSON
}

func init() {
	Register(ProtocolRequest, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			v, err := r.ReadU32()
			return ProtocolRequestMsg{RequestVersion: v}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ProtocolRequestMsg)
			w := NewWriter()
			w.WriteU32(m.RequestVersion)
			return w.Bytes(), nil
		},
	})

	Register(ProtocolResponse, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			v, err := r.ReadBool()
			return ProtocolResponseMsg{Allowed: v}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ProtocolResponseMsg)
			w := NewWriter()
			w.WriteBool(m.Allowed)
			return w.Bytes(), nil
		},
	})

	Register(ServerDisconnect, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			s, err := r.ReadString()
			return ServerDisconnectMsg{Reason: s}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ServerDisconnectMsg)
			w := NewWriter()
			w.WriteString(m.Reason)
			return w.Bytes(), nil
		},
	})

	Register(ConnectSuccess, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m ConnectSuccessMsg
			var err error
			if m.ClientID, err = r.ReadVLQ(); err != nil {
				return nil, err
			}
			if m.ServerUUID, err = r.ReadUUID(); err != nil {
				return nil, err
			}
			if m.PlanetOrbitalLevels, err = r.ReadI32(); err != nil {
				return nil, err
			}
			if m.SatelliteOrbitalLevels, err = r.ReadI32(); err != nil {
				return nil, err
			}
			if m.ChunkSize, err = r.ReadI32(); err != nil {
				return nil, err
			}
			if m.XYRange, err = r.ReadVec2I(); err != nil {
				return nil, err
			}
			if m.ZRange, err = r.ReadVec2I(); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ConnectSuccessMsg)
			w := NewWriter()
			w.WriteVLQ(m.ClientID)
			w.WriteUUID(m.ServerUUID)
			w.WriteI32(m.PlanetOrbitalLevels)
			w.WriteI32(m.SatelliteOrbitalLevels)
			w.WriteI32(m.ChunkSize)
			w.WriteVec2I(m.XYRange)
			w.WriteVec2I(m.ZRange)
			return w.Bytes(), nil
		},
	})

	Register(ConnectFailure, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			s, err := r.ReadString()
			return ConnectFailureMsg{Reason: s}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ConnectFailureMsg)
			w := NewWriter()
			w.WriteString(m.Reason)
			return w.Bytes(), nil
		},
	})

	Register(HandshakeChallenge, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			b, err := r.ReadByteArray()
			return HandshakeChallengeMsg{Challenge: b}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(HandshakeChallengeMsg)
			w := NewWriter()
			w.WriteByteArray(m.Challenge)
			return w.Bytes(), nil
		},
	})

	Register(HandshakeResponse, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			b, err := r.ReadByteArray()
			return HandshakeResponseMsg{Response: b}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(HandshakeResponseMsg)
			w := NewWriter()
			w.WriteByteArray(m.Response)
			return w.Bytes(), nil
		},
	})

	Register(ChatReceived, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m ChatReceivedMsg
			var err error
			if m.Header, err = DecodeChatHeader(r); err != nil {
				return nil, err
			}
			if m.Name, err = r.ReadString(); err != nil {
				return nil, err
			}
			if m.Junk, err = r.ReadByte(); err != nil {
				return nil, err
			}
			if m.Message, err = r.ReadString(); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ChatReceivedMsg)
			w := NewWriter()
			EncodeChatHeader(w, m.Header)
			w.WriteString(m.Name)
			w.WriteByte(m.Junk)
			w.WriteString(m.Message)
			return w.Bytes(), nil
		},
	})

	Register(ChatSent, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m ChatSentMsg
			var err error
			if m.Text, err = r.ReadString(); err != nil {
				return nil, err
			}
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			m.SendMode = ChatSendMode(b)
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ChatSentMsg)
			w := NewWriter()
			w.WriteString(m.Text)
			w.WriteByte(byte(m.SendMode))
			return w.Bytes(), nil
		},
	})

	Register(UniverseTimeUpdate, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			v, err := r.ReadF64()
			return UniverseTimeUpdateMsg{Time: v}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(UniverseTimeUpdateMsg)
			w := NewWriter()
			w.WriteF64(m.Time)
			return w.Bytes(), nil
		},
	})

	Register(PlayerWarp, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m PlayerWarpMsg
			var err error
			if m.Action, err = DecodeWarpAction(r); err != nil {
				return nil, err
			}
			if m.Deploy, err = r.ReadBool(); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(PlayerWarpMsg)
			w := NewWriter()
			EncodeWarpAction(w, m.Action)
			w.WriteBool(m.Deploy)
			return w.Bytes(), nil
		},
	})

	Register(PlayerWarpResult, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m PlayerWarpResultMsg
			var err error
			if m.Success, err = r.ReadBool(); err != nil {
				return nil, err
			}
			if m.Action, err = DecodeWarpAction(r); err != nil {
				return nil, err
			}
			if m.Deploy, err = r.ReadBool(); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(PlayerWarpResultMsg)
			w := NewWriter()
			w.WriteBool(m.Success)
			EncodeWarpAction(w, m.Action)
			w.WriteBool(m.Deploy)
			return w.Bytes(), nil
		},
	})

	Register(FlyShip, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m FlyShipMsg
			var err error
			if m.Position, err = r.ReadVec3I(); err != nil {
				return nil, err
			}
			if m.Location, err = DecodeSystemLocation(r); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(FlyShipMsg)
			w := NewWriter()
			w.WriteVec3I(m.Position)
			EncodeSystemLocation(w, m.Location)
			return w.Bytes(), nil
		},
	})

	Register(ClientConnect, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m ClientConnectMsg
			var err error
			if m.AssetDigest, err = r.ReadByteArray(); err != nil {
				return nil, err
			}
			if m.AllowAssetMismatch, err = r.ReadBool(); err != nil {
				return nil, err
			}
			if m.UUID, err = r.ReadUUID(); err != nil {
				return nil, err
			}
			if m.Name, err = r.ReadString(); err != nil {
				return nil, err
			}
			if m.Species, err = r.ReadString(); err != nil {
				return nil, err
			}
			if m.Chunks, err = DecodeWorldChunks(r); err != nil {
				return nil, err
			}
			if m.Upgrades, err = DecodeShipUpgrades(r); err != nil {
				return nil, err
			}
			if m.IntroComplete, err = r.ReadBool(); err != nil {
				return nil, err
			}
			if m.Account, err = r.ReadString(); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ClientConnectMsg)
			w := NewWriter()
			w.WriteByteArray(m.AssetDigest)
			w.WriteBool(m.AllowAssetMismatch)
			w.WriteUUID(m.UUID)
			w.WriteString(m.Name)
			w.WriteString(m.Species)
			EncodeWorldChunks(w, m.Chunks)
			EncodeShipUpgrades(w, m.Upgrades)
			w.WriteBool(m.IntroComplete)
			w.WriteString(m.Account)
			return w.Bytes(), nil
		},
	})

	Register(ClientContextUpdate, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			n, err := r.ReadVLQ()
			if err != nil {
				return nil, err
			}
			if n == 0 && r.Len() > 0 {
				return ClientContextUpdateMsg{RawTail: append([]byte(nil), r.Remaining()...)}, nil
			}
			calls := make([]*TaggedJSON, 0, n)
			for i := uint64(0); i < n; i++ {
				v, err := DecodeTaggedJSON(r)
				if err != nil {
					return nil, err
				}
				calls = append(calls, v)
			}
			return ClientContextUpdateMsg{Calls: calls}, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(ClientContextUpdateMsg)
			if m.RawTail != nil {
				return nil, errs.ErrNotImplemented
			}
			w := NewWriter()
			w.WriteVLQ(uint64(len(m.Calls)))
			for _, c := range m.Calls {
				EncodeTaggedJSON(w, c)
			}
			return w.Bytes(), nil
		},
	})

	Register(WorldStart, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m WorldStartMsg
			var err error
			if m.Template, err = DecodeTaggedJSON(r); err != nil {
				return nil, err
			}
			if m.Sky, err = r.ReadByteArray(); err != nil {
				return nil, err
			}
			if m.Weather, err = r.ReadByteArray(); err != nil {
				return nil, err
			}
			if m.PlayerStart, err = r.ReadVec2F(); err != nil {
				return nil, err
			}
			if m.PlayerRespawn, err = r.ReadVec2F(); err != nil {
				return nil, err
			}
			if m.RespawnInWorld, err = r.ReadBool(); err != nil {
				return nil, err
			}
			if m.WorldProperties, err = DecodeTaggedJSON(r); err != nil {
				return nil, err
			}
			gravN, err := r.ReadVLQ()
			if err != nil {
				return nil, err
			}
			m.DungeonIDGravity = make(map[uint16]float32, gravN)
			for i := uint64(0); i < gravN; i++ {
				k, err := r.ReadU16()
				if err != nil {
					return nil, err
				}
				v, err := r.ReadF32()
				if err != nil {
					return nil, err
				}
				m.DungeonIDGravity[k] = v
			}
			breathN, err := r.ReadVLQ()
			if err != nil {
				return nil, err
			}
			m.DungeonIDBreathable = make(map[uint16]bool, breathN)
			for i := uint64(0); i < breathN; i++ {
				k, err := r.ReadU16()
				if err != nil {
					return nil, err
				}
				v, err := r.ReadBool()
				if err != nil {
					return nil, err
				}
				m.DungeonIDBreathable[k] = v
			}
			protN, err := r.ReadVLQ()
			if err != nil {
				return nil, err
			}
			m.ProtectedDungeons = make(map[uint16]struct{}, protN)
			for i := uint64(0); i < protN; i++ {
				k, err := r.ReadU16()
				if err != nil {
					return nil, err
				}
				m.ProtectedDungeons[k] = struct{}{}
			}
			if m.ClientID, err = r.ReadU16(); err != nil {
				return nil, err
			}
			if m.LocalInterpolation, err = r.ReadBool(); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(WorldStartMsg)
			w := NewWriter()
			EncodeTaggedJSON(w, m.Template)
			w.WriteByteArray(m.Sky)
			w.WriteByteArray(m.Weather)
			w.WriteVec2F(m.PlayerStart)
			w.WriteVec2F(m.PlayerRespawn)
			w.WriteBool(m.RespawnInWorld)
			EncodeTaggedJSON(w, m.WorldProperties)
			w.WriteVLQ(uint64(len(m.DungeonIDGravity)))
			for k, v := range m.DungeonIDGravity {
				w.WriteU16(k)
				w.WriteF32(v)
			}
			w.WriteVLQ(uint64(len(m.DungeonIDBreathable)))
			for k, v := range m.DungeonIDBreathable {
				w.WriteU16(k)
				w.WriteBool(v)
			}
			w.WriteVLQ(uint64(len(m.ProtectedDungeons)))
			for k := range m.ProtectedDungeons {
				w.WriteU16(k)
			}
			w.WriteU16(m.ClientID)
			w.WriteBool(m.LocalInterpolation)
			return w.Bytes(), nil
		},
	})

	Register(StepUpdate, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			v, err := r.ReadVLQ()
			return StepUpdateMsg{RemoteStep: v}, err
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(StepUpdateMsg)
			w := NewWriter()
			w.WriteVLQ(m.RemoteStep)
			return w.Bytes(), nil
		},
	})

	Register(GiveItem, Codec{
		Decode: func(body []byte) (interface{}, error) {
			r := NewReader(body)
			var m GiveItemMsg
			var err error
			if m.Name, err = r.ReadString(); err != nil {
				return nil, err
			}
			if m.Count, err = r.ReadVLQ(); err != nil {
				return nil, err
			}
			if m.Params, err = DecodeTaggedJSON(r); err != nil {
				return nil, err
			}
			return m, nil
		},
		Encode: func(v interface{}) ([]byte, error) {
			m := v.(GiveItemMsg)
			w := NewWriter()
			w.WriteString(m.Name)
			w.WriteVLQ(m.Count)
			EncodeTaggedJSON(w, m.Params)
			return w.Bytes(), nil
		},
	})
}
