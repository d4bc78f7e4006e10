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

// ChatSendMode / ChatReceiveMode mirror the protocol's chat mode bytes.
type ChatSendMode byte

const (
	ChatSendUniverse ChatSendMode = iota
	ChatSendLocal
	ChatSendParty
)

type ChatReceiveMode byte

const (
	ChatRecvLocal ChatReceiveMode = iota
	ChatRecvParty
	ChatRecvBroadcast
	ChatRecvWhisper
	ChatRecvCommandResult
	ChatRecvRadioMessage
	ChatRecvWorld
)

// ChatHeader prefixes CHAT_RECEIVED bodies.
type ChatHeader struct {
	Mode     ChatReceiveMode
	Channel  string
	Unknown  byte // set when Mode <= 1, spec's "junk" byte for that branch
	ClientID uint16
}

func DecodeChatHeader(r *Reader) (ChatHeader, error) {
	var h ChatHeader
	mode, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	h.Mode = ChatReceiveMode(mode)
	if mode > 1 {
		h.Channel, err = r.ReadString()
		if err != nil {
			return h, err
		}
	} else {
		h.Unknown, err = r.ReadByte()
		if err != nil {
			return h, err
		}
	}
	h.ClientID, err = r.ReadU16()
	return h, err
}

func EncodeChatHeader(w *Writer, h ChatHeader) {
	w.WriteByte(byte(h.Mode))
	if h.Mode > 1 {
		w.WriteString(h.Channel)
	} else {
		w.WriteByte(h.Unknown)
	}
	w.WriteU16(h.ClientID)
}

// CelestialCoordinates locates a system in the universe.
type CelestialCoordinates struct {
	X, Y, Z int32
	Planet  int32
	Moon    int32
}

func DecodeCelestialCoordinates(r *Reader) (CelestialCoordinates, error) {
	var c CelestialCoordinates
	var err error
	if c.X, err = r.ReadI32(); err != nil {
		return c, err
	}
	if c.Y, err = r.ReadI32(); err != nil {
		return c, err
	}
	if c.Z, err = r.ReadI32(); err != nil {
		return c, err
	}
	if c.Planet, err = r.ReadI32(); err != nil {
		return c, err
	}
	if c.Moon, err = r.ReadI32(); err != nil {
		return c, err
	}
	return c, nil
}

func EncodeCelestialCoordinates(w *Writer, c CelestialCoordinates) {
	w.WriteI32(c.X)
	w.WriteI32(c.Y)
	w.WriteI32(c.Z)
	w.WriteI32(c.Planet)
	w.WriteI32(c.Moon)
}

// SystemLocationKind is the leading discriminant of a SystemLocation.
type SystemLocationKind byte

const (
	SystemLocationSystem SystemLocationKind = iota
	SystemLocationCoordinate
	SystemLocationOrbit
	SystemLocationUUID
	SystemLocationLocation
)

// SystemLocation is a tagged union over five location kinds (spec.md §4.2).
type SystemLocation struct {
	Kind       SystemLocationKind
	Coordinate *CelestialCoordinates
	OrbitPlanet int32
	OrbitMoon   int32
	UUID        *UUID
	Location    *Vec2I
}

func DecodeSystemLocation(r *Reader) (*SystemLocation, error) {
	kb, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	loc := &SystemLocation{Kind: SystemLocationKind(kb)}
	switch loc.Kind {
	case SystemLocationSystem:
		// no payload
	case SystemLocationCoordinate:
		c, err := DecodeCelestialCoordinates(r)
		if err != nil {
			return nil, err
		}
		loc.Coordinate = &c
	case SystemLocationOrbit:
		if loc.OrbitPlanet, err = r.ReadI32(); err != nil {
			return nil, err
		}
		if loc.OrbitMoon, err = r.ReadI32(); err != nil {
			return nil, err
		}
	case SystemLocationUUID:
		u, err := r.ReadUUID()
		if err != nil {
			return nil, err
		}
		loc.UUID = &u
	case SystemLocationLocation:
		v, err := r.ReadVec2I()
		if err != nil {
			return nil, err
		}
		loc.Location = &v
	default:
		return nil, errs.ErrUnknownTag
	}
	return loc, nil
}

func EncodeSystemLocation(w *Writer, loc *SystemLocation) {
	w.WriteByte(byte(loc.Kind))
	switch loc.Kind {
	case SystemLocationSystem:
	case SystemLocationCoordinate:
		if loc.Coordinate != nil {
			EncodeCelestialCoordinates(w, *loc.Coordinate)
		}
	case SystemLocationOrbit:
		w.WriteI32(loc.OrbitPlanet)
		w.WriteI32(loc.OrbitMoon)
	case SystemLocationUUID:
		if loc.UUID != nil {
			w.WriteUUID(*loc.UUID)
		}
	case SystemLocationLocation:
		if loc.Location != nil {
			w.WriteVec2I(*loc.Location)
		}
	}
}

// WarpKind / WarpWorldKind discriminate WarpAction, nested two levels deep.
type WarpKind byte

const (
	WarpToWorld WarpKind = iota + 1
	WarpToPlayer
	WarpToAlias
)

type WarpWorldKind byte

const (
	WarpWorldCelestial WarpWorldKind = iota + 1
	WarpWorldShip
	WarpWorldUnique
)

// WarpAction is a tagged union nested two levels deep: warp kind, then (only
// when the warp kind is to-world) world kind.
type WarpAction struct {
	Kind WarpKind

	// populated when Kind == WarpToWorld
	WorldKind  WarpWorldKind
	Coordinate *CelestialCoordinates // WarpWorldCelestial
	ShipUUID   *UUID                 // WarpWorldShip
	UniqueName string                // WarpWorldUnique

	// populated when Kind == WarpToPlayer
	PlayerUUID *UUID

	// populated when Kind == WarpToAlias
	AliasType byte
}

func DecodeWarpAction(r *Reader) (*WarpAction, error) {
	kb, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	a := &WarpAction{Kind: WarpKind(kb)}
	switch a.Kind {
	case WarpToWorld:
		wkb, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		a.WorldKind = WarpWorldKind(wkb)
		switch a.WorldKind {
		case WarpWorldCelestial:
			c, err := DecodeCelestialCoordinates(r)
			if err != nil {
				return nil, err
			}
			a.Coordinate = &c
		case WarpWorldShip:
			u, err := r.ReadUUID()
			if err != nil {
				return nil, err
			}
			a.ShipUUID = &u
		case WarpWorldUnique:
			a.UniqueName, err = r.ReadString()
			if err != nil {
				return nil, err
			}
		default:
			return nil, errs.ErrUnknownTag
		}
	case WarpToPlayer:
		u, err := r.ReadUUID()
		if err != nil {
			return nil, err
		}
		a.PlayerUUID = &u
	case WarpToAlias:
		a.AliasType, err = r.ReadByte()
		if err != nil {
			return nil, err
		}
	default:
		return nil, errs.ErrUnknownTag
	}
	return a, nil
}

func EncodeWarpAction(w *Writer, a *WarpAction) {
	w.WriteByte(byte(a.Kind))
	switch a.Kind {
	case WarpToWorld:
		w.WriteByte(byte(a.WorldKind))
		switch a.WorldKind {
		case WarpWorldCelestial:
			if a.Coordinate != nil {
				EncodeCelestialCoordinates(w, *a.Coordinate)
			}
		case WarpWorldShip:
			if a.ShipUUID != nil {
				w.WriteUUID(*a.ShipUUID)
			}
		case WarpWorldUnique:
			w.WriteString(a.UniqueName)
		}
	case WarpToPlayer:
		if a.PlayerUUID != nil {
			w.WriteUUID(*a.PlayerUUID)
		}
	case WarpToAlias:
		w.WriteByte(a.AliasType)
	}
}

// WorldChunkEntry is one opaque length-prefixed triple of the world-chunk blob.
type WorldChunkEntry struct {
	A []byte
	Separator byte
	B []byte
}

// WorldChunks is the ship-chunks / world-chunk blob: an array of opaque
// length-prefixed triples whose contents the core never interprets.
type WorldChunks struct {
	Entries []WorldChunkEntry
}

func DecodeWorldChunks(r *Reader) (WorldChunks, error) {
	n, err := r.ReadVLQ()
	if err != nil {
		return WorldChunks{}, err
	}
	wc := WorldChunks{Entries: make([]WorldChunkEntry, 0, n)}
	for i := uint64(0); i < n; i++ {
		a, err := r.ReadByteArray()
		if err != nil {
			return WorldChunks{}, err
		}
		sep, err := r.ReadByte()
		if err != nil {
			return WorldChunks{}, err
		}
		b, err := r.ReadByteArray()
		if err != nil {
			return WorldChunks{}, err
		}
		wc.Entries = append(wc.Entries, WorldChunkEntry{A: a, Separator: sep, B: b})
	}
	return wc, nil
}

func EncodeWorldChunks(w *Writer, wc WorldChunks) {
	w.WriteVLQ(uint64(len(wc.Entries)))
	for _, e := range wc.Entries {
		w.WriteByteArray(e.A)
		w.WriteByte(e.Separator)
		w.WriteByteArray(e.B)
	}
}

// ShipUpgrades is CLIENT_CONNECT's nested upgrades record.
type ShipUpgrades struct {
	ShipLevel        uint32
	MaxFuel          uint32
	CrewSize         uint32
	FuelEfficiency   float32
	ShipSpeed        float32
	ShipCapabilities []string
}

func DecodeShipUpgrades(r *Reader) (ShipUpgrades, error) {
	var u ShipUpgrades
	var err error
	if u.ShipLevel, err = r.ReadU32(); err != nil {
		return u, err
	}
	if u.MaxFuel, err = r.ReadU32(); err != nil {
		return u, err
	}
	if u.CrewSize, err = r.ReadU32(); err != nil {
		return u, err
	}
	if u.FuelEfficiency, err = r.ReadF32(); err != nil {
		return u, err
	}
	if u.ShipSpeed, err = r.ReadF32(); err != nil {
		return u, err
	}
	if u.ShipCapabilities, err = r.ReadStringSet(); err != nil {
		return u, err
	}
	return u, nil
}

func EncodeShipUpgrades(w *Writer, u ShipUpgrades) {
	w.WriteU32(u.ShipLevel)
	w.WriteU32(u.MaxFuel)
	w.WriteU32(u.CrewSize)
	w.WriteF32(u.FuelEfficiency)
	w.WriteF32(u.ShipSpeed)
	w.WriteStringSet(u.ShipCapabilities)
}
