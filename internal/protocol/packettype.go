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

// Package protocol is C2: the structured codec. PacketType is frozen per
// protocol version (spec.md §9, open question iii) — a version bump is a
// new registry, not a migration of this one.
package protocol

// PacketType is a dense enumeration starting at 0 with stable ordinals; the
// on-wire byte is the ordinal.
type PacketType uint8

const (
	ProtocolRequest PacketType = iota
	ProtocolResponse
	ServerDisconnect
	ConnectSuccess
	ConnectFailure
	HandshakeChallenge
	ChatReceived
	UniverseTimeUpdate
	CelestialResponse
	PlayerWarpResult
	PlanetTypeUpdate
	Pause
	ClientConnect
	ClientDisconnectRequest
	HandshakeResponse
	PlayerWarp
	FlyShip
	ChatSent
	CelestialRequest
	ClientContextUpdate
	WorldStart
	WorldStop
	WorldLayoutUpdate
	WorldParametersUpdate
	CentralStructureUpdate
	TileArrayUpdate
	TileUpdate
	TileLiquidUpdate
	TileDamageUpdate
	TileModificationFailure
	GiveItem
	EnvironmentUpdate
	UpdateTileProtection
	SetDungeonGravity
	SetDungeonBreathable
	SetPlayerStart
	FindUniqueEntityResponse
	ModifyTileList
	DamageTileGroup
	CollectLiquid
	RequestDrop
	SpawnEntity
	ConnectWire
	DisconnectAllWires
	WorldClientStateUpdate
	FindUniqueEntity
	Unknown
	EntityCreate
	EntityUpdate
	EntityDestroy
	EntityInteract
	EntityInteractResult
	HitRequest
	DamageRequest
	DamageNotification
	EntityMessage
	EntityMessageResponse
	UpdateWorldProperties
	StepUpdate
	SystemWorldStart
	SystemWorldUpdate
	SystemObjectCreate
	SystemObjectDestroy
	SystemShipCreate
	SystemShipDestroy
	SystemObjectSpawn

	packetTypeCount
)

var packetTypeNames = [packetTypeCount]string{
	"PROTOCOL_REQUEST", "PROTOCOL_RESPONSE", "SERVER_DISCONNECT", "CONNECT_SUCCESS",
	"CONNECT_FAILURE", "HANDSHAKE_CHALLENGE", "CHAT_RECEIVED", "UNIVERSE_TIME_UPDATE",
	"CELESTIAL_RESPONSE", "PLAYER_WARP_RESULT", "PLANET_TYPE_UPDATE", "PAUSE",
	"CLIENT_CONNECT", "CLIENT_DISCONNECT_REQUEST", "HANDSHAKE_RESPONSE", "PLAYER_WARP",
	"FLY_SHIP", "CHAT_SENT", "CELESTIAL_REQUEST", "CLIENT_CONTEXT_UPDATE",
	"WORLD_START", "WORLD_STOP", "WORLD_LAYOUT_UPDATE", "WORLD_PARAMETERS_UPDATE",
	"CENTRAL_STRUCTURE_UPDATE", "TILE_ARRAY_UPDATE", "TILE_UPDATE", "TILE_LIQUID_UPDATE",
	"TILE_DAMAGE_UPDATE", "TILE_MODIFICATION_FAILURE", "GIVE_ITEM", "ENVIRONMENT_UPDATE",
	"UPDATE_TILE_PROTECTION", "SET_DUNGEON_GRAVITY", "SET_DUNGEON_BREATHABLE", "SET_PLAYER_START",
	"FIND_UNIQUE_ENTITY_RESPONSE", "MODIFY_TILE_LIST", "DAMAGE_TILE_GROUP", "COLLECT_LIQUID",
	"REQUEST_DROP", "SPAWN_ENTITY", "CONNECT_WIRE", "DISCONNECT_ALL_WIRES",
	"WORLD_CLIENT_STATE_UPDATE", "FIND_UNIQUE_ENTITY", "UNKNOWN", "ENTITY_CREATE",
	"ENTITY_UPDATE", "ENTITY_DESTROY", "ENTITY_INTERACT", "ENTITY_INTERACT_RESULT",
	"HIT_REQUEST", "DAMAGE_REQUEST", "DAMAGE_NOTIFICATION", "ENTITY_MESSAGE",
	"ENTITY_MESSAGE_RESPONSE", "UPDATE_WORLD_PROPERTIES", "STEP_UPDATE", "SYSTEM_WORLD_START",
	"SYSTEM_WORLD_UPDATE", "SYSTEM_OBJECT_CREATE", "SYSTEM_OBJECT_DESTROY", "SYSTEM_SHIP_CREATE",
	"SYSTEM_SHIP_DESTROY", "SYSTEM_OBJECT_SPAWN",
}

func (t PacketType) String() string {
	if t >= packetTypeCount {
		return "UNKNOWN_TYPE"
	}
	return packetTypeNames[t]
}

// Valid reports whether t falls within the frozen ordinal range.
func (t PacketType) Valid() bool {
	return t < packetTypeCount
}
