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

// Package worldmanager observes PLAYER_WARP_RESULT and FLY_SHIP and upserts
// each visited world into internal/store. It keeps no per-session record of
// the current world. It is the semantic consumer of internal/protocol's
// SystemLocation/WarpAction tagged unions.
package worldmanager

import (
	"context"
	"fmt"
	"time"

	"starnetd/internal/hooks"
	"starnetd/internal/message"
	"starnetd/internal/plugin"
	"starnetd/internal/protocol"
	"starnetd/internal/store"
)

const Name = "world_manager"

func init() {
	plugin.Register(Name, func() plugin.Plugin { return &Plugin{} })
}

type Plugin struct {
	st *store.Store
}

func (p *Plugin) Name() string           { return Name }
func (p *Plugin) Dependencies() []string { return nil }

func (p *Plugin) Load(ctx *plugin.Context) error {
	p.st = ctx.Store
	ctx.Dispatcher.Register(protocol.PlayerWarpResult, Name, 10000, p.onWarpResult)
	ctx.Dispatcher.Register(protocol.FlyShip, Name, 10000, p.onFlyShip)
	return nil
}

func (p *Plugin) Unload() error { return nil }

func (p *Plugin) onWarpResult(sess hooks.Session, msg *message.Message) (bool, error) {
	parsed, err := msg.Parsed()
	if err != nil {
		return true, nil
	}
	result, ok := parsed.(protocol.PlayerWarpResultMsg)
	if !ok || !result.Success || result.Action == nil {
		return true, nil
	}
	p.recordWarp(warpLocationString(result.Action), warpKind(result.Action))
	return true, nil
}

func (p *Plugin) onFlyShip(sess hooks.Session, msg *message.Message) (bool, error) {
	parsed, err := msg.Parsed()
	if err != nil {
		return true, nil
	}
	fly, ok := parsed.(protocol.FlyShipMsg)
	if !ok || fly.Location == nil {
		return true, nil
	}
	p.recordWarp(systemLocationString(fly.Location), "celestial")
	return true, nil
}

func (p *Plugin) recordWarp(locationStr, kind string) {
	if p.st == nil || locationStr == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = p.st.UpsertWorld(ctx, locationStr, kind, time.Now())
}

func warpKind(a *protocol.WarpAction) string {
	switch a.Kind {
	case protocol.WarpToPlayer:
		return "instance"
	case protocol.WarpToAlias:
		return "instance"
	default:
		switch a.WorldKind {
		case protocol.WarpWorldShip:
			return "ship"
		case protocol.WarpWorldUnique:
			return "instance"
		default:
			return "celestial"
		}
	}
}

func warpLocationString(a *protocol.WarpAction) string {
	switch a.Kind {
	case protocol.WarpToWorld:
		switch a.WorldKind {
		case protocol.WarpWorldCelestial:
			if a.Coordinate != nil {
				return celestialString(*a.Coordinate)
			}
		case protocol.WarpWorldShip:
			if a.ShipUUID != nil {
				return "ship:" + a.ShipUUID.String()
			}
		case protocol.WarpWorldUnique:
			return "instance:" + a.UniqueName
		}
	case protocol.WarpToPlayer:
		if a.PlayerUUID != nil {
			return "player:" + a.PlayerUUID.String()
		}
	}
	return ""
}

func systemLocationString(l *protocol.SystemLocation) string {
	switch l.Kind {
	case protocol.SystemLocationCoordinate:
		if l.Coordinate != nil {
			return celestialString(*l.Coordinate)
		}
	case protocol.SystemLocationUUID:
		if l.UUID != nil {
			return "ship:" + l.UUID.String()
		}
	case protocol.SystemLocationOrbit:
		return fmt.Sprintf("orbit:%d:%d", l.OrbitPlanet, l.OrbitMoon)
	case protocol.SystemLocationLocation:
		if l.Location != nil {
			return fmt.Sprintf("loc:%d:%d", l.Location.X, l.Location.Y)
		}
	}
	return ""
}

func celestialString(c protocol.CelestialCoordinates) string {
	return fmt.Sprintf("celestial:%d:%d:%d:%d:%d", c.X, c.Y, c.Z, c.Planet, c.Moon)
}
