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

// Package playermanager tracks logged-in players, enforces IP/uuid bans at
// CLIENT_CONNECT, and records each connect in internal/store; disconnects
// are not written to the store. Grounded
// in StarryPy's player_manager.py: every other plugin that needs "who is
// this session" consults this one instead of re-parsing CLIENT_CONNECT.
package playermanager

import (
	"context"
	"strings"
	"sync"
	"time"

	"starnetd/internal/hooks"
	"starnetd/internal/message"
	"starnetd/internal/plugin"
	"starnetd/internal/protocol"
	"starnetd/internal/store"
)

const Name = "player_manager"

func init() {
	plugin.Register(Name, func() plugin.Plugin { return &Plugin{} })
}

// Identity is the per-session record built from CLIENT_CONNECT, stashed in
// the session's PluginData so other plugins can retrieve it.
type Identity struct {
	UUID     string
	Name     string
	Account  string
	ClientID uint16
}

const identityKey = "playermanager.identity"

// Lookup retrieves the Identity a prior CLIENT_CONNECT hook stored on sess,
// if any.
func Lookup(sess hooks.Session) (*Identity, bool) {
	v, ok := sess.PluginData().Load(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}

// Plugin implements plugin.Plugin.
type Plugin struct {
	st *store.Store

	mu      sync.RWMutex
	online  map[string]*Identity // uuid -> identity, currently connected
}

func (p *Plugin) Name() string           { return Name }
func (p *Plugin) Dependencies() []string { return nil }

func (p *Plugin) Load(ctx *plugin.Context) error {
	p.st = ctx.Store
	p.online = make(map[string]*Identity)
	ctx.Dispatcher.Register(protocol.ClientConnect, Name, 10000, p.onClientConnect)
	return nil
}

func (p *Plugin) Unload() error { return nil }

func (p *Plugin) onClientConnect(sess hooks.Session, msg *message.Message) (bool, error) {
	parsed, err := msg.Parsed()
	if err != nil {
		return true, nil
	}
	connect, ok := parsed.(protocol.ClientConnectMsg)
	if !ok {
		return true, nil
	}

	ip := hostOf(sess.RemoteAddr())
	uuidStr := connect.UUID.String()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if p.st != nil {
		if banned, err := p.st.IsBanned(ctx, uuidStr); err == nil && banned {
			return false, nil
		}
		if ip != "" {
			if banned, err := p.st.IsBanned(ctx, ip); err == nil && banned {
				return false, nil
			}
		}
	}

	id := &Identity{UUID: uuidStr, Name: connect.Name, Account: connect.Account}
	sess.PluginData().Store(identityKey, id)

	p.mu.Lock()
	p.online[uuidStr] = id
	p.mu.Unlock()

	if p.st != nil {
		_ = p.st.UpsertPlayer(ctx, store.Player{
			UUID: uuidStr, Name: connect.Name, Account: connect.Account,
			LastIP: ip, FirstSeen: time.Now(), LastSeen: time.Now(),
		})
	}
	return true, nil
}

// Disconnect removes uuid from the online set. The relay's session
// teardown does not call it, so a closed session's identity stays in the
// online set.
func (p *Plugin) Disconnect(uuidStr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, uuidStr)
}

// Online returns a snapshot of currently connected player identities.
func (p *Plugin) Online() []*Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Identity, 0, len(p.online))
	for _, id := range p.online {
		out = append(out, id)
	}
	return out
}

func hostOf(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
