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

// Package commands registers the proxy's built-in chat commands: /help,
// /who, /kick, /ban. Grounded in StarryPy's info_commands.py and the core
// command_dispatcher, reimplemented as thin wrappers over C7 + the store.
package commands

import (
	"context"
	"strings"
	"time"

	"starnetd/internal/command"
	"starnetd/internal/errs"
	"starnetd/internal/hooks"
	"starnetd/internal/plugin"
	"starnetd/internal/plugin/builtin/playermanager"
	"starnetd/internal/store"
)

const Name = "builtin_commands"

func init() {
	plugin.Register(Name, func() plugin.Plugin { return &Plugin{} })
}

type Plugin struct {
	cmds     *command.Registry
	st       *store.Store
	sessions func(match func(hooks.Session) bool) (hooks.Session, bool)
}

func (p *Plugin) Name() string           { return Name }
func (p *Plugin) Dependencies() []string { return []string{playermanager.Name} }

func (p *Plugin) Load(ctx *plugin.Context) error {
	p.cmds = ctx.Commands
	p.st = ctx.Store
	p.sessions = ctx.Sessions

	reg := func(name string, aliases []string, level, syntax string, h command.Handler) {
		if err := p.cmds.Register(name, aliases, 0, level, syntax, h); err != nil {
			ctx.Log.Warnf("register /%s: %v", name, err)
		}
	}

	reg("help", nil, "user", "", p.help)
	reg("who", nil, "user", "", p.who)
	reg("kick", nil, "moderator", "kick <name> [reason]", p.kick)
	reg("ban", nil, "moderator", "ban <name|ip> [reason]", p.ban)
	return nil
}

func (p *Plugin) Unload() error {
	for _, name := range []string{"help", "who", "kick", "ban"} {
		p.cmds.Unregister(name)
	}
	return nil
}

func (p *Plugin) help(ctx *command.Context) error {
	names := p.cmds.List(ctx.Session)
	return command.Reply(ctx.Session, "available commands: "+strings.Join(names, ", "))
}

func (p *Plugin) who(ctx *command.Context) error {
	var names []string
	for _, sess := range allSessions(p.sessions) {
		if id, ok := playermanager.Lookup(sess); ok {
			names = append(names, id.Name)
		}
	}
	if len(names) == 0 {
		return command.Reply(ctx.Session, "no players online")
	}
	return command.Reply(ctx.Session, "online: "+strings.Join(names, ", "))
}

func (p *Plugin) kick(ctx *command.Context) error {
	if len(ctx.Args) < 1 {
		return errs.SyntaxError{Detail: "missing player name."}
	}
	name := ctx.Args[0]
	reason := strings.Join(ctx.Args[1:], " ")
	if reason == "" {
		reason = "kicked by moderator"
	}

	if p.sessions == nil {
		return errs.PermissionError{Detail: "session lookup not available"}
	}
	target, ok := p.sessions(func(sess hooks.Session) bool {
		id, ok := playermanager.Lookup(sess)
		return ok && strings.EqualFold(id.Name, name)
	})
	if !ok {
		return errs.SyntaxError{Detail: "player not online: " + name}
	}

	_ = command.Reply(target, "disconnected: "+reason)
	target.Close()
	return nil
}

func (p *Plugin) ban(ctx *command.Context) error {
	if len(ctx.Args) < 1 {
		return errs.SyntaxError{Detail: "missing target."}
	}
	target := ctx.Args[0]
	reason := strings.Join(ctx.Args[1:], " ")

	if p.st == nil {
		return errs.PermissionError{Detail: "no store configured"}
	}
	tctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	banTarget := target
	if player, err := p.st.PlayerByName(tctx, target); err == nil && player != nil {
		banTarget = player.UUID
	}

	if err := p.st.AddBan(tctx, store.Ban{
		Target:    banTarget,
		Reason:    reason,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}
	return command.Reply(ctx.Session, "banned: "+target)
}

func allSessions(lookup func(match func(hooks.Session) bool) (hooks.Session, bool)) []hooks.Session {
	if lookup == nil {
		return nil
	}
	var out []hooks.Session
	// lookup only returns the first match; walk by excluding prior matches
	// so a nil Sessions.All isn't required here.
	seen := make(map[hooks.Session]bool)
	for {
		sess, ok := lookup(func(s hooks.Session) bool { return !seen[s] })
		if !ok {
			return out
		}
		seen[sess] = true
		out = append(out, sess)
	}
}
