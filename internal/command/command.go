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

// Package command is C7: chat-command registration and dispatch. It installs
// itself as a single high-priority hook on CHAT_SENT, so commands always see
// the raw chat text before any lower-priority plugin hook does, and vetoes
// the frame once a command has consumed it (the text never reaches the
// upstream server as chat).
package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"starnetd/internal/errs"
	"starnetd/internal/events"
	"starnetd/internal/hooks"
	"starnetd/internal/logging"
	"starnetd/internal/message"
	"starnetd/internal/metrics"
	"starnetd/internal/protocol"
	"starnetd/internal/wire"
)

// DispatchPriority is the priority the command hook registers at; plugins
// relying on seeing unconsumed chat text must register below this.
const DispatchPriority = 1000

// Context is handed to a Handler: the invoking session plus the parsed
// argument line.
type Context struct {
	Session hooks.Session
	Name    string
	Args    []string
	RawArgs string
}

// Handler implements one chat command.
type Handler func(ctx *Context) error

// PermissionFunc reports whether sess may run a command requiring level.
type PermissionFunc func(sess hooks.Session, level string) bool

type registration struct {
	name     string
	aliases  []string
	priority int
	level    string
	syntax   string
	handler  Handler
}

// Registry holds every registered command, keyed by name and alias.
type Registry struct {
	prefix     string
	permission PermissionFunc

	mu       sync.RWMutex
	byName   map[string]*registration
	commands []*registration
}

// NewRegistry creates a command registry. prefix is the leading character(s)
// that mark a chat line as a command (e.g. "/"). permission may be nil, in
// which case every command is allowed.
func NewRegistry(prefix string, permission PermissionFunc) *Registry {
	return &Registry{
		prefix:     prefix,
		permission: permission,
		byName:     make(map[string]*registration),
	}
}

// Register adds a command. syntax is the usage template, command name
// included, shown after the command prefix in a syntax-error reply (e.g.
// "kick <name> [reason]"); pass "" for commands that take no arguments. A
// name or alias collision is rejected when the existing registration's
// priority is greater than or equal to the new one's; a strictly higher
// priority registration silently displaces the existing one.
func (r *Registry) Register(name string, aliases []string, priority int, level, syntax string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{name}, aliases...)
	for _, n := range names {
		if existing, ok := r.byName[n]; ok && existing.priority >= priority {
			return errs.SyntaxError{Detail: "command name or alias already registered: " + n}
		}
	}

	reg := &registration{name: name, aliases: aliases, priority: priority, level: level, syntax: syntax, handler: h}
	for _, n := range names {
		if existing, ok := r.byName[n]; ok {
			r.removeLocked(existing)
		}
		r.byName[n] = reg
	}
	r.commands = append(r.commands, reg)
	sort.SliceStable(r.commands, func(i, j int) bool { return r.commands[i].priority > r.commands[j].priority })
	return nil
}

func (r *Registry) removeLocked(reg *registration) {
	for i, c := range r.commands {
		if c == reg {
			r.commands = append(r.commands[:i:i], r.commands[i+1:]...)
			return
		}
	}
}

// List returns the registered top-level command names (not aliases) the
// given session may run, per the registry's PermissionFunc, in priority
// order.
func (r *Registry) List(sess hooks.Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		if r.permission == nil || r.permission(sess, c.level) {
			names = append(names, c.name)
		}
	}
	return names
}

// Unregister drops name and all its aliases.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byName[name]
	if !ok {
		return
	}
	delete(r.byName, reg.name)
	for _, a := range reg.aliases {
		delete(r.byName, a)
	}
	r.removeLocked(reg)
}

// AsHook returns a hooks.Handler suitable for registration on CHAT_SENT.
func (r *Registry) AsHook() hooks.Handler {
	return func(sess hooks.Session, msg *message.Message) (bool, error) {
		parsed, err := msg.Parsed()
		if err != nil {
			return true, nil // not a command we can even read, let it pass
		}
		chat, ok := parsed.(protocol.ChatSentMsg)
		if !ok {
			return true, nil
		}
		text := strings.TrimSpace(chat.Text)
		if !strings.HasPrefix(text, r.prefix) {
			return true, nil
		}
		return false, r.dispatch(sess, strings.TrimPrefix(text, r.prefix))
	}
}

func (r *Registry) dispatch(sess hooks.Session, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		err := errs.SyntaxError{Detail: "empty command"}
		r.replyError(sess, err, "")
		return err
	}
	name := strings.ToLower(fields[0])

	r.mu.RLock()
	reg, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		if sendErr := Reply(sess, fmt.Sprintf("Command %s does not exist.", name)); sendErr != nil {
			logging.Warnf("command: reply to %s: %v", sess.RemoteAddr(), sendErr)
		}
		return errs.SyntaxError{Detail: "unknown command: " + name}
	}
	if r.permission != nil && !r.permission(sess, reg.level) {
		err := errs.PermissionError{Detail: "insufficient permission for " + name}
		r.replyError(sess, err, reg.syntax)
		return err
	}

	metrics.CommandsDispatched.WithLabelValues(reg.name).Inc()
	events.Publish("command", sess.RemoteAddr()+" ran /"+reg.name)
	ctx := &Context{
		Session: sess,
		Name:    reg.name,
		Args:    fields[1:],
		RawArgs: strings.TrimSpace(strings.TrimPrefix(line, fields[0])),
	}
	err := reg.handler(ctx)
	if err != nil {
		r.replyError(sess, err, reg.syntax)
	}
	return err
}

// replyError implements the handler invocation contract: a syntax error
// gets the error text plus the command's syntax template prefixed by the
// registry's command prefix, a permission error gets a generic denial plus
// its detail, and anything else gets a generic failure and is logged.
func (r *Registry) replyError(sess hooks.Session, err error, syntax string) {
	var text string
	var synErr errs.SyntaxError
	var permErr errs.PermissionError
	switch {
	case errors.As(err, &synErr):
		text = synErr.Detail
		if syntax != "" {
			text += " " + r.prefix + syntax
		}
	case errors.As(err, &permErr):
		text = "permission denied: " + permErr.Detail
	default:
		text = "command failed"
		logging.Warnf("command: handler error: %v", err)
	}
	if sendErr := Reply(sess, text); sendErr != nil {
		logging.Warnf("command: reply to %s: %v", sess.RemoteAddr(), sendErr)
	}
}

// Reply injects a CHAT_RECEIVED message to sess, the mechanism every
// command uses to talk back to the player that invoked it.
func Reply(sess hooks.Session, text string) error {
	msg, err := message.FromValue(protocol.ChatReceived, wire.ToClient, protocol.ChatReceivedMsg{
		Header:  protocol.ChatHeader{Mode: protocol.ChatRecvCommandResult},
		Name:    "server",
		Message: text,
	})
	if err != nil {
		return err
	}
	return sess.SendToClient(msg)
}
