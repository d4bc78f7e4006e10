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

package command

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starnetd/internal/errs"
	"starnetd/internal/hooks"
	"starnetd/internal/message"
	"starnetd/internal/protocol"
	"starnetd/internal/wire"
)

type fakeSession struct {
	data sync.Map
	sent []string
}

func (f *fakeSession) SendToClient(m *message.Message) error {
	v, err := m.Parsed()
	if err != nil {
		return err
	}
	f.sent = append(f.sent, v.(protocol.ChatReceivedMsg).Message)
	return nil
}
func (f *fakeSession) SendToServer(*message.Message) error { return nil }
func (f *fakeSession) RemoteAddr() string                  { return "10.0.0.1:5050" }
func (f *fakeSession) PluginData() *sync.Map                { return &f.data }
func (f *fakeSession) Close()                               {}

func chatMsg(text string) *message.Message {
	body, _ := protocol.EncodeBody(protocol.ChatSent, protocol.ChatSentMsg{Text: text})
	return message.New(&wire.Frame{Type: uint8(protocol.ChatSent), Body: body})
}

func TestRegisterRejectsLowerPriorityCollision(t *testing.T) {
	r := NewRegistry("/", nil)
	require.NoError(t, r.Register("kick", nil, 10, "mod", "", func(*Context) error { return nil }))
	err := r.Register("kick", nil, 5, "mod", "", func(*Context) error { return nil })
	assert.ErrorIs(t, err, errs.ErrCommandSyntax)
}

func TestRegisterHigherPriorityDisplaces(t *testing.T) {
	r := NewRegistry("/", nil)
	var ran string
	require.NoError(t, r.Register("kick", nil, 5, "mod", "", func(*Context) error { ran = "low"; return nil }))
	require.NoError(t, r.Register("kick", nil, 10, "mod", "", func(*Context) error { ran = "high"; return nil }))

	sess := &fakeSession{}
	forward, err := r.AsHook()(sess, chatMsg("/kick griefer"))
	require.NoError(t, err)
	assert.False(t, forward)
	assert.Equal(t, "high", ran)
}

func TestAsHookLetsNonCommandChatThrough(t *testing.T) {
	r := NewRegistry("/", nil)
	sess := &fakeSession{}
	forward, err := r.AsHook()(sess, chatMsg("hello everyone"))
	require.NoError(t, err)
	assert.True(t, forward)
}

func TestAsHookUnknownCommandErrors(t *testing.T) {
	r := NewRegistry("/", nil)
	sess := &fakeSession{}
	forward, err := r.AsHook()(sess, chatMsg("/nonexistent"))
	assert.False(t, forward)
	assert.ErrorIs(t, err, errs.ErrCommandSyntax)
	require.Len(t, sess.sent, 1)
	assert.Equal(t, "Command nonexistent does not exist.", sess.sent[0])
}

func TestPermissionDenied(t *testing.T) {
	r := NewRegistry("/", func(sess hooks.Session, level string) bool { return level == "user" })
	require.NoError(t, r.Register("ban", nil, 10, "moderator", "<name>", func(*Context) error { return nil }))

	sess := &fakeSession{}
	forward, err := r.AsHook()(sess, chatMsg("/ban someone"))
	assert.False(t, forward)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	require.Len(t, sess.sent, 1)
	assert.Contains(t, sess.sent[0], "permission denied")
}

func TestSyntaxErrorReplyIncludesPrefixedSyntaxTemplate(t *testing.T) {
	r := NewRegistry("/", nil)
	require.NoError(t, r.Register("kick", nil, 10, "mod", "kick <name> [reason]", func(*Context) error {
		return errs.SyntaxError{Detail: "missing player name."}
	}))

	sess := &fakeSession{}
	_, err := r.AsHook()(sess, chatMsg("/kick"))
	assert.ErrorIs(t, err, errs.ErrCommandSyntax)
	require.Len(t, sess.sent, 1)
	assert.Equal(t, "missing player name. /kick <name> [reason]", sess.sent[0])
}

func TestGenericHandlerErrorRepliesWithGenericFailure(t *testing.T) {
	r := NewRegistry("/", nil)
	require.NoError(t, r.Register("boom", nil, 10, "user", "", func(*Context) error {
		return assert.AnError
	}))

	sess := &fakeSession{}
	_, err := r.AsHook()(sess, chatMsg("/boom"))
	assert.ErrorIs(t, err, assert.AnError)
	require.Len(t, sess.sent, 1)
	assert.Equal(t, "command failed", sess.sent[0])
}

func TestDispatchPassesArgs(t *testing.T) {
	r := NewRegistry("/", nil)
	var gotArgs []string
	require.NoError(t, r.Register("say", nil, 10, "user", "", func(ctx *Context) error {
		gotArgs = ctx.Args
		return nil
	}))

	sess := &fakeSession{}
	_, err := r.AsHook()(sess, chatMsg("/say hello there"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "there"}, gotArgs)
	assert.Empty(t, sess.sent)
}

func TestListFiltersByPermission(t *testing.T) {
	r := NewRegistry("/", func(sess hooks.Session, level string) bool { return level == "user" })
	require.NoError(t, r.Register("help", nil, 1, "user", "", func(*Context) error { return nil }))
	require.NoError(t, r.Register("ban", nil, 1, "moderator", "", func(*Context) error { return nil }))

	names := r.List(&fakeSession{})
	assert.Equal(t, []string{"help"}, names)
}

func TestUnregisterDropsAliases(t *testing.T) {
	r := NewRegistry("/", nil)
	require.NoError(t, r.Register("kick", []string{"k"}, 1, "mod", "", func(*Context) error { return nil }))
	r.Unregister("kick")

	sess := &fakeSession{}
	forward, err := r.AsHook()(sess, chatMsg("/k someone"))
	assert.False(t, forward)
	assert.ErrorIs(t, err, errs.ErrCommandSyntax)
}
