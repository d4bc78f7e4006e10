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

package hooks

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"starnetd/internal/message"
	"starnetd/internal/protocol"
	"starnetd/internal/wire"
)

type fakeSession struct {
	data sync.Map
}

func (f *fakeSession) SendToClient(*message.Message) error { return nil }
func (f *fakeSession) SendToServer(*message.Message) error { return nil }
func (f *fakeSession) RemoteAddr() string                  { return "127.0.0.1:1234" }
func (f *fakeSession) PluginData() *sync.Map                { return &f.data }
func (f *fakeSession) Close()                               {}

func newMsg() *message.Message {
	return message.New(&wire.Frame{Type: uint8(protocol.ChatSent), Body: []byte{}})
}

func TestDispatchRunsInPriorityOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.Register(protocol.ChatSent, "low", 1, func(Session, *message.Message) (bool, error) {
		order = append(order, "low")
		return true, nil
	})
	d.Register(protocol.ChatSent, "high", 100, func(Session, *message.Message) (bool, error) {
		order = append(order, "high")
		return true, nil
	})

	forward := d.Dispatch(&fakeSession{}, protocol.ChatSent, newMsg())
	assert.True(t, forward)
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestDispatchVetoStillRunsRemainingHandlers(t *testing.T) {
	d := NewDispatcher()
	var ran bool

	d.Register(protocol.ChatSent, "vetoer", 100, func(Session, *message.Message) (bool, error) {
		return false, nil
	})
	d.Register(protocol.ChatSent, "lower", 1, func(Session, *message.Message) (bool, error) {
		ran = true
		return true, nil
	})

	forward := d.Dispatch(&fakeSession{}, protocol.ChatSent, newMsg())
	assert.False(t, forward)
	assert.True(t, ran)
}

func TestDispatchForwardsOnlyIfNoHandlerVetoes(t *testing.T) {
	d := NewDispatcher()
	d.Register(protocol.ChatSent, "a", 100, func(Session, *message.Message) (bool, error) { return true, nil })
	d.Register(protocol.ChatSent, "b", 1, func(Session, *message.Message) (bool, error) { return true, nil })

	forward := d.Dispatch(&fakeSession{}, protocol.ChatSent, newMsg())
	assert.True(t, forward)
}

func TestDispatchRecoversPanic(t *testing.T) {
	d := NewDispatcher()
	d.Register(protocol.ChatSent, "panics", 100, func(Session, *message.Message) (bool, error) {
		panic("boom")
	})
	d.Register(protocol.ChatSent, "after", 1, func(Session, *message.Message) (bool, error) {
		return true, nil
	})

	assert.NotPanics(t, func() {
		forward := d.Dispatch(&fakeSession{}, protocol.ChatSent, newMsg())
		assert.True(t, forward)
	})
}

func TestDispatchHandlerErrorDoesNotVeto(t *testing.T) {
	d := NewDispatcher()
	d.Register(protocol.ChatSent, "erroring", 100, func(Session, *message.Message) (bool, error) {
		return true, errors.New("non-fatal")
	})
	forward := d.Dispatch(&fakeSession{}, protocol.ChatSent, newMsg())
	assert.True(t, forward)
}

func TestRegisterReplacesSameName(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	d.Register(protocol.ChatSent, "h", 1, func(Session, *message.Message) (bool, error) {
		calls++
		return true, nil
	})
	d.Register(protocol.ChatSent, "h", 1, func(Session, *message.Message) (bool, error) {
		calls += 10
		return true, nil
	})
	d.Dispatch(&fakeSession{}, protocol.ChatSent, newMsg())
	assert.Equal(t, 10, calls)
}

func TestUnregisterAll(t *testing.T) {
	d := NewDispatcher()
	d.Register(protocol.ChatSent, "p", 1, func(Session, *message.Message) (bool, error) { return true, nil })
	d.Register(protocol.ClientConnect, "p", 1, func(Session, *message.Message) (bool, error) { return true, nil })
	d.UnregisterAll("p")

	forward := d.Dispatch(&fakeSession{}, protocol.ChatSent, newMsg())
	assert.True(t, forward)
	assert.Empty(t, d.chains[protocol.ChatSent])
	assert.Empty(t, d.chains[protocol.ClientConnect])
}
