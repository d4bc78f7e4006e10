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

// Package message is C3: the Message object that flows through hooks. A
// Message wraps one wire.Frame in its raw, parsed, and (optionally) edited
// forms, and holds a reference into the process-wide parse cache so repeat
// hooks on the same frame bytes skip re-decoding.
package message

import (
	"starnetd/internal/errs"
	"starnetd/internal/protocol"
	"starnetd/internal/wire"
)

// Message is handed to every hook in the dispatch chain for one frame.
type Message struct {
	Type      protocol.PacketType
	Direction wire.Direction
	Compressed bool

	raw     []byte // original frame body, as received off the wire
	parsed  interface{}
	parseErr error
	parsedOK bool

	edited   interface{}
	hasEdit  bool

	entry *cacheEntry // nil if caching was bypassed
}

// New wraps a decoded frame into a Message, consulting the parse cache for
// an already-decoded value keyed on the frame's raw body.
func New(f *wire.Frame) *Message {
	m := &Message{
		Type:       protocol.PacketType(f.Type),
		Direction:  f.Direction,
		Compressed: f.Compressed,
		raw:        f.Body,
	}
	if entry, ok := sharedCache.acquire(f.Body); ok {
		m.entry = entry
		// entry.value is shared with every other session that has read the
		// same raw bytes; hand out a deep copy so edits or in-place
		// mutation here can never leak into another session's parsed view.
		m.parsed, m.parseErr = protocol.DeepCopyValue(entry.value), entry.err
		m.parsedOK = true
		return m
	}
	return m
}

// Release drops this Message's claim on its cache entry, if any. Callers
// must call Release exactly once when done with a Message obtained from New.
func (m *Message) Release() {
	if m.entry != nil {
		sharedCache.release(m.raw, m.entry)
		m.entry = nil
	}
}

// Raw returns the original, undecoded frame body.
func (m *Message) Raw() []byte { return m.raw }

// Parsed decodes (or returns the cached decode of) the frame body using the
// codec registered for m.Type. The result is memoized process-wide, keyed on
// the raw body bytes, for the lifetime of the cache entry's refcount.
func (m *Message) Parsed() (interface{}, error) {
	if m.parsedOK {
		return m.parsed, m.parseErr
	}
	v, err := protocol.DecodeBody(m.Type, m.raw)
	m.parsed, m.parseErr, m.parsedOK = v, err, true
	if m.entry == nil {
		m.entry = sharedCache.store(m.raw, v, err)
	} else {
		m.entry.value, m.entry.err = v, err
	}
	return v, err
}

// Edit replaces the message's logical payload; subsequent calls to
// Encode rebuild the wire body from this value instead of Raw.
func (m *Message) Edit(v interface{}) {
	m.edited = v
	m.hasEdit = true
}

// Edited reports whether a hook has called Edit on this message.
func (m *Message) Edited() bool { return m.hasEdit }

// Encode returns the wire-ready body: the edited payload re-encoded if
// Edit was called, otherwise the original raw bytes unchanged.
func (m *Message) Encode() ([]byte, error) {
	if !m.hasEdit {
		return m.raw, nil
	}
	body, err := protocol.EncodeBody(m.Type, m.edited)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ToFrame rebuilds a wire.Frame from the message's current state.
func (m *Message) ToFrame() (*wire.Frame, error) {
	body, err := m.Encode()
	if err != nil {
		return nil, err
	}
	return &wire.Frame{
		Type:       uint8(m.Type),
		Compressed: m.Compressed,
		Body:       body,
		Direction:  m.Direction,
	}, nil
}

// IsNotImplemented reports whether err is the sentinel a missing codec
// returns; callers forward the frame unparsed rather than treating it as
// fatal.
func IsNotImplemented(err error) bool {
	return err == errs.ErrNotImplemented
}

// FromValue builds an injected Message from a structured value, for code
// (chat commands, plugin notifications) that needs to hand the relay a
// frame it synthesized rather than one read off the wire. It bypasses the
// parse cache entirely: there is no raw frame to key on.
func FromValue(pt protocol.PacketType, dir wire.Direction, v interface{}) (*Message, error) {
	m := &Message{Type: pt, Direction: dir}
	m.Edit(v)
	if _, err := m.Encode(); err != nil {
		return nil, err
	}
	return m, nil
}
