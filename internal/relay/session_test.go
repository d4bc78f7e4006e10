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

package relay

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starnetd/internal/hooks"
	"starnetd/internal/protocol"
	"starnetd/internal/wire"
)

// fakeUpstream is a tcp listener that accepts one connection and echoes
// whatever it reads.
func fakeUpstream(t *testing.T) (addr string, close func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return
			}
		}
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

// This must be the first test in the package to exercise the idle sweeper,
// since registerForIdleTracking starts it exactly once process-wide at
// whatever timeout the first caller configures.
func TestSessionIdleTimeoutClosesSession(t *testing.T) {
	addr, stop := fakeUpstream(t)
	defer stop()

	clientConn, clientPeer := net.Pipe()
	defer clientPeer.Close()

	d := hooks.NewDispatcher()
	sess, err := Dial(clientConn, addr, d, WithIdleTimeout(50*time.Millisecond))
	require.NoError(t, err)
	go sess.Run()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && !sess.Closed() {
		time.Sleep(20 * time.Millisecond)
	}
	assert.True(t, sess.Closed())
}

func TestDialFailsWhenUpstreamUnreachable(t *testing.T) {
	clientConn, clientPeer := net.Pipe()
	defer clientConn.Close()
	defer clientPeer.Close()

	d := hooks.NewDispatcher()
	_, err := Dial(clientConn, "127.0.0.1:1", d, WithUpstreamTimeout(100*time.Millisecond))
	assert.Error(t, err)
}

func TestSessionForwardsFrameToUpstreamAndBack(t *testing.T) {
	addr, stop := fakeUpstream(t)
	defer stop()

	clientConn, clientPeer := net.Pipe()
	defer clientPeer.Close()

	d := hooks.NewDispatcher()
	sess, err := Dial(clientConn, addr, d)
	require.NoError(t, err)
	defer sess.Close()
	go sess.Run()

	body, err := protocol.EncodeBody(protocol.ChatSent, protocol.ChatSentMsg{Text: "hi"})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- wire.WriteFrame(clientPeer, &wire.Frame{Type: uint8(protocol.ChatSent), Body: body})
	}()
	require.NoError(t, <-errCh)

	clientPeer.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := wire.ReadFrame(bufio.NewReader(clientPeer), wire.ToServer)
	require.NoError(t, err)
	assert.Equal(t, uint8(protocol.ChatSent), f.Type)
	assert.Equal(t, body, f.Body)
}

func TestCloseIsIdempotent(t *testing.T) {
	addr, stop := fakeUpstream(t)
	defer stop()

	clientConn, clientPeer := net.Pipe()
	defer clientPeer.Close()

	d := hooks.NewDispatcher()
	sess, err := Dial(clientConn, addr, d)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		sess.Close()
		sess.Close()
	})
	assert.True(t, sess.Closed())
}

func TestRegistryTracksLiveSessions(t *testing.T) {
	addr, stop := fakeUpstream(t)
	defer stop()

	clientConn, clientPeer := net.Pipe()
	defer clientPeer.Close()

	d := hooks.NewDispatcher()
	sess, err := Dial(clientConn, addr, d)
	require.NoError(t, err)
	defer sess.Close()

	_, found := Find(func(s hooks.Session) bool { return s == sess })
	assert.True(t, found)

	sess.Close()
	_, found = Find(func(s hooks.Session) bool { return s == sess })
	assert.False(t, found)
}
