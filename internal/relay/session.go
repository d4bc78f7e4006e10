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

// Package relay is C4: one Session per client connection, pairing a
// client-facing leg with an upstream-facing leg. Each leg runs its own
// goroutine that blocks only on I/O, reads one frame, runs it through the
// hook dispatcher, and writes the (possibly edited) frame to the other leg.
//
// The original reactor this proxy is descended from multiplexes thousands
// of shards through one hand-rolled epoll loop per core; a one-client-to-
// one-upstream session has no fan-out to amortize, so a goroutine pair per
// session is the idiomatic Go shape for the same "two cooperating tasks
// suspending only at I/O" structure.
package relay

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"starnetd/internal/events"
	"starnetd/internal/hooks"
	"starnetd/internal/message"
	"starnetd/internal/metrics"
	"starnetd/internal/protocol"
	"starnetd/internal/wire"

	"starnetd/internal/logging"
)

var sessionSeq uint64

// Session relays one client's traffic to and from the upstream game server.
type Session struct {
	id         uint64
	opts       *Options
	dispatcher *hooks.Dispatcher

	clientConn net.Conn
	serverConn net.Conn

	clientWriter *bufio.Writer
	serverWriter *bufio.Writer
	writeMu      sync.Mutex

	pluginData sync.Map

	closed   int32
	closeCh  chan struct{}
	lastSeen int64 // unix nanos, atomic

	timeoutNode *timeoutNode
}

// Dial opens the upstream leg and returns a Session ready to Run.
func Dial(clientConn net.Conn, upstreamAddr string, d *hooks.Dispatcher, opts ...Option) (*Session, error) {
	o := loadOptions(opts...)
	serverConn, err := net.DialTimeout("tcp", upstreamAddr, o.UpstreamTimeout)
	if err != nil {
		metrics.UpstreamDialErrors.Inc()
		return nil, fmt.Errorf("dial upstream %s: %w", upstreamAddr, err)
	}
	s := &Session{
		id:         atomic.AddUint64(&sessionSeq, 1),
		opts:       o,
		dispatcher: d,
		clientConn: clientConn,
		serverConn: serverConn,
		clientWriter: bufio.NewWriterSize(clientConn, o.ReadBufferCap),
		serverWriter: bufio.NewWriterSize(serverConn, o.ReadBufferCap),
		closeCh:      make(chan struct{}),
	}
	s.touch()
	registerForIdleTracking(s, o.IdleTimeout)
	registerSession(s)
	return s, nil
}

// ID is the session's process-local sequence number, used in logs.
func (s *Session) ID() uint64 { return s.id }

// RemoteAddr is the client's network address.
func (s *Session) RemoteAddr() string { return s.clientConn.RemoteAddr().String() }

// PluginData is per-session scratch storage plugins may use to track state
// across hook invocations (e.g. the player manager's identity fields).
func (s *Session) PluginData() *sync.Map { return &s.pluginData }

// Run pumps both legs until either side closes or errors; it blocks until
// the session ends.
func (s *Session) Run() {
	metrics.SessionOpened()
	defer metrics.SessionClosed()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pump(bufio.NewReaderSize(s.clientConn, s.opts.ReadBufferCap), wire.ToServer, s.SendToServer)
	}()
	go func() {
		defer wg.Done()
		s.pump(bufio.NewReaderSize(s.serverConn, s.opts.ReadBufferCap), wire.ToClient, s.SendToClient)
	}()
	wg.Wait()
	s.Close()
}

// pump reads frames from r, dispatches them as dir-directed messages, and
// forwards whatever the dispatcher lets through via send.
func (s *Session) pump(r *bufio.Reader, dir wire.Direction, send func(*message.Message) error) {
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		f, err := wire.ReadFrame(r, dir)
		if err != nil {
			if err != io.EOF {
				logging.Debugf("session %d: read %s frame: %v", s.id, dir, err)
			}
			s.Close()
			return
		}
		s.touch()

		msg := message.New(f)
		forward := s.dispatcher.Dispatch(s, protocol.PacketType(f.Type), msg)
		if !forward {
			msg.Release()
			metrics.FrameVetoed(f.Type)
			events.Publish("veto", fmt.Sprintf("session %d: %s vetoed", s.id, protocol.PacketType(f.Type)))
			continue
		}
		if err := send(msg); err != nil {
			msg.Release()
			logging.Debugf("session %d: forward %s frame: %v", s.id, dir, err)
			s.Close()
			return
		}
		msg.Release()
	}
}

// SendToClient writes msg to the client leg, rebuilding its wire body first
// if a hook edited it.
func (s *Session) SendToClient(msg *message.Message) error {
	return s.send(s.clientWriter, msg)
}

// SendToServer writes msg to the upstream leg.
func (s *Session) SendToServer(msg *message.Message) error {
	return s.send(s.serverWriter, msg)
}

func (s *Session) send(w *bufio.Writer, msg *message.Message) error {
	f, err := msg.ToFrame()
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := wire.WriteFrame(w, f); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Session) touch() {
	atomic.StoreInt64(&s.lastSeen, time.Now().UnixNano())
}

// Close tears down both legs. Idempotent.
func (s *Session) Close() {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return
	}
	close(s.closeCh)
	_ = s.clientConn.Close()
	_ = s.serverConn.Close()
	unregisterFromIdleTracking(s.timeoutNode)
	unregisterSession(s)
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool { return atomic.LoadInt32(&s.closed) != 0 }
