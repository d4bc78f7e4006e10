// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"): you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"starnetd/internal/events"
	"starnetd/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The admin console is same-origin or behind the operator's own
	// reverse proxy; any origin is accepted here and access is instead
	// gated by the session cookie middleware in front of this route.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const tailPingInterval = 30 * time.Second

// handleTail upgrades to a websocket and streams every events.Event
// published process-wide until the client disconnects.
func handleTail(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Debugf("web: tail upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch, cancel := events.Subscribe()
	defer cancel()

	ticker := time.NewTicker(tailPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
