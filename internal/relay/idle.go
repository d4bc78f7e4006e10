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
	"sync"
	"sync/atomic"
	"time"

	"github.com/petar/GoLLRB/llrb"

	"starnetd/internal/logging"
)

// timeoutNode is the llrb.Item tracking one session's idle deadline. The
// deadline is recomputed from the session's lastSeen each sweep rather than
// mutated in place, since llrb nodes must not change their sort key while
// they're in the tree.
type timeoutNode struct {
	sess     *Session
	deadline time.Time
}

func (n *timeoutNode) Less(than llrb.Item) bool {
	return n.deadline.Before(than.(*timeoutNode).deadline)
}

var (
	idleTree   = llrb.New()
	idleMu     sync.Mutex
	idleOnce   sync.Once
)

// registerForIdleTracking inserts sess into the idle-timeout tree and
// ensures the sweeper goroutine is running.
func registerForIdleTracking(sess *Session, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	node := &timeoutNode{sess: sess, deadline: time.Now().Add(timeout)}
	sess.timeoutNode = node

	idleMu.Lock()
	idleTree.ReplaceOrInsert(node)
	idleMu.Unlock()

	idleOnce.Do(func() { go sweepIdleSessions(timeout) })
}

func unregisterFromIdleTracking(node *timeoutNode) {
	if node == nil {
		return
	}
	idleMu.Lock()
	idleTree.Delete(node)
	idleMu.Unlock()
}

// sweepIdleSessions periodically visits the sessions whose deadline has
// passed: one active since its deadline was set is reinserted at
// lastSeen+timeout, the rest are closed. The check interval is a quarter of
// timeout (at least one second), and timeout is the one given by the first
// registerForIdleTracking call, so one goroutine serves every session.
func sweepIdleSessions(timeout time.Duration) {
	interval := timeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		var expired []*Session

		idleMu.Lock()
		var stale []*timeoutNode
		idleTree.AscendLessThan(&timeoutNode{deadline: now}, func(item llrb.Item) bool {
			stale = append(stale, item.(*timeoutNode))
			return true
		})
		for _, node := range stale {
			last := time.Unix(0, atomic.LoadInt64(&node.sess.lastSeen))
			if last.Add(timeout).After(now) {
				// session has been active since this node's deadline was
				// set; reschedule it instead of closing it.
				idleTree.Delete(node)
				node.deadline = last.Add(timeout)
				idleTree.ReplaceOrInsert(node)
				continue
			}
			expired = append(expired, node.sess)
		}
		idleMu.Unlock()

		for _, sess := range expired {
			logging.Debugf("session %d idle past %s, closing", sess.ID(), timeout)
			sess.Close()
		}
	}
}
