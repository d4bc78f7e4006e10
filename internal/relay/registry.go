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

	"starnetd/internal/hooks"
)

// activeSessions is the process-wide set of live sessions, used by the web
// admin surface and by plugins (e.g. /kick) that need to act on a session
// other than the one that issued the command.
var activeSessions sync.Map // *Session -> struct{}

func registerSession(s *Session)   { activeSessions.Store(s, struct{}{}) }
func unregisterSession(s *Session) { activeSessions.Delete(s) }

// Find returns the first live session for which match returns true.
func Find(match func(hooks.Session) bool) (hooks.Session, bool) {
	var found hooks.Session
	activeSessions.Range(func(k, _ interface{}) bool {
		s := k.(*Session)
		if match(s) {
			found = s
			return false
		}
		return true
	})
	return found, found != nil
}

// All returns a snapshot of every live session, for /sessions admin
// listing.
func All() []hooks.Session {
	var out []hooks.Session
	activeSessions.Range(func(k, _ interface{}) bool {
		out = append(out, k.(*Session))
		return true
	})
	return out
}

// Count reports the number of live sessions.
func Count() int {
	n := 0
	activeSessions.Range(func(_, _ interface{}) bool { n++; return true })
	return n
}
