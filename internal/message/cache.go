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

package message

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"

	"starnetd/internal/logging"
	"starnetd/internal/metrics"
)

// cacheEntry holds one memoized decode, refcounted by the number of live
// Message objects that share the raw bytes it was decoded from.
type cacheEntry struct {
	value interface{}
	err   error

	refs       int64
	lastTouch  int64 // unix nanos, updated under no lock (best-effort for the reaper)
}

// parseCache is the process-wide, refcounted TaggedJSON/message parse cache
// (spec.md's cache component): decoding the same raw frame bytes twice is
// wasted work on busy relays, so repeat hooks inspecting an unedited message
// reuse the first decode. Keyed on the raw body as a string to avoid pinning
// the original byte slice as a map key.
type parseCache struct {
	hm       hashmap.HashMap
	mu       sync.Mutex // held by the reaper around each check-and-delete; acquire, store and release update refcounts atomically without it
	reapOnce sync.Once
}

var sharedCache = &parseCache{}

// StartReaper launches the periodic sweep that evicts zero-refcount entries
// older than idle. Safe to call once at process start; a no-op on repeat
// calls.
func StartReaper(interval, idle time.Duration) {
	sharedCache.reapOnce.Do(func() {
		go sharedCache.reapLoop(interval, idle)
	})
}

func (c *parseCache) reapLoop(interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		c.sweep(idle)
	}
}

func (c *parseCache) sweep(idle time.Duration) {
	cutoff := time.Now().Add(-idle).UnixNano()
	evicted := 0
	for kv := range c.hm.Iter() {
		key, ok := kv.Key.(string)
		if !ok {
			continue
		}
		entry, ok := kv.Value.(*cacheEntry)
		if !ok {
			continue
		}
		c.mu.Lock()
		if atomic.LoadInt64(&entry.refs) == 0 && atomic.LoadInt64(&entry.lastTouch) < cutoff {
			c.hm.Del(key)
			evicted++
		}
		c.mu.Unlock()
	}
	metrics.ParseCacheSize.Set(float64(c.hm.Len()))
	if evicted > 0 {
		logging.Debugf("parse cache reaper evicted %d stale entries", evicted)
	}
}

// acquire looks up an existing entry for body and bumps its refcount.
func (c *parseCache) acquire(body []byte) (*cacheEntry, bool) {
	key := string(body)
	v, ok := c.hm.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(*cacheEntry)
	atomic.AddInt64(&entry.refs, 1)
	atomic.StoreInt64(&entry.lastTouch, time.Now().UnixNano())
	return entry, true
}

// store installs a freshly decoded value for body, returning the entry now
// held with a refcount of one on behalf of the caller.
func (c *parseCache) store(body []byte, value interface{}, err error) *cacheEntry {
	key := string(body)
	entry := &cacheEntry{value: value, err: err, refs: 1, lastTouch: time.Now().UnixNano()}
	actual, loaded := c.hm.GetOrInsert(key, entry)
	if loaded {
		existing := actual.(*cacheEntry)
		atomic.AddInt64(&existing.refs, 1)
		atomic.StoreInt64(&existing.lastTouch, time.Now().UnixNano())
		return existing
	}
	return entry
}

// release drops the caller's claim on entry. The entry is left in the map
// for the reaper to evict once idle; it is not removed synchronously so a
// fast re-decode of the same bytes can still hit.
func (c *parseCache) release(body []byte, entry *cacheEntry) {
	if atomic.AddInt64(&entry.refs, -1) < 0 {
		atomic.StoreInt64(&entry.refs, 0)
	}
	atomic.StoreInt64(&entry.lastTouch, time.Now().UnixNano())
}

// Len reports the number of entries currently cached, for metrics.
func Len() int {
	return sharedCache.hm.Len()
}
