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

package protocol

// OrderedMap is an insertion-ordered string-keyed map, used by TaggedJson's
// object variant so that key order survives a decode/encode round trip
// (spec.md §3: "the structured container is insertion-ordered, not sorted").
type OrderedMap struct {
	keys []string
	vals map[string]*TaggedJSON
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: make(map[string]*TaggedJSON)}
}

func (m *OrderedMap) Set(key string, v *TaggedJSON) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *OrderedMap) Get(key string) (*TaggedJSON, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }

func (m *OrderedMap) Len() int { return len(m.keys) }

// Copy returns a deep-enough copy: same key order, independently mutable
// top-level entries (per-value deep copy delegated to TaggedJSON.Copy).
func (m *OrderedMap) Copy() *OrderedMap {
	out := NewOrderedMap()
	for _, k := range m.keys {
		out.Set(k, m.vals[k].Copy())
	}
	return out
}

func (m *OrderedMap) Equal(other *OrderedMap) bool {
	if other == nil || len(m.keys) != len(other.keys) {
		return false
	}
	for i, k := range m.keys {
		if other.keys[i] != k {
			return false
		}
		if !m.vals[k].Equal(other.vals[k]) {
			return false
		}
	}
	return true
}
