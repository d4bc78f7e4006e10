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

package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlugin struct {
	name string
	deps []string
}

func (p *stubPlugin) Name() string           { return p.name }
func (p *stubPlugin) Dependencies() []string { return p.deps }
func (p *stubPlugin) Load(*Context) error    { return nil }
func (p *stubPlugin) Unload() error          { return nil }

func registerStub(name string, deps ...string) {
	Register(name, func() Plugin { return &stubPlugin{name: name, deps: deps} })
}

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestResolveOrderRespectsDependencies(t *testing.T) {
	registerStub("resolve-base")
	registerStub("resolve-mid", "resolve-base")
	registerStub("resolve-top", "resolve-mid")

	order, err := resolveOrder([]string{"resolve-top", "resolve-mid", "resolve-base"})
	require.NoError(t, err)

	assert.Less(t, indexOf(order, "resolve-base"), indexOf(order, "resolve-mid"))
	assert.Less(t, indexOf(order, "resolve-mid"), indexOf(order, "resolve-top"))
}

func TestResolveOrderDetectsCycle(t *testing.T) {
	registerStub("cycle-a", "cycle-b")
	registerStub("cycle-b", "cycle-a")

	_, err := resolveOrder([]string{"cycle-a"})
	assert.Error(t, err)
}

func TestResolveOrderMissingDependencyErrors(t *testing.T) {
	registerStub("orphan", "does-not-exist")
	_, err := resolveOrder([]string{"orphan"})
	assert.Error(t, err)
}

func TestResolveOrderDeduplicatesSharedDependency(t *testing.T) {
	registerStub("shared-base")
	registerStub("shared-a", "shared-base")
	registerStub("shared-b", "shared-base")

	order, err := resolveOrder([]string{"shared-a", "shared-b"})
	require.NoError(t, err)

	count := 0
	for _, n := range order {
		if n == "shared-base" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
