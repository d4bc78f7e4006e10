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

// Package plugin is C6: the plugin loader. Go has no safe equivalent of
// dynamically importing arbitrary source at runtime, so a "plugin" here is a
// statically-linked Go type registered under a name; what the loader does
// dynamically is decide, from manifests on disk across two search roots,
// which registered plugins to instantiate, in what order, and hot-reload
// that decision when the manifests change.
package plugin

import (
	"fmt"
	"sync"

	"starnetd/internal/command"
	"starnetd/internal/hooks"
	"starnetd/internal/logging"
	"starnetd/internal/store"
)

// Context is everything a Plugin needs wired in at Load time.
type Context struct {
	Dispatcher *hooks.Dispatcher
	Commands   *command.Registry
	Store      *store.Store
	Log        *logging.PluginLogger

	// Sessions finds a live session by predicate; nil if the host hasn't
	// wired session lookup (e.g. in tests). Set by cmd/starnetd to
	// relay.Find.
	Sessions func(match func(hooks.Session) bool) (hooks.Session, bool)
}

// Plugin is a loadable unit of hook/command registrations. Dependencies
// names other plugins (by the name under which they are Registered) that
// must be loaded first.
type Plugin interface {
	Name() string
	Dependencies() []string
	Load(ctx *Context) error
	Unload() error
}

// Factory constructs a fresh Plugin instance; plugins are registered by
// factory so the loader can create independent instances per loaded
// session-independent lifecycle (load/unload/reload).
type Factory func() Plugin

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register installs a plugin factory under name. Intended to be called from
// an init() in the package implementing the plugin (the proxy's "system"
// search root is simply every package that does this and is linked into the
// binary).
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names returns every registered plugin name, for /plugins admin listing
// and for validating manifests.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

// resolveOrder topologically sorts names by their registered Dependencies,
// so a plugin is always loaded after everything it depends on.
func resolveOrder(names []string) ([]string, error) {
	visited := make(map[string]int) // 0 unvisited, 1 in-progress, 2 done
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch visited[name] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("plugin dependency cycle at %q", name)
		}
		visited[name] = 1
		f, ok := lookup(name)
		if !ok {
			return fmt.Errorf("plugin %q is not registered", name)
		}
		for _, dep := range f().Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visited[name] = 2
		order = append(order, name)
		return nil
	}

	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}
