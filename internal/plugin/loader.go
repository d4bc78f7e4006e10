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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"starnetd/internal/logging"
	"starnetd/internal/metrics"
)

const manifestFile = "plugins.yaml"

type manifest struct {
	Enabled []string `yaml:"enabled"`
}

// Loader watches the system and user plugin roots and keeps the set of
// loaded plugins in sync with their manifests.
type Loader struct {
	systemRoot string
	userRoot   string
	ctx        *Context

	mu     sync.Mutex
	loaded map[string]Plugin // name -> live instance; load order is kept in order
	order  []string
}

// NewLoader creates a Loader. systemRoot holds the bundled manifest; userRoot
// holds an operator-editable manifest whose entries are unioned with the
// system one, duplicates dropped; it cannot disable a system entry.
func NewLoader(systemRoot, userRoot string, ctx *Context) *Loader {
	return &Loader{
		systemRoot: systemRoot,
		userRoot:   userRoot,
		ctx:        ctx,
		loaded:     make(map[string]Plugin),
	}
}

// Start performs the initial load and begins watching both roots for
// manifest changes.
func (l *Loader) Start() error {
	if err := l.reconcile(); err != nil {
		return err
	}
	l.watch(l.systemRoot)
	l.watch(l.userRoot)
	return nil
}

// LoadedNames returns the currently loaded plugin names in load order.
func (l *Loader) LoadedNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func readManifest(root string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(root, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read manifest in %s", root)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "unmarshal manifest in %s", root)
	}
	return m.Enabled, nil
}

func (l *Loader) wanted() ([]string, error) {
	sys, err := readManifest(l.systemRoot)
	if err != nil {
		return nil, err
	}
	user, err := readManifest(l.userRoot)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(sys)+len(user))
	var names []string
	for _, n := range append(sys, user...) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return resolveOrder(names)
}

func (l *Loader) reconcile() error {
	want, err := l.wanted()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	wantSet := make(map[string]bool, len(want))
	for _, n := range want {
		wantSet[n] = true
	}

	for name, inst := range l.loaded {
		if !wantSet[name] {
			if err := inst.Unload(); err != nil {
				logging.Errorf("plugin %s: unload: %v", name, err)
			}
			delete(l.loaded, name)
			logging.Infof("plugin %s unloaded", name)
		}
	}

	var order []string
	for _, name := range want {
		if _, ok := l.loaded[name]; ok {
			order = append(order, name)
			continue
		}
		f, ok := lookup(name)
		if !ok {
			return fmt.Errorf("plugin %q is not registered", name)
		}
		inst := f()
		pctx := &Context{
			Dispatcher: l.ctx.Dispatcher,
			Commands:   l.ctx.Commands,
			Store:      l.ctx.Store,
			Sessions:   l.ctx.Sessions,
			Log:        logging.ForPlugin(name),
		}
		if err := inst.Load(pctx); err != nil {
			logging.Errorf("plugin %s: load: %v", name, err)
			metrics.PluginLoadErrors.WithLabelValues(name).Inc()
			continue
		}
		l.loaded[name] = inst
		order = append(order, name)
		logging.Infof("plugin %s loaded", name)
	}
	l.order = order
	return nil
}

func (l *Loader) watch(root string) {
	if root == "" {
		return
	}
	if _, err := os.Stat(root); err != nil {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warnf("plugin loader: watch %s: %v", root, err)
		return
	}
	if err := watcher.Add(root); err != nil {
		logging.Warnf("plugin loader: watch %s: %v", root, err)
		watcher.Close()
		return
	}
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != manifestFile {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if err := l.reconcile(); err != nil {
						logging.Errorf("plugin loader: reconcile after change to %s: %v", ev.Name, err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Errorf("plugin loader: watcher error on %s: %v", root, err)
			}
		}
	}()
}
