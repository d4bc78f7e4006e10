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

// Package banlist is a hot-reloaded YAML IP deny-list, watched with
// fsnotify the same way the teacher's authip package watches its IP
// allow-list: read once at startup, then rebuild the in-memory set on every
// write/rename event to the file.
package banlist

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"starnetd/internal/logging"
)

type fileFormat struct {
	IPs []string `yaml:"banned_ips"`
}

// List is a hot-reloadable set of banned IP addresses.
type List struct {
	path string

	mu  sync.RWMutex
	set map[string]struct{}
}

// Load reads path once and starts watching it for changes. A missing file
// is treated as an empty list rather than an error, so the proxy can run
// with no ban list configured.
func Load(path string) (*List, error) {
	l := &List{path: path, set: make(map[string]struct{})}
	if err := l.reload(); err != nil {
		return nil, err
	}
	if err := l.watch(); err != nil {
		logging.Warnf("banlist: watch %s failed, hot-reload disabled: %v", path, err)
	}
	return l, nil
}

func (l *List) reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read ban list %s", l.path)
	}
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return errors.Wrapf(err, "unmarshal ban list %s", l.path)
	}
	set := make(map[string]struct{}, len(ff.IPs))
	for _, ip := range ff.IPs {
		set[ip] = struct{}{}
	}
	l.mu.Lock()
	l.set = set
	l.mu.Unlock()
	return nil
}

func (l *List) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(l.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if err := l.reload(); err != nil {
						logging.Errorf("banlist: reload %s: %v", l.path, err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Errorf("banlist: watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Banned reports whether ip is on the list.
func (l *List) Banned(ip string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[ip]
	return ok
}
