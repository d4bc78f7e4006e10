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

package banlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsEmptyList(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, l.Banned("1.2.3.4"))
}

func TestLoadParsesBannedIPs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("banned_ips:\n  - 1.2.3.4\n  - 5.6.7.8\n"), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.True(t, l.Banned("1.2.3.4"))
	assert.True(t, l.Banned("5.6.7.8"))
	assert.False(t, l.Banned("9.9.9.9"))
}

func TestReloadPicksUpRewrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("banned_ips:\n  - 1.1.1.1\n"), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.True(t, l.Banned("1.1.1.1"))

	require.NoError(t, os.WriteFile(path, []byte("banned_ips:\n  - 2.2.2.2\n"), 0o644))
	require.NoError(t, l.reload())

	assert.False(t, l.Banned("1.1.1.1"))
	assert.True(t, l.Banned("2.2.2.2"))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("banned_ips:\n  - 1.1.1.1\n"), 0o644))

	l, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("banned_ips:\n  - 3.3.3.3\n"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if l.Banned("3.3.3.3") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, l.Banned("3.3.3.3"))
}
