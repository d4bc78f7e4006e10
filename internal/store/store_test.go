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

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertPlayerCreatesAndUpdates(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	first := time.Now().Add(-time.Hour)
	require.NoError(t, s.UpsertPlayer(ctx, Player{
		UUID: "u1", Name: "Ash", LastIP: "1.2.3.4", FirstSeen: first, LastSeen: first,
	}))

	p, err := s.Player(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ash", p.Name)

	later := time.Now()
	require.NoError(t, s.UpsertPlayer(ctx, Player{
		UUID: "u1", Name: "Ash2", LastIP: "5.6.7.8", FirstSeen: later, LastSeen: later,
	}))

	p, err = s.Player(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ash2", p.Name)
	assert.Equal(t, "5.6.7.8", p.LastIP)
}

func TestPlayerByNameMostRecent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	require.NoError(t, s.UpsertPlayer(ctx, Player{UUID: "a", Name: "Dup", LastSeen: older, FirstSeen: older}))
	require.NoError(t, s.UpsertPlayer(ctx, Player{UUID: "b", Name: "Dup", LastSeen: newer, FirstSeen: newer}))

	p, err := s.PlayerByName(ctx, "Dup")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "b", p.UUID)
}

func TestPlayerNotFoundReturnsNilNoError(t *testing.T) {
	s := openTest(t)
	p, err := s.Player(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAddBanAndIsBanned(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.AddBan(ctx, Ban{Target: "1.2.3.4", Reason: "spam", CreatedAt: time.Now()}))

	banned, err := s.IsBanned(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, banned)

	banned, err = s.IsBanned(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestExpiredBanDoesNotCount(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, s.AddBan(ctx, Ban{Target: "expired-host", CreatedAt: time.Now().Add(-time.Hour), ExpiresAt: &expired}))

	banned, err := s.IsBanned(ctx, "expired-host")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestUpsertWorldIncrementsVisitCount(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertWorld(ctx, "CelestialWorld:1:2:3", "celestial", time.Now()))
	require.NoError(t, s.UpsertWorld(ctx, "CelestialWorld:1:2:3", "celestial", time.Now()))

	row := s.db.QueryRowContext(ctx, `SELECT visit_count FROM worlds WHERE location_str = ?`, "CelestialWorld:1:2:3")
	var count int
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 2, count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO worlds (location_str, kind, last_visited) VALUES (?, ?, ?)`,
			"ShouldRollback", "ship", time.Now())
		require.NoError(t, execErr)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM worlds WHERE location_str = ?`, "ShouldRollback")
	var count int
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 0, count)
}
