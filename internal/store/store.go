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

// Package store is the proxy's persisted state: players, their known IPs,
// bans, and the worlds the world manager has observed. Backed by
// modernc.org/sqlite (pure Go, no cgo) through database/sql.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store owns the sqlite connection and exposes scoped transactions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and
// idempotently creates the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite store at %s", path)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS players (
	uuid        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	account     TEXT NOT NULL DEFAULT '',
	last_ip     TEXT NOT NULL DEFAULT '',
	last_client_id INTEGER NOT NULL DEFAULT 0,
	first_seen  TIMESTAMP NOT NULL,
	last_seen   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ips (
	ip          TEXT NOT NULL,
	player_uuid TEXT NOT NULL,
	last_seen   TIMESTAMP NOT NULL,
	PRIMARY KEY (ip, player_uuid)
);

CREATE TABLE IF NOT EXISTS bans (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target      TEXT NOT NULL, -- uuid or ip
	reason      TEXT NOT NULL DEFAULT '',
	banned_by   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	expires_at  TIMESTAMP -- NULL means permanent
);

CREATE TABLE IF NOT EXISTS worlds (
	location_str TEXT PRIMARY KEY,
	kind         TEXT NOT NULL, -- celestial, ship, instance
	last_visited TIMESTAMP NOT NULL,
	visit_count  INTEGER NOT NULL DEFAULT 0
);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return errors.Wrap(err, "create schema")
}

// WithTx runs fn inside a transaction scoped to ctx, committing on success
// and rolling back on error or panic. Per spec.md §5, callers must never
// await network I/O inside fn.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// Player is a row of the players table.
type Player struct {
	UUID         string
	Name         string
	Account      string
	LastIP       string
	LastClientID uint16
	FirstSeen    time.Time
	LastSeen     time.Time
}

// UpsertPlayer records a connect/reconnect, creating the row on first sight.
func (s *Store) UpsertPlayer(ctx context.Context, p Player) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		now := p.LastSeen
		_, err := tx.ExecContext(ctx, `
			INSERT INTO players (uuid, name, account, last_ip, last_client_id, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(uuid) DO UPDATE SET
				name=excluded.name, account=excluded.account, last_ip=excluded.last_ip,
				last_client_id=excluded.last_client_id, last_seen=excluded.last_seen`,
			p.UUID, p.Name, p.Account, p.LastIP, p.LastClientID, now, now)
		if err != nil {
			return errors.Wrap(err, "upsert player")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ips (ip, player_uuid, last_seen) VALUES (?, ?, ?)
			ON CONFLICT(ip, player_uuid) DO UPDATE SET last_seen=excluded.last_seen`,
			p.LastIP, p.UUID, now)
		return errors.Wrap(err, "upsert ip")
	})
}

// Player looks up a player by uuid.
func (s *Store) Player(ctx context.Context, uuid string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, name, account, last_ip, last_client_id, first_seen, last_seen
		FROM players WHERE uuid = ?`, uuid)
	var p Player
	if err := row.Scan(&p.UUID, &p.Name, &p.Account, &p.LastIP, &p.LastClientID, &p.FirstSeen, &p.LastSeen); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "query player")
	}
	return &p, nil
}

// PlayerByName looks up a player by display name (case-sensitive, most
// recent match wins if somehow duplicated).
func (s *Store) PlayerByName(ctx context.Context, name string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, name, account, last_ip, last_client_id, first_seen, last_seen
		FROM players WHERE name = ? ORDER BY last_seen DESC LIMIT 1`, name)
	var p Player
	if err := row.Scan(&p.UUID, &p.Name, &p.Account, &p.LastIP, &p.LastClientID, &p.FirstSeen, &p.LastSeen); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "query player by name")
	}
	return &p, nil
}

// Ban is a row of the bans table.
type Ban struct {
	Target    string
	Reason    string
	BannedBy  string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// AddBan inserts a new ban record.
func (s *Store) AddBan(ctx context.Context, b Ban) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bans (target, reason, banned_by, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?)`,
			b.Target, b.Reason, b.BannedBy, b.CreatedAt, b.ExpiresAt)
		return errors.Wrap(err, "insert ban")
	})
}

// IsBanned reports whether target (a uuid or ip) has an active, unexpired
// ban.
func (s *Store) IsBanned(ctx context.Context, target string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM bans
		WHERE target = ? AND (expires_at IS NULL OR expires_at > ?)`,
		target, time.Now())
	var n int
	if err := row.Scan(&n); err != nil {
		return false, errors.Wrap(err, "query ban")
	}
	return n > 0, nil
}

// UpsertWorld records a visit to a world location.
func (s *Store) UpsertWorld(ctx context.Context, locationStr, kind string, visitedAt time.Time) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO worlds (location_str, kind, last_visited, visit_count)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(location_str) DO UPDATE SET
				last_visited=excluded.last_visited, visit_count=worlds.visit_count+1`,
			locationStr, kind, visitedAt)
		return errors.Wrap(err, "upsert world")
	})
}
