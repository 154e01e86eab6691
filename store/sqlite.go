/*
 * Copyright 2026 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package store keeps the latest inventory report of every server in a SQLite
// database, one row per service tag.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound       = errors.New("inventory record not found")
	ErrMissingKey     = errors.New("inventory record needs a service tag or a target")
	ErrInvalidPayload = errors.New("inventory payload is empty")
)

// Record is the stored report of one server
type Record struct {
	ID         string
	ServiceTag string
	Target     string
	Data       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SQLiteStore is the inventory store backed by modernc.org/sqlite
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening inventory store %s - %w", path, err)
	}
	// one writer per process, the CLI upserts a single report
	db.SetMaxOpenConns(1)

	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("error configuring inventory store %s - %w", path, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating inventory store %s - %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS inventory (
			id TEXT PRIMARY KEY,
			service_tag TEXT NOT NULL UNIQUE,
			target TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_target ON inventory(target);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert stores payload under serviceTag, replacing the previous report of the same
// server. A report without a service tag is keyed by its target. It returns true when
// a new row was created.
func (s *SQLiteStore) Upsert(ctx context.Context, serviceTag, target string, payload []byte) (bool, error) {
	key := serviceTag
	if key == "" {
		key = target
	}
	if key == "" {
		return false, ErrMissingKey
	}
	if len(payload) == 0 {
		return false, ErrInvalidPayload
	}

	now := time.Now().Unix()
	inserted := false

	err := s.tx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM inventory WHERE service_tag = ?`, key).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			inserted = true
			_, err = tx.ExecContext(ctx,
				`INSERT INTO inventory (id, service_tag, target, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), key, target, string(payload), now, now)
			return err
		case err != nil:
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE inventory SET target = ?, data = ?, updated_at = ? WHERE id = ?`,
			target, string(payload), now, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("error storing inventory of %s - %w", key, err)
	}
	return inserted, nil
}

// Get returns the record stored for serviceTag
func (s *SQLiteStore) Get(ctx context.Context, serviceTag string) (*Record, error) {
	var (
		r                    Record
		data                 string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, service_tag, target, data, created_at, updated_at FROM inventory WHERE service_tag = ?`,
		serviceTag).Scan(&r.ID, &r.ServiceTag, &r.Target, &data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s - %w", serviceTag, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading inventory of %s - %w", serviceTag, err)
	}
	r.Data = []byte(data)
	r.CreatedAt = time.Unix(createdAt, 0)
	r.UpdatedAt = time.Unix(updatedAt, 0)
	return &r, nil
}

// Count returns the number of servers in the store
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting inventory records - %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v - %w", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}
