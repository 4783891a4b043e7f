// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS shorts (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
}

// SQLiteStore keeps shorts as JSON documents in a local SQLite file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store for the database file at path. Nothing is
// opened until Open.
func NewSQLiteStore(path string) *SQLiteStore {
	if path == "" {
		path = "shorts.db"
	}
	return &SQLiteStore{path: path}
}

// Open connects and creates the schema when the database has never been
// initialized (user_version 0). Calling Open again is a no-op.
func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return model.InitializationError("open-store", fmt.Errorf("failed to open database: %w", err))
	}
	// One connection serializes every read and write.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return model.InitializationError("open-store", fmt.Errorf("failed to ping database: %w", err))
	}

	version, err := userVersion(ctx, db)
	if err != nil {
		_ = db.Close()
		return model.InitializationError("open-store", err)
	}
	switch {
	case version == 0:
		if err := createSchema(ctx, db); err != nil {
			_ = db.Close()
			return model.InitializationError("create-schema", err)
		}
		slog.Info("created store schema", "path", s.path, "version", SchemaVersion)
	case version > SchemaVersion:
		_ = db.Close()
		return model.InitializationError("open-store", fmt.Errorf("database schema version %d is newer than %d", version, SchemaVersion))
	}
	s.db = db
	return nil
}

func userVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, query := range schema {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion reports the version stored in the database.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	db, err := s.handle("schema-version")
	if err != nil {
		return 0, err
	}
	return userVersion(ctx, db)
}

func (s *SQLiteStore) handle(op string) (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, model.StorageError(op, model.ErrStoreNotReady)
	}
	return s.db, nil
}

func (s *SQLiteStore) Put(ctx context.Context, short *model.Short) error {
	db, err := s.handle("put")
	if err != nil {
		return err
	}
	doc, err := json.Marshal(short)
	if err != nil {
		return model.StorageError("put", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO shorts (id, document) VALUES (?, ?)`, short.ID, string(doc)); err != nil {
		return model.StorageError("put", err)
	}
	return nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]*model.Short, error) {
	db, err := s.handle("list")
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT document FROM shorts`)
	if err != nil {
		return nil, model.StorageError("list", err)
	}
	defer rows.Close()

	var shorts []*model.Short
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, model.StorageError("list", err)
		}
		short := &model.Short{}
		if err := json.Unmarshal([]byte(doc), short); err != nil {
			return nil, model.StorageError("list", fmt.Errorf("corrupt short document: %w", err))
		}
		shorts = append(shorts, short)
	}
	if err := rows.Err(); err != nil {
		return nil, model.StorageError("list", err)
	}
	return shorts, nil
}

func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, error) {
	db, err := s.handle("get-setting")
	if err != nil {
		return "", err
	}
	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", model.StorageError("get-setting", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	db, err := s.handle("set-setting")
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
		return model.StorageError("set-setting", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
