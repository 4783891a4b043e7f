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

// Package store persists generated shorts and user settings.
//
// A Store is a single collection of short documents keyed by id plus a small
// settings collection. Put upserts, ListAll returns every stored short in
// backend order, and callers sort. Open creates the schema only when the
// backend has never been initialized and is safe to call more than once.
// Every failure, including use before Open, is a model.StorageError.
package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// SchemaVersion is the layout version written on first open.
const SchemaVersion = 1

// Setting keys.
const (
	SettingAPIKey = "api_key"
	SettingTheme  = "theme"
)

// Store is the persistence adapter for shorts and settings.
type Store interface {
	// Open prepares the backend, creating the schema on first use only.
	Open(ctx context.Context) error
	// Put inserts or replaces the short with the same id.
	Put(ctx context.Context, short *model.Short) error
	// ListAll returns every stored short in unspecified order.
	ListAll(ctx context.Context) ([]*model.Short, error)
	// Setting returns the stored value, or "" when the key was never set.
	Setting(ctx context.Context, key string) (string, error)
	// SetSetting stores a value.
	SetSetting(ctx context.Context, key, value string) error
	Close() error
}

// New returns the store selected by the configuration. The storage client is
// only needed for the gcs backend.
func New(cfg cloud.Store, client *storage.Client) (Store, error) {
	switch cfg.Backend {
	case "", cloud.StoreBackendSQLite:
		return NewSQLiteStore(cfg.Path), nil
	case cloud.StoreBackendGCS:
		if client == nil || cfg.Bucket == "" {
			return nil, model.InitializationError("store", fmt.Errorf("gcs store needs a storage client and a bucket"))
		}
		return NewGCSStore(client, cloud.NewGCSLayout(cfg)), nil
	default:
		return nil, model.InitializationError("store", fmt.Errorf("unknown store backend %q", cfg.Backend))
	}
}
