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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

type schemaMarker struct {
	Version int `json:"version"`
}

// GCSStore keeps each short as a JSON object in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	layout cloud.GCSLayout

	mu    sync.RWMutex
	ready bool
}

// NewGCSStore creates a store over the bucket and prefix of layout.
func NewGCSStore(client *storage.Client, layout cloud.GCSLayout) *GCSStore {
	return &GCSStore{client: client, layout: layout}
}

func (s *GCSStore) object(o cloud.GCSObject) *storage.ObjectHandle {
	return s.client.Bucket(o.Bucket).Object(o.Name)
}

// Open writes the schema marker only if it does not exist yet. A marker that
// is already there is read back and checked.
func (s *GCSStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	marker := s.layout.Schema()
	w := s.object(marker).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = marker.MIMEType
	err := json.NewEncoder(w).Encode(schemaMarker{Version: SchemaVersion})
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}

	var gerr *googleapi.Error
	switch {
	case err == nil:
		slog.Info("created store schema", "bucket", marker.Bucket, "object", marker.Name, "version", SchemaVersion)
	case errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed:
		version, err := s.readVersion(ctx)
		if err != nil {
			return model.InitializationError("open-store", err)
		}
		if version > SchemaVersion {
			return model.InitializationError("open-store", fmt.Errorf("bucket schema version %d is newer than %d", version, SchemaVersion))
		}
	default:
		return model.InitializationError("create-schema", err)
	}
	s.ready = true
	return nil
}

func (s *GCSStore) readVersion(ctx context.Context) (int, error) {
	r, err := s.object(s.layout.Schema()).NewReader(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	var m schemaMarker
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return 0, fmt.Errorf("corrupt schema marker: %w", err)
	}
	return m.Version, nil
}

func (s *GCSStore) check(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return model.StorageError(op, model.ErrStoreNotReady)
	}
	return nil
}

func (s *GCSStore) write(ctx context.Context, o cloud.GCSObject, data []byte) error {
	w := s.object(o).NewWriter(ctx)
	w.ContentType = o.MIMEType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *GCSStore) read(ctx context.Context, o cloud.GCSObject) ([]byte, error) {
	r, err := s.object(o).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStore) Put(ctx context.Context, short *model.Short) error {
	if err := s.check("put"); err != nil {
		return err
	}
	doc, err := json.Marshal(short)
	if err != nil {
		return model.StorageError("put", err)
	}
	if err := s.write(ctx, s.layout.Short(short.ID), doc); err != nil {
		return model.StorageError("put", err)
	}
	return nil
}

func (s *GCSStore) ListAll(ctx context.Context) ([]*model.Short, error) {
	if err := s.check("list"); err != nil {
		return nil, err
	}
	var shorts []*model.Short
	it := s.client.Bucket(s.layout.Bucket).Objects(ctx, &storage.Query{Prefix: s.layout.ShortsPrefix()})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, model.StorageError("list", err)
		}
		data, err := s.read(ctx, cloud.GCSObject{Bucket: attrs.Bucket, Name: attrs.Name})
		if err != nil {
			return nil, model.StorageError("list", err)
		}
		short := &model.Short{}
		if err := json.Unmarshal(data, short); err != nil {
			return nil, model.StorageError("list", fmt.Errorf("corrupt short document %s: %w", attrs.Name, err))
		}
		shorts = append(shorts, short)
	}
	return shorts, nil
}

func (s *GCSStore) Setting(ctx context.Context, key string) (string, error) {
	if err := s.check("get-setting"); err != nil {
		return "", err
	}
	data, err := s.read(ctx, s.layout.Setting(key))
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", nil
	}
	if err != nil {
		return "", model.StorageError("get-setting", err)
	}
	return string(data), nil
}

func (s *GCSStore) SetSetting(ctx context.Context, key, value string) error {
	if err := s.check("set-setting"); err != nil {
		return err
	}
	if err := s.write(ctx, s.layout.Setting(key), []byte(value)); err != nil {
		return model.StorageError("set-setting", err)
	}
	return nil
}

// Close releases nothing; the storage client is owned by cloud.ServiceClients.
func (s *GCSStore) Close() error {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
	return nil
}
