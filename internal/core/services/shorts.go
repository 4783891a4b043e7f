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

// Package services contains the business logic that sits between the HTTP
// and WebSocket handlers and the store. This file, `shorts.go`, defines the
// ShortService, which owns the in-memory newest-first list of shorts and is
// the only code path that generates and persists them.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/commands"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/store"
)

// Generator turns a request into a finished short. It is implemented by
// workflow.ShortGeneratorWorkflow.
type Generator interface {
	Generate(ctx context.Context, req *model.GenerateRequest) (*model.Short, error)
}

// ShortService holds the application state for shorts: the sorted list, the
// busy flag that keeps one generation in flight and the subscribers that
// are told about every saved short.
type ShortService struct {
	store     store.Store
	generator Generator
	ids       *model.IDGenerator
	prepare   func(*model.Short) error

	mu     sync.RWMutex
	shorts []*model.Short

	busy atomic.Bool

	subMu       sync.Mutex
	nextSub     int
	subscribers map[int]func(*model.Short)
}

// NewShortService creates the service. ids must be the generator shared with
// the workflow's assembler.
func NewShortService(st store.Store, generator Generator, ids *model.IDGenerator) *ShortService {
	return &ShortService{
		store:       st,
		generator:   generator,
		ids:         ids,
		subscribers: make(map[int]func(*model.Short)),
	}
}

// SetPreparer installs a hook that runs on every short before it joins the
// list, such as pre-rendering its feed markup.
func (s *ShortService) SetPreparer(prepare func(*model.Short) error) {
	s.prepare = prepare
}

// Load reads every stored short, sorts them newest first and replaces the
// in-memory list.
//
// Inputs:
//   - ctx: The context for the store request.
//
// Outputs:
//   - error: A StorageError when the store cannot be read.
func (s *ShortService) Load(ctx context.Context) error {
	shorts, err := s.store.ListAll(ctx)
	if err != nil {
		return model.StorageError("load", err)
	}
	kept := shorts[:0]
	for _, short := range shorts {
		if len(short.Slides) == 0 {
			slog.WarnContext(ctx, "skipping stored short without slides", "id", short.ID)
			continue
		}
		if s.prepare != nil {
			if err := s.prepare(short); err != nil {
				slog.WarnContext(ctx, "skipping stored short that cannot be rendered", "id", short.ID, "error", err)
				continue
			}
		}
		s.ids.Observe(short.ID)
		kept = append(kept, short)
	}
	model.SortNewestFirst(kept)

	s.mu.Lock()
	s.shorts = kept
	s.mu.Unlock()
	slog.InfoContext(ctx, "loaded shorts", "count", len(kept))
	return nil
}

// Busy reports whether a generation is in flight.
func (s *ShortService) Busy() bool {
	return s.busy.Load()
}

// Generate runs one generation and saves the result. A call made while
// another generation is running fails immediately with model.ErrBusy.
func (s *ShortService) Generate(ctx context.Context, req *model.GenerateRequest) (*model.Short, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, model.ErrBusy
	}
	defer s.busy.Store(false)

	if req == nil {
		return nil, model.GenerationError("generate", commands.ErrEmptyQuestion)
	}
	r := *req
	r.Normalize()
	if r.Question == "" {
		return nil, model.GenerationError("generate", commands.ErrEmptyQuestion)
	}

	short, err := s.generator.Generate(ctx, &r)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, short); err != nil {
		return nil, err
	}
	return short, nil
}

// Save inserts the short at its position in the newest-first list and
// persists it. Interactive generations always land at the head, but a
// Pub/Sub generation that overlaps one can finish with an older id. When the
// store rejects the short the insertion is undone, so the list is exactly
// what it was before the call.
func (s *ShortService) Save(ctx context.Context, short *model.Short) error {
	if short == nil || len(short.Slides) == 0 {
		return model.GenerationError("save", model.ErrEmptyShort)
	}
	if s.prepare != nil {
		if err := s.prepare(short); err != nil {
			return model.GenerationError("save", err)
		}
	}

	s.mu.Lock()
	for _, existing := range s.shorts {
		if existing.ID == short.ID {
			s.mu.Unlock()
			return model.StorageError("save", fmt.Errorf("short %s already exists", short.ID))
		}
	}
	seq := short.Sequence()
	at := sort.Search(len(s.shorts), func(i int) bool { return s.shorts[i].Sequence() < seq })
	s.shorts = slices.Insert(s.shorts, at, short)
	s.mu.Unlock()

	if err := s.store.Put(ctx, short); err != nil {
		s.remove(short)
		slog.ErrorContext(ctx, "failed to persist short", "id", short.ID, "error", err)
		var e *model.Error
		if errors.As(err, &e) && e.Kind == model.ErrStorage {
			return err
		}
		return model.StorageError("save", err)
	}

	s.notify(short)
	return nil
}

func (s *ShortService) remove(short *model.Short) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.shorts {
		if existing == short {
			s.shorts = append(s.shorts[:i:i], s.shorts[i+1:]...)
			return
		}
	}
}

// List returns a snapshot of the shorts, newest first.
func (s *ShortService) List() []*model.Short {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Short(nil), s.shorts...)
}

// Get returns the short with the given id.
func (s *ShortService) Get(id string) (*model.Short, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, short := range s.shorts {
		if short.ID == id {
			return short, true
		}
	}
	return nil, false
}

// Neighbor returns the short delta positions away from id in feed order.
// Negative deltas move towards newer shorts.
func (s *ShortService) Neighbor(id string, delta int) (*model.Short, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, short := range s.shorts {
		if short.ID != id {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(s.shorts) {
			return nil, false
		}
		return s.shorts[j], true
	}
	return nil, false
}

// Subscribe registers fn to be called with every saved short. The returned
// function removes the subscription.
func (s *ShortService) Subscribe(fn func(*model.Short)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *ShortService) notify(short *model.Short) {
	s.subMu.Lock()
	fns := make([]func(*model.Short), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(short)
	}
}

var _ commands.Saver = (*ShortService)(nil)
