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

// Package ws connects browser pages to their playback coordinators over
// WebSocket and broadcasts new shorts to every open page.
package ws

import (
	"html/template"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks the connected sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	n := len(h.sessions)
	h.mu.Unlock()
	slog.Debug("session registered", "session", s.ID, "sessions", n)
}

// Unregister removes the session and closes its connection.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	n := len(h.sessions)
	h.mu.Unlock()
	if !ok {
		return
	}
	if err := s.conn.Close(); err != nil {
		slog.Debug("closing session connection", "session", s.ID, "error", err)
	}
	slog.Debug("session unregistered", "session", s.ID, "sessions", n)
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends msg to every session. Failed sessions are logged and left
// for their read loop to clean up.
func (h *Hub) Broadcast(msg Outbound) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Send(msg); err != nil {
			slog.Warn("broadcast failed", "session", s.ID, "type", msg.Type, "error", err)
		}
	}
}

// PublishShort tells every page about a new short. Pages that already show
// the id ignore it.
func (h *Hub) PublishShort(id string, item, gallery template.HTML) {
	h.Broadcast(Outbound{Type: TypeShortAdded, ShortID: id, HTML: string(item), Gallery: string(gallery)})
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024 * 16,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
