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

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/playback"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxFrameSize = 64 * 1024
)

// Handler upgrades playback connections. Each connection gets its own
// session and coordinator, which live until the page goes away.
type Handler struct {
	hub      *Hub
	feed     playback.Feed
	settings cloud.Playback
	opts     []playback.Option
}

// NewHandler creates the handler. opts are passed to every coordinator.
func NewHandler(hub *Hub, feed playback.Feed, settings cloud.Playback, opts ...playback.Option) *Handler {
	return &Handler{hub: hub, feed: feed, settings: settings, opts: opts}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	session := newSession(uuid.NewString(), conn)
	h.hub.Register(session)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	coord := playback.NewCoordinator(h.feed, session.Capabilities(), h.settings, h.opts...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.Run(ctx)
	}()
	go h.ping(ctx, session)

	defer func() {
		cancel()
		<-done
		h.hub.Unregister(session)
		slog.InfoContext(ctx, "playback session ended", "session", session.ID)
	}()
	slog.InfoContext(ctx, "playback session started", "session", session.ID)

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "playback connection lost", "session", session.ID, "error", err)
			}
			return
		}
		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.WarnContext(ctx, "bad playback message", "session", session.ID, "error", err)
			continue
		}
		if msg.Type == TypeVoices {
			session.setVoices(msg.Voices)
			continue
		}
		ev, err := msg.Event()
		if err != nil {
			slog.WarnContext(ctx, "ignoring playback message", "session", session.ID, "error", err)
			continue
		}
		if err := coord.Post(ctx, ev); err != nil {
			return
		}
	}
}

func (h *Handler) ping(ctx context.Context, s *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
