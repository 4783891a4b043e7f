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
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/playback"
)

const writeWait = 10 * time.Second

// Session is one connected page. It is the narrator, music player, voice
// source and view of that page's playback coordinator; every capability call
// becomes a message on the socket.
type Session struct {
	ID   string
	conn *websocket.Conn

	writeMu sync.Mutex

	voicesMu sync.RWMutex
	voices   []model.Voice
}

func newSession(id string, conn *websocket.Conn) *Session {
	return &Session{ID: id, conn: conn}
}

// Capabilities returns the session as the coordinator's capability set.
func (s *Session) Capabilities() playback.Capabilities {
	return playback.Capabilities{Narrator: s, Voices: s, Music: s, View: s}
}

// Send writes one message. Writes are serialized because the coordinator and
// the hub both send.
func (s *Session) Send(msg Outbound) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *Session) setVoices(v []model.Voice) {
	s.voicesMu.Lock()
	s.voices = append([]model.Voice(nil), v...)
	s.voicesMu.Unlock()
}

// Voices returns the English voices last reported by the page.
func (s *Session) Voices() []model.Voice {
	s.voicesMu.RLock()
	defer s.voicesMu.RUnlock()
	return playback.EnglishVoices(s.voices)
}

func (s *Session) Speak(token playback.Token, text, voice string) error {
	return s.Send(Outbound{Type: TypeSpeak, Token: &token, Index: token.Index, Text: text, Voice: voice})
}

func (s *Session) Cancel() error {
	return s.Send(Outbound{Type: TypeCancelSpeech})
}

func (s *Session) Play(url string, volume float64) error {
	return s.Send(Outbound{Type: TypePlayMusic, URL: url, Volume: volume})
}

func (s *Session) Pause() error {
	return s.Send(Outbound{Type: TypePauseMusic})
}

func (s *Session) ScrollToSlide(shortID string, index int) error {
	return s.Send(Outbound{Type: TypeScrollSlide, ShortID: shortID, Index: index})
}

func (s *Session) ResetSlides(shortID string) error {
	return s.Send(Outbound{Type: TypeResetSlides, ShortID: shortID})
}

func (s *Session) ScrollToShort(shortID string) error {
	return s.Send(Outbound{Type: TypeScrollShort, ShortID: shortID})
}

func (s *Session) MarkSlide(shortID string, index int, active bool) error {
	return s.Send(Outbound{Type: TypeMarkSlide, ShortID: shortID, Index: index, Active: active})
}

func (s *Session) LockVertical(locked bool) error {
	return s.Send(Outbound{Type: TypeLockVertical, Locked: locked})
}

func (s *Session) ShowError(message string) error {
	return s.Send(Outbound{Type: TypeShowError, Message: message})
}
