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

package playback

import "github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"

// Feed resolves shorts by id and in feed order.
type Feed interface {
	Get(id string) (*model.Short, bool)
	Neighbor(id string, delta int) (*model.Short, bool)
}

// Narrator is the speech engine. Speak only starts speaking; completion and
// failure come back later as NarrationEnded and NarrationFailed carrying the
// same token. Cancel aborts whatever is being spoken.
type Narrator interface {
	Speak(token Token, text, voice string) error
	Cancel() error
}

// VoiceSource lists the voices the speech engine currently offers.
type VoiceSource interface {
	Voices() []model.Voice
}

// MusicPlayer plays one background track at a time. Play rewinds the track
// before starting it.
type MusicPlayer interface {
	Play(url string, volume float64) error
	Pause() error
}

// View applies layout commands to the page.
type View interface {
	ScrollToSlide(shortID string, index int) error
	ResetSlides(shortID string) error
	ScrollToShort(shortID string) error
	MarkSlide(shortID string, index int, active bool) error
	LockVertical(locked bool) error
	ShowError(message string) error
}

// Capabilities groups everything the coordinator drives. A WebSocket session
// implements all of them for one page.
type Capabilities struct {
	Narrator Narrator
	Voices   VoiceSource
	Music    MusicPlayer
	View     View
}
