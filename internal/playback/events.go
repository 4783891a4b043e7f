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

import "time"

// Token identifies one narration request. Session changes every time
// playback starts or stops, so completions for an abandoned session no
// longer match.
type Token struct {
	Session uint64 `json:"session"`
	Index   int    `json:"index"`
}

// Event is an observation or request consumed by the Coordinator.
type Event interface {
	event()
}

// FeedItemVisibility reports how much of a feed item is on screen.
type FeedItemVisibility struct {
	ShortID string
	Ratio   float64
}

// SlideVisibility reports how much of a slide of a feed item is on screen.
type SlideVisibility struct {
	ShortID string
	Index   int
	Ratio   float64
}

// NarrationEnded is emitted when the speech engine finished a line.
type NarrationEnded struct {
	Token Token
}

// NarrationFailed is emitted when the speech engine reported an error.
// Reason is the engine's error code, such as "canceled" or "synthesis-failed".
type NarrationFailed struct {
	Token  Token
	Reason string
}

// ReplayRequested restarts a short from its first slide.
type ReplayRequested struct {
	ShortID string
}

// StopRequested stops narration and music.
type StopRequested struct{}

// NavigateRequested scrolls to the short Delta positions away from the
// active one. Negative values move towards newer shorts.
type NavigateRequested struct {
	Delta int
}

// replayStart is scheduled by a replay once the scroll animation had time
// to begin.
type replayStart struct {
	ShortID string
	Session uint64
}

func (FeedItemVisibility) event() {}
func (SlideVisibility) event()    {}
func (NarrationEnded) event()     {}
func (NarrationFailed) event()    {}
func (ReplayRequested) event()    {}
func (StopRequested) event()      {}
func (NavigateRequested) event()  {}
func (replayStart) event()        {}

// Scheduler delivers ev after d. The default posts it back to the
// coordinator's own loop.
type Scheduler func(d time.Duration, ev Event)
