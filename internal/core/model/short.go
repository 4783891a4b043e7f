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

// Package model defines the data structures for the application. This file,
// `short.go`, holds the persistent records: a Short and its ordered Slides.
// These are the documents written to the store and rendered into the feed.
package model

import (
	"html/template"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Slide is one line of the generated song together with its illustration.
type Slide struct {
	Lyrics   string `json:"lyrics"`   // Display and narration text for this line.
	ImageSrc string `json:"imageSrc"` // A self-contained data URI produced by the illustrator.
}

// Short is one generated question-to-song-to-slideshow unit. Once it has
// been persisted it is never mutated.
type Short struct {
	ID             string   `json:"id"`                       // Creation-time identifier, also the sort key.
	Slides         []*Slide `json:"slides"`                   // Ordered slides; playback and layout order.
	Character      string   `json:"character"`                // Narrator name chosen or typed by the user.
	Prompt         string   `json:"prompt"`                   // The user's original question.
	InstrumentalID string   `json:"instrumentalId,omitempty"` // One of the bundled background tracks.
	VoiceName      string   `json:"voiceName,omitempty"`      // Preferred narration voice, resolved at playback time.

	// Rendered caches the feed markup for this short. It is never stored.
	Rendered template.HTML `json:"-"`
}

// FirstImage returns the image of the first slide, used for gallery thumbnails.
func (s *Short) FirstImage() string {
	if len(s.Slides) == 0 {
		return ""
	}
	return s.Slides[0].ImageSrc
}

// Sequence parses the id as the numeric creation timestamp. Ids that are
// not numeric sort after every valid id.
func (s *Short) Sequence() int64 {
	n, err := strconv.ParseInt(s.ID, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// SortNewestFirst orders shorts by descending numeric id.
func SortNewestFirst(shorts []*Short) {
	sort.SliceStable(shorts, func(i, j int) bool {
		return shorts[i].Sequence() > shorts[j].Sequence()
	})
}

// IDGenerator hands out millisecond timestamps as ids, bumping the value when
// two shorts are created within the same millisecond so ids stay unique and
// strictly increasing.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator reading the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns the next id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.now().UnixMilli()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return strconv.FormatInt(n, 10)
}

// Observe makes sure future ids are greater than an id already stored.
func (g *IDGenerator) Observe(id string) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return
	}
	g.mu.Lock()
	if n > g.last {
		g.last = n
	}
	g.mu.Unlock()
}
