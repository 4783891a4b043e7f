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

// Package model_test contains unit tests for the data models and the small
// pure helpers that live next to them.
package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestNarratorKeyStripsLeadingEmoji(t *testing.T) {
	cases := map[string]string{
		"🐱 Cat":      "cat",
		"🐱Cat":       "cat",
		"CAT":         "cat",
		"  🏴‍☠️ Pirate ": "pirate",
		"👍🏽 Robot":    "robot",
		"Captain 🐱":  "captain 🐱",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, model.NarratorKey(in), "input %q", in)
	}
}

func TestNarratorKeyMatchesCuratedTable(t *testing.T) {
	narrators := model.DefaultNarrators()
	for key, n := range narrators {
		_, ok := narrators[model.NarratorKey(n.Label())]
		assert.True(t, ok, "label of %s should resolve back to the table", key)
	}
}

func TestSelectInstrumentalPriority(t *testing.T) {
	cases := []struct {
		style string
		want  string
	}{
		{"Upbeat summer anthem", model.TrackUpbeat},
		{"soft ROCK", model.TrackUpbeat},
		{"gentle lullaby", model.TrackBallad},
		{"slow acoustic ballad", model.TrackBallad},
		{"Cinematic orchestral score", model.TrackEpic},
		// the upbeat group is checked before the epic group
		{"epic pop", model.TrackUpbeat},
		// the ballad group is checked before the epic group
		{"epic ballad", model.TrackBallad},
		{"jazz", model.TrackUpbeat},
		{"", model.TrackUpbeat},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, model.SelectInstrumental(c.style), "style %q", c.style)
	}
}

func TestSortNewestFirst(t *testing.T) {
	shorts := []*model.Short{{ID: "9"}, {ID: "1000"}, {ID: "200"}, {ID: "not-a-number"}}
	model.SortNewestFirst(shorts)
	ids := make([]string, 0, len(shorts))
	for _, s := range shorts {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"1000", "200", "9", "not-a-number"}, ids)
}

func TestIDGeneratorIsStrictlyIncreasing(t *testing.T) {
	gen := model.NewIDGenerator()
	gen.Observe(fmt.Sprint(time.Now().Add(time.Hour).UnixMilli()))
	prev := int64(0)
	for i := 0; i < 100; i++ {
		s := &model.Short{ID: gen.Next()}
		assert.Greater(t, s.Sequence(), prev)
		prev = s.Sequence()
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := model.StorageError("put", cause)

	assert.True(t, errors.Is(err, model.ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, model.ErrGeneration))
	assert.Equal(t, "Could not save the short: quota exceeded", model.UserMessage(err))

	// wrapping twice with the same kind keeps a single layer
	assert.Same(t, err, model.StorageError("save", err))
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "", (&model.Short{}).FirstImage())
	s := &model.Short{Slides: []*model.Slide{{ImageSrc: "data:image/png;base64,AA=="}}}
	assert.Equal(t, "data:image/png;base64,AA==", s.FirstImage())
}
