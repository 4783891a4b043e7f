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

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// Parsing failures of the song response.
var (
	ErrEmptySong    = errors.New("the song model returned no content")
	ErrNoSongSlides = errors.New("the song model returned zero slides")
)

// SongJsonToStruct parses the song model's JSON into a model.Song.
type SongJsonToStruct struct {
	cor.BaseCommand
}

// NewSongJsonToStruct creates the command.
func NewSongJsonToStruct(name string) *SongJsonToStruct {
	return &SongJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
}

// ParseSong turns the raw response into a Song. Empty, malformed and
// slide-less responses are rejected. Lines the model left null are dropped.
func ParseSong(in string) (*model.Song, error) {
	if strings.TrimSpace(in) == "" {
		return nil, ErrEmptySong
	}
	song := &model.Song{}
	if err := json.Unmarshal([]byte(in), song); err != nil {
		return nil, fmt.Errorf("failed to unmarshal song JSON: %w", err)
	}
	slides := song.Slides[:0]
	for _, s := range song.Slides {
		if s != nil {
			slides = append(slides, s)
		}
	}
	song.Slides = slides
	if len(song.Slides) == 0 {
		return nil, ErrNoSongSlides
	}
	return song, nil
}

func (s *SongJsonToStruct) Execute(context cor.Context) {
	in, _ := cor.Value[string](context, s.GetInputParam())
	song, err := ParseSong(in)
	if err != nil {
		s.Fail(context, model.GenerationError(s.GetName(), err))
		return
	}
	s.Succeed(context, song)
}
