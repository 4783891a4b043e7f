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

package model

import "strings"

// Instrumental track ids.
const (
	TrackUpbeat = "upbeat"
	TrackBallad = "ballad"
	TrackEpic   = "epic"
)

// Instrumental is one of the pre-bundled background tracks.
type Instrumental struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Instrumentals lists the bundled tracks.
var Instrumentals = []Instrumental{
	{ID: TrackUpbeat, Title: "Upbeat Pop", URL: "/static/audio/upbeat.mp3"},
	{ID: TrackBallad, Title: "Gentle Ballad", URL: "/static/audio/ballad.mp3"},
	{ID: TrackEpic, Title: "Epic Score", URL: "/static/audio/epic.mp3"},
}

type keywordGroup struct {
	track    string
	keywords []string
}

// Checked in this order; the first group with a matching keyword wins.
var musicStyleGroups = []keywordGroup{
	{track: TrackUpbeat, keywords: []string{"upbeat", "pop", "happy", "rock"}},
	{track: TrackBallad, keywords: []string{"ballad", "gentle", "slow", "acoustic"}},
	{track: TrackEpic, keywords: []string{"epic", "cinematic", "score"}},
}

// SelectInstrumental maps a free-text music style suggested by the song model
// to a track id. Unmatched styles get the upbeat track.
func SelectInstrumental(musicStyle string) string {
	style := strings.ToLower(musicStyle)
	for _, g := range musicStyleGroups {
		for _, k := range g.keywords {
			if strings.Contains(style, k) {
				return g.track
			}
		}
	}
	return TrackUpbeat
}

// FindInstrumental looks up a track by id.
func FindInstrumental(id string) (Instrumental, bool) {
	for _, i := range Instrumentals {
		if i.ID == id {
			return i, true
		}
	}
	return Instrumental{}, false
}
