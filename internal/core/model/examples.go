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
// `examples.go`, provides hardcoded example instances.
//
// The example song is embedded in the song prompt as a "few-shot" sample of
// the JSON the model must return, next to the response schema. The example
// questions feed the shortcut list under the question box.
package model

// GetExampleSong creates a sample Song with the exact shape expected back from
// the song model.
func GetExampleSong() *Song {
	return &Song{
		MusicStyle: "upbeat acoustic pop",
		Slides: []*SongLine{
			{
				Lyrics:      "Sunlight travels far to say hello,",
				ImagePrompt: "a smiling sun sending beams of light toward a tiny blue planet",
			},
			{
				Lyrics:      "It bumps into the air and starts to glow,",
				ImagePrompt: "light rays bouncing off tiny air molecules drawn as bubbly spheres",
			},
			{
				Lyrics:      "The *blue* light scatters all around,",
				ImagePrompt: "blue light beams scattering in every direction across the sky",
			},
			{
				Lyrics:      "So look up high, the sky's blue all around!",
				ImagePrompt: "a child on a hill looking up at a bright blue sky",
			},
		},
	}
}

// DefaultExampleQuestions are the shortcuts offered under the question box.
func DefaultExampleQuestions() []string {
	return []string{
		"Why is the sky blue?",
		"How do plants make food from sunlight?",
		"What makes a rainbow?",
		"Why do cats purr?",
		"How does the moon change shape?",
	}
}
