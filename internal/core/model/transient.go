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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains structs that only live in memory while
// a short is being generated or played. They are passed between the commands
// of the generation chain and are never written to the store as-is.
package model

import "strings"

// GenerateRequest is what the user submits from the form (or what arrives
// on the generation topic).
type GenerateRequest struct {
	Question  string `json:"question"`            // Free-text question to turn into a song.
	Character string `json:"character"`           // Narrator from the fixed list or typed freely.
	Style     string `json:"style"`               // Visual style key.
	VoiceName string `json:"voiceName,omitempty"` // Preferred narration voice.
}

// Normalize trims every field. The narrator keeps its original case.
func (r *GenerateRequest) Normalize() {
	r.Question = strings.TrimSpace(r.Question)
	r.Character = strings.TrimSpace(r.Character)
	r.Style = strings.TrimSpace(r.Style)
	r.VoiceName = strings.TrimSpace(r.VoiceName)
}

// SongLine is one slide as returned by the song model.
type SongLine struct {
	Lyrics      string `json:"lyrics"`
	ImagePrompt string `json:"image_prompt"`
}

// Song is the structured response of the song model.
type Song struct {
	Slides     []*SongLine `json:"slides"`
	MusicStyle string      `json:"music_style"`
}

// SongPrompt is the pair of instructions sent to the song model.
type SongPrompt struct {
	SystemInstruction string
	UserPrompt        string
}

// Voice is a narration voice offered by the speech engine.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}
