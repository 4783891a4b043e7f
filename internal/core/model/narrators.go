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

import (
	"strings"
	"unicode"
)

// Narrator is a curated character with its own thematic guidance for the
// song model.
type Narrator struct {
	Name         string `toml:"name" json:"name"`
	Emoji        string `toml:"emoji" json:"emoji"`
	Instructions string `toml:"instructions" json:"-"`
}

// Label is how the narrator appears in the selector.
func (n Narrator) Label() string {
	if n.Emoji == "" {
		return n.Name
	}
	return n.Emoji + " " + n.Name
}

// DefaultNarrators is the curated narrator table keyed by lower-case name.
func DefaultNarrators() map[string]Narrator {
	return map[string]Narrator{
		"cat": {
			Name:  "Cat",
			Emoji: "🐱",
			Instructions: "You are a curious, slightly smug house cat who explains the world in song. " +
				"Mention naps, sunbeams, whiskers and chasing things where it fits, and keep the facts correct.",
		},
		"dog": {
			Name:  "Dog",
			Emoji: "🐶",
			Instructions: "You are an endlessly enthusiastic dog who sings explanations. " +
				"Be warm and excitable, reference walks, treats and good friends, and keep the facts correct.",
		},
		"robot": {
			Name:  "Robot",
			Emoji: "🤖",
			Instructions: "You are a friendly robot who sings in precise, playful lines. " +
				"Use light references to circuits, data and beeps while explaining the answer accurately.",
		},
		"pirate": {
			Name:  "Pirate",
			Emoji: "🏴‍☠️",
			Instructions: "You are a jolly pirate captain singing a sea shanty. " +
				"Use nautical slang sparingly so the explanation stays clear and accurate.",
		},
		"wizard": {
			Name:  "Wizard",
			Emoji: "🧙",
			Instructions: "You are a wise old wizard singing an enchanting explanation. " +
				"Frame facts as ancient knowledge but never invent magic where science answers.",
		},
		"dinosaur": {
			Name:  "Dinosaur",
			Emoji: "🦖",
			Instructions: "You are a cheerful dinosaur who has seen millions of years go by. " +
				"Sing with prehistoric humor and explain the answer simply for kids.",
		},
	}
}

// NarratorKey strips any leading emoji or symbol runes from a narrator name
// and lower-cases the rest, producing the key used against the curated table.
func NarratorKey(name string) string {
	trimmed := strings.TrimLeftFunc(strings.TrimSpace(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(strings.TrimSpace(trimmed))
}
