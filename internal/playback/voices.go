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

import (
	"strings"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// EnglishVoices keeps the voices whose language tag starts with "en".
func EnglishVoices(all []model.Voice) []model.Voice {
	out := make([]model.Voice, 0, len(all))
	for _, v := range all {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v.Lang)), "en") {
			out = append(out, v)
		}
	}
	return out
}

// ResolveVoice returns preferred when the engine offers it and "" otherwise,
// which tells the engine to use its default voice. Voices differ between
// browsers and sessions, so a stored name that is gone is not an error.
func ResolveVoice(available []model.Voice, preferred string) string {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		return ""
	}
	for _, v := range available {
		if v.Name == preferred {
			return v.Name
		}
	}
	return ""
}

// cancellation reasons reported by speech engines when speech was stopped
// on purpose.
var cancellationReasons = map[string]bool{
	"canceled":    true,
	"cancelled":   true,
	"interrupted": true,
}

// IsCancellation reports whether a narration failure reason only means the
// speech was stopped.
func IsCancellation(reason string) bool {
	return cancellationReasons[strings.ToLower(strings.TrimSpace(reason))]
}
