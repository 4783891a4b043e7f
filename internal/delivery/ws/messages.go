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

package ws

import (
	"fmt"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/playback"
)

// Outbound message types.
const (
	TypeSpeak        = "speak"
	TypeCancelSpeech = "cancel_speech"
	TypePlayMusic    = "play_music"
	TypePauseMusic   = "pause_music"
	TypeScrollSlide  = "scroll_slide"
	TypeResetSlides  = "reset_slides"
	TypeScrollShort  = "scroll_short"
	TypeMarkSlide    = "mark_slide"
	TypeLockVertical = "lock_vertical"
	TypeShowError    = "show_error"
	TypeShortAdded   = "short_added"
)

// Inbound message types.
const (
	TypeFeedVisibility  = "feed_visibility"
	TypeSlideVisibility = "slide_visibility"
	TypeNarrationEnded  = "narration_ended"
	TypeNarrationFailed = "narration_failed"
	TypeReplay          = "replay"
	TypeStop            = "stop"
	TypeNavigate        = "navigate"
	TypeVoices          = "voices"
)

// Outbound is a command sent to the page.
type Outbound struct {
	Type    string          `json:"type"`
	Token   *playback.Token `json:"token,omitempty"`
	Text    string          `json:"text,omitempty"`
	Voice   string          `json:"voice,omitempty"`
	URL     string          `json:"url,omitempty"`
	Volume  float64         `json:"volume"`
	ShortID string          `json:"shortId,omitempty"`
	Index   int             `json:"index"`
	Active  bool            `json:"active,omitempty"`
	Locked  bool            `json:"locked,omitempty"`
	Message string          `json:"message,omitempty"`
	HTML    string          `json:"html,omitempty"`
	Gallery string          `json:"gallery,omitempty"`
}

// Inbound is an observation reported by the page.
type Inbound struct {
	Type    string         `json:"type"`
	ShortID string         `json:"shortId"`
	Index   int            `json:"index"`
	Ratio   float64        `json:"ratio"`
	Token   playback.Token `json:"token"`
	Error   string         `json:"error"`
	Delta   int            `json:"delta"`
	Voices  []model.Voice  `json:"voices"`
}

// Event converts the message into a coordinator event. Voice lists are not
// events and return nil.
func (m Inbound) Event() (playback.Event, error) {
	switch m.Type {
	case TypeFeedVisibility:
		return playback.FeedItemVisibility{ShortID: m.ShortID, Ratio: m.Ratio}, nil
	case TypeSlideVisibility:
		return playback.SlideVisibility{ShortID: m.ShortID, Index: m.Index, Ratio: m.Ratio}, nil
	case TypeNarrationEnded:
		return playback.NarrationEnded{Token: m.Token}, nil
	case TypeNarrationFailed:
		return playback.NarrationFailed{Token: m.Token, Reason: m.Error}, nil
	case TypeReplay:
		return playback.ReplayRequested{ShortID: m.ShortID}, nil
	case TypeStop:
		return playback.StopRequested{}, nil
	case TypeNavigate:
		return playback.NavigateRequested{Delta: m.Delta}, nil
	case TypeVoices:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", m.Type)
	}
}
