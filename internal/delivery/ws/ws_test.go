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

package ws_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/delivery/ws"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/playback"
	test "github.com/jaycherian/gcp-go-lyric-shorts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var settings = cloud.Playback{VisibilityThreshold: 0.8, ReplayDelayMillis: 10, MusicVolume: 0.3}

func feed() test.StaticFeed {
	return test.StaticFeed{{
		ID:             "42",
		Character:      "cat",
		Prompt:         "Why is the sky blue?",
		InstrumentalID: model.TrackBallad,
		VoiceName:      "Daniel",
		Slides: []*model.Slide{
			{Lyrics: "first line", ImageSrc: "data:image/png;base64,AA=="},
			{Lyrics: "second line", ImageSrc: "data:image/png;base64,AA=="},
		},
	}}
}

func dial(t *testing.T, hub *ws.Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(ws.NewHandler(hub, feed(), settings))
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads messages until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) ws.Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg ws.Outbound
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func TestPlaybackOverWebSocket(t *testing.T) {
	hub := ws.NewHub()
	conn := dial(t, hub)

	require.NoError(t, conn.WriteJSON(ws.Inbound{Type: ws.TypeVoices, Voices: []model.Voice{
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Thomas", Lang: "fr-FR"},
	}}))
	require.NoError(t, conn.WriteJSON(ws.Inbound{Type: ws.TypeFeedVisibility, ShortID: "42", Ratio: 0.95}))

	music := next(t, conn, ws.TypePlayMusic)
	assert.Equal(t, "/static/audio/ballad.mp3", music.URL)
	assert.Equal(t, 0.3, music.Volume)

	first := next(t, conn, ws.TypeSpeak)
	require.NotNil(t, first.Token)
	assert.Equal(t, "first line", first.Text)
	assert.Equal(t, "Daniel", first.Voice)

	require.NoError(t, conn.WriteJSON(ws.Inbound{Type: ws.TypeNarrationEnded, Token: *first.Token}))
	second := next(t, conn, ws.TypeSpeak)
	assert.Equal(t, "second line", second.Text)
	assert.Equal(t, 1, second.Token.Index)

	require.NoError(t, conn.WriteJSON(ws.Inbound{Type: ws.TypeNarrationFailed, Token: *second.Token, Error: "synthesis-failed"}))
	popup := next(t, conn, ws.TypeShowError)
	assert.Contains(t, popup.Message, "synthesis-failed")
}

func TestHubBroadcastsNewShorts(t *testing.T) {
	hub := ws.NewHub()
	a := dial(t, hub)
	b := dial(t, hub)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	hub.PublishShort("7", `<section id="short-7"></section>`, `<ul></ul>`)
	for _, conn := range []*websocket.Conn{a, b} {
		msg := next(t, conn, ws.TypeShortAdded)
		assert.Equal(t, "7", msg.ShortID)
		assert.Contains(t, msg.HTML, "short-7")
		assert.Equal(t, "<ul></ul>", msg.Gallery)
	}

	require.NoError(t, a.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestInboundEvent(t *testing.T) {
	cases := []struct {
		in   ws.Inbound
		want playback.Event
	}{
		{ws.Inbound{Type: ws.TypeFeedVisibility, ShortID: "1", Ratio: 0.9}, playback.FeedItemVisibility{ShortID: "1", Ratio: 0.9}},
		{ws.Inbound{Type: ws.TypeSlideVisibility, ShortID: "1", Index: 2, Ratio: 1}, playback.SlideVisibility{ShortID: "1", Index: 2, Ratio: 1}},
		{ws.Inbound{Type: ws.TypeNarrationFailed, Token: playback.Token{Session: 3, Index: 1}, Error: "interrupted"},
			playback.NarrationFailed{Token: playback.Token{Session: 3, Index: 1}, Reason: "interrupted"}},
		{ws.Inbound{Type: ws.TypeReplay, ShortID: "9"}, playback.ReplayRequested{ShortID: "9"}},
		{ws.Inbound{Type: ws.TypeStop}, playback.StopRequested{}},
		{ws.Inbound{Type: ws.TypeNavigate, Delta: -1}, playback.NavigateRequested{Delta: -1}},
	}
	for _, c := range cases {
		got, err := c.in.Event()
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	_, err := ws.Inbound{Type: "dance"}.Event()
	assert.Error(t, err)
}

func TestPlayMusicCarriesMutedVolume(t *testing.T) {
	data, err := json.Marshal(ws.Outbound{Type: ws.TypePlayMusic, URL: "/static/audio/ballad.mp3", Volume: 0})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	volume, ok := raw["volume"]
	require.True(t, ok, "volume must be present when it is zero: %s", data)
	assert.Equal(t, float64(0), volume)
}
