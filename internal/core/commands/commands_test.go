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

package commands_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/commands"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	test "github.com/jaycherian/gcp-go-lyric-shorts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newPromptBuilder(t *testing.T) *commands.SongPromptBuilder {
	t.Helper()
	config := test.GetConfig()
	templates, err := commands.ParsePromptTemplates(config.PromptTemplates)
	require.NoError(t, err)
	return commands.NewSongPromptBuilder("build-song-prompt", config.Narrators, templates)
}

func TestSongPromptCuratedNarrator(t *testing.T) {
	builder := newPromptBuilder(t)
	for _, name := range []string{"cat", "CAT", "🐱 Cat", "  🐱Cat "} {
		prompt, err := builder.Build(&model.GenerateRequest{Question: "Why is the sky blue?", Character: name})
		require.NoError(t, err)
		assert.Contains(t, prompt.SystemInstruction, model.DefaultNarrators()["cat"].Instructions, "narrator %q", name)
	}
}

func TestSongPromptGenericNarratorKeepsLiteralName(t *testing.T) {
	builder := newPromptBuilder(t)
	prompt, err := builder.Build(&model.GenerateRequest{Question: "Why is the sky blue?", Character: "  🚀 Captain Nova "})
	require.NoError(t, err)
	assert.Contains(t, prompt.SystemInstruction, "🚀 Captain Nova")
	for _, n := range model.DefaultNarrators() {
		assert.NotContains(t, prompt.SystemInstruction, n.Instructions)
	}
	assert.Contains(t, prompt.UserPrompt, "Why is the sky blue?")
	assert.Contains(t, prompt.UserPrompt, `"music_style"`)
}

func TestParseSong(t *testing.T) {
	song, err := commands.ParseSong(test.SampleSongJSON(6, "upbeat pop"))
	require.NoError(t, err)
	assert.Len(t, song.Slides, 6)
	assert.Equal(t, "upbeat pop", song.MusicStyle)

	_, err = commands.ParseSong("")
	assert.ErrorIs(t, err, commands.ErrEmptySong)

	_, err = commands.ParseSong("not json")
	assert.Error(t, err)

	_, err = commands.ParseSong(`{"slides":[],"music_style":"pop"}`)
	assert.ErrorIs(t, err, commands.ErrNoSongSlides)

	_, err = commands.ParseSong(`{"slides":[null],"music_style":"pop"}`)
	assert.ErrorIs(t, err, commands.ErrNoSongSlides)
}

func TestSongJsonToStructFailsAsGenerationError(t *testing.T) {
	ctx := cor.NewBaseContextWith(context.Background(), `{"slides":[]}`)
	commands.NewSongJsonToStruct("song-json-to-struct").Execute(ctx)
	require.True(t, ctx.HasErrors())
	assert.True(t, errors.Is(ctx.Err(), model.ErrGeneration))
}

func TestInstrumentalSelector(t *testing.T) {
	ctx := cor.NewBaseContextWith(context.Background(), &model.Song{MusicStyle: "Cinematic score"})
	commands.NewInstrumentalSelector("select-instrumental").Execute(ctx)
	require.False(t, ctx.HasErrors())
	assert.Equal(t, model.TrackEpic, ctx.Get(commands.KeyInstrumental))
	assert.IsType(t, &model.Song{}, ctx.Get(cor.CtxOut))
}

func illustrator(gen cloud.ContentGenerator) *commands.SlideIllustrator {
	config := test.GetConfig()
	m := cloud.NewQuotaAwareModel(nil, "gemini-image", gen, 20)
	return commands.NewSlideIllustrator("illustrate-slides", m, config.Styles, config.PromptTemplates.AspectRatioHint)
}

func songOf(n int) *model.Song {
	song, _ := commands.ParseSong(test.SampleSongJSON(n, "pop"))
	return song
}

func TestSlideIllustratorIssuesOneConcurrentRequestPerSlide(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	gen := &test.FakeGenerator{Respond: func(ctx context.Context, _ test.GenerateCall) (*genai.GenerateContentResponse, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		atomic.AddInt32(&inFlight, -1)
		return test.ImageResponse(test.PNGBytes, ""), nil
	}}

	ctx := cor.NewBaseContextWith(context.Background(), songOf(6))
	ctx.Add(commands.KeyRequest, &model.GenerateRequest{Style: "anime"})

	done := make(chan struct{})
	go func() {
		illustrator(gen).Execute(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&peak) == 6 }, 2*time.Second, 5*time.Millisecond)
	close(release)
	<-done

	require.False(t, ctx.HasErrors())
	slides := ctx.Get(cor.CtxOut).([]*model.Slide)
	require.Len(t, slides, 6)
	for i, s := range slides {
		assert.True(t, strings.HasPrefix(s.ImageSrc, "data:image/png;base64,"), "slide %d", i)
		assert.Equal(t, songOf(6).Slides[i].Lyrics, s.Lyrics)
	}

	calls := gen.Calls()
	require.Len(t, calls, 6)
	anime := test.GetConfig().Styles["anime"].Prefix
	for _, c := range calls {
		assert.True(t, strings.HasPrefix(c.Prompt, anime))
		assert.True(t, strings.HasSuffix(c.Prompt, "Aspect ratio 9:16, vertical."))
		assert.Equal(t, []string{"IMAGE", "TEXT"}, c.Config.ResponseModalities)
	}
}

func TestSlideIllustratorUnknownStyleHasNoPrefix(t *testing.T) {
	il := illustrator(nil)
	assert.Equal(t, "a cat. Aspect ratio 9:16, vertical.", il.ImagePrompt("vaporwave", "a cat."))
}

func TestSlideIllustratorAbortsOnAnyFailure(t *testing.T) {
	var calls int32
	gen := &test.FakeGenerator{Respond: func(ctx context.Context, call test.GenerateCall) (*genai.GenerateContentResponse, error) {
		if atomic.AddInt32(&calls, 1) == 3 {
			return nil, errors.New("image quota exceeded")
		}
		return test.ImageResponse(test.PNGBytes, "image/png"), nil
	}}
	ctx := cor.NewBaseContextWith(context.Background(), songOf(6))
	illustrator(gen).Execute(ctx)

	require.True(t, ctx.HasErrors())
	assert.True(t, errors.Is(ctx.Err(), model.ErrGeneration))
	assert.Nil(t, ctx.Get(cor.CtxOut))
}

func TestSlideIllustratorRequiresInlineImage(t *testing.T) {
	gen := &test.FakeGenerator{Respond: func(context.Context, test.GenerateCall) (*genai.GenerateContentResponse, error) {
		return test.TextResponse("no picture today"), nil
	}}
	ctx := cor.NewBaseContextWith(context.Background(), songOf(2))
	illustrator(gen).Execute(ctx)
	require.True(t, ctx.HasErrors())
	assert.ErrorIs(t, ctx.Err(), cloud.ErrNoInlineImage)
	assert.True(t, errors.Is(ctx.Err(), model.ErrGeneration))
}

func TestDataURI(t *testing.T) {
	uri, err := commands.DataURI(test.PNGBytes, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	uri, err = commands.DataURI([]byte{1, 2, 3}, "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "data:image/webp;base64,AQID", uri)

	_, err = commands.DataURI([]byte("plain text"), "text/plain")
	assert.Error(t, err)
}

func TestShortAssembler(t *testing.T) {
	ctx := cor.NewBaseContextWith(context.Background(), []*model.Slide{{Lyrics: "hi", ImageSrc: "data:image/png;base64,AA=="}})
	ctx.Add(commands.KeyRequest, &model.GenerateRequest{Question: "Why is the sky blue?", Character: "🐱 Cat", VoiceName: "Samantha"})
	ctx.Add(commands.KeyInstrumental, model.TrackBallad)

	commands.NewShortAssembler("assemble-short", model.NewIDGenerator()).Execute(ctx)
	require.False(t, ctx.HasErrors())

	short := ctx.Get(commands.KeyShort).(*model.Short)
	assert.NotEmpty(t, short.ID)
	assert.Equal(t, "Why is the sky blue?", short.Prompt)
	assert.Equal(t, "🐱 Cat", short.Character)
	assert.Equal(t, model.TrackBallad, short.InstrumentalID)
	assert.Equal(t, "Samantha", short.VoiceName)
}

func TestShortAssemblerRejectsZeroSlides(t *testing.T) {
	ctx := cor.NewBaseContextWith(context.Background(), []*model.Slide{})
	ctx.Add(commands.KeyRequest, &model.GenerateRequest{Question: "q"})
	commands.NewShortAssembler("assemble-short", model.NewIDGenerator()).Execute(ctx)
	assert.ErrorIs(t, ctx.Err(), model.ErrEmptyShort)
}

func TestGenerateRequestReader(t *testing.T) {
	ctx := cor.NewBaseContextWith(context.Background(), `{"question":"  Why do cats purr? ","character":"🐱 Cat","style":"anime"}`)
	commands.NewGenerateRequestReader("generate-request-reader").Execute(ctx)
	require.False(t, ctx.HasErrors())
	req := ctx.Get(commands.KeyRequest).(*model.GenerateRequest)
	assert.Equal(t, "Why do cats purr?", req.Question)
	assert.Equal(t, "🐱 Cat", req.Character)
	id, ok := ctx.Get(commands.KeyRequestID).(string)
	require.True(t, ok)
	assert.Len(t, id, 36)

	ctx = cor.NewBaseContextWith(context.Background(), `{"question":"   "}`)
	commands.NewGenerateRequestReader("generate-request-reader").Execute(ctx)
	assert.ErrorIs(t, ctx.Err(), commands.ErrEmptyQuestion)
}

type recordingSaver struct{ saved []*model.Short }

func (r *recordingSaver) Save(_ context.Context, s *model.Short) error {
	r.saved = append(r.saved, s)
	return nil
}

func TestShortSaver(t *testing.T) {
	saver := &recordingSaver{}
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(commands.KeyShort, &model.Short{ID: "1"})
	cmd := commands.NewShortSaver("save-short", saver)
	require.True(t, cmd.IsExecutable(ctx))
	cmd.Execute(ctx)
	assert.False(t, ctx.HasErrors())
	assert.Len(t, saver.saved, 1)
}
