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

package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-lyric-shorts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newGenerator(t *testing.T, apiKey string, gen cloud.ContentGenerator) *workflow.ShortGeneratorWorkflow {
	t.Helper()
	w, err := workflow.NewShortGeneratorWorkflow(config, newClients(t, apiKey, gen), model.NewIDGenerator())
	require.NoError(t, err)
	return w
}

func TestShortGeneratorEndToEnd(t *testing.T) {
	gen := test.NewSongAndImageGenerator(test.SampleSongJSON(7, "upbeat acoustic pop"))

	short, err := newGenerator(t, "test-key", gen).Generate(ctx, &model.GenerateRequest{
		Question:  "Why is the sky blue?",
		Character: "cat",
		Style:     "anime",
	})
	require.NoError(t, err)

	assert.Equal(t, "Why is the sky blue?", short.Prompt)
	assert.Equal(t, "cat", short.Character)
	assert.Equal(t, model.TrackUpbeat, short.InstrumentalID)
	require.Len(t, short.Slides, 7)
	for _, s := range short.Slides {
		assert.NotEmpty(t, s.Lyrics)
		assert.True(t, strings.HasPrefix(s.ImageSrc, "data:image/png;base64,"))
	}

	calls := gen.Calls()
	require.Len(t, calls, 8)
	song := calls[0]
	assert.Equal(t, config.AgentModels[cloud.SongModelName].Model, song.Model)
	assert.Equal(t, "application/json", song.Config.ResponseMIMEType)
	require.NotNil(t, song.Config.ResponseSchema)
	assert.Contains(t, song.Config.ResponseSchema.Properties, "slides")
	assert.Contains(t, song.Config.SystemInstruction.Parts[0].Text, config.Narrators["cat"].Instructions)
	assert.Len(t, gen.ImageCalls(), 7)
}

func TestShortGeneratorAbortsWhenOneImageFails(t *testing.T) {
	var images int32
	gen := &test.FakeGenerator{Respond: func(_ context.Context, call test.GenerateCall) (*genai.GenerateContentResponse, error) {
		if len(call.Config.ResponseModalities) == 0 {
			return test.TextResponse(test.SampleSongJSON(6, "ballad")), nil
		}
		if atomic.AddInt32(&images, 1) == 4 {
			return nil, errors.New("safety filter")
		}
		return test.ImageResponse(test.PNGBytes, "image/png"), nil
	}}

	short, err := newGenerator(t, "test-key", gen).Generate(ctx, &model.GenerateRequest{Question: "What makes a rainbow?", Character: "Dog", Style: "pixel"})
	assert.Nil(t, short)
	assert.True(t, errors.Is(err, model.ErrGeneration))
	assert.GreaterOrEqual(t, len(gen.ImageCalls()), 4)
}

func TestShortGeneratorRejectsEmptySong(t *testing.T) {
	gen := test.NewSongAndImageGenerator(`{"slides":[],"music_style":"pop"}`)

	_, err := newGenerator(t, "test-key", gen).Generate(ctx, &model.GenerateRequest{Question: "q", Character: "cat"})
	assert.True(t, errors.Is(err, model.ErrGeneration))
	assert.Empty(t, gen.ImageCalls())
}

func TestShortGeneratorMissingKeyIsInitializationError(t *testing.T) {
	_, err := newGenerator(t, "", nil).Generate(ctx, &model.GenerateRequest{Question: "q", Character: "cat"})
	assert.True(t, errors.Is(err, model.ErrInitialization))
	assert.False(t, errors.Is(err, model.ErrGeneration))
	assert.ErrorIs(t, err, cloud.ErrMissingAPIKey)
}

type recordingSaver struct{ saved []*model.Short }

func (r *recordingSaver) Save(_ context.Context, s *model.Short) error {
	r.saved = append(r.saved, s)
	return nil
}

func TestShortTriggerWorkflow(t *testing.T) {
	gen := test.NewSongAndImageGenerator(test.SampleSongJSON(6, "epic"))
	saver := &recordingSaver{}
	trigger := workflow.NewShortTriggerWorkflow(newGenerator(t, "test-key", gen), saver)

	chainCtx := cor.NewBaseContextWith(ctx, `{"question":"How does the moon change shape?","character":"Wizard","style":"watercolor"}`)
	trigger.Execute(chainCtx)
	require.NoError(t, chainCtx.Err())
	require.Len(t, saver.saved, 1)
	assert.Equal(t, model.TrackEpic, saver.saved[0].InstrumentalID)
	assert.Equal(t, "How does the moon change shape?", saver.saved[0].Prompt)
}

func TestShortTriggerWorkflowBadMessage(t *testing.T) {
	saver := &recordingSaver{}
	trigger := workflow.NewShortTriggerWorkflow(newGenerator(t, "test-key", test.NewSongAndImageGenerator("{}")), saver)
	chainCtx := cor.NewBaseContextWith(ctx, `not json`)
	trigger.Execute(chainCtx)
	assert.True(t, errors.Is(chainCtx.Err(), model.ErrGeneration))
	assert.Empty(t, saver.saved)
}
