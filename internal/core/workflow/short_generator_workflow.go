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

// Package workflow defines the high-level orchestrations that combine the
// generation commands into pipelines. This file implements the pipeline that
// turns a GenerateRequest into a Short.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/commands"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// ShortGeneratorWorkflow runs the generation chain:
//
//  1. build-song-prompt: narrator-specific system instruction and user prompt.
//  2. generate-song: structured song request to the song model.
//  3. song-json-to-struct: parse and validate the song.
//  4. select-instrumental: background track from the music style.
//  5. illustrate-slides: one concurrent image request per line.
//  6. assemble-short: the Short with a fresh id.
//
// Any failing step stops the chain, so either a complete Short comes out or
// an error does.
type ShortGeneratorWorkflow struct {
	cor.BaseCommand
	config     *cloud.Config
	songModel  *cloud.QuotaAwareGenerativeAIModel
	imageModel *cloud.QuotaAwareGenerativeAIModel
	templates  *commands.PromptTemplates
	ids        *model.IDGenerator
	chain      cor.Chain
}

// NewShortGeneratorWorkflow builds the workflow from the configured agent
// models. ids is shared with the short service so new ids sort after
// loaded ones.
func NewShortGeneratorWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients, ids *model.IDGenerator) (*ShortGeneratorWorkflow, error) {
	songModel, ok := serviceClients.AgentModels[cloud.SongModelName]
	if !ok {
		return nil, model.InitializationError("workflow", fmt.Errorf("agent model %q is not configured", cloud.SongModelName))
	}
	imageModel, ok := serviceClients.AgentModels[cloud.IllustratorModelName]
	if !ok {
		return nil, model.InitializationError("workflow", fmt.Errorf("agent model %q is not configured", cloud.IllustratorModelName))
	}
	templates, err := commands.ParsePromptTemplates(config.PromptTemplates)
	if err != nil {
		return nil, model.InitializationError("workflow", err)
	}

	w := &ShortGeneratorWorkflow{
		BaseCommand: *cor.NewBaseCommand("short-generator-workflow"),
		config:      config,
		songModel:   songModel,
		imageModel:  imageModel,
		templates:   templates,
		ids:         ids,
	}
	w.initializeChain()
	return w, nil
}

func (w *ShortGeneratorWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewSongPromptBuilder("build-song-prompt", w.config.Narrators, w.templates))
	out.AddCommand(commands.NewSongGenerator("generate-song", w.songModel))
	out.AddCommand(commands.NewSongJsonToStruct("song-json-to-struct"))
	out.AddCommand(commands.NewInstrumentalSelector("select-instrumental"))
	out.AddCommand(commands.NewSlideIllustrator("illustrate-slides", w.imageModel, w.config.Styles, w.config.PromptTemplates.AspectRatioHint))
	out.AddCommand(commands.NewShortAssembler("assemble-short", w.ids))
	w.chain = out
}

// IsExecutable requires a request under commands.KeyRequest.
func (w *ShortGeneratorWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(commands.KeyRequest) != nil
}

func (w *ShortGeneratorWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Generate runs the workflow for one request and returns the assembled short.
func (w *ShortGeneratorWorkflow) Generate(ctx context.Context, req *model.GenerateRequest) (*model.Short, error) {
	chainCtx := cor.NewBaseContextWith(ctx, req)
	chainCtx.Add(commands.KeyRequest, req)
	w.Execute(chainCtx)

	if err := chainCtx.Err(); err != nil {
		if errors.Is(err, model.ErrInitialization) || errors.Is(err, model.ErrGeneration) {
			return nil, err
		}
		return nil, model.GenerationError(w.GetName(), err)
	}
	short, ok := cor.Value[*model.Short](chainCtx, commands.KeyShort)
	if !ok {
		return nil, model.GenerationError(w.GetName(), errors.New("workflow produced no short"))
	}
	return short, nil
}
