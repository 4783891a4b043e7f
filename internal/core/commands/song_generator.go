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

package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// SongSchema constrains the song model to
// {slides: [{lyrics, image_prompt}], music_style}.
func SongSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"slides": {
				Type:        genai.TypeArray,
				Description: "Six to eight song lines, one per slide, in order.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"lyrics":       {Type: genai.TypeString, Description: "One line of the song."},
						"image_prompt": {Type: genai.TypeString, Description: "An illustration prompt for this line."},
					},
					Required:         []string{"lyrics", "image_prompt"},
					PropertyOrdering: []string{"lyrics", "image_prompt"},
				},
			},
			"music_style": {Type: genai.TypeString, Description: "A short description of the music style."},
		},
		Required:         []string{"slides", "music_style"},
		PropertyOrdering: []string{"slides", "music_style"},
	}
}

// SongGenerator sends the song prompt to the song model and passes the raw
// JSON text on.
type SongGenerator struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
}

// NewSongGenerator creates the command with token counters named after it.
func NewSongGenerator(name string, generativeAIModel *cloud.QuotaAwareGenerativeAIModel) *SongGenerator {
	out := &SongGenerator{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
	}
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	return out
}

func (s *SongGenerator) Execute(context cor.Context) {
	prompt, ok := cor.Value[*model.SongPrompt](context, s.GetInputParam())
	if !ok {
		s.Fail(context, model.GenerationError(s.GetName(), fmt.Errorf("missing song prompt")))
		return
	}

	out, err := cloud.GenerateMultiModalResponse(
		context.GetContext(),
		s.geminiInputTokenCounter,
		s.geminiOutputTokenCounter,
		s.generativeAIModel,
		cloud.NewTextPart(prompt.UserPrompt),
		cloud.WithSystemInstruction(prompt.SystemInstruction),
		cloud.WithResponseSchema(SongSchema()),
	)
	if err != nil {
		s.Fail(context, generationFailure(s.GetName(), fmt.Errorf("gemini request failed: %w", err)))
		return
	}
	s.Succeed(context, out)
}
