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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// fallbackNarratorName is used when the request names no narrator at all.
const fallbackNarratorName = "a friendly narrator"

// PromptTemplates are the parsed prompt templates used by SongPromptBuilder.
type PromptTemplates struct {
	Song            *template.Template
	CuratedNarrator *template.Template
	GenericNarrator *template.Template
}

// ParsePromptTemplates parses the configured templates.
func ParsePromptTemplates(t cloud.PromptTemplates) (*PromptTemplates, error) {
	out := &PromptTemplates{}
	var err error
	if out.Song, err = template.New("song").Parse(t.SongPrompt); err != nil {
		return nil, fmt.Errorf("failed to parse song prompt: %w", err)
	}
	if out.CuratedNarrator, err = template.New("curated-narrator").Parse(t.CuratedNarrator); err != nil {
		return nil, fmt.Errorf("failed to parse curated narrator prompt: %w", err)
	}
	if out.GenericNarrator, err = template.New("generic-narrator").Parse(t.GenericNarrator); err != nil {
		return nil, fmt.Errorf("failed to parse generic narrator prompt: %w", err)
	}
	return out, nil
}

// SongPromptBuilder builds the system instruction and user prompt for the
// song model.
//
// The narrator name is matched against the curated table after stripping
// any leading emoji and lower-casing it. Curated narrators get their own
// thematic guidance; anyone else gets the generic instruction, which quotes
// the name exactly as the user typed it.
type SongPromptBuilder struct {
	cor.BaseCommand
	narrators map[string]model.Narrator
	templates *PromptTemplates
}

// NewSongPromptBuilder creates the command. It reads the request from KeyRequest.
func NewSongPromptBuilder(name string, narrators map[string]model.Narrator, templates *PromptTemplates) *SongPromptBuilder {
	index := make(map[string]model.Narrator, len(narrators))
	for key, n := range narrators {
		index[model.NarratorKey(key)] = n
		if n.Name != "" {
			index[model.NarratorKey(n.Name)] = n
		}
	}
	out := &SongPromptBuilder{
		BaseCommand: *cor.NewBaseCommand(name),
		narrators:   index,
		templates:   templates,
	}
	out.InputParamName = KeyRequest
	return out
}

// Build returns the prompt for a request without touching a chain context.
func (c *SongPromptBuilder) Build(req *model.GenerateRequest) (*model.SongPrompt, error) {
	system, err := c.systemInstruction(req.Character)
	if err != nil {
		return nil, err
	}

	example, err := json.Marshal(model.GetExampleSong())
	if err != nil {
		return nil, err
	}
	var user bytes.Buffer
	params := map[string]interface{}{
		"QUESTION":     req.Question,
		"EXAMPLE_JSON": string(example),
	}
	if err := c.templates.Song.Execute(&user, params); err != nil {
		return nil, fmt.Errorf("failed to execute song prompt template: %w", err)
	}
	return &model.SongPrompt{SystemInstruction: system, UserPrompt: user.String()}, nil
}

func (c *SongPromptBuilder) systemInstruction(character string) (string, error) {
	var buffer bytes.Buffer
	if narrator, ok := c.narrators[model.NarratorKey(character)]; ok {
		params := map[string]interface{}{"NAME": narrator.Name, "INSTRUCTIONS": narrator.Instructions}
		if err := c.templates.CuratedNarrator.Execute(&buffer, params); err != nil {
			return "", fmt.Errorf("failed to execute narrator template: %w", err)
		}
		return buffer.String(), nil
	}

	name := strings.TrimSpace(character)
	if name == "" {
		name = fallbackNarratorName
	}
	if err := c.templates.GenericNarrator.Execute(&buffer, map[string]interface{}{"NAME": name}); err != nil {
		return "", fmt.Errorf("failed to execute narrator template: %w", err)
	}
	return buffer.String(), nil
}

func (c *SongPromptBuilder) Execute(context cor.Context) {
	req, ok := cor.Value[*model.GenerateRequest](context, c.GetInputParam())
	if !ok {
		c.Fail(context, model.GenerationError(c.GetName(), fmt.Errorf("missing generate request")))
		return
	}
	prompt, err := c.Build(req)
	if err != nil {
		c.Fail(context, model.GenerationError(c.GetName(), err))
		return
	}
	c.Succeed(context, prompt)
}
