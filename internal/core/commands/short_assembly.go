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

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// ShortAssembler builds the Short from the illustrated slides, the request
// and the selected instrumental, and stores it under KeyShort.
type ShortAssembler struct {
	cor.BaseCommand
	ids *model.IDGenerator
}

// NewShortAssembler creates the command. ids must be shared with whatever
// loads existing shorts so new ids sort after them.
func NewShortAssembler(name string, ids *model.IDGenerator) *ShortAssembler {
	out := &ShortAssembler{BaseCommand: *cor.NewBaseCommand(name), ids: ids}
	out.OutputParamName = KeyShort
	return out
}

func (c *ShortAssembler) Execute(context cor.Context) {
	slides, _ := cor.Value[[]*model.Slide](context, c.GetInputParam())
	req, ok := cor.Value[*model.GenerateRequest](context, KeyRequest)
	if !ok {
		c.Fail(context, model.GenerationError(c.GetName(), fmt.Errorf("missing generate request")))
		return
	}
	if len(slides) == 0 {
		c.Fail(context, model.GenerationError(c.GetName(), model.ErrEmptyShort))
		return
	}
	track, _ := cor.Value[string](context, KeyInstrumental)

	short := &model.Short{
		ID:             c.ids.Next(),
		Slides:         slides,
		Character:      req.Character,
		Prompt:         req.Question,
		InstrumentalID: track,
		VoiceName:      req.VoiceName,
	}
	c.Succeed(context, short)
	// The short is also the chain's final output.
	context.Add(cor.CtxOut, short)
}
