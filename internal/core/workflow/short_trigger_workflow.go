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

package workflow

import (
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/commands"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
)

// ShortTriggerWorkflow handles generation requests that arrive as JSON
// messages: it parses the request, runs the generator and saves the result.
type ShortTriggerWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewShortTriggerWorkflow wraps generator between a request reader and a saver.
func NewShortTriggerWorkflow(generator *ShortGeneratorWorkflow, saver commands.Saver) *ShortTriggerWorkflow {
	out := cor.NewBaseChain("short-trigger-workflow")
	out.AddCommand(commands.NewGenerateRequestReader("generate-request-reader"))
	out.AddCommand(generator)
	out.AddCommand(commands.NewShortSaver("save-short", saver))
	return &ShortTriggerWorkflow{
		BaseCommand: *cor.NewBaseCommand("short-trigger-workflow"),
		chain:       out,
	}
}

func (w *ShortTriggerWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
