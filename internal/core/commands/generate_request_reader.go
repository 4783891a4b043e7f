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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. Together they form the
// generation pipeline that turns a question into a Short:
//
//	generate-request-reader (Pub/Sub only)
//	  -> build-song-prompt -> generate-song -> song-json-to-struct
//	  -> select-instrumental -> illustrate-slides -> assemble-short
//	  -> save-short (Pub/Sub only)
//
// This file defines the entry command for requests that arrive as JSON, such
// as Pub/Sub messages.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// Context keys shared by the generation commands.
const (
	KeyRequest      = "__REQUEST__"
	KeyInstrumental = "__INSTRUMENTAL__"
	KeyShort        = "__SHORT__"
	KeyRequestID    = "__REQUEST_ID__"
)

// ErrEmptyQuestion rejects requests without a question.
var ErrEmptyQuestion = errors.New("question is empty")

// generationFailure wraps err as a GenerationError unless it already carries
// an initialization failure, which keeps its own kind.
func generationFailure(op string, err error) error {
	if errors.Is(err, model.ErrInitialization) {
		return err
	}
	return model.GenerationError(op, err)
}

// GenerateRequestReader parses a JSON GenerateRequest.
type GenerateRequestReader struct {
	cor.BaseCommand
}

// NewGenerateRequestReader creates the command.
func NewGenerateRequestReader(name string) *GenerateRequestReader {
	return &GenerateRequestReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the message body, trims the fields and stores the request
// under KeyRequest and the output parameter. Every request gets a fresh id
// under KeyRequestID so its log lines can be followed.
func (c *GenerateRequestReader) Execute(context cor.Context) {
	in, ok := cor.Value[string](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("expected a JSON string input"))
		return
	}

	req := &model.GenerateRequest{}
	if err := json.Unmarshal([]byte(in), req); err != nil {
		c.Fail(context, model.GenerationError(c.GetName(), fmt.Errorf("failed to unmarshal generate request: %w", err)))
		return
	}
	req.Normalize()
	if req.Question == "" {
		c.Fail(context, model.GenerationError(c.GetName(), ErrEmptyQuestion))
		return
	}

	id := uuid.NewString()
	slog.InfoContext(context.GetContext(), "generate request received", "request_id", id, "character", req.Character, "style", req.Style)
	context.Add(KeyRequestID, id)
	context.Add(KeyRequest, req)
	c.Succeed(context, req)
}
