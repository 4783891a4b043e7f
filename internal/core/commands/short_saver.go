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
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
)

// Saver persists a finished short and publishes it to the feed.
type Saver interface {
	Save(ctx context.Context, short *model.Short) error
}

// ShortSaver hands the assembled short to a Saver. It closes the chains that
// run outside an HTTP request, such as the Pub/Sub listener.
type ShortSaver struct {
	cor.BaseCommand
	saver Saver
}

// NewShortSaver creates the command. It reads the short from KeyShort.
func NewShortSaver(name string, saver Saver) *ShortSaver {
	out := &ShortSaver{BaseCommand: *cor.NewBaseCommand(name), saver: saver}
	out.InputParamName = KeyShort
	return out
}

func (s *ShortSaver) Execute(context cor.Context) {
	short, ok := cor.Value[*model.Short](context, s.GetInputParam())
	if !ok {
		s.Fail(context, model.StorageError(s.GetName(), fmt.Errorf("missing short")))
		return
	}
	if err := s.saver.Save(context.GetContext(), short); err != nil {
		s.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "saved short", "id", short.ID, "slides", len(short.Slides))
	s.Succeed(context, short)
}
