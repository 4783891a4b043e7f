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
	"log/slog"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentalSelector picks the background track for the song's music
// style, stores it under KeyInstrumental and passes the song on unchanged.
type InstrumentalSelector struct {
	cor.BaseCommand
}

// NewInstrumentalSelector creates the command.
func NewInstrumentalSelector(name string) *InstrumentalSelector {
	return &InstrumentalSelector{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *InstrumentalSelector) Execute(context cor.Context) {
	song, ok := cor.Value[*model.Song](context, c.GetInputParam())
	if !ok {
		c.Fail(context, model.GenerationError(c.GetName(), fmt.Errorf("missing song")))
		return
	}
	track := model.SelectInstrumental(song.MusicStyle)
	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.String("music_style", song.MusicStyle),
		attribute.String("instrumental", track))
	slog.DebugContext(context.GetContext(), "selected instrumental", "music_style", song.MusicStyle, "track", track)

	context.Add(KeyInstrumental, track)
	c.Succeed(context, song)
}
