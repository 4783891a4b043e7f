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
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// Image response modalities requested from the illustrator model.
var imageModalities = []string{"IMAGE", "TEXT"}

// SlideIllustrator requests one illustration per song line. All requests for
// a short are issued together and joined; the first failure cancels the rest
// and fails the command, so a short never has missing images.
type SlideIllustrator struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	styles                   map[string]cloud.Style
	aspectRatioHint          string
	imageCounter             metric.Int64Counter
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
}

// NewSlideIllustrator creates the command. styles maps a style key to the
// prefix put in front of every image prompt; unknown keys get no prefix.
func NewSlideIllustrator(name string, generativeAIModel *cloud.QuotaAwareGenerativeAIModel, styles map[string]cloud.Style, aspectRatioHint string) *SlideIllustrator {
	out := &SlideIllustrator{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		styles:            styles,
		aspectRatioHint:   aspectRatioHint,
	}
	out.imageCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.images", out.GetName()))
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	return out
}

// ImagePrompt is the full prompt sent for one line.
func (c *SlideIllustrator) ImagePrompt(style, imagePrompt string) string {
	return c.styles[style].Prefix + strings.TrimSpace(imagePrompt) + c.aspectRatioHint
}

// DataURI encodes image bytes as a self-contained data URI. A missing or
// non-image MIME type is replaced by the sniffed one; bytes that are not a
// recognizable image are rejected.
func DataURI(data []byte, mimeType string) (string, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		kind, err := filetype.Match(data)
		if err != nil || !filetype.IsImage(data) {
			return "", fmt.Errorf("response data is not an image (declared %q)", mimeType)
		}
		mimeType = kind.MIME.Value
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (c *SlideIllustrator) Execute(context cor.Context) {
	song, ok := cor.Value[*model.Song](context, c.GetInputParam())
	if !ok {
		c.Fail(context, model.GenerationError(c.GetName(), fmt.Errorf("missing song")))
		return
	}
	style := ""
	if req, ok := cor.Value[*model.GenerateRequest](context, KeyRequest); ok {
		style = req.Style
	}

	slides := make([]*model.Slide, len(song.Slides))
	group, groupCtx := errgroup.WithContext(context.GetContext())
	for i, line := range song.Slides {
		group.Go(func() error {
			spanCtx, span := c.GetTracer().Start(groupCtx, "illustrate-slide")
			defer span.End()
			span.SetAttributes(attribute.Int("slide", i))

			prompt := c.ImagePrompt(style, line.ImagePrompt)
			data, mimeType, err := cloud.GenerateImage(spanCtx,
				c.geminiInputTokenCounter, c.geminiOutputTokenCounter,
				c.generativeAIModel, cloud.NewTextPart(prompt),
				cloud.WithResponseModalities(imageModalities...))
			if err != nil {
				span.RecordError(err)
				return fmt.Errorf("image for slide %d: %w", i+1, err)
			}
			uri, err := DataURI(data, mimeType)
			if err != nil {
				return fmt.Errorf("image for slide %d: %w", i+1, err)
			}
			if c.imageCounter != nil {
				c.imageCounter.Add(spanCtx, 1)
			}
			slides[i] = &model.Slide{Lyrics: line.Lyrics, ImageSrc: uri}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		c.Fail(context, generationFailure(c.GetName(), err))
		return
	}
	c.Succeed(context, slides)
}
