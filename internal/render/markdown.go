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

package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// MarkdownRenderer converts lyric text to HTML. Implementations must not let
// raw HTML from the text through.
type MarkdownRenderer interface {
	Render(text string) (template.HTML, error)
}

// Goldmark renders CommonMark with strikethrough. Raw HTML in the input is
// dropped, which goldmark does unless WithUnsafe is set.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark creates the default renderer.
func NewGoldmark() *Goldmark {
	return &Goldmark{md: goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)}
}

func (g *Goldmark) Render(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
