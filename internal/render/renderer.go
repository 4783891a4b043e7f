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

// Package render turns shorts into the HTML of the feed, the history gallery
// and the page. Rendering a short depends on that short only; the gallery is
// always rebuilt from the whole list it is given.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/web"
)

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
	md   MarkdownRenderer
}

// New parses the templates. md renders the lyrics.
func New(md MarkdownRenderer) (*Renderer, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, md: md}, nil
}

type slideView struct {
	Index  int
	Number int
	Image  template.URL
	Lyrics template.HTML
}

type feedItemView struct {
	ID        string
	Character string
	Prompt    string
	Count     int
	Slides    []slideView
}

type thumbView struct {
	ID     string
	Prompt string
	Image  template.URL
}

// imageURL only lets inline images through. html/template would otherwise
// replace data URIs with a placeholder.
func imageURL(src string) template.URL {
	if strings.HasPrefix(src, "data:image/") {
		return template.URL(src)
	}
	return ""
}

// FeedItem renders one short. The markup is cached on the short, which is
// immutable once saved.
func (r *Renderer) FeedItem(short *model.Short) (template.HTML, error) {
	if short.Rendered != "" {
		return short.Rendered, nil
	}
	return r.renderFeedItem(short)
}

// Prepare renders the short and stores the result in short.Rendered. It must
// run before the short is shared.
func (r *Renderer) Prepare(short *model.Short) error {
	out, err := r.renderFeedItem(short)
	if err != nil {
		return err
	}
	short.Rendered = out
	return nil
}

func (r *Renderer) renderFeedItem(short *model.Short) (template.HTML, error) {
	if len(short.Slides) == 0 {
		return "", model.ErrEmptyShort
	}
	view := feedItemView{
		ID:        short.ID,
		Character: short.Character,
		Prompt:    short.Prompt,
		Count:     len(short.Slides),
	}
	for i, s := range short.Slides {
		lyrics, err := r.md.Render(s.Lyrics)
		if err != nil {
			return "", fmt.Errorf("failed to render lyrics of slide %d: %w", i, err)
		}
		view.Slides = append(view.Slides, slideView{Index: i, Number: i + 1, Image: imageURL(s.ImageSrc), Lyrics: lyrics})
	}
	return r.execute("feed-item", view)
}

// Feed renders the shorts in the order given.
func (r *Renderer) Feed(shorts []*model.Short) (template.HTML, error) {
	var sb strings.Builder
	for _, s := range shorts {
		item, err := r.FeedItem(s)
		if err != nil {
			return "", err
		}
		sb.WriteString(string(item))
	}
	return template.HTML(sb.String()), nil
}

// Gallery renders the thumbnails newest first, whatever order shorts are in.
func (r *Renderer) Gallery(shorts []*model.Short) (template.HTML, error) {
	sorted := append([]*model.Short(nil), shorts...)
	model.SortNewestFirst(sorted)
	views := make([]thumbView, 0, len(sorted))
	for _, s := range sorted {
		views = append(views, thumbView{ID: s.ID, Prompt: s.Prompt, Image: imageURL(s.FirstImage())})
	}
	return r.execute("gallery", views)
}

// StyleOption is one entry of the style selector.
type StyleOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// StyleOptions lists the configured styles sorted by key.
func StyleOptions(styles map[string]cloud.Style) []StyleOption {
	out := make([]StyleOption, 0, len(styles))
	for k, s := range styles {
		name := s.Name
		if name == "" {
			name = k
		}
		out = append(out, StyleOption{Key: k, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// NarratorOptions lists the curated narrators sorted by name.
func NarratorOptions(narrators map[string]model.Narrator) []model.Narrator {
	out := make([]model.Narrator, 0, len(narrators))
	for _, n := range narrators {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PageData is everything the page template needs.
type PageData struct {
	Title     string
	Theme     string
	APIKeySet bool
	Narrators []model.Narrator
	Styles    []StyleOption
	Examples  []string
	Playback  cloud.Playback
	Shorts    []*model.Short

	DefaultNarrator string
	Feed            template.HTML
	Gallery         template.HTML
}

// Page writes the full document. Feed and Gallery are rendered from Shorts.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	var err error
	if data.Feed, err = r.Feed(data.Shorts); err != nil {
		return err
	}
	if data.Gallery, err = r.Gallery(data.Shorts); err != nil {
		return err
	}
	if data.DefaultNarrator == "" && len(data.Narrators) > 0 {
		data.DefaultNarrator = data.Narrators[0].Name
	}
	return r.tmpl.ExecuteTemplate(w, "page", data)
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
