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

// Package test provides utility functions, fakes and sample data to support
// the application's test suite. It loads the test configuration once and
// offers in-memory stand-ins for the generative service and the store so
// tests never need network access.
package test

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/playback"
	"google.golang.org/genai"
)

// StateManager caches the configuration for the duration of a test run.
type StateManager struct {
	mu     sync.Mutex
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS points the configuration loader at the test configuration.
func SetupOS() (err error) {
	if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig returns the test configuration, loading it on first use. Tests
// that change the configuration should work on a copy from NewConfig.
func GetConfig() *cloud.Config {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// PNGBytes is a PNG signature followed by padding; enough for MIME sniffing.
var PNGBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

// SampleSongJSON returns a song response with n lines, in the shape the
// song model is asked for.
func SampleSongJSON(n int, musicStyle string) string {
	song := model.Song{MusicStyle: musicStyle}
	for i := 0; i < n; i++ {
		song.Slides = append(song.Slides, &model.SongLine{
			Lyrics:      "Line " + string(rune('A'+i)) + " of the sky song",
			ImagePrompt: "illustration number " + string(rune('A'+i)),
		})
	}
	data, _ := json.Marshal(song)
	return string(data)
}

// TextResponse builds a response with a single text part.
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 20,
		},
	}
}

// ImageResponse builds a response with a caption and one inline image.
func ImageResponse(data []byte, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: []*genai.Part{
			{Text: "here is your picture"},
			{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
		}}}},
	}
}

// GenerateCall records one request made to a FakeGenerator.
type GenerateCall struct {
	Model    string
	Prompt   string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// FakeGenerator implements cloud.ContentGenerator. Respond decides the
// answer for each call; calls are recorded in order of arrival.
type FakeGenerator struct {
	mu      sync.Mutex
	calls   []GenerateCall
	Respond func(ctx context.Context, call GenerateCall) (*genai.GenerateContentResponse, error)
}

// NewSongAndImageGenerator answers song requests with songJSON and every
// image request with PNGBytes.
func NewSongAndImageGenerator(songJSON string) *FakeGenerator {
	return &FakeGenerator{Respond: func(_ context.Context, call GenerateCall) (*genai.GenerateContentResponse, error) {
		if call.Config != nil && len(call.Config.ResponseModalities) > 0 {
			return ImageResponse(PNGBytes, "image/png"), nil
		}
		return TextResponse(songJSON), nil
	}}
}

func (f *FakeGenerator) GenerateContent(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	call := GenerateCall{Model: modelName, Contents: contents, Config: config}
	var sb strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			sb.WriteString(p.Text)
		}
	}
	call.Prompt = sb.String()

	f.mu.Lock()
	f.calls = append(f.calls, call)
	respond := f.Respond
	f.mu.Unlock()

	if respond == nil {
		return nil, errors.New("fake generator has no response configured")
	}
	return respond(ctx, call)
}

// Calls returns a copy of the recorded calls.
func (f *FakeGenerator) Calls() []GenerateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GenerateCall(nil), f.calls...)
}

// ImageCalls returns the recorded calls that asked for images.
func (f *FakeGenerator) ImageCalls() []GenerateCall {
	var out []GenerateCall
	for _, c := range f.Calls() {
		if c.Config != nil && len(c.Config.ResponseModalities) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// StaticKey is a cloud.CredentialSource with a fixed key.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) { return string(k), nil }

// MemoryStore is an in-memory store.Store. Setting FailPuts makes every Put
// fail with a storage error.
type MemoryStore struct {
	mu       sync.Mutex
	opened   bool
	shorts   map[string]*model.Short
	settings map[string]string
	FailPuts bool
	Puts     int
}

// NewMemoryStore creates an empty, unopened store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shorts: map[string]*model.Short{}, settings: map[string]string{}}
}

func (m *MemoryStore) Open(context.Context) error {
	m.mu.Lock()
	m.opened = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Put(_ context.Context, short *model.Short) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts++
	if !m.opened {
		return model.StorageError("put", model.ErrStoreNotReady)
	}
	if m.FailPuts {
		return model.StorageError("put", errors.New("quota exceeded"))
	}
	cp := *short
	cp.Rendered = ""
	m.shorts[short.ID] = &cp
	return nil
}

func (m *MemoryStore) ListAll(context.Context) ([]*model.Short, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened {
		return nil, model.StorageError("list", model.ErrStoreNotReady)
	}
	out := make([]*model.Short, 0, len(m.shorts))
	for _, s := range m.shorts {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) Setting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[key], nil
}

func (m *MemoryStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Count returns the number of stored shorts.
func (m *MemoryStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shorts)
}

// PageCall is one command recorded by FakePage, such as "speak" or "pause".
type PageCall struct {
	Op      string
	ShortID string
	Index   int
	Text    string
	Voice   string
	URL     string
	Volume  float64
	Flag    bool
	Token   playback.Token
}

// FakePage records every capability call the playback coordinator makes and
// implements playback.Narrator, VoiceSource, MusicPlayer and View. Setting
// SpeakErr, CancelErr or PlayErr makes those calls fail.
type FakePage struct {
	mu          sync.Mutex
	calls       []PageCall
	VoiceList   []model.Voice
	SpeakErr    error
	CancelErr   error
	PlayErr     error
	LastMessage string
}

// Capabilities returns the page as the full capability set.
func (p *FakePage) Capabilities() playback.Capabilities {
	return playback.Capabilities{Narrator: p, Voices: p, Music: p, View: p}
}

func (p *FakePage) record(c PageCall) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (p *FakePage) Calls() []PageCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PageCall(nil), p.calls...)
}

// Ops returns the recorded operation names in order.
func (p *FakePage) Ops() []string {
	var out []string
	for _, c := range p.Calls() {
		out = append(out, c.Op)
	}
	return out
}

// Spoken returns the speak calls in order.
func (p *FakePage) Spoken() []PageCall {
	var out []PageCall
	for _, c := range p.Calls() {
		if c.Op == "speak" {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets the recorded calls.
func (p *FakePage) Reset() {
	p.mu.Lock()
	p.calls = nil
	p.mu.Unlock()
}

func (p *FakePage) Speak(token playback.Token, text, voice string) error {
	p.record(PageCall{Op: "speak", Token: token, Index: token.Index, Text: text, Voice: voice})
	return p.SpeakErr
}

func (p *FakePage) Cancel() error {
	p.record(PageCall{Op: "cancel"})
	return p.CancelErr
}

func (p *FakePage) Voices() []model.Voice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.VoiceList
}

func (p *FakePage) Play(url string, volume float64) error {
	p.record(PageCall{Op: "play", URL: url, Volume: volume})
	return p.PlayErr
}

func (p *FakePage) Pause() error {
	p.record(PageCall{Op: "pause"})
	return nil
}

func (p *FakePage) ScrollToSlide(shortID string, index int) error {
	p.record(PageCall{Op: "scroll-slide", ShortID: shortID, Index: index})
	return nil
}

func (p *FakePage) ResetSlides(shortID string) error {
	p.record(PageCall{Op: "reset-slides", ShortID: shortID})
	return nil
}

func (p *FakePage) ScrollToShort(shortID string) error {
	p.record(PageCall{Op: "scroll-short", ShortID: shortID})
	return nil
}

func (p *FakePage) MarkSlide(shortID string, index int, active bool) error {
	p.record(PageCall{Op: "mark", ShortID: shortID, Index: index, Flag: active})
	return nil
}

func (p *FakePage) LockVertical(locked bool) error {
	p.record(PageCall{Op: "lock", Flag: locked})
	return nil
}

func (p *FakePage) ShowError(message string) error {
	p.mu.Lock()
	p.LastMessage = message
	p.mu.Unlock()
	p.record(PageCall{Op: "error", Text: message})
	return nil
}

// StaticFeed is a playback.Feed over a fixed newest-first list.
type StaticFeed []*model.Short

func (f StaticFeed) Get(id string) (*model.Short, bool) {
	for _, s := range f {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

func (f StaticFeed) Neighbor(id string, delta int) (*model.Short, bool) {
	for i, s := range f {
		if s.ID == id {
			j := i + delta
			if j < 0 || j >= len(f) {
				return nil, false
			}
			return f[j], true
		}
	}
	return nil, false
}
