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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a wrapper around the Generative AI client.
// This wrapper uses the Decorator design pattern to add rate limiting to
// the model without altering the client code.
//
// Services like Gemini have quotas on how many requests you can make per
// minute. The wrapper blocks callers on a token bucket instead of letting the
// requests fail. Failed requests are never retried; the user starts over.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps a ContentGenerator and a base config
//     with a rate limiter.
//   - LazyModels: A ContentGenerator that builds the genai client on first use
//     and rebuilds it when the stored API key changes.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - NewLazyModels: A constructor for the lazily resolved client.
package cloud

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the single call the application makes against the
// generative service. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ConfigOption changes a copy of the base generation config for one request.
type ConfigOption func(*genai.GenerateContentConfig)

// WithSystemInstruction sets the system instruction for one request.
func WithSystemInstruction(text string) ConfigOption {
	return func(c *genai.GenerateContentConfig) {
		c.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}
}

// WithResponseSchema requests JSON output constrained to the schema.
func WithResponseSchema(schema *genai.Schema) ConfigOption {
	return func(c *genai.GenerateContentConfig) {
		c.ResponseMIMEType = "application/json"
		c.ResponseSchema = schema
	}
}

// WithResponseModalities sets the output modalities, e.g. IMAGE and TEXT.
func WithResponseModalities(modalities ...string) ConfigOption {
	return func(c *genai.GenerateContentConfig) {
		c.ResponseModalities = modalities
	}
}

// QuotaAwareGenerativeAIModel is a decorator that adds rate limiting to a
// named model on a ContentGenerator.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Base config; requests receive a copy.
	ModelName               string
	ModelHandle             ContentGenerator
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel creates a QuotaAwareGenerativeAIModel that allows a
// burst of requestsPerSecond calls, replenished at one per second.
//
// Inputs:
//   - wrapped: The base generation config.
//   - name: The model id passed on every call.
//   - handle: The ContentGenerator the calls go to.
//   - requestsPerSecond: The burst size. Values below one are treated as one.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, handle ContentGenerator, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	if wrapped == nil {
		wrapped = &genai.GenerateContentConfig{}
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent waits for the rate limiter and then calls the model once.
// A canceled context ends the wait with the context's error.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content, opts ...ConfigOption) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	cfg := *q.GenerativeContentConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, &cfg)
}

// CredentialSource supplies the current Gemini API key.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to a CredentialSource.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) APIKey(ctx context.Context) (string, error) { return f(ctx) }

// ErrMissingAPIKey is wrapped in an InitializationError when no key is stored.
var ErrMissingAPIKey = errors.New("no Gemini API key configured; add one in settings")

// ClientFactory builds a ContentGenerator for an API key.
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// LazyModels resolves the genai client on every call. With the Gemini API
// backend the client is rebuilt whenever the stored key changes; with Vertex
// AI the key is ignored and the client is built once.
type LazyModels struct {
	mu      sync.Mutex
	creds   CredentialSource
	factory ClientFactory
	vertex  bool
	key     string
	current ContentGenerator
}

// NewLazyModels creates the lazy client for the configured backend.
func NewLazyModels(config *Config, creds CredentialSource) *LazyModels {
	l := &LazyModels{creds: creds, vertex: config.Application.Backend == BackendVertexAI}
	project, location := config.Application.GoogleProjectId, config.Application.GoogleLocation
	l.factory = func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
		if l.vertex {
			cc = &genai.ClientConfig{Project: project, Location: location, Backend: genai.BackendVertexAI}
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, err
		}
		return client.Models, nil
	}
	return l
}

// SetFactory replaces the client factory. Tests use it to inject fakes.
func (l *LazyModels) SetFactory(f ClientFactory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factory = f
	l.current = nil
}

func (l *LazyModels) resolve(ctx context.Context) (ContentGenerator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ""
	if !l.vertex {
		var err error
		if key, err = l.creds.APIKey(ctx); err != nil {
			return nil, model.InitializationError("read-api-key", err)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, model.InitializationError("genai-client", ErrMissingAPIKey)
		}
	}
	if l.current != nil && key == l.key {
		return l.current, nil
	}
	gen, err := l.factory(ctx, key)
	if err != nil {
		return nil, model.InitializationError("genai-client", err)
	}
	l.current, l.key = gen, key
	return gen, nil
}

// GenerateContent implements ContentGenerator.
func (l *LazyModels) GenerateContent(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	gen, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return gen.GenerateContent(ctx, modelName, contents, config)
}
