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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/services"
	test "github.com/jaycherian/gcp-go-lyric-shorts/internal/testutil"
)

func newTestState(t *testing.T, gen cloud.ContentGenerator) (*StateManager, *test.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	config := *test.GetConfig()
	config.TopicSubscriptions = map[string]cloud.TopicSubscription{}
	config.AgentModels = make(map[string]cloud.VertexAiLLMModel, len(test.GetConfig().AgentModels))
	for k, v := range test.GetConfig().AgentModels {
		v.RateLimit = 100
		config.AgentModels[k] = v
	}

	clients, err := cloud.NewCloudServiceClients(ctx, &config, test.StaticKey("test-key"))
	require.NoError(t, err)
	clients.Models.SetFactory(func(context.Context, string) (cloud.ContentGenerator, error) {
		return gen, nil
	})

	st := test.NewMemoryStore()
	state, err := NewState(ctx, &config, clients, st, services.NewPreferencesService(st, &config))
	require.NoError(t, err)
	t.Cleanup(state.Close)
	return state, st
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateShortOverHTTP(t *testing.T) {
	gen := test.NewSongAndImageGenerator(test.SampleSongJSON(6, "lullaby"))
	state, st := newTestState(t, gen)
	r := NewRouter(state)

	w := do(t, r, http.MethodPost, "/api/v1/shorts", `{"question":"Why do cats purr?","character":"cat","style":"anime"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Short   struct{ ID, Prompt string } `json:"short"`
		HTML    string                      `json:"html"`
		Gallery string                      `json:"gallery"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Why do cats purr?", out.Short.Prompt)
	assert.Contains(t, out.HTML, `data-short-id="`+out.Short.ID+`"`)
	assert.Contains(t, out.Gallery, out.Short.ID)
	assert.Equal(t, 1, st.Count())

	w = do(t, r, http.MethodGet, "/api/v1/shorts/"+out.Short.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/shorts/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Why do cats purr?")

	w = do(t, r, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"shorts":1,"slides":6,"sessions":0,"generating":false,"listeners":0}`, w.Body.String())
}

func TestGenerateShortErrors(t *testing.T) {
	failing := &test.FakeGenerator{Respond: func(context.Context, test.GenerateCall) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("quota exhausted")
	}}
	state, st := newTestState(t, failing)
	r := NewRouter(state)

	w := do(t, r, http.MethodPost, "/api/v1/shorts", `{"question":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/shorts", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/shorts", `{"question":"Why is the sea salty?"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "quota exhausted")
	assert.Equal(t, 0, st.Count())
}

func TestSettingsRoundTrip(t *testing.T) {
	state, _ := newTestState(t, test.NewSongAndImageGenerator(test.SampleSongJSON(1, "")))
	r := NewRouter(state)

	w := do(t, r, http.MethodPut, "/api/v1/settings", `{"theme":"light","apiKey":"  abc  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"apiKeySet":true,"theme":"light"}`, w.Body.String())

	w = do(t, r, http.MethodPut, "/api/v1/settings", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"apiKeySet":true,"theme":""}`, w.Body.String())

	key, err := state.prefs.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", key)
}

func TestOptionsAndStatic(t *testing.T) {
	state, _ := newTestState(t, test.NewSongAndImageGenerator(test.SampleSongJSON(1, "")))
	r := NewRouter(state)

	w := do(t, r, http.MethodGet, "/api/v1/options", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	for _, k := range []string{"narrators", "styles", "examples", "instrumentals", "playback"} {
		assert.Contains(t, out, k)
	}

	w = do(t, r, http.MethodGet, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/gallery", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No shorts yet")
}
