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
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/services"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/workflow"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/delivery/ws"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/render"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/store"
)

// StateManager holds the application's long-lived components. It is built
// once at startup and torn down by Close.
type StateManager struct {
	config    *cloud.Config
	cloud     *cloud.ServiceClients
	store     store.Store
	prefs     *services.PreferencesService
	shorts    *services.ShortService
	generator *workflow.ShortGeneratorWorkflow
	renderer  *render.Renderer
	hub       *ws.Hub
}

// SetupOS defaults the configuration directory and runtime when the
// environment does not set them.
func SetupOS() error {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		return os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig loads the configuration hierarchy on top of the defaults.
func GetConfig() (*cloud.Config, error) {
	if err := SetupOS(); err != nil {
		return nil, err
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// InitState opens the store and builds every component. Any failure is an
// InitializationError and stops the server.
func InitState(ctx context.Context, config *cloud.Config) (*StateManager, error) {
	var prefs *services.PreferencesService
	creds := cloud.CredentialFunc(func(ctx context.Context) (string, error) {
		return prefs.APIKey(ctx)
	})

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config, creds)
	if err != nil {
		return nil, model.InitializationError("cloud-clients", err)
	}
	st, err := store.New(config.Store, cloudClients.StorageClient)
	if err != nil {
		cloudClients.Close()
		return nil, err
	}
	prefs = services.NewPreferencesService(st, config)

	state, err := NewState(ctx, config, cloudClients, st, prefs)
	if err != nil {
		cloudClients.Close()
		return nil, err
	}
	return state, nil
}

// NewState wires the components around an already created store and set of
// clients. Tests call it with in-memory fakes.
func NewState(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, st store.Store, prefs *services.PreferencesService) (*StateManager, error) {
	if err := st.Open(ctx); err != nil {
		return nil, model.InitializationError("store", err)
	}

	ids := model.NewIDGenerator()
	generator, err := workflow.NewShortGeneratorWorkflow(config, cloudClients, ids)
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(render.NewGoldmark())
	if err != nil {
		return nil, model.InitializationError("renderer", err)
	}

	shorts := services.NewShortService(st, generator, ids)
	shorts.SetPreparer(renderer.Prepare)
	if err := shorts.Load(ctx); err != nil {
		return nil, model.InitializationError("load-shorts", err)
	}

	state := &StateManager{
		config:    config,
		cloud:     cloudClients,
		store:     st,
		prefs:     prefs,
		shorts:    shorts,
		generator: generator,
		renderer:  renderer,
		hub:       ws.NewHub(),
	}
	shorts.Subscribe(state.publish)
	return state, nil
}

// publish pushes a saved short and the rebuilt gallery to every open page.
func (s *StateManager) publish(short *model.Short) {
	item, err := s.renderer.FeedItem(short)
	if err != nil {
		slog.Error("failed to render new short", "id", short.ID, "error", err)
		return
	}
	gallery, err := s.renderer.Gallery(s.shorts.List())
	if err != nil {
		slog.Error("failed to render gallery", "error", err)
		return
	}
	s.hub.PublishShort(short.ID, item, gallery)
}

// Close releases the store and the cloud clients.
func (s *StateManager) Close() {
	if err := s.store.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
	s.cloud.Close()
}
