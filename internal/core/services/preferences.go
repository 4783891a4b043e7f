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

package services

import (
	"context"
	"strings"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/store"
)

// ThemeLight is the only theme value that is stored. Anything else means
// the default dark theme.
const ThemeLight = "light"

// Settings is the user-facing view of the preferences. The key itself is
// never sent back to the browser.
type Settings struct {
	APIKeySet bool   `json:"apiKeySet"`
	Theme     string `json:"theme"`
}

// PreferencesService reads and writes the API key and theme in the store's
// settings collection. It is the credential source for the Gemini client, so
// a changed key is picked up by the next generation.
type PreferencesService struct {
	store store.Store
	seed  string
}

// NewPreferencesService creates the service. The configured key, usually from
// GEMINI_API_KEY, is used until the user stores one.
func NewPreferencesService(st store.Store, config *cloud.Config) *PreferencesService {
	return &PreferencesService{store: st, seed: strings.TrimSpace(config.Application.APIKey)}
}

// APIKey returns the stored key, falling back to the configured seed.
func (p *PreferencesService) APIKey(ctx context.Context) (string, error) {
	key, err := p.store.Setting(ctx, store.SettingAPIKey)
	if err != nil {
		return "", model.StorageError("api-key", err)
	}
	if key = strings.TrimSpace(key); key != "" {
		return key, nil
	}
	return p.seed, nil
}

// SetAPIKey stores the trimmed key. An empty value clears it.
func (p *PreferencesService) SetAPIKey(ctx context.Context, key string) error {
	if err := p.store.SetSetting(ctx, store.SettingAPIKey, strings.TrimSpace(key)); err != nil {
		return model.StorageError("set-api-key", err)
	}
	return nil
}

// Theme returns "light" or "" for dark.
func (p *PreferencesService) Theme(ctx context.Context) (string, error) {
	theme, err := p.store.Setting(ctx, store.SettingTheme)
	if err != nil {
		return "", model.StorageError("theme", err)
	}
	if strings.TrimSpace(theme) == ThemeLight {
		return ThemeLight, nil
	}
	return "", nil
}

// SetTheme stores "light", or clears the theme for any other value.
func (p *PreferencesService) SetTheme(ctx context.Context, theme string) error {
	value := ""
	if strings.EqualFold(strings.TrimSpace(theme), ThemeLight) {
		value = ThemeLight
	}
	if err := p.store.SetSetting(ctx, store.SettingTheme, value); err != nil {
		return model.StorageError("set-theme", err)
	}
	return nil
}

// Settings returns both preferences at once.
func (p *PreferencesService) Settings(ctx context.Context) (Settings, error) {
	key, err := p.APIKey(ctx)
	if err != nil {
		return Settings{}, err
	}
	theme, err := p.Theme(ctx)
	if err != nil {
		return Settings{}, err
	}
	return Settings{APIKeySet: key != "", Theme: theme}, nil
}

var _ cloud.CredentialSource = (*PreferencesService)(nil)
