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
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/commands"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/delivery/ws"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/render"
	"github.com/jaycherian/gcp-go-lyric-shorts/web"
)

// NewRouter builds the gin engine with every route.
func NewRouter(state *StateManager) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(state.config.Application.Name))
	r.Use(cors.Default())

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))
	r.GET("/", PageHandler(state))
	r.GET("/ws/playback", gin.WrapH(ws.NewHandler(state.hub, state.shorts, state.config.Playback)))

	apiV1 := r.Group("/api/v1")
	{
		OptionsRouter(apiV1, state)
		ShortsRouter(apiV1, state)
		SettingsRouter(apiV1, state)
		Dashboard(apiV1, state)
	}
	return r
}

// statusFor maps the error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, commands.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, model.ErrInitialization):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": model.UserMessage(err)})
}

// PageHandler renders the full page with the current feed and gallery.
func PageHandler(state *StateManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		settings, err := state.prefs.Settings(ctx)
		if err != nil {
			abortWithError(c, err)
			return
		}
		var buf bytes.Buffer
		err = state.renderer.Page(&buf, render.PageData{
			Title:     "Lyric Shorts",
			Theme:     settings.Theme,
			APIKeySet: settings.APIKeySet,
			Narrators: render.NarratorOptions(state.config.Narrators),
			Styles:    render.StyleOptions(state.config.Styles),
			Examples:  state.config.ExampleQuestions,
			Playback:  state.config.Playback,
			Shorts:    state.shorts.List(),
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	}
}

// OptionsRouter serves the selector contents.
func OptionsRouter(r *gin.RouterGroup, state *StateManager) {
	r.GET("/options", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"narrators":     render.NarratorOptions(state.config.Narrators),
			"styles":        render.StyleOptions(state.config.Styles),
			"examples":      state.config.ExampleQuestions,
			"instrumentals": model.Instrumentals,
			"playback":      state.config.Playback,
		})
	})
}

// ShortsRouter serves listing, lookup, generation and the gallery fragment.
func ShortsRouter(r *gin.RouterGroup, state *StateManager) {
	shorts := r.Group("/shorts")
	{
		shorts.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, state.shorts.List())
		})

		shorts.GET("/:id", func(c *gin.Context) {
			short, ok := state.shorts.Get(c.Param("id"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "short not found"})
				return
			}
			c.JSON(http.StatusOK, short)
		})

		shorts.POST("", func(c *gin.Context) {
			var req model.GenerateRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			short, err := state.shorts.Generate(c.Request.Context(), &req)
			if err != nil {
				abortWithError(c, err)
				return
			}
			item, err := state.renderer.FeedItem(short)
			if err != nil {
				abortWithError(c, err)
				return
			}
			gallery, err := state.renderer.Gallery(state.shorts.List())
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"short": short, "html": item, "gallery": gallery})
		})
	}

	r.GET("/gallery", func(c *gin.Context) {
		gallery, err := state.renderer.Gallery(state.shorts.List())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(gallery))
	})
}

// settingsUpdate carries the fields to change. Absent fields are left alone.
type settingsUpdate struct {
	APIKey *string `json:"apiKey"`
	Theme  *string `json:"theme"`
}

// SettingsRouter reads and writes the preferences.
func SettingsRouter(r *gin.RouterGroup, state *StateManager) {
	settings := r.Group("/settings")
	{
		settings.GET("", func(c *gin.Context) {
			out, err := state.prefs.Settings(c.Request.Context())
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		settings.PUT("", func(c *gin.Context) {
			var in settingsUpdate
			if err := c.ShouldBindJSON(&in); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			ctx := c.Request.Context()
			if in.APIKey != nil {
				if err := state.prefs.SetAPIKey(ctx, *in.APIKey); err != nil {
					abortWithError(c, err)
					return
				}
			}
			if in.Theme != nil {
				if err := state.prefs.SetTheme(ctx, *in.Theme); err != nil {
					abortWithError(c, err)
					return
				}
			}
			out, err := state.prefs.Settings(ctx)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
