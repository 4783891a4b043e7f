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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, together with the clients used to reach Google's
// generative AI and storage services.
//
// This file centralizes all configuration-related structs, making it easy
// to understand and manage the application's configurable parameters.
//
// Structs:
//   - PromptTemplates: Holds the text templates for prompts sent to GenAI models.
//   - VertexAiLLMModel: Configuration for a generative model (song writer, illustrator).
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Store: Which document store backs the shorts and settings.
//   - Playback: Constants used by the viewport/playback coordinator.
//   - Style: A visual style key and the prefix added to every image prompt.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with defaults.
package cloud

import (
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/model"
	"google.golang.org/genai"
)

// Logical names of the agent models used by the generation workflow.
const (
	SongModelName         = "song-writer"
	IllustratorModelName  = "illustrator"
	GenerateTopicName     = "GenerateTopic"
	BackendGeminiAPI      = "gemini"
	BackendVertexAI       = "vertex"
	StoreBackendSQLite    = "sqlite"
	StoreBackendGCS       = "gcs"
	TelemetryExporterNone = "none"
	TelemetryExporterGCP  = "gcp"
)

// DefaultSafetySettings keeps the stock thresholds for the child-friendly
// content this application produces; only dangerous content is blocked at
// the low threshold.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockLowAndAbove,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	},
}

// PromptTemplates holds the Go text templates for the prompts.
type PromptTemplates struct {
	SongPrompt      string `toml:"song"`              // User prompt for the song model.
	GenericNarrator string `toml:"generic_narrator"`  // System instruction for narrators outside the curated table.
	CuratedNarrator string `toml:"curated_narrator"`  // System instruction wrapper for curated narrators.
	AspectRatioHint string `toml:"aspect_ratio_hint"` // Appended to every image prompt.
}

// VertexAiLLMModel represents the configuration for a generative model.
type VertexAiLLMModel struct {
	Model       string  `toml:"model"`       // The model id (e.g. "gemini-2.0-flash").
	Temperature float32 `toml:"temperature"` // The temperature parameter for the LLM.
	TopP        float32 `toml:"top_p"`       // The top_p parameter for the LLM.
	TopK        float32 `toml:"top_k"`       // The top_k parameter for the LLM.
	MaxTokens   int32   `toml:"max_tokens"`  // The maximum number of tokens for the LLM output.
	RateLimit   int     `toml:"rate_limit"`  // Burst of requests allowed per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Upper bound for handling one message.
}

// Store selects and configures the document store.
type Store struct {
	Backend string `toml:"backend"` // "sqlite" (default) or "gcs".
	Path    string `toml:"path"`    // SQLite database file.
	Bucket  string `toml:"bucket"`  // GCS bucket for the gcs backend.
	Prefix  string `toml:"prefix"`  // Object prefix inside the bucket.
}

// Playback holds the coordinator constants.
type Playback struct {
	VisibilityThreshold float64 `toml:"visibility_threshold" json:"visibilityThreshold"` // Fraction of an item/slide that must be visible.
	ReplayDelayMillis   int     `toml:"replay_delay_ms" json:"replayDelayMs"`           // Pause between scroll reset and narration on replay.
	MusicVolume         float64 `toml:"music_volume" json:"musicVolume"`                // Background track volume, 0..1.
}

// Style is a visual style offered in the selector.
type Style struct {
	Name   string `toml:"name" json:"name"`
	Prefix string `toml:"prefix" json:"-"`
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The service name, also used for telemetry.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		Backend         string `toml:"backend"`           // "gemini" (API key) or "vertex" (ADC).
		ListenAddress   string `toml:"listen_address"`    // HTTP listen address.
		APIKey          string `toml:"api_key"`           // Seed credential; the stored setting wins when present.
	} `toml:"application"`
	Telemetry struct {
		Exporter string `toml:"exporter"` // "none" or "gcp".
	} `toml:"telemetry"`
	Store              Store                        `toml:"store"`
	Playback           Playback                     `toml:"playback"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
	Narrators          map[string]model.Narrator    `toml:"narrators"` // Curated narrators, keyed by lower-case name.
	Styles             map[string]Style             `toml:"styles"`    // Visual styles, keyed by style key.
	ExampleQuestions   []string                     `toml:"example_questions"`
}

// NewConfig creates a Config with every map initialized and the defaults
// the application can run with when no TOML file overrides them.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels: map[string]VertexAiLLMModel{
			SongModelName:        {Model: "gemini-2.0-flash", Temperature: 1, TopP: 0.95, TopK: 40, MaxTokens: 2048, RateLimit: 2},
			IllustratorModelName: {Model: "gemini-2.0-flash-preview-image-generation", Temperature: 1, TopP: 0.95, TopK: 40, MaxTokens: 8192, RateLimit: 10},
		},
		Narrators:        model.DefaultNarrators(),
		Styles:           DefaultStyles(),
		ExampleQuestions: model.DefaultExampleQuestions(),
		PromptTemplates: PromptTemplates{
			SongPrompt:      DefaultSongPrompt,
			GenericNarrator: DefaultGenericNarrator,
			CuratedNarrator: DefaultCuratedNarrator,
			AspectRatioHint: DefaultAspectRatioHint,
		},
		Playback: Playback{
			VisibilityThreshold: 0.8,
			ReplayDelayMillis:   500,
			MusicVolume:         0.3,
		},
		Store: Store{Backend: StoreBackendSQLite, Path: "shorts.db", Prefix: "lyric-shorts"},
	}
	c.Application.Name = "lyric-shorts"
	c.Application.Backend = BackendGeminiAPI
	c.Application.ListenAddress = ":8080"
	c.Telemetry.Exporter = TelemetryExporterNone
	return c
}

// DefaultStyles are the visual styles offered out of the box.
func DefaultStyles() map[string]Style {
	return map[string]Style{
		"anime":      {Name: "Anime", Prefix: "Vibrant anime illustration, cel shading, expressive characters: "},
		"watercolor": {Name: "Watercolor", Prefix: "Soft watercolor painting with gentle washes and paper texture: "},
		"pixel":      {Name: "Pixel Art", Prefix: "Colorful 16-bit pixel art scene: "},
		"clay":       {Name: "Claymation", Prefix: "Claymation stop-motion style, handmade clay figures: "},
		"comic":      {Name: "Comic Book", Prefix: "Bold comic book panel with ink outlines and halftone shading: "},
	}
}

// Default prompt templates. The song prompt receives QUESTION and
// EXAMPLE_JSON; the narrator templates receive NAME and INSTRUCTIONS.
const (
	DefaultSongPrompt = `Write a short, catchy song of 6 to 8 lines that answers this question: "{{.QUESTION}}".
Each line becomes one slide of a vertical video. For every line also write a vivid image prompt describing an illustration for that line.
Suggest a music style for the background track.
Lyrics may use light Markdown emphasis. Return JSON only, shaped like this example:
{{.EXAMPLE_JSON}}`

	DefaultCuratedNarrator = `{{.INSTRUCTIONS}}
Sing the answer in first person as the {{.NAME}}. Keep every line short enough to read on a phone screen.`

	DefaultGenericNarrator = `You are {{.NAME}}. Stay in character as {{.NAME}} and sing the answer in first person.
Keep the explanation accurate and every line short enough to read on a phone screen.`

	DefaultAspectRatioHint = " Aspect ratio 9:16, vertical."
)
