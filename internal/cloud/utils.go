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
// This file contains general-purpose utility functions that support the cloud package.
// These helpers cover hierarchical configuration loading, file system checks,
// and the response handling for text and image generation calls.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first reads a base
//     configuration file and then overwrites values with a second, environment-specific
//     file (e.g., .env.local.toml, .env.test.toml). The environment is determined by
//     an environment variable.
//   - GenerateMultiModalResponse: Makes a text call to the GenAI model and records
//     token usage. Failures are returned as-is; nothing is retried.
//   - GenerateImage: Makes an image call and returns the first inline image part.
//   - NewTextPart: Factory for text contents.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// Cloud Constants define key strings used for configuration loading.
const (
	ConfigFileBaseName  = ".env"                 // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"                // The file extension for configuration files.
	ConfigSeparator     = "."                    // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "SHORTS_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "SHORTS_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	EnvAPIKey           = "GEMINI_API_KEY"       // Seeds Application.APIKey when set.
)

// ErrNoInlineImage is returned when an image response carries no inline image bytes.
var ErrNoInlineImage = errors.New("response contained no inline image data")

// ErrEmptyResponse is returned when a response carries no candidates at all.
var ErrEmptyResponse = errors.New("response contained no candidates")

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. The paths and environment are determined by environment variables.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct that will be populated
//     from the TOML files.
//
// Outputs:
//   - error: A decode error naming the file that failed. Missing files are not errors.
func LoadConfig(baseConfig interface{}) error {
	// Read the directory path for config files from an environment variable.
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	// Default to "test" if the runtime is not set.
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	slog.Debug("loading configuration", "base", baseConfigFileName, "environment", envConfigFileName)

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode base configuration file %s: %w", baseConfigFileName, err)
		}
	}

	// Any values in this file overwrite the values from the base config.
	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode environment configuration file %s: %w", envConfigFileName, err)
		}
	}

	if c, ok := baseConfig.(*Config); ok {
		if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
			c.Application.APIKey = key
		}
	}
	return nil
}

// recordUsage adds the token counts of a response to the counters. Some
// responses, image ones in particular, come back without usage metadata.
func recordUsage(ctx context.Context, inputTokenCounter, outputTokenCounter metric.Int64Counter, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	if inputTokenCounter != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
	}
	if outputTokenCounter != nil {
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}
}

// GenerateMultiModalResponse executes a request against a Generative AI model
// and returns the concatenated text of every candidate part.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - inputTokenCounter: An OpenTelemetry counter for prompt tokens used.
//   - outputTokenCounter: An OpenTelemetry counter for response tokens generated.
//   - model: The rate-limited generative model to use.
//   - content: The prompt contents.
//   - opts: Per-request changes to the model's generation config.
//
// Outputs:
//   - string: The text content from the model's response with any Markdown code fence removed.
//   - error: The model error, or ErrEmptyResponse.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content,
	opts ...ConfigOption) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	recordUsage(ctx, inputTokenCounter, outputTokenCounter, resp)
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	value = strings.TrimSpace(sb.String())
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value), nil
}

// GenerateImage executes an image request and returns the bytes and MIME type
// of the first inline data part found in any candidate.
func GenerateImage(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content,
	opts ...ConfigOption) (data []byte, mimeType string, err error) {
	resp, err := model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, "", err
	}
	recordUsage(ctx, inputTokenCounter, outputTokenCounter, resp)
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}
	return nil, "", ErrNoInlineImage
}

// NewTextPart is a simple factory function for creating a user text content.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}
