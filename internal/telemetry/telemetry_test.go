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

package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestLogHandlerUsesCloudLoggingKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewLogHandler(&buf, slog.LevelInfo))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	logger.With("component", "test").WarnContext(ctx, "background track failed", "track", "upbeat")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "background track failed", entry["message"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, traceID.String(), entry["logging.googleapis.com/trace"])
	assert.Equal(t, true, entry["logging.googleapis.com/trace_sampled"])
}

func TestLogHandlerDropsDebugAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewLogHandler(&buf, slog.LevelInfo))
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestSetupOpenTelemetryDisabled(t *testing.T) {
	cfg := cloud.NewConfig()
	cfg.Telemetry.Exporter = cloud.TelemetryExporterNone
	shutdown, err := telemetry.SetupOpenTelemetry(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
