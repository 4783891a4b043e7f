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

// Package workflow_test contains tests for the generation workflows. This
// file holds the shared setup: configuration, logging, telemetry and the
// service clients, created once in TestMain. The generative client is
// replaced by a fake so no test reaches the network.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/telemetry"
	test "github.com/jaycherian/gcp-go-lyric-shorts/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

var (
	ctx    context.Context
	config *cloud.Config
)

const tName = "github.com/jaycherian/gcp-go-lyric-shorts/tests/workflow"

var logger = otelslog.NewLogger(tName)

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	config = test.GetConfig()
	telemetry.SetupLogging()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		panic(err)
	}

	logger.Info("completed test setup")
	exitCode := m.Run()

	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}
	os.Exit(exitCode)
}

// newClients builds service clients whose models all answer through gen.
// Each test gets its own rate limiters so earlier tests cannot slow it down.
func newClients(t *testing.T, apiKey string, gen cloud.ContentGenerator) *cloud.ServiceClients {
	t.Helper()
	cfg := *config
	cfg.AgentModels = make(map[string]cloud.VertexAiLLMModel, len(config.AgentModels))
	for k, v := range config.AgentModels {
		v.RateLimit = 100
		cfg.AgentModels[k] = v
	}
	clients, err := cloud.NewCloudServiceClients(ctx, &cfg, test.StaticKey(apiKey))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(clients.Close)
	if gen != nil {
		clients.Models.SetFactory(func(context.Context, string) (cloud.ContentGenerator, error) {
			return gen, nil
		})
	}
	return clients
}
