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

	"github.com/jaycherian/gcp-go-lyric-shorts/internal/cloud"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/workflow"
)

// SetupListeners attaches the generation trigger to the configured
// subscription and starts receiving. Shorts generated this way are saved
// through the short service, so open pages receive them like any other.
func SetupListeners(ctx context.Context, state *StateManager) {
	listener, ok := state.cloud.PubSubListeners[cloud.GenerateTopicName]
	if !ok {
		slog.Info("no generation subscription configured")
		return
	}
	listener.SetCommand(workflow.NewShortTriggerWorkflow(state.generator, state.shorts))
	listener.Listen(ctx)
}
