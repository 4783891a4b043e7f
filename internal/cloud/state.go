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
// This file initializes and holds every client the application uses to reach
// external services. It acts as a dependency injection container: one
// ServiceClients value is built at startup and passed to the services and
// workflows that need it.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup with the
//     loaded Config and the source of the Gemini API key.
//  2. The Storage client is created only when the GCS store backend is selected.
//  3. The Pub/Sub client and one listener per configured subscription are
//     created only when subscriptions are configured.
//  4. The generative client is lazy: it is built on the first request and
//     rebuilt whenever the stored key changes.
//  5. Each configured agent model is wrapped in a rate-limited
//     QuotaAwareGenerativeAIModel.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients is the container for all clients that talk to external services.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Nil unless the GCS store backend is selected.
	PubsubClient    *pubsub.Client                          // Nil unless subscriptions are configured.
	Models          *LazyModels                             // Generative client, resolved per request.
	PubSubListeners map[string]*PubSubListener              // Keyed by the logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Keyed by the logical name from the config.
}

// Close releases the client connections that were opened.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
}

// NewAgentModels wraps every configured agent model around the generator.
func NewAgentModels(config *Config, generator ContentGenerator) map[string]*QuotaAwareGenerativeAIModel {
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		cfg := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](values.Temperature),
			TopP:            genai.Ptr[float32](values.TopP),
			TopK:            genai.Ptr[float32](values.TopK),
			MaxOutputTokens: values.MaxTokens,
			SafetySettings:  DefaultSafetySettings,
		}
		agentModels[amKey] = NewQuotaAwareModel(cfg, values.Model, generator, values.RateLimit)
	}
	return agentModels
}

// NewCloudServiceClients initializes the service clients required by the configuration.
//
// Inputs:
//   - ctx: The root context for the application.
//   - config: The loaded application configuration.
//   - creds: Supplies the Gemini API key when the Gemini API backend is used.
//
// Outputs:
//   - *ServiceClients: The initialized clients.
//   - error: An error if any client fails to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config, creds CredentialSource) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{PubSubListeners: make(map[string]*PubSubListener)}

	if config.Store.Backend == StoreBackendGCS {
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return nil, err
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			cloud.Close()
			return nil, err
		}
		// Commands are attached once the workflows are built.
		for subKey, values := range config.TopicSubscriptions {
			cloud.PubSubListeners[subKey] = NewPubSubListener(cloud.PubsubClient, values.Name, values.Timeout(), nil)
		}
	}

	cloud.Models = NewLazyModels(config, creds)
	cloud.AgentModels = NewAgentModels(config, cloud.Models)
	slog.Info("service clients ready",
		"backend", config.Application.Backend,
		"store", config.Store.Backend,
		"listeners", len(cloud.PubSubListeners),
		"models", len(cloud.AgentModels))
	return cloud, nil
}
