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
// This file defines a reusable Pub/Sub message listener that hands every
// message to a cor.Command.
//
// Logic Flow:
//  1. A PubSubListener is created with a client and a subscription ID.
//  2. A Command is attached to it once the workflows are built.
//  3. Listen starts a goroutine that receives messages until the context ends.
//  4. Each message runs the command with the message body as its input.
//  5. Every message is acknowledged, successful or not. A failed generation
//     is logged and never redelivered; the sender publishes a new request if
//     it wants another attempt.
package cloud

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-lyric-shorts/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMessageTimeout bounds the handling of one message when the
// subscription does not configure its own.
const DefaultMessageTimeout = 5 * time.Minute

// Timeout returns the configured handling timeout or the default.
func (t TopicSubscription) Timeout() time.Duration {
	if t.TimeoutInSeconds <= 0 {
		return DefaultMessageTimeout
	}
	return time.Duration(t.TimeoutInSeconds) * time.Second
}

// PubSubListener connects one subscription to a processing command.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	timeout      time.Duration
	command      cor.Command
}

// NewPubSubListener creates a listener for subscriptionID. The command may be
// nil and attached later with SetCommand.
func NewPubSubListener(pubsubClient *pubsub.Client, subscriptionID string, timeout time.Duration, command cor.Command) *PubSubListener {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		timeout:      timeout,
		command:      command,
	}
}

// SetCommand attaches the command unless one is already set.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Handle runs the command for one message body and returns the chain context.
func (m *PubSubListener) Handle(ctx context.Context, data []byte) cor.Context {
	spanCtx, span := otel.Tracer("message-listener").Start(ctx, "receive-message")
	defer span.End()
	span.SetAttributes(attribute.Int("msg.size", len(data)))

	spanCtx, cancel := context.WithTimeout(spanCtx, m.timeout)
	defer cancel()

	chainCtx := cor.NewBaseContextWith(spanCtx, string(data))
	m.command.Execute(chainCtx)

	if err := chainCtx.Err(); err != nil {
		span.SetStatus(codes.Error, "failed")
		slog.ErrorContext(spanCtx, "error executing chain", "subscription", m.subscription.ID(), "error", err)
	} else {
		span.SetStatus(codes.Ok, "success")
	}
	return chainCtx
}

// Listen starts receiving messages in the background until ctx is canceled.
func (m *PubSubListener) Listen(ctx context.Context) {
	if m.command == nil {
		slog.Warn("listener has no command; not listening", "subscription", m.subscription.ID())
		return
	}
	slog.Info("listening", "subscription", m.subscription.ID())

	go func() {
		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			m.Handle(msgCtx, msg.Data)
			msg.Ack()
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}
