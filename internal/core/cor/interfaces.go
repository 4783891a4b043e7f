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

// Package cor (Chain of Responsibility) provides the building blocks the
// generation workflow is assembled from. A Chain runs Commands in order over a
// shared Context; each command reads its input from the context, writes its
// output back, and records failures with AddError. The chain stops at the
// first failure, so a workflow either produces its result or an error, never
// a partial one.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys the chain pipes values through: whatever a
// command leaves in CtxOut becomes the next command's CtxIn.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context carries data and errors between the commands of one workflow run.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)
	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value and returns the Context for chaining.
	Add(key string, value interface{}) Context
	// Get returns the value stored under key, or nil.
	Get(key string) interface{}
	// Remove deletes a value.
	Remove(key string)

	// AddError records a failure under the name of the command that produced it.
	AddError(key string, err error)
	// GetErrors returns the recorded failures keyed by command name.
	GetErrors() map[string]error
	// HasErrors reports whether any failure was recorded.
	HasErrors() bool
	// Err returns the recorded failures in the order they were added, joined,
	// or nil when there are none.
	Err() error
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one named, instrumented step of a workflow.
type Command interface {
	Executable

	GetName() string
	// GetInputParam is the context key the command reads its input from.
	GetInputParam() string
	// GetOutputParam is the context key the command writes its output to.
	GetOutputParam() string
	// IsExecutable checks the command's preconditions against the context.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command made of other commands.
type Chain interface {
	Command

	// ContinueOnFailure keeps running later commands after one fails.
	ContinueOnFailure(bool) Chain
	// AddCommand appends a command.
	AddCommand(command Command) Chain
}
