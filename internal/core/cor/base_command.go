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

package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// MeterName namespaces every metric the commands create.
const MeterName = "github.com/jaycherian/gcp-go-lyric-shorts"

// BaseCommand is the default implementation of the Command interface.
// Concrete commands embed it and implement Execute.
type BaseCommand struct {
	Name            string
	InputParamName  string
	OutputParamName string
	Tracer          trace.Tracer
	Meter           metric.Meter
	SuccessCounter  metric.Int64Counter
	ErrorCounter    metric.Int64Counter
}

// NewBaseCommand creates a BaseCommand with a tracer and success/error
// counters named after the command.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(MeterName)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		slog.Warn("error creating success counter", "command", name, "error", err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		slog.Warn("error creating error counter", "command", name, "error", err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// NewBaseCommandWithParams is NewBaseCommand with explicit context keys.
func NewBaseCommandWithParams(name, inputParam, outputParam string) *BaseCommand {
	c := NewBaseCommand(name)
	c.InputParamName = inputParam
	c.OutputParamName = outputParam
	return c
}

func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable requires a Go context and a non-nil input value.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(c.GetInputParam()) != nil
}

func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}

// Fail records err against the command and bumps its error counter.
func (c *BaseCommand) Fail(context Context, err error) {
	if c.ErrorCounter != nil {
		c.ErrorCounter.Add(context.GetContext(), 1)
	}
	context.AddError(c.GetName(), err)
}

// Succeed stores the output and bumps the success counter.
func (c *BaseCommand) Succeed(context Context, output interface{}) {
	context.Add(c.GetOutputParam(), output)
	if c.SuccessCounter != nil {
		c.SuccessCounter.Add(context.GetContext(), 1)
	}
}

// Value returns the value under key as a T. The second result is false when
// the key is missing or holds another type.
func Value[T any](context Context, key string) (T, bool) {
	v, ok := context.Get(key).(T)
	return v, ok
}
