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
	"context"
	"errors"
)

// BaseContext is the default Context: a value map plus the errors recorded
// by the commands, kept in the order they happened.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	errorKeys []string
	context   context.Context
}

// NewBaseContext creates an empty context. Callers set the Go context with
// SetContext before running a chain.
func NewBaseContext() Context {
	return &BaseContext{
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// NewBaseContextWith creates a context bound to ctx with input stored under CtxIn.
func NewBaseContextWith(ctx context.Context, input interface{}) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	if input != nil {
		c.Add(CtxIn, input)
	}
	return c
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) AddError(key string, err error) {
	if err == nil {
		return
	}
	if _, seen := c.errors[key]; !seen {
		c.errorKeys = append(c.errorKeys, key)
	}
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

func (c *BaseContext) Err() error {
	if len(c.errorKeys) == 0 {
		return nil
	}
	if len(c.errorKeys) == 1 {
		return c.errors[c.errorKeys[0]]
	}
	errs := make([]error, 0, len(c.errorKeys))
	for _, k := range c.errorKeys {
		errs = append(errs, c.errors[k])
	}
	return errors.Join(errs...)
}
