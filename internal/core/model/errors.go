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

package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced to a user wraps exactly one of these.
var (
	ErrInitialization = errors.New("initialization failed")
	ErrGeneration     = errors.New("generation failed")
	ErrStorage        = errors.New("storage failed")
	ErrNarration      = errors.New("narration failed")

	// ErrBusy rejects a generation while another one is in flight.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrEmptyShort rejects shorts without slides.
	ErrEmptyShort = errors.New("short has no slides")
	// ErrStoreNotReady is returned by stores used before Open.
	ErrStoreNotReady = errors.New("store is not initialized")
)

// Error ties a failure to its kind and the operation that produced it.
// errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) error {
	var existing *Error
	if errors.As(err, &existing) && existing.Kind == kind {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// InitializationError reports a store or client setup failure.
func InitializationError(op string, err error) error { return newError(ErrInitialization, op, err) }

// GenerationError reports a failed or malformed song/image generation.
func GenerationError(op string, err error) error { return newError(ErrGeneration, op, err) }

// StorageError reports a persistence failure.
func StorageError(op string, err error) error { return newError(ErrStorage, op, err) }

// NarrationError reports a speech engine failure other than cancellation.
func NarrationError(op string, err error) error { return newError(ErrNarration, op, err) }

// UserMessage converts an error into the single message shown in a popup.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "Hold on, a short is already being generated."
	case errors.Is(err, ErrInitialization):
		return "The app could not start: " + rootCause(err)
	case errors.Is(err, ErrGeneration):
		return "Could not generate the short: " + rootCause(err)
	case errors.Is(err, ErrStorage):
		return "Could not save the short: " + rootCause(err)
	case errors.Is(err, ErrNarration):
		return "Narration stopped: " + rootCause(err)
	default:
		return err.Error()
	}
}

func rootCause(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
