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

// Package web bundles the page templates and the browser client.
package web

import "embed"

// Templates holds the html/template sources parsed by the renderer.
//
//go:embed templates/*.html
var Templates embed.FS

// Static holds the browser client served under /static.
//
//go:embed static
var Static embed.FS
