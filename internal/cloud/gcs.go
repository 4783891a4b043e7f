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

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file defines how the document store lays out its objects in a Google
// Cloud Storage bucket.
//
// Layout under the configured prefix:
//
//	<prefix>/schema.json           schema version marker
//	<prefix>/shorts/<id>.json      one document per short
//	<prefix>/settings/<key>.txt    one object per setting
package cloud

import (
	"path"
	"strings"
)

// GCSObject is a bucket/name pair plus the content type to write with.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// GCSLayout names the objects of the document store.
type GCSLayout struct {
	Bucket string
	Prefix string
}

// NewGCSLayout creates the layout for a Store configuration.
func NewGCSLayout(s Store) GCSLayout {
	return GCSLayout{Bucket: s.Bucket, Prefix: strings.Trim(s.Prefix, "/")}
}

// Schema is the schema version marker.
func (l GCSLayout) Schema() GCSObject {
	return GCSObject{Bucket: l.Bucket, Name: path.Join(l.Prefix, "schema.json"), MIMEType: "application/json"}
}

// ShortsPrefix is the listing prefix of the short documents, with a trailing slash.
func (l GCSLayout) ShortsPrefix() string {
	return path.Join(l.Prefix, "shorts") + "/"
}

// Short is the document for one short.
func (l GCSLayout) Short(id string) GCSObject {
	return GCSObject{Bucket: l.Bucket, Name: l.ShortsPrefix() + id + ".json", MIMEType: "application/json"}
}

// Setting is the object holding one setting value.
func (l GCSLayout) Setting(key string) GCSObject {
	return GCSObject{Bucket: l.Bucket, Name: path.Join(l.Prefix, "settings", key+".txt"), MIMEType: "text/plain; charset=utf-8"}
}
