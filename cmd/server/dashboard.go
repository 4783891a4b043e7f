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
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard serves /stats: a quick look at the server's state.
func Dashboard(r *gin.RouterGroup, state *StateManager) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			shorts := state.shorts.List()
			var slides int
			for _, s := range shorts {
				slides += len(s.Slides)
			}
			c.JSON(http.StatusOK, gin.H{
				"shorts":     len(shorts),
				"slides":     slides,
				"sessions":   state.hub.Count(),
				"generating": state.shorts.Busy(),
				"listeners":  len(state.cloud.PubSubListeners),
			})
		})
	}
}
