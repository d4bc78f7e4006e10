// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"): you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"starnetd/internal/plugin"
	"starnetd/internal/plugin/builtin/playermanager"
	"starnetd/internal/relay"
)

type sessionView struct {
	RemoteAddr string `json:"remote_addr"`
	Player     string `json:"player,omitempty"`
	UUID       string `json:"uuid,omitempty"`
}

func handleSessions(c *gin.Context) {
	sessions := relay.All()
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		v := sessionView{RemoteAddr: sess.RemoteAddr()}
		if id, ok := playermanager.Lookup(sess); ok {
			v.Player = id.Name
			v.UUID = id.UUID
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    relay.Count(),
		"sessions": views,
	})
}

type pluginsView struct {
	Registered []string `json:"registered"`
	Loaded     []string `json:"loaded"`
}

// Loader is the subset of plugin.Loader the admin surface needs; Config
// takes it as an interface so tests can supply a fake.
type Loader interface {
	LoadedNames() []string
}

func handlePlugins(loader Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := pluginsView{Registered: plugin.Names()}
		if loader != nil {
			view.Loaded = loader.LoadedNames()
		}
		c.JSON(http.StatusOK, view)
	}
}
