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

// Package web is the proxy's admin HTTP surface: pprof, prometheus metrics,
// session/plugin/ban inspection, and a websocket tail of live events.
// Modeled directly on the teacher's web package (gin, pprof.Register,
// gin.WrapH(promhttp.Handler())); everything past /metrics and /debug is
// new surface the teacher had no equivalent of. The session, plugin, ban,
// tail and stats routes are gated behind AuthConfig; /debug/pprof,
// /metrics, /version and /login are served without it.
package web

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"starnetd/internal/banlist"
	"starnetd/internal/message"
	"starnetd/internal/relay"
	"starnetd/internal/store"
)

var startedAt = time.Time{}

// Config bundles everything Init needs to wire the admin routes.
type Config struct {
	Auth    AuthConfig
	Loader  Loader
	Store   *store.Store
	IPBans  *banlist.List
	Version string
}

// Init registers the admin routes on ginSrv, mirroring the teacher's
// top-level web.Init entry point.
func Init(ginSrv *gin.Engine, cfg Config) {
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	pprof.Register(ginSrv)
	ginSrv.GET("/metrics", gin.WrapH(promhttp.Handler()))
	ginSrv.GET("/version", handleVersion(cfg.Version))

	ginSrv.POST("/login", cfg.Auth.loginHandler)

	admin := ginSrv.Group("/", cfg.Auth.middleware())
	admin.GET("/sessions", handleSessions)
	admin.GET("/plugins", handlePlugins(cfg.Loader))
	admin.GET("/bans/ip", handleIPBans(cfg.IPBans))
	admin.POST("/bans", handleAddBan(cfg.Store))
	admin.GET("/tail", handleTail)
	admin.GET("/stats", handleStats)
}

func handleVersion(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version": version,
			"uptime":  humanize.Time(startedAt),
		})
	}
}

func handleStats(c *gin.Context) {
	c.JSON(200, gin.H{
		"sessions":         relay.Count(),
		"parse_cache_size": message.Len(),
		"uptime":           humanize.Time(startedAt),
	})
}
