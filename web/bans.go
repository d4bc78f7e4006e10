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
	"time"

	"github.com/gin-gonic/gin"

	"starnetd/internal/banlist"
	"starnetd/internal/store"
)

func handleIPBans(bans *banlist.List) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.Query("ip")
		c.JSON(http.StatusOK, gin.H{
			"ip":     ip,
			"banned": ip != "" && bans.Banned(ip),
		})
	}
}

type addBanRequest struct {
	Target string `json:"target" binding:"required"`
	Reason string `json:"reason"`
}

func handleAddBan(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		var req addBanRequest
		if err := c.BindJSON(&req); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		err := st.AddBan(c.Request.Context(), store.Ban{
			Target:    req.Target,
			Reason:    req.Reason,
			BannedBy:  "admin-console",
			CreatedAt: time.Now(),
		})
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
