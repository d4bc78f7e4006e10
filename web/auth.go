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
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "starnetd_admin"

type claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// AuthConfig holds the admin credential material: a username, a bcrypt hash
// of the password, and the HMAC secret used to sign session cookies.
type AuthConfig struct {
	User         string
	PasswordHash string
	Secret       []byte
}

// VerifyPassword checks plaintext against the configured bcrypt hash.
func (a AuthConfig) VerifyPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) == nil
}

// HashPassword returns a bcrypt hash of plaintext in the form
// AuthConfig.PasswordHash expects. The starnetd CLI does not call it.
func HashPassword(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	return string(h), err
}

func (a AuthConfig) issue(c *gin.Context) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Subject: a.User,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		},
	})
	signed, err := tok.SignedString(a.Secret)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.SetCookie(sessionCookie, signed, int((12 * time.Hour).Seconds()), "/", "", false, true)
}

func (a AuthConfig) loginHandler(c *gin.Context) {
	var req struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	if req.User != a.User || !a.VerifyPassword(req.Password) {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	a.issue(c)
	c.Status(http.StatusNoContent)
}

func (a AuthConfig) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(sessionCookie)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tok, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
			return a.Secret, nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
