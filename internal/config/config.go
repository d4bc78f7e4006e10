// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config is the proxy's config loader (§1: "Configuration loader:
// provides a read-only mapping of options to the core"). It loads a single
// YAML file and hands back an immutable Config value.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"starnetd/internal/logging"
)

type Config struct {
	ListenPort int    `yaml:"listen_port"`
	WebPort    int    `yaml:"web_port"`

	UpstreamHost string `yaml:"upstream_host"`
	UpstreamPort int    `yaml:"upstream_port"`

	LogPath      string `yaml:"log_path"`
	LogLevel     string `yaml:"log_level"`
	LogExpireDay int    `yaml:"log_expire_day"`

	CommandPrefix string `yaml:"command_prefix"`

	SystemPluginPath string `yaml:"system_plugin_path"`
	UserPluginPath   string `yaml:"user_plugin_path"`

	StorePath string `yaml:"store_path"`
	BanlistPath string `yaml:"banlist_path"`

	CacheReaperIntervalSeconds int `yaml:"cache_reaper_interval_seconds"`
	SessionIdleTimeoutSeconds  int `yaml:"session_idle_timeout_seconds"`

	WebAdminUser         string `yaml:"web_admin_user"`
	WebAdminPasswordHash string `yaml:"web_admin_password_hash"`
	WebSessionSecret     string `yaml:"web_session_secret"`
}

func defaults() Config {
	return Config{
		ListenPort:                 21025,
		WebPort:                    0,
		UpstreamHost:               "127.0.0.1",
		UpstreamPort:               21024,
		LogPath:                    "log",
		LogLevel:                   logging.LevelInfo,
		LogExpireDay:               7,
		CommandPrefix:              "/",
		SystemPluginPath:           "plugins",
		UserPluginPath:             "plugins/user",
		StorePath:                  "starnetd.db",
		BanlistPath:                "banlist.yaml",
		CacheReaperIntervalSeconds: 60,
		SessionIdleTimeoutSeconds:  0,
	}
}

func LoadConfig(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file from %s", fileName)
	}
	cfg := defaults()
	if err = yaml.Unmarshal(file, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", fileName)
	}
	if err = cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "config validate failed")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, ok := logging.LevelMapperRev[c.LogLevel]; !ok {
		return errors.Errorf("unknown log level %s", c.LogLevel)
	}
	if c.ListenPort <= 0 {
		return errors.Errorf("listen_port must be positive")
	}
	if len(c.UpstreamHost) < 1 || c.UpstreamPort <= 0 {
		return errors.Errorf("upstream_host/upstream_port must be set")
	}
	if len(c.CommandPrefix) < 1 {
		return errors.Errorf("command_prefix must not be empty")
	}
	return nil
}
