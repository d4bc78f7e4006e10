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

package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"starnetd/internal/banlist"
	"starnetd/internal/command"
	"starnetd/internal/config"
	"starnetd/internal/hooks"
	"starnetd/internal/logging"
	"starnetd/internal/message"
	"starnetd/internal/plugin"
	"starnetd/internal/protocol"
	"starnetd/internal/relay"
	"starnetd/internal/store"
	"starnetd/web"

	_ "starnetd/internal/plugin/builtin/commands"
	_ "starnetd/internal/plugin/builtin/playermanager"
	_ "starnetd/internal/plugin/builtin/worldmanager"
)

var (
	configPath = flag.String("p", "conf", "Config file path")
	configFile = flag.String("c", "starnetd.yaml", "Config filename")
	version    = flag.Bool("v", false, "Show version")
	help       = flag.Bool("h", false, "Show usage info")
)

var (
	CommitSHA string
	Tag       string
	BuildTime string
)

func init() {
	if len(Tag) < 1 {
		Tag = "unknown"
	}
	if len(CommitSHA) < 1 {
		CommitSHA = "unknown"
	}
	if len(BuildTime) < 1 {
		BuildTime = "unknown"
	}
}

const banner string = `
___________________________________________  ___  __
___  __ \_  ____/__  __ \__  __ \_  __ \_  |/ / \/ /
__  /_/ /  /    __  /_/ /_  /_/ /  / / /_    /__  /
_  _, _// /___  _  ____/_  _, _// /_/ /_    | _  /
/_/ |_| \____/  /_/     /_/ |_| \____/ /_/|_| /_/

                     starnetd
`

func parseCli() {
	flag.Parse()
	if *version {
		fmt.Printf("version: %s\ncommit: %s\ntime: %s\n", Tag, CommitSHA, BuildTime)
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
}

func main() {
	parseCli()

	cfg, err := config.LoadConfig(path.Join(*configPath, *configFile))
	if err != nil {
		logging.Errorf("parse config file err: %v", err)
		return
	}

	if err = logging.InitializeLogger(
		logging.WithPath(cfg.LogPath),
		logging.WithExpireDay(cfg.LogExpireDay),
		logging.WithLogLevel(cfg.LogLevel),
	); err != nil {
		logging.Errorf("failed to initialize logger, err: %s", err)
		return
	}

	fmt.Print(banner)
	fmt.Printf("starnetd version: %s\n", Tag)
	fmt.Printf("starnetd started with port: %d, pid: %d\n", cfg.ListenPort, syscall.Getpid())
	logging.Infof("starnetd started with port: %d, pid: %d, version: %s", cfg.ListenPort, syscall.Getpid(), Tag)

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		logging.Errorf("failed to open store, err: %s", err)
		return
	}
	defer st.Close()

	ipBans, err := banlist.Load(cfg.BanlistPath)
	if err != nil {
		logging.Errorf("failed to load ban list, err: %s", err)
		return
	}

	message.StartReaper(time.Duration(cfg.CacheReaperIntervalSeconds)*time.Second, 5*time.Minute)

	dispatcher := hooks.NewDispatcher()

	commands := command.NewRegistry(cfg.CommandPrefix, func(sess hooks.Session, level string) bool {
		// Every session may run "user" level commands; anything stricter
		// requires an operator to have granted it out of band (left for a
		// future ACL store; moderator-only commands are unreachable until
		// then, matching the closed-by-default posture of spec.md §7).
		return level == "" || level == "user"
	})
	dispatcher.Register(protocol.ChatSent, "command_dispatcher", command.DispatchPriority, commands.AsHook())

	loaderCtx := &plugin.Context{
		Dispatcher: dispatcher,
		Commands:   commands,
		Store:      st,
		Sessions:   relay.Find,
	}
	loader := plugin.NewLoader(cfg.SystemPluginPath, cfg.UserPluginPath, loaderCtx)
	if err := loader.Start(); err != nil {
		logging.Errorf("failed to start plugin loader, err: %s", err)
		return
	}

	if cfg.WebPort > 0 {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		gin.SetMode(gin.ReleaseMode)
		ginSrv := gin.New()
		web.Init(ginSrv, web.Config{
			Auth: web.AuthConfig{
				User:         cfg.WebAdminUser,
				PasswordHash: cfg.WebAdminPasswordHash,
				Secret:       []byte(cfg.WebSessionSecret),
			},
			Loader:  loader,
			Store:   st,
			IPBans:  ipBans,
			Version: Tag,
		})
		httpSrv := &http.Server{Handler: ginSrv, Addr: addr}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Errorf("failed to start http server, err: %s", err)
			}
		}()
	}

	upstreamAddr := fmt.Sprintf("%s:%d", cfg.UpstreamHost, cfg.UpstreamPort)
	if err := runListener(cfg, dispatcher, upstreamAddr, ipBans); err != nil {
		logging.Errorf("starnetd run failed: %s", err)
	}

	logging.Infof("starnetd shutdown, pid: %d, listen: %d", syscall.Getpid(), cfg.ListenPort)
}

func runListener(cfg *config.Config, dispatcher *hooks.Dispatcher, upstreamAddr string, ipBans *banlist.List) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.ListenPort))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", cfg.ListenPort, err)
	}
	defer ln.Close()

	var opts []relay.Option
	if cfg.SessionIdleTimeoutSeconds > 0 {
		opts = append(opts, relay.WithIdleTimeout(time.Duration(cfg.SessionIdleTimeoutSeconds)*time.Second))
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
		if ipBans.Banned(host) {
			conn.Close()
			continue
		}

		sess, err := relay.Dial(conn, upstreamAddr, dispatcher, opts...)
		if err != nil {
			logging.Warnf("dial upstream for %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}
		go sess.Run()
	}
}
