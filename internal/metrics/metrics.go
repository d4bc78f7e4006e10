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

// Package metrics is the proxy's prometheus surface: connection counts,
// hook vetoes, cache occupancy, and command dispatch, all exposed by
// web.Init under /metrics via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"starnetd/internal/protocol"
)

const namespace = "starnetd"

var (
	TotalSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "total_sessions",
		Help:      "total client sessions accepted",
	})
	CurrentSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "current_sessions",
		Help:      "currently relayed sessions",
	})
	UpstreamDialErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_dial_errors",
		Help:      "failed dials to the upstream game server",
	})
	FramesVetoed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_vetoed",
		Help:      "frames dropped by a hook veto, by packet type",
	}, []string{"type"})
	HookPanics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hook_panics",
		Help:      "hook invocations that recovered from a panic, by plugin",
	}, []string{"plugin"})
	ParseCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "parse_cache_size",
		Help:      "entries currently held in the message parse cache",
	})
	CommandsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_dispatched",
		Help:      "chat commands dispatched, by command name",
	}, []string{"command"})
	PluginLoadErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plugin_load_errors",
		Help:      "plugin load failures, by plugin name",
	}, []string{"plugin"})
)

func init() {
	prometheus.MustRegister(
		TotalSessions, CurrentSessions, UpstreamDialErrors, FramesVetoed,
		HookPanics, ParseCacheSize, CommandsDispatched, PluginLoadErrors,
	)
}

// SessionOpened records the start of a relayed session.
func SessionOpened() {
	TotalSessions.Inc()
	CurrentSessions.Inc()
}

// SessionClosed records the end of a relayed session.
func SessionClosed() {
	CurrentSessions.Dec()
}

// FrameVetoed records a hook-vetoed frame of the given packet type.
func FrameVetoed(pt uint8) {
	FramesVetoed.WithLabelValues(protocol.PacketType(pt).String()).Inc()
}
