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

package relay

import "time"

// Option configures a Session at construction time.
type Option func(*Options)

// Options are the tunables of a relayed session.
type Options struct {
	ReadBufferCap   int
	IdleTimeout     time.Duration
	UpstreamTimeout time.Duration
}

func loadOptions(opts ...Option) *Options {
	o := &Options{
		ReadBufferCap:   64 * 1024,
		IdleTimeout:     10 * time.Minute,
		UpstreamTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithReadBufferCap sets the bufio.Reader size used on both legs of the
// relay.
func WithReadBufferCap(n int) Option {
	return func(o *Options) { o.ReadBufferCap = n }
}

// WithIdleTimeout sets how long a session may go without a frame in either
// direction before it is torn down.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *Options) { o.IdleTimeout = d }
}

// WithUpstreamTimeout bounds the dial to the upstream game server.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(o *Options) { o.UpstreamTimeout = d }
}
