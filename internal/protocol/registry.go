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

package protocol

import "starnetd/internal/errs"

// DecodeFunc parses a message body into a structured value.
type DecodeFunc func(body []byte) (interface{}, error)

// EncodeFunc rebuilds a message body from a structured value.
type EncodeFunc func(v interface{}) ([]byte, error)

// Codec holds the decode/encode pair for one PacketType. Either half may be
// absent: a type with no Decode is only ever relayed opaquely, and a type
// with no Encode can be parsed for inspection but never rebuilt (spec.md
// §4.2).
type Codec struct {
	Decode DecodeFunc
	Encode EncodeFunc
}

var registry = make(map[PacketType]Codec)

// Register installs a codec for pt, overwriting any previous registration.
func Register(pt PacketType, c Codec) {
	registry[pt] = c
}

// Get returns the codec registered for pt, if any.
func Get(pt PacketType) (Codec, bool) {
	c, ok := registry[pt]
	return c, ok
}

// DecodeBody decodes body using pt's registered Decode func.
func DecodeBody(pt PacketType, body []byte) (interface{}, error) {
	c, ok := registry[pt]
	if !ok || c.Decode == nil {
		return nil, errs.ErrNotImplemented
	}
	return c.Decode(body)
}

// EncodeBody rebuilds a body from v using pt's registered Encode func.
func EncodeBody(pt PacketType, v interface{}) ([]byte, error) {
	c, ok := registry[pt]
	if !ok || c.Encode == nil {
		return nil, errs.ErrNotImplemented
	}
	return c.Encode(v)
}
