// Copyright (c) 2019 Andy Pan
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

// Package errs holds the fixed error-kind vocabulary from spec §7: each
// sentinel maps to exactly one row of that table and one handling policy.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompletePacket is the normal peer-closed / truncated-frame path (C1).
	ErrIncompletePacket = errors.New("incomplete read")
	// ErrInvalidFixedLength occurs when a VLQ or fixed-width field is malformed.
	ErrInvalidFixedLength = errors.New("invalid fixed length of bytes")
	// ErrProtocolDecode is a structured-codec decode failure (C2); the caller
	// falls back to an empty parsed value and still forwards the raw bytes.
	ErrProtocolDecode = errors.New("protocol decode error")
	// ErrNotImplemented is raised by C2 when a type has no registered encoder.
	ErrNotImplemented = errors.New("not implemented")
	// ErrUnknownTag occurs when a tagged union's discriminant byte is
	// unrecognized; it wraps ErrProtocolDecode.
	ErrUnknownTag = fmt.Errorf("%w: unknown tag", ErrProtocolDecode)
	// ErrCommandSyntax is raised by a command handler that rejects its arguments (C7).
	ErrCommandSyntax = errors.New("command syntax error")
	// ErrPermissionDenied is raised by a command handler lacking permission (C7).
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSessionClosed marks a session that has already torn down.
	ErrSessionClosed = errors.New("session closed")
	// ErrDependencyMissing occurs when a plugin's declared dependency isn't loaded (C6).
	ErrDependencyMissing = errors.New("plugin dependency missing")
)

// SyntaxError wraps ErrCommandSyntax with the offending detail text.
type SyntaxError struct{ Detail string }

func (e SyntaxError) Error() string { return e.Detail }
func (e SyntaxError) Unwrap() error { return ErrCommandSyntax }

// PermissionError wraps ErrPermissionDenied with the offending detail text.
type PermissionError struct{ Detail string }

func (e PermissionError) Error() string { return e.Detail }
func (e PermissionError) Unwrap() error { return ErrPermissionDenied }
