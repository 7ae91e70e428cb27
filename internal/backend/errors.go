// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes backend errors for handling.
type ErrorKind int

const (
	// KindTransport covers network failures and non-2xx responses.
	KindTransport ErrorKind = iota
	// KindParse covers malformed or incomplete response bodies.
	KindParse
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation.
type Error struct {
	Kind       ErrorKind
	Op         string // chat, upload, remove, status
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body for non-2xx responses
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("backend %s: %s error", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
		if e.Body != "" {
			msg += ": " + e.Body
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns a short description suitable for display.
func (e *Error) UserMessage() string {
	switch {
	case e.Kind == KindParse:
		return "The server sent a response that could not be read."
	case e.StatusCode >= 500:
		return fmt.Sprintf("The server failed to handle the request (HTTP %d).", e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("The server rejected the request (HTTP %d).", e.StatusCode)
	case errors.Is(e.Err, context.DeadlineExceeded):
		return "The server took too long to respond."
	case errors.Is(e.Err, context.Canceled):
		return "The request was cancelled."
	default:
		return "Could not reach the server. Is the backend running?"
	}
}

// IsTransport reports whether err is a transport-level backend error.
func IsTransport(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == KindTransport
}

// IsParse reports whether err is a response parsing error.
func IsParse(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == KindParse
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}
