// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"fmt"
)

// Request is what a Responder sees for one chat message.
type Request struct {
	Message  string
	History  []Exchange
	Document *Document
}

// Responder produces the reply to a chat message.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req Request) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// EchoResponder repeats the message back, naming the attached document
// when there is one.
type EchoResponder struct{}

// Respond implements Responder.
func (EchoResponder) Respond(_ context.Context, req Request) (string, error) {
	if req.Document != nil {
		return fmt.Sprintf("You asked about %s: %s", req.Document.Name, req.Message), nil
	}
	if n := len(req.History); n > 0 {
		return fmt.Sprintf("You said: %s (%d earlier in this session)", req.Message, n), nil
	}
	return "You said: " + req.Message, nil
}
