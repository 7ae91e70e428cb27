// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"time"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/backend"
	"github.com/jeranaias/tensorchat/internal/model"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what changed in the session.
type EventKind int

const (
	// EventMessage: a message was appended. Event.Message is set.
	EventMessage EventKind = iota
	// EventAwaiting: the awaiting-reply flag changed. Event.Awaiting is set.
	EventAwaiting
	// EventAttachment: the attachment slot changed. Event.Attachment is set.
	EventAttachment
	// EventError: the notice was raised or dismissed. Event.Notice is nil
	// on dismissal.
	EventError
	// EventReset: the conversation was cleared.
	EventReset
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventAwaiting:
		return "awaiting"
	case EventAttachment:
		return "attachment"
	case EventError:
		return "error"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event describes one state change. Subscribers that miss events can
// always catch up with Controller.Snapshot.
type Event struct {
	Kind       EventKind
	Message    *model.Message
	Awaiting   bool
	Attachment attachment.State
	Notice     *Notice
}

// =============================================================================
// NOTICE
// =============================================================================

// Notice is the single user-visible error slot. Every failure kind
// (chat, upload, validation, remove, status) raises one, and it stays
// until dismissed.
type Notice struct {
	Op      string // send, upload, remove, status
	Message string // user-facing text
	Err     error
	At      time.Time
}

func newNotice(op string, err error) *Notice {
	return &Notice{Op: op, Message: describe(op, err), Err: err, At: time.Now()}
}

// Title returns a short heading for the notice.
func (n *Notice) Title() string {
	switch n.Op {
	case "send":
		return "Message not delivered"
	case "upload":
		return "Upload failed"
	case "remove":
		return "Could not remove document"
	case "status":
		return "Could not check document status"
	default:
		return "Error"
	}
}

func describe(op string, err error) string {
	var (
		be *backend.Error
		ve *attachment.ValidationError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Reason
	case errors.Is(err, attachment.ErrBusy):
		return "Please wait for the current document operation to finish."
	case errors.Is(err, attachment.ErrNoAttachment):
		return "There is no document to remove."
	case errors.As(err, &be):
		return be.UserMessage()
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	default:
		return err.Error()
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	SessionID  string
	Messages   []model.Message
	Awaiting   bool
	Attachment attachment.State
	Notice     *Notice
}

// LastMessage returns the most recent message, if any.
func (s Snapshot) LastMessage() (model.Message, bool) {
	if len(s.Messages) == 0 {
		return model.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
