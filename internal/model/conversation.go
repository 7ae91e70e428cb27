// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNilMessage is returned when appending a nil message.
	ErrNilMessage = errors.New("message is nil")

	// ErrInvalidSender is returned when a message carries an unknown sender.
	ErrInvalidSender = errors.New("invalid sender")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered, append-only message log of one session.
// It is safe for concurrent use; appends from overlapping completions are
// recorded in arrival order.
type Conversation struct {
	mu        sync.RWMutex
	messages  []*Message
	createdAt time.Time
	updatedAt time.Time
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		messages:  make([]*Message, 0, 32),
		createdAt: now,
		updatedAt: now,
	}
}

// Append adds a message to the end of the log. Messages are never
// deduplicated; only nil messages and unknown senders are rejected.
func (c *Conversation) Append(msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if !msg.Sender.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSender, msg.Sender)
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.updatedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Messages returns a copy of the log in insertion order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = *m
	}
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

// Last returns a copy of the most recent message.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return *c.messages[len(c.messages)-1], true
}

// CountBySender returns how many messages the given sender authored.
func (c *Conversation) CountBySender(sender Sender) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, m := range c.messages {
		if m.Sender == sender {
			n++
		}
	}
	return n
}

// Clear removes every message. This is the session reset hook.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.messages = make([]*Message, 0, 32)
	c.updatedAt = time.Now()
	c.mu.Unlock()
}

// CreatedAt returns when the conversation was started.
func (c *Conversation) CreatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.createdAt
}

// UpdatedAt returns when the conversation last changed.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// Title derives a short title from the first user message.
func (c *Conversation) Title() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.messages {
		if m.Sender == SenderUser {
			return m.Preview(50)
		}
	}
	return "New conversation"
}
