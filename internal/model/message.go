// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sync/atomic"
	"time"

	"github.com/jeranaias/tensorchat/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderBot    Sender = "bot"
	SenderSystem Sender = "system"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// Valid reports whether s is one of the three known senders.
func (s Sender) Valid() bool {
	switch s {
	case SenderUser, SenderBot, SenderSystem:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Tensor"
	case SenderSystem:
		return "System"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// TimestampLayout is the hour:minute layout used for display timestamps.
const TimestampLayout = "15:04"

// Message is a single immutable entry in a conversation.
type Message struct {
	ID        int64     `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message stamped with the current time and a fresh ID.
func NewMessage(sender Sender, text string) *Message {
	return newMessageAt(sender, text, time.Now())
}

func newMessageAt(sender Sender, text string, now time.Time) *Message {
	return &Message{
		ID:        NextID(now),
		Sender:    sender,
		Text:      text,
		Timestamp: now.Format(TimestampLayout),
		CreatedAt: now,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) *Message {
	return NewMessage(SenderUser, text)
}

// NewBotMessage creates a new bot message.
func NewBotMessage(text string) *Message {
	return NewMessage(SenderBot, text)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(text string) *Message {
	return NewMessage(SenderSystem, text)
}

// Preview returns a single-line preview of the message text.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateWidth(util.FirstLine(m.Text), maxLen)
}

// =============================================================================
// ID GENERATION
// =============================================================================

var lastID atomic.Int64

// NextID returns a process-unique, strictly increasing message ID derived
// from the nanosecond clock. When the clock has not advanced past the last
// issued ID the previous value is bumped by one.
func NextID(now time.Time) int64 {
	for {
		prev := lastID.Load()
		id := now.UnixNano()
		if id <= prev {
			id = prev + 1
		}
		if lastID.CompareAndSwap(prev, id) {
			return id
		}
	}
}
