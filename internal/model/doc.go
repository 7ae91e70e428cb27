// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the conversation log that drives every view of a
// chat session. Messages are immutable once appended, and the log only
// shrinks through an explicit Clear.
//
// # Key Types
//
//   - Message: Single entry with sender, text, and display timestamp
//   - Sender: Author enumeration (user, bot, system)
//   - Conversation: Ordered, append-only, concurrency-safe message log
//
// # Usage
//
//	conv := model.NewConversation()
//	if err := conv.Append(model.NewUserMessage("Hello")); err != nil {
//	    return err
//	}
//	for _, m := range conv.Messages() {
//	    fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.Sender.DisplayName(), m.Text)
//	}
package model
