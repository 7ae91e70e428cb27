// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the state of one chat session and the commands
// that change it.
//
// A Controller holds the conversation, the awaiting-reply flag, the
// attachment slot and the error notice. Front ends never touch that state
// directly: they issue commands (Send, Upload, Intake, Remove,
// CheckAttachment, Reset, DismissError) and render from Snapshot or from
// the Event stream returned by Subscribe. That keeps the whole session
// testable without a terminal.
//
// # Key Types
//
//   - Controller: Session state plus commands
//   - Snapshot: Immutable copy of the state for rendering
//   - Event / EventKind: Change notifications
//   - Notice: The single user-visible error slot
//   - Activity: Session ID, dirty tracking and autosave
//
// # Usage
//
//	ctrl := session.New(client, session.DefaultConfig())
//	events, unsubscribe := ctrl.Subscribe()
//	defer unsubscribe()
//
//	go func() {
//	    if err := ctrl.Send(ctx, "Summarize the document"); err != nil {
//	        // already reflected in ctrl.Snapshot().Notice
//	    }
//	}()
//	for ev := range events {
//	    render(ctrl.Snapshot())
//	}
package session
