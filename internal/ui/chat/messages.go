// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/tensorchat/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// sessionEventMsg delivers one event from the controller's subscription.
type sessionEventMsg struct {
	event session.Event
}

// eventsClosedMsg signals that the subscription channel was closed.
type eventsClosedMsg struct{}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// opDoneMsg reports the end of a controller command. Failures are already
// on the notice; Err is kept for the status line and logging.
type opDoneMsg struct {
	Op  string
	Err error
}

// savedMsg reports the result of a transcript save.
type savedMsg struct {
	Err    error
	Manual bool
}

// autoSaveTickMsg fires the periodic autosave check.
type autoSaveTickMsg struct{}
