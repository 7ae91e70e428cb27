// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ACTIVITY TRACKER
// =============================================================================

// Activity tracks session identity, activity and unsaved changes, and runs
// the autosave callback when changes have been pending long enough.
type Activity struct {
	mu sync.Mutex

	// Session tracking
	sessionID    string
	startTime    time.Time
	lastActivity time.Time

	// Auto-save configuration
	autoSaveInterval time.Duration
	lastSave         time.Time
	isDirty          bool
	onAutoSave       func() error
}

// NewActivity creates a tracker with a fresh session ID. A zero interval
// disables periodic autosave; Flush still saves.
func NewActivity(autoSaveInterval time.Duration, onAutoSave func() error) *Activity {
	now := time.Now()
	return &Activity{
		sessionID:        uuid.NewString(),
		startTime:        now,
		lastActivity:     now,
		autoSaveInterval: autoSaveInterval,
		lastSave:         now,
		onAutoSave:       onAutoSave,
	}
}

// SessionID returns the session ID.
func (a *Activity) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// StartTime returns when the session started.
func (a *Activity) StartTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startTime
}

// IdleTime returns how long since last activity.
func (a *Activity) IdleTime() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return time.Since(a.lastActivity)
}

// RecordActivity updates the last activity timestamp and marks the
// session as having unsaved changes.
func (a *Activity) RecordActivity() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastActivity = time.Now()
	a.isDirty = true
}

// MarkClean indicates the session has been saved.
func (a *Activity) MarkClean() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.isDirty = false
	a.lastSave = time.Now()
}

// IsDirty returns whether the session has unsaved changes.
func (a *Activity) IsDirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isDirty
}

// ShouldAutoSave returns true if the autosave interval has elapsed with
// unsaved changes.
func (a *Activity) ShouldAutoSave() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shouldAutoSaveLocked()
}

func (a *Activity) shouldAutoSaveLocked() bool {
	if a.autoSaveInterval <= 0 || a.onAutoSave == nil || !a.isDirty {
		return false
	}
	return time.Since(a.lastSave) >= a.autoSaveInterval
}

// Check runs the autosave callback if it is due. It returns the
// callback's error, if any.
func (a *Activity) Check() error {
	a.mu.Lock()
	due := a.shouldAutoSaveLocked()
	onAutoSave := a.onAutoSave
	a.mu.Unlock()

	if !due {
		return nil
	}
	return a.save(onAutoSave)
}

// Flush saves immediately when there are unsaved changes.
func (a *Activity) Flush() error {
	a.mu.Lock()
	dirty := a.isDirty
	onAutoSave := a.onAutoSave
	a.mu.Unlock()

	if !dirty || onAutoSave == nil {
		return nil
	}
	return a.save(onAutoSave)
}

// Callback runs outside the lock.
func (a *Activity) save(fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	a.MarkClean()
	return nil
}
