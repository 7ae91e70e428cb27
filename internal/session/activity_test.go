// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"
	"time"
)

func TestActivity_SessionID(t *testing.T) {
	a := NewActivity(0, nil)
	b := NewActivity(0, nil)

	if a.SessionID() == "" {
		t.Fatal("SessionID is empty")
	}
	if a.SessionID() == b.SessionID() {
		t.Error("two sessions share an ID")
	}
	if a.StartTime().IsZero() {
		t.Error("StartTime should not be zero")
	}
}

func TestActivity_DirtyTracking(t *testing.T) {
	a := NewActivity(time.Minute, func() error { return nil })

	if a.IsDirty() {
		t.Error("new session should be clean")
	}
	a.RecordActivity()
	if !a.IsDirty() {
		t.Error("RecordActivity should mark dirty")
	}
	if a.IdleTime() > time.Second {
		t.Errorf("IdleTime = %v right after activity", a.IdleTime())
	}
	a.MarkClean()
	if a.IsDirty() {
		t.Error("MarkClean should clear dirty")
	}
}

func TestActivity_Check(t *testing.T) {
	saves := 0
	a := NewActivity(10*time.Millisecond, func() error {
		saves++
		return nil
	})

	// Clean: never saves.
	time.Sleep(15 * time.Millisecond)
	if err := a.Check(); err != nil || saves != 0 {
		t.Fatalf("Check on clean session: err=%v saves=%d", err, saves)
	}

	a.RecordActivity()
	time.Sleep(15 * time.Millisecond)
	if !a.ShouldAutoSave() {
		t.Fatal("ShouldAutoSave = false after interval with changes")
	}
	if err := a.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if saves != 1 || a.IsDirty() {
		t.Errorf("saves=%d dirty=%v, want 1 and clean", saves, a.IsDirty())
	}
}

func TestActivity_FlushError(t *testing.T) {
	boom := errors.New("disk full")
	a := NewActivity(0, func() error { return boom })
	a.RecordActivity()

	if err := a.Flush(); !errors.Is(err, boom) {
		t.Errorf("Flush = %v, want %v", err, boom)
	}
	if !a.IsDirty() {
		t.Error("failed save must leave session dirty")
	}
	if a.ShouldAutoSave() {
		t.Error("zero interval disables periodic autosave")
	}
}
