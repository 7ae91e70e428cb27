// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment manages the single PDF a chat session can ground its
// answers in.
//
// The backend keeps at most one document per session. The Manager mirrors
// that slot on the client and moves it through
//
//	absent -> uploading -> attached -> removing -> absent
//
// restoring the previous state whenever the backend call fails. After a
// restart the client can only learn that a document exists, not what it
// was called, so CheckExisting records a placeholder name.
//
// # Key Types
//
//   - Manager: Owns the slot; Upload, Replace, Remove, CheckExisting, Intake
//   - State / Document / Status: Snapshot of the slot
//   - ValidationError: Rejection made before any network call
//   - Watcher: fsnotify inbox that feeds dropped PDFs to an IntakeFunc
//
// # Usage
//
//	mgr := attachment.NewManager(client, conv, attachment.Config{MaxSize: 25 << 20})
//	if _, err := mgr.CheckExisting(ctx); err != nil {
//	    log.Printf("status check failed: %v", err)
//	}
//	if err := mgr.Intake(ctx, "~/Downloads/report.pdf"); attachment.IsValidationError(err) {
//	    fmt.Println(err)
//	}
package attachment
