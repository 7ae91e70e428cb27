// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"time"

	"github.com/dustin/go-humanize"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle position of the session's single document slot.
type Status int

const (
	StatusAbsent Status = iota
	StatusUploading
	StatusAttached
	StatusRemoving
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusUploading:
		return "uploading"
	case StatusAttached:
		return "attached"
	case StatusRemoving:
		return "removing"
	default:
		return "unknown"
	}
}

// =============================================================================
// DOCUMENT & STATE
// =============================================================================

// DefaultPlaceholderName stands in for a document the backend reports but
// whose original filename the client cannot know.
const DefaultPlaceholderName = "Previously uploaded PDF"

// Document describes the attached file as far as the client knows it.
type Document struct {
	Name       string
	Size       int64
	UploadedAt time.Time

	// Placeholder is true when the document was discovered through a status
	// check; Name is then DefaultPlaceholderName (or the configured
	// replacement) and Size is zero.
	Placeholder bool
}

// SizeString returns a human readable size, or "" when unknown.
func (d Document) SizeString() string {
	if d.Size <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(d.Size))
}

// State is a snapshot of the attachment slot.
type State struct {
	Status Status

	// Document is set while Status is StatusAttached or StatusRemoving, and
	// during StatusUploading when a previous document is being replaced.
	Document *Document

	// Pending is the name of the file being uploaded.
	Pending string
}

// Attached reports whether a document is confirmed on the backend.
func (s State) Attached() bool {
	return s.Status == StatusAttached
}

// Busy reports whether an upload or removal is in flight.
func (s State) Busy() bool {
	return s.Status == StatusUploading || s.Status == StatusRemoving
}

// Label returns a one-line description for status bars.
func (s State) Label() string {
	switch s.Status {
	case StatusUploading:
		return "Uploading " + s.Pending + "..."
	case StatusRemoving:
		return "Removing " + s.Document.Name + "..."
	case StatusAttached:
		if size := s.Document.SizeString(); size != "" {
			return s.Document.Name + " (" + size + ")"
		}
		return s.Document.Name
	default:
		return "No document"
	}
}
