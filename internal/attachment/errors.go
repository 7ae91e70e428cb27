// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import "errors"

var (
	// ErrBusy is returned when an upload or removal is already in flight.
	ErrBusy = errors.New("another document operation is in progress")

	// ErrNoAttachment is returned by Remove when no document is attached.
	ErrNoAttachment = errors.New("no document is attached")
)

// ValidationError rejects a file before any network call is made.
type ValidationError struct {
	Field  string // file, name, type, size
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
