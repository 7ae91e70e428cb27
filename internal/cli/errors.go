// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/backend"
	"github.com/jeranaias/tensorchat/internal/commands"
	"github.com/jeranaias/tensorchat/internal/config"
	"github.com/jeranaias/tensorchat/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached or failed
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "upload")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ConfigError wraps a failure to load or validate the configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command, reason string, err error) error {
	return &CommandError{Command: command, Reason: reason, Err: err}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints err to w in the CLI's error style.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+userMessage(err))
}

// userMessage prefers the backend's user-facing wording.
func userMessage(err error) string {
	var be *backend.Error
	var ve *attachment.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Reason
	case errors.As(err, &be):
		return be.UserMessage() + " (" + be.Error() + ")"
	default:
		return err.Error()
	}
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		cfgErr     *ConfigError
		cfgInvalid config.ValidateErrors
		argErr     *commands.ValidationError
		attachErr  *attachment.ValidationError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &cfgInvalid):
		return ExitConfigError
	case errors.As(err, &argErr), errors.As(err, &attachErr):
		return ExitUsageError
	case errors.Is(err, storage.ErrTranscriptNotFound), errors.Is(err, attachment.ErrNoAttachment):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case backend.IsTransport(err), backend.IsParse(err):
		return ExitNetworkError
	}
	return ExitGeneralError
}
