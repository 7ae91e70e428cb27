// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TERMINAL
// =============================================================================

const (
	fallbackWidth = 80
	minWidth      = 40
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether stdin is a terminal. The root command falls back
// to line mode when it is not.
func IsTTY() bool {
	return isTerminal(os.Stdin)
}

// outputWidth is the width of stdout capped at limit, or fallbackWidth
// when stdout is not a terminal.
func outputWidth(limit int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		w = fallbackWidth
	}
	return max(minWidth, min(w, limit))
}

// GetColorProfile picks the lipgloss profile for command output.
// FORCE_COLOR wins, then piped output is plain, then termenv applies
// NO_COLOR and CLICOLOR_FORCE to the detected profile.
func GetColorProfile() termenv.Profile {
	if os.Getenv("FORCE_COLOR") != "" {
		return termenv.ANSI256
	}
	if !isTerminal(os.Stdout) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
