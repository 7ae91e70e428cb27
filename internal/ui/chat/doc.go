// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat screen for tensorchat.

The screen is a pure view of a session.Controller. It never holds chat
state of its own: every session event triggers a fresh Snapshot, and the
transcript, typing indicator, attachment badge and error notice are all
rendered from it. User input becomes controller commands.

# Key Components

## Model (model.go)

Model wires the viewport, text input, spinner and help bubbles to the
controller and its event subscription.

## Update Loop (update.go)

Routes input:
  - Enter sends chat, or runs a slash command, or attaches a pasted PDF path
  - Enter/Esc dismiss the error notice
  - Tab completes command names and PDF paths
  - Ctrl+L starts over, Ctrl+S saves, F1 shows help

Controller calls run as tea.Cmds so the screen stays responsive while a
reply is pending.

## View Rendering (view.go)

Header, transcript viewport, typing line, input and status bar. The
notice and help are centered overlays.

# Usage

	ctrl := session.New(client, session.DefaultConfig())
	m := chat.New(ctrl, chat.Options{
		Theme:          styles.NewTheme(cfg.UI.Theme),
		BaseURL:        cfg.Backend.BaseURL,
		ShowTimestamps: true,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
*/
package chat
