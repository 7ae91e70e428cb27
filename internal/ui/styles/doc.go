// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the tensorchat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The theme can also be forced with the ui.theme setting.

# Color System (colors.go)

  - Purple - Bot messages and the brand title
  - Cyan - User name, prompt and shortcut keys
  - Emerald - An attached document
  - Amber - Uploads and removals in flight
  - Rose - The failure notice

Every status color is paired with an ASCII marker from StatusIndicators so
states remain readable on monochrome terminals.

# Theme (theme.go)

Theme groups the lipgloss styles of the chat screen: header, message
bubbles, typing indicator, input, status bar with the attachment badge, and
the notice overlay.

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	line := theme.SenderName(msg.Sender) + " " + theme.Timestamp.Render(msg.Timestamp)
	bar := theme.StatusBar.Render(theme.AttachmentBadge(state))
*/
package styles
