// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/ui/styles"
)

func init() {
	// Plain text when piped or NO_COLOR is set.
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(14)

	// SuccessStyle is used for success messages and OK statuses
	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// WarningStyle is used for warnings and cautions
	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	userStyle   = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	systemStyle = lipgloss.NewStyle().Foreground(styles.SystemFg).Italic(true)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return DimStyle.Render(strings.Repeat("-", width))
}

// RenderLabel renders "label: value" with an aligned label.
func RenderLabel(label, value string) string {
	return LabelStyle.Render(label+":") + " " + value
}

// formatMessage renders one conversation message for line output.
func formatMessage(m model.Message, showTimestamps bool) string {
	prefix := ""
	if showTimestamps && m.Timestamp != "" {
		prefix = DimStyle.Render("["+m.Timestamp+"]") + " "
	}
	switch m.Sender {
	case model.SenderUser:
		return prefix + userStyle.Render(m.Sender.DisplayName()+":") + " " + m.Text
	case model.SenderBot:
		return prefix + botStyle.Render(m.Sender.DisplayName()+":") + " " + m.Text
	default:
		return prefix + systemStyle.Render(styles.StatusIndicators.Info+" "+m.Text)
	}
}
