// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/model"
)

// Theme holds the styled components of the chat screen.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style

	UserName   lipgloss.Style
	BotName    lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	SystemLine lipgloss.Style
	Timestamp  lipgloss.Style

	Typing lipgloss.Style

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	StatusBar      lipgloss.Style
	AttachAbsent   lipgloss.Style
	AttachBusy     lipgloss.Style
	AttachAttached lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	NoticeBox     lipgloss.Style
	NoticeTitle   lipgloss.Style
	NoticeMessage lipgloss.Style
	NoticeHint    lipgloss.Style

	Help lipgloss.Style
}

// NewTheme creates a theme for mode: "dark", "light", or "auto" (detect
// from the terminal background).
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.HeaderInfo = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserName = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.BotName = lipgloss.NewStyle().Bold(true).Foreground(Purple)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)
	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1).
		MarginRight(4)
	t.SystemLine = lipgloss.NewStyle().
		Foreground(SystemFg).
		Italic(true)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Typing = lipgloss.NewStyle().
		Foreground(Purple).
		Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.AttachAbsent = lipgloss.NewStyle().Foreground(TextMuted)
	t.AttachBusy = lipgloss.NewStyle().Foreground(Amber)
	t.AttachAttached = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.NoticeBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(Rose).
		Background(RoseDeep).
		Padding(1, 2)
	t.NoticeTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)
	t.NoticeMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.NoticeHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Help = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 2)
}

// SenderName renders the display name of s in its color.
func (t *Theme) SenderName(s model.Sender) string {
	switch s {
	case model.SenderUser:
		return t.UserName.Render(s.DisplayName())
	case model.SenderBot:
		return t.BotName.Render(s.DisplayName())
	default:
		return t.SystemLine.Render(s.DisplayName())
	}
}

// AttachmentBadge renders the attachment state for the status bar.
func (t *Theme) AttachmentBadge(st attachment.State) string {
	label := st.Label()
	switch st.Status {
	case attachment.StatusAttached:
		return t.AttachAttached.Render("PDF: " + label)
	case attachment.StatusUploading, attachment.StatusRemoving:
		return t.AttachBusy.Render(StatusIndicators.Pending + " " + label)
	default:
		return t.AttachAbsent.Render(label)
	}
}
