// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/session"
	"github.com/jeranaias/tensorchat/internal/ui/styles"
	"github.com/jeranaias/tensorchat/internal/util"
)

// =============================================================================
// SCREEN
// =============================================================================

func (m Model) render() string {
	if m.snap.Notice != nil {
		return m.renderOverlay(m.renderNotice(m.snap.Notice))
	}
	if m.showHelp {
		return m.renderOverlay(m.renderHelp())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderTyping(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m Model) renderOverlay(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.opts.Title)
	info := ""
	if m.opts.BaseURL != "" {
		info = m.theme.HeaderInfo.Render(" " + m.opts.BaseURL)
	}
	return m.theme.Header.Width(m.width).Render(title + info)
}

func (m Model) renderTyping() string {
	if !m.snap.Awaiting {
		return ""
	}
	return m.theme.Typing.Render(m.spinner.View() + " " + model.SenderBot.DisplayName() + " is typing...")
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	left := m.theme.AttachmentBadge(m.snap.Attachment)
	if m.status != "" {
		left += "  " + m.status
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())

	inner := m.width - 2
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = util.TruncateWidth(left, max(inner-lipgloss.Width(right)-1, 0))
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) renderNotice(n *session.Notice) string {
	width := min(60, max(m.width-8, 20))
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.NoticeTitle.Render(styles.StatusIndicators.Error+" "+n.Title()),
		"",
		m.theme.NoticeMessage.Width(width).Render(n.Message),
		"",
		m.theme.NoticeHint.Render("Press Enter or Esc to dismiss"),
	)
	return m.theme.NoticeBox.Render(body)
}

func (m Model) renderHelp() string {
	return m.theme.Help.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.HeaderTitle.Render("Commands"),
		"",
		strings.TrimRight(m.parser.Registry().HelpText(), "\n"),
		"",
		m.theme.HeaderTitle.Render("Keys"),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		m.theme.NoticeHint.Render("Press F1 or Esc to close"),
	))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders msgs for a viewport of the given width.
func renderTranscript(theme *styles.Theme, msgs []model.Message, width int, showTimestamps, compact bool) string {
	if len(msgs) == 0 {
		return ""
	}

	bubbleWidth := width - 8
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 && !compact {
			sb.WriteString("\n")
		}
		sb.WriteString(renderMessage(theme, msg, bubbleWidth, showTimestamps, compact))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderMessage(theme *styles.Theme, msg model.Message, width int, showTimestamps, compact bool) string {
	stamp := ""
	if showTimestamps && msg.Timestamp != "" {
		stamp = theme.Timestamp.Render(msg.Timestamp)
	}

	if msg.Sender == model.SenderSystem {
		line := theme.SystemLine.Render(styles.StatusIndicators.Info + " " + msg.Text)
		if stamp != "" {
			line = stamp + " " + line
		}
		return line
	}

	name := theme.SenderName(msg.Sender)
	if compact {
		line := name + ": " + msg.Text
		if stamp != "" {
			line = stamp + " " + line
		}
		return line
	}

	header := name
	if stamp != "" {
		header += " " + stamp
	}
	bubble := theme.BotBubble
	if msg.Sender == model.SenderUser {
		bubble = theme.UserBubble
	}
	textWidth := min(width, lipgloss.Width(msg.Text)+2)
	return lipgloss.JoinVertical(lipgloss.Left, header, bubble.Width(textWidth).Render(msg.Text))
}
