// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/commands"
	"github.com/jeranaias/tensorchat/internal/session"
	"github.com/jeranaias/tensorchat/internal/util"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionEventMsg:
		return m.handleEvent(msg.event)

	case eventsClosedMsg:
		m.events = nil
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg)

	case savedMsg:
		switch {
		case msg.Err != nil:
			m.logger.Error("transcript save failed", zap.Error(msg.Err))
			m.status = "Save failed: " + msg.Err.Error()
		case msg.Manual:
			m.status = "Conversation saved"
		}
		return m, nil

	case autoSaveTickMsg:
		return m, tea.Batch(autoSaveCmd(m.ctrl), autoSaveTick(m.opts.AutoSaveEvery))

	case spinner.TickMsg:
		if !m.snap.Awaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

func (m Model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	wasAwaiting := m.snap.Awaiting
	m.snap = m.ctrl.Snapshot()
	m.refreshViewport()

	cmds := []tea.Cmd{waitForEvent(m.events)}
	if m.snap.Awaiting && !wasAwaiting {
		cmds = append(cmds, m.spinner.Tick)
	}
	if ev.Kind == session.EventReset {
		m.viewport.GotoTop()
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil {
		return m, nil
	}
	if errors.Is(msg.Err, session.ErrReplyPending) {
		m.status = "Waiting for the current reply..."
		return m, nil
	}
	m.logger.Debug("command failed", zap.String("op", msg.Op), zap.Error(msg.Err))
	// The controller already raised the notice; make sure it is on screen
	// even if the event was dropped.
	m.snap = m.ctrl.Snapshot()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if m.snap.Notice != nil {
		if key.Matches(msg, m.keys.Submit, m.keys.Dismiss) {
			m.ctrl.DismissError()
			m.snap = m.ctrl.Snapshot()
		}
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Dismiss, m.keys.Submit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Complete):
		return m.complete(), nil
	case key.Matches(msg, m.keys.Dismiss):
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		return m.runAction(commands.ActionClear, "")
	case key.Matches(msg, m.keys.Save):
		return m.runAction(commands.ActionSave, "")
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes the input line: slash commands to their action, a lone
// PDF path to intake, anything else to the backend as chat.
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if strings.TrimSpace(value) == "" {
		return m, nil
	}

	if commands.IsCommand(value) {
		// Paths such as /home/me/report.pdf start with a slash too.
		if path, ok := util.LooksLikePDFPath(value); ok && m.parser.Registry().Get(commands.ExtractCommandName(value)) == nil {
			m.input.Reset()
			m.status = ""
			return m, intakeCmd(m.ctx, m.ctrl, path)
		}
		res := m.parser.Parse(value)
		if res.Error != nil {
			m.status = res.Error.Error()
			return m, nil
		}
		m.input.Reset()
		return m.runAction(res.Action(), res.Arg(0))
	}

	if path, ok := util.LooksLikePDFPath(value); ok {
		m.input.Reset()
		m.status = ""
		return m, intakeCmd(m.ctx, m.ctrl, path)
	}

	if m.snap.Awaiting || m.ctrl.Snapshot().Awaiting {
		m.status = "Waiting for the current reply..."
		return m, nil
	}

	m.input.Reset()
	m.status = ""
	return m, sendCmd(m.ctx, m.ctrl, value)
}

// runAction carries out a slash command action.
func (m Model) runAction(action commands.Action, arg string) (tea.Model, tea.Cmd) {
	switch action {
	case commands.ActionUpload:
		m.status = ""
		return m, intakeCmd(m.ctx, m.ctrl, util.CleanDroppedPath(arg))
	case commands.ActionRemove:
		return m, removeCmd(m.ctx, m.ctrl)
	case commands.ActionStatus:
		return m, checkCmd(m.ctx, m.ctrl)
	case commands.ActionClear:
		m.ctrl.Reset()
		m.snap = m.ctrl.Snapshot()
		m.status = "Started a new conversation"
		m.refreshViewport()
		return m, nil
	case commands.ActionSave:
		if m.opts.Save == nil {
			m.status = "Saving is disabled"
			return m, nil
		}
		return m, saveCmd(m.opts.Save)
	case commands.ActionHelp:
		m.showHelp = true
		return m, nil
	case commands.ActionQuit:
		return m.quit()
	}
	return m, nil
}

// complete applies tab completion to the input line.
func (m Model) complete() Model {
	candidates := m.completer.Complete(m.input.Value())
	switch len(candidates) {
	case 0:
		return m
	case 1:
		value := candidates[0]
		if commands.IsCommand(value) && !strings.Contains(value, " ") {
			value += " "
		}
		m.input.SetValue(value)
	default:
		m.input.SetValue(commonPrefix(candidates))
		m.status = strings.Join(candidates, "  ")
	}
	m.input.CursorEnd()
	return m
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

// commonPrefix returns the longest prefix shared by all of ss.
func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	prefix := ss[0]
	for _, s := range ss[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

// =============================================================================
// COMMANDS
// =============================================================================

// waitForEvent delivers the next session event. It is re-armed after
// every event.
func waitForEvent(events <-chan session.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return sessionEventMsg{event: ev}
	}
}

func sendCmd(ctx context.Context, ctrl Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{Op: "send", Err: ctrl.Send(ctx, text)}
	}
}

func intakeCmd(ctx context.Context, ctrl Controller, path string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{Op: "upload", Err: ctrl.Intake(ctx, path)}
	}
}

func removeCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{Op: "remove", Err: ctrl.Remove(ctx)}
	}
}

func checkCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.CheckAttachment(ctx)
		return opDoneMsg{Op: "status", Err: err}
	}
}

func saveCmd(save func() error) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{Err: save(), Manual: true}
	}
}

func autoSaveCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{Err: ctrl.Activity().Check()}
	}
}

func autoSaveTick(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg {
		return autoSaveTickMsg{}
	})
}
