// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/session"
	"github.com/jeranaias/tensorchat/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// stubTransport answers every chat with reply or err.
type stubTransport struct {
	mu      sync.Mutex
	reply   string
	err     error
	chats   []string
	uploads int
	hasPDF  bool
}

func (s *stubTransport) Chat(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, text)
	return s.reply, s.err
}

func (s *stubTransport) Upload(ctx context.Context, name string, r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	s.hasPDF = true
	return nil
}

func (s *stubTransport) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasPDF = false
	return nil
}

func (s *stubTransport) Status(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPDF, nil
}

func newTestModel(t *testing.T, tr *stubTransport) (Model, *session.Controller) {
	t.Helper()
	ctrl := session.New(tr, session.Config{Greeting: session.DefaultGreeting})
	t.Cleanup(func() { _ = ctrl.Close() })
	m := New(ctrl, Options{Theme: styles.NewTheme("dark"), ShowTimestamps: true})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), ctrl
}

// submit types value and presses Enter, running the resulting command.
func submit(t *testing.T, m Model, value string) (Model, tea.Msg) {
	t.Helper()
	m.input.SetValue(value)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		return m, nil
	}
	msg := cmd()
	next, _ = m.Update(msg)
	return next.(Model), msg
}

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	body := "%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestModel_InitialSnapshot(t *testing.T) {
	m, _ := newTestModel(t, &stubTransport{})

	snap := m.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, session.DefaultGreeting, snap.Messages[0].Text)
	assert.Contains(t, m.View(), DefaultTitle)
	assert.Contains(t, m.View(), "No document")
}

func TestModel_SendChat(t *testing.T) {
	tr := &stubTransport{reply: "Hi there"}
	m, ctrl := newTestModel(t, tr)

	m, msg := submit(t, m, "Hello")
	require.IsType(t, opDoneMsg{}, msg)
	assert.NoError(t, msg.(opDoneMsg).Err)
	assert.Empty(t, m.InputValue())

	msgs := ctrl.Snapshot().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, model.SenderUser, msgs[1].Sender)
	assert.Equal(t, "Hello", msgs[1].Text)
	assert.Equal(t, "Hi there", msgs[2].Text)
}

func TestModel_BlankInputIgnored(t *testing.T) {
	tr := &stubTransport{reply: "x"}
	m, _ := newTestModel(t, tr)

	_, msg := submit(t, m, "   ")
	assert.Nil(t, msg)
	assert.Empty(t, tr.chats)
}

func TestModel_SubmitBlockedWhileAwaiting(t *testing.T) {
	tr := &stubTransport{reply: "x"}
	m, _ := newTestModel(t, tr)
	m.snap.Awaiting = true

	m, msg := submit(t, m, "second")
	assert.Nil(t, msg)
	assert.Equal(t, "second", m.InputValue())
	assert.Contains(t, m.Status(), "Waiting")
	assert.Empty(t, tr.chats)
}

func TestModel_ErrorNoticeAndDismiss(t *testing.T) {
	tr := &stubTransport{err: errors.New("connection refused")}
	m, ctrl := newTestModel(t, tr)

	m, msg := submit(t, m, "Hello")
	require.Error(t, msg.(opDoneMsg).Err)
	require.NotNil(t, m.Snapshot().Notice)
	assert.Contains(t, m.View(), "Message not delivered")

	// Typing is swallowed while the notice is up.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = next.(Model)
	assert.Empty(t, m.InputValue())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Nil(t, m.Snapshot().Notice)
	assert.Nil(t, ctrl.Snapshot().Notice)
	assert.NotContains(t, m.View(), "Message not delivered")
}

func TestModel_SlashCommands(t *testing.T) {
	tr := &stubTransport{reply: "ok"}
	m, ctrl := newTestModel(t, tr)

	m, _ = submit(t, m, "Hello")
	require.Len(t, ctrl.Snapshot().Messages, 3)

	m, _ = submit(t, m, "/clear")
	assert.Len(t, ctrl.Snapshot().Messages, 1)
	assert.Len(t, m.Snapshot().Messages, 1)

	m, _ = submit(t, m, "/bogus")
	assert.Contains(t, m.Status(), "unknown command")
	assert.Equal(t, "/bogus", m.InputValue())

	m.input.Reset()
	m, _ = submit(t, m, "/help")
	assert.Contains(t, m.View(), "/upload <file.pdf>")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.NotContains(t, m.View(), "/upload <file.pdf>")
}

func TestModel_SaveDisabledWithoutCallback(t *testing.T) {
	m, _ := newTestModel(t, &stubTransport{})
	m, _ = submit(t, m, "/save")
	assert.Equal(t, "Saving is disabled", m.Status())
}

func TestModel_SaveCallback(t *testing.T) {
	ctrl := session.New(&stubTransport{}, session.Config{})
	t.Cleanup(func() { _ = ctrl.Close() })

	saved := 0
	m := New(ctrl, Options{Theme: styles.NewTheme("dark"), Save: func() error { saved++; return nil }})
	m, _ = submit(t, m, "/save")
	assert.Equal(t, 1, saved)
	assert.Equal(t, "Conversation saved", m.Status())
}

func TestModel_PastedPDFPathAttaches(t *testing.T) {
	tr := &stubTransport{}
	m, ctrl := newTestModel(t, tr)
	path := writePDF(t, "report.pdf")

	m, msg := submit(t, m, "'"+path+"'")
	require.IsType(t, opDoneMsg{}, msg)
	assert.Equal(t, "upload", msg.(opDoneMsg).Op)
	require.NoError(t, msg.(opDoneMsg).Err)

	st := ctrl.Attachment()
	require.True(t, st.Attached())
	assert.Equal(t, "report.pdf", st.Document.Name)
	assert.Empty(t, tr.chats, "a dropped path must not be sent as chat")

	// An absolute path starting with "/" is not mistaken for a command.
	m, msg = submit(t, m, path)
	require.NoError(t, msg.(opDoneMsg).Err)
	assert.Equal(t, 2, tr.uploads)
	assert.Empty(t, m.Status())
}

func TestModel_UploadCommandRejectsNonPDF(t *testing.T) {
	tr := &stubTransport{}
	m, ctrl := newTestModel(t, tr)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0600))

	_, msg := submit(t, m, "/upload "+path)
	var ve *attachment.ValidationError
	require.ErrorAs(t, msg.(opDoneMsg).Err, &ve)
	assert.Equal(t, 0, tr.uploads)
	assert.NotNil(t, ctrl.Snapshot().Notice)
}

func TestModel_EventRefreshesSnapshot(t *testing.T) {
	m, ctrl := newTestModel(t, &stubTransport{})

	ctrl.Reset()
	cmd := waitForEvent(m.events)
	require.NotNil(t, cmd)
	msg := cmd()
	ev, ok := msg.(sessionEventMsg)
	require.True(t, ok)
	assert.Equal(t, session.EventReset, ev.event.Kind)

	next, cmd := m.Update(msg)
	m = next.(Model)
	assert.NotNil(t, cmd, "the event listener is re-armed")
	assert.Len(t, m.Snapshot().Messages, 1)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, &stubTransport{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(Model).View())
	assert.Error(t, next.(Model).ctx.Err())
}

func TestModel_TabCompletion(t *testing.T) {
	m, _ := newTestModel(t, &stubTransport{})

	m.input.SetValue("/rem")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/remove ", next.(Model).InputValue())

	m.input.SetValue("/s")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, "/s", m.InputValue())
	assert.Contains(t, m.Status(), "/save")
	assert.Contains(t, m.Status(), "/status")
}

func TestRenderTranscript(t *testing.T) {
	theme := styles.NewTheme("dark")
	msgs := []model.Message{
		{Sender: model.SenderUser, Text: "Hello", Timestamp: "09:15"},
		{Sender: model.SenderBot, Text: "Hi there", Timestamp: "09:15"},
		{Sender: model.SenderSystem, Text: "PDF uploaded: report.pdf", Timestamp: "09:16"},
	}

	t.Run("bubbles", func(t *testing.T) {
		out := renderTranscript(theme, msgs, 80, true, false)
		for _, want := range []string{"You", "Tensor", "Hello", "Hi there", "report.pdf", "09:15"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("compact without timestamps", func(t *testing.T) {
		out := renderTranscript(theme, msgs, 80, false, true)
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "You: Hello", lines[0])
		assert.Equal(t, "Tensor: Hi there", lines[1])
		assert.NotContains(t, out, "09:15")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, renderTranscript(theme, nil, 80, true, false))
	})
}

func TestCommonPrefix(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"/save"}, "/save"},
		{[]string{"/save", "/status", "/s"}, "/s"},
		{[]string{"/help", "/quit"}, "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, commonPrefix(tt.in))
	}
}
