// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/commands"
	"github.com/jeranaias/tensorchat/internal/session"
	"github.com/jeranaias/tensorchat/internal/ui/styles"
)

// DefaultTitle is shown in the header and the terminal window title.
const DefaultTitle = "Tensor Chat"

// =============================================================================
// COLLABORATORS
// =============================================================================

// Controller is the part of session.Controller the chat screen drives.
type Controller interface {
	Snapshot() session.Snapshot
	Subscribe() (<-chan session.Event, func())
	Send(ctx context.Context, text string) error
	Intake(ctx context.Context, path string) error
	Remove(ctx context.Context) error
	CheckAttachment(ctx context.Context) (attachment.State, error)
	DismissError()
	Reset()
	Activity() *session.Activity
}

// Options configures the chat screen.
type Options struct {
	Theme          *styles.Theme
	Title          string
	BaseURL        string
	ShowTimestamps bool
	Compact        bool

	// AutoSaveEvery is how often the autosave check runs. Zero disables it.
	AutoSaveEvery time.Duration

	// Save writes a transcript for /save and Ctrl+S. Nil disables saving.
	Save func() error

	Logger *zap.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen. It renders from the
// controller's snapshot and refreshes it on every session event.
type Model struct {
	ctrl        Controller
	events      <-chan session.Event
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc

	opts   Options
	theme  *styles.Theme
	logger *zap.Logger

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	parser    *commands.Parser
	completer *commands.Completer

	snap     session.Snapshot
	showHelp bool
	status   string
	quitting bool

	width  int
	height int
}

// New creates the chat screen for ctrl and subscribes to its events.
func New(ctrl Controller, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme("auto")
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
		FPS:    time.Second / 6,
	}

	registry := commands.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	events, unsubscribe := ctrl.Subscribe()

	m := Model{
		ctrl:        ctrl,
		events:      events,
		unsubscribe: unsubscribe,
		ctx:         ctx,
		cancel:      cancel,
		opts:        opts,
		theme:       opts.Theme,
		logger:      logger.Named("tui"),
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		help:        help.New(),
		keys:        DefaultKeyMap(),
		parser:      commands.NewParser(registry),
		completer:   commands.NewCompleter(registry),
		snap:        ctrl.Snapshot(),
		width:       80,
		height:      24,
	}
	m.layout()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts listening for session events and reconciles the attachment
// with the backend.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		tea.SetWindowTitle(m.opts.Title),
		waitForEvent(m.events),
		checkCmd(m.ctx, m.ctrl),
	}
	if m.opts.AutoSaveEvery > 0 {
		cmds = append(cmds, autoSaveTick(m.opts.AutoSaveEvery))
	}
	return tea.Batch(cmds...)
}

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// Snapshot returns the state the screen last rendered from.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}

// Status returns the transient status line text.
func (m Model) Status() string {
	return m.status
}

// InputValue returns the current contents of the input line.
func (m Model) InputValue() string {
	return m.input.Value()
}

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight = 1
	typingHeight = 1
	inputHeight  = 2 // top border + line
	statusHeight = 1
)

// layout sizes the viewport and input to the window and re-renders the
// transcript.
func (m *Model) layout() {
	vpHeight := m.height - headerHeight - typingHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight

	inputWidth := m.width - len(m.input.Prompt) - 2
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
	m.help.Width = m.width

	m.refreshViewport()
}

// refreshViewport re-renders the transcript, keeping the view pinned to
// the bottom when it already was.
func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderTranscript(m.theme, m.snap.Messages, m.width, m.opts.ShowTimestamps, m.opts.Compact))
	if atBottom || m.viewport.TotalLineCount() <= m.viewport.Height {
		m.viewport.GotoBottom()
	}
}
