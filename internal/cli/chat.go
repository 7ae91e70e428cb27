// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/commands"
	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/session"
	"github.com/jeranaias/tensorchat/internal/ui/chat"
	"github.com/jeranaias/tensorchat/internal/util"
)

// errInputAborted is returned by a reader when the user pressed Ctrl+C.
var errInputAborted = errors.New("input aborted")

func (a *App) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat line by line with input history",
		Long: `Starts a line-mode chat session. Arrow keys recall earlier input and
Tab completes slash commands and PDF paths.

Slash commands:
` + commands.NewRegistry().HelpText(),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLineChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), IsTTY())
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of input at a time. It returns io.EOF at end
// of input.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose Tab completion uses completer.
func NewChatCLI(historyFile string, completer *commands.Completer) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer.Complete)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads a line of input with the given prompt.
func (c *ChatCLI) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errInputAborted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() error {
	if c.historyFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = c.line.WriteHistory(f)
	return err
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	err := c.SaveHistory()
	return errors.Join(err, c.line.Close())
}

// scanReader reads lines from a pipe or file.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &scanReader{sc: sc}
}

func (s *scanReader) ReadLine(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Close() error { return nil }

// =============================================================================
// OUTPUT
// =============================================================================

// transcriptPrinter prints each conversation message once. User messages
// are skipped since the user's own input is already on screen.
type transcriptPrinter struct {
	out            io.Writer
	showTimestamps bool
	lastID         int64
}

// Flush prints messages newer than the last one printed, then the notice
// if one is raised. Printed notices are dismissed.
func (p *transcriptPrinter) Flush(ctrl *session.Controller) {
	snap := ctrl.Snapshot()
	for _, m := range snap.Messages {
		if m.ID <= p.lastID {
			continue
		}
		p.lastID = m.ID
		if m.Sender == model.SenderUser {
			continue
		}
		fmt.Fprintln(p.out, formatMessage(m, p.showTimestamps))
	}
	if n := snap.Notice; n != nil {
		fmt.Fprintln(p.out, ErrorStyle.Render(n.Title()+":")+" "+n.Message)
		ctrl.DismissError()
	}
}

// =============================================================================
// LINE CHAT LOOP
// =============================================================================

// runLineChat runs a chat session over lines of input. With interactive
// set, input comes from the terminal with editing and history; otherwise
// lines are read from in.
func (a *App) runLineChat(ctx context.Context, in io.Reader, out io.Writer, interactive bool) (err error) {
	rt, err := a.newRuntime(ctx, runtimeOptions{Interactive: true})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close())
	}()

	registry := commands.NewRegistry()
	parser := commands.NewParser(registry)

	var reader lineReader
	if interactive {
		reader = NewChatCLI(a.Config.Chat.HistoryFile, commands.NewCompleter(registry))
	} else {
		reader = newScanReader(in)
	}
	defer reader.Close()

	printer := &transcriptPrinter{out: out, showTimestamps: a.Config.UI.ShowTimestamps}
	ctrl := rt.Ctrl

	if interactive {
		fmt.Fprintln(out, TitleStyle.Render(chat.DefaultTitle)+" "+DimStyle.Render(a.Config.Backend.BaseURL))
		fmt.Fprintln(out, DimStyle.Render("Type /help for commands, /quit to leave."))
		fmt.Fprintln(out, RenderSeparator(outputWidth(72)))
	}
	if st, err := ctrl.CheckAttachment(ctx); err == nil && st.Attached() {
		fmt.Fprintln(out, DimStyle.Render("Attached: "+st.Label()))
	}

	for {
		printer.Flush(ctrl)
		if ctx.Err() != nil {
			return nil
		}

		line, err := reader.ReadLine(promptStyle.Render("> "))
		if errors.Is(err, io.EOF) || errors.Is(err, errInputAborted) {
			printer.Flush(ctrl)
			if interactive {
				fmt.Fprintln(out)
			}
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		quit, err := a.handleLine(ctx, rt, parser, out, line, interactive)
		if err != nil {
			a.Logger.Debug("line failed", zap.Error(err))
		}
		if quit {
			printer.Flush(ctrl)
			return nil
		}
	}
}

// handleLine routes one input line. Controller failures are already on
// the notice and are printed by the next Flush.
func (a *App) handleLine(ctx context.Context, rt *Runtime, parser *commands.Parser, out io.Writer, line string, interactive bool) (quit bool, err error) {
	ctrl := rt.Ctrl

	path, isPDF := util.LooksLikePDFPath(line)
	if commands.IsCommand(line) && !(isPDF && parser.Registry().Get(commands.ExtractCommandName(line)) == nil) {
		res := parser.Parse(line)
		if res.Error != nil {
			fmt.Fprintln(out, WarningStyle.Render(res.Error.Error()))
			return false, res.Error
		}
		switch res.Action() {
		case commands.ActionUpload:
			return false, ctrl.Intake(ctx, res.Arg(0))
		case commands.ActionRemove:
			return false, ctrl.Remove(ctx)
		case commands.ActionStatus:
			st, err := ctrl.CheckAttachment(ctx)
			if err == nil {
				fmt.Fprintln(out, RenderLabel("Document", st.Label()))
			}
			return false, err
		case commands.ActionClear:
			rt.Reset()
			fmt.Fprintln(out, DimStyle.Render("Started a new conversation."))
		case commands.ActionSave:
			if err := rt.SaveNow(); err != nil {
				fmt.Fprintln(out, ErrorStyle.Render("Save failed:")+" "+err.Error())
				return false, err
			}
			fmt.Fprintln(out, SuccessStyle.Render("Conversation saved."))
		case commands.ActionHelp:
			fmt.Fprint(out, parser.Registry().HelpText())
		case commands.ActionQuit:
			return true, nil
		}
		return false, nil
	}

	if isPDF {
		return false, ctrl.Intake(ctx, path)
	}

	if interactive {
		fmt.Fprintln(out, DimStyle.Render(model.SenderBot.DisplayName()+" is typing..."))
	}
	return false, ctrl.Send(ctx, line)
}
