// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/ui/chat"
	"github.com/jeranaias/tensorchat/internal/ui/styles"
)

// autoSaveCheckEvery is how often the TUI asks whether an autosave is due.
const autoSaveCheckEvery = 5 * time.Second

// runTUI runs the full-screen chat until the user quits.
func (a *App) runTUI(ctx context.Context) (err error) {
	rt, err := a.newRuntime(ctx, runtimeOptions{Interactive: true})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close())
	}()

	opts := chat.Options{
		Theme:          styles.NewTheme(a.Config.UI.Theme),
		Title:          chat.DefaultTitle,
		BaseURL:        a.Config.Backend.BaseURL,
		ShowTimestamps: a.Config.UI.ShowTimestamps,
		Compact:        a.Config.UI.Compact,
		Logger:         a.Logger,
	}
	if rt.Store != nil {
		opts.Save = rt.SaveNow
		if a.Config.Storage.AutoSave {
			opts.AutoSaveEvery = autoSaveCheckEvery
		}
	}

	a.Logger.Info("starting chat screen", zap.String("session", rt.Ctrl.Activity().SessionID()))
	p := tea.NewProgram(chat.New(rt.controller(), opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
