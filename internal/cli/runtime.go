// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/backend"
	"github.com/jeranaias/tensorchat/internal/config"
	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/session"
	"github.com/jeranaias/tensorchat/internal/storage"
)

// =============================================================================
// SESSION RUNTIME
// =============================================================================

// runtimeOptions selects the pieces a command needs.
type runtimeOptions struct {
	// Interactive enables the reply delay, the greeting, transcript
	// storage and the inbox watcher.
	Interactive bool
}

// Runtime wires one chat session: backend client, controller, transcript
// storage and the inbox watcher.
type Runtime struct {
	Client  *backend.Client
	Ctrl    *session.Controller
	Store   *storage.TranscriptStore
	Archive *storage.Archive

	watcher *attachment.Watcher
	jar     *sessionJar
	cfg     *config.Config
	logger  *zap.Logger
}

// newRuntime builds the session for one command invocation.
func (a *App) newRuntime(ctx context.Context, opts runtimeOptions) (*Runtime, error) {
	cfg := a.Config
	rt := &Runtime{cfg: cfg, logger: a.Logger}

	cookiePath := ""
	if dir, err := config.ConfigDir(); err == nil {
		cookiePath = filepath.Join(dir, "cookies.json")
	}
	jar, err := newSessionJar(cookiePath, cfg.Backend.BaseURL, a.fresh)
	if err != nil {
		return nil, err
	}
	rt.jar = jar

	timeout := time.Duration(cfg.Backend.TimeoutSecs) * time.Second
	client, err := backend.NewClient(&backend.ClientConfig{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           timeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		UserAgent:         "tensorchat/" + Version,
	},
		backend.WithHTTPClient(&http.Client{Timeout: timeout, Jar: jar}),
		backend.WithLogger(a.Logger.Named("backend")),
	)
	if err != nil {
		return nil, err
	}
	rt.Client = client

	maxSize, err := cfg.Attachment.MaxSizeBytes()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	scfg := session.Config{
		Attachment: attachment.Config{
			MaxSize:         maxSize,
			PlaceholderName: cfg.Attachment.PlaceholderName,
		},
		Logger: a.Logger,
	}

	if opts.Interactive {
		scfg.ReplyDelay = time.Duration(cfg.Chat.ReplyDelayMs) * time.Millisecond
		if !cfg.Chat.NoGreeting {
			scfg.Greeting = cfg.Chat.Greeting
		}
		rt.openStorage()
		if rt.Store != nil && cfg.Storage.AutoSave {
			scfg.Save = rt.saveSnapshot
			scfg.AutoSaveInterval = time.Duration(cfg.Storage.AutoSaveSecs) * time.Second
		}
	}

	rt.Ctrl = session.New(client, scfg)

	if opts.Interactive && cfg.Attachment.InboxDir != "" {
		if err := rt.startWatcher(ctx); err != nil {
			a.Logger.Warn("inbox watcher disabled", zap.Error(err))
		}
	}
	return rt, nil
}

// openStorage opens the transcript store and archive. Either may be nil
// afterwards; the session works without them.
func (rt *Runtime) openStorage() {
	store, err := storage.NewTranscriptStore(rt.cfg.Storage.TranscriptsDir)
	if err != nil {
		rt.logger.Warn("transcripts disabled", zap.Error(err))
	} else {
		store.MaxTranscripts = rt.cfg.Storage.MaxTranscripts
		rt.Store = store
	}

	if rt.cfg.Storage.ArchivePath == "" {
		return
	}
	archive, err := storage.OpenArchive(rt.cfg.Storage.ArchivePath)
	if err != nil {
		rt.logger.Warn("archive disabled", zap.Error(err))
		return
	}
	rt.Archive = archive
	if rt.Store != nil {
		rt.Store.OnPrune = rt.pruneArchive
	}
}

// pruneArchive drops the archived messages of a transcript the store
// removed for being over the limit.
func (rt *Runtime) pruneArchive(id string) {
	if err := rt.Archive.DeleteSession(context.Background(), id); err != nil {
		rt.logger.Warn("archive prune failed", zap.String("id", id), zap.Error(err))
	}
}

func (rt *Runtime) startWatcher(ctx context.Context) error {
	w, err := attachment.NewWatcher(rt.cfg.Attachment.InboxDir, rt.Ctrl.Intake, attachment.WatcherOptions{
		Logger: rt.logger,
		OnError: func(path string, err error) {
			rt.logger.Warn("inbox intake failed", zap.String("path", path), zap.Error(err))
		},
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return err
	}
	rt.watcher = w
	return nil
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// transcriptID names the transcript of the current conversation. A reset
// starts a new conversation within the same session, so the first
// message's ID is part of the name.
func transcriptID(snap session.Snapshot) string {
	if len(snap.Messages) == 0 {
		return snap.SessionID
	}
	return snap.SessionID + "-" + strconv.FormatInt(snap.Messages[0].ID, 36)
}

// saveSnapshot writes the conversation as a transcript and records its
// messages in the archive. Conversations without user input are skipped.
func (rt *Runtime) saveSnapshot(snap session.Snapshot) error {
	if rt.Store == nil || !hasUserMessage(snap.Messages) {
		return nil
	}

	tid := transcriptID(snap)
	t := storage.NewTranscript(tid, snap.Messages)
	t.BaseURL = rt.cfg.Backend.BaseURL
	if snap.Attachment.Document != nil {
		t.Document = snap.Attachment.Document.Name
	}
	id, err := rt.Store.Save(t)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	if rt.Archive != nil {
		if err := rt.Archive.Record(context.Background(), tid, snap.Messages); err != nil {
			rt.logger.Warn("archive record failed", zap.Error(err))
		}
	}
	rt.logger.Debug("transcript saved", zap.String("id", id), zap.Int("messages", len(snap.Messages)))
	return nil
}

// SaveNow saves the current conversation regardless of autosave settings.
func (rt *Runtime) SaveNow() error {
	if rt.Store == nil {
		return errors.New("transcript storage is unavailable")
	}
	if err := rt.saveSnapshot(rt.Ctrl.Snapshot()); err != nil {
		return err
	}
	rt.Ctrl.Activity().MarkClean()
	return nil
}

func hasUserMessage(msgs []model.Message) bool {
	for _, m := range msgs {
		if m.Sender == model.SenderUser {
			return true
		}
	}
	return false
}

// =============================================================================
// CONTROLLER VIEW
// =============================================================================

// Reset saves pending changes and starts a new conversation.
func (rt *Runtime) Reset() {
	if err := rt.Ctrl.Activity().Flush(); err != nil {
		rt.logger.Warn("save before reset failed", zap.Error(err))
	}
	rt.Ctrl.Reset()
}

// flushingController is the controller as the TUI sees it: Reset saves
// the finished conversation first.
type flushingController struct {
	*session.Controller
	rt *Runtime
}

func (c flushingController) Reset() {
	c.rt.Reset()
}

// controller returns the controller for frontends.
func (rt *Runtime) controller() flushingController {
	return flushingController{Controller: rt.Ctrl, rt: rt}
}

// =============================================================================
// SHUTDOWN
// =============================================================================

// Close stops the watcher, flushes the transcript, closes the archive and
// persists the session cookie.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.watcher != nil {
		errs = append(errs, rt.watcher.Close())
	}
	if rt.Ctrl != nil {
		errs = append(errs, rt.Ctrl.Close())
	}
	if rt.Archive != nil {
		errs = append(errs, rt.Archive.Close())
	}
	if rt.jar != nil {
		errs = append(errs, rt.jar.Save())
	}
	return errors.Join(errs...)
}
