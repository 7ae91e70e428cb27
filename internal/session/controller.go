// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the state of one chat session and the commands
// that change it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/model"
)

// ErrReplyPending is returned by Send while a previous message is still
// waiting for its reply.
var ErrReplyPending = errors.New("a reply is still pending")

// DefaultGreeting opens every new conversation.
const DefaultGreeting = "Hello! How can I help you today?"

// eventBuffer is the capacity of each subscriber channel.
const eventBuffer = 64

// =============================================================================
// COLLABORATORS & CONFIG
// =============================================================================

// Transport is everything the session needs from the backend.
type Transport interface {
	Chat(ctx context.Context, text string) (string, error)
	attachment.Transport
}

// Config holds controller settings.
type Config struct {
	// ReplyDelay is a fixed pause between receiving a reply and showing it.
	ReplyDelay time.Duration

	// Greeting is appended as a bot message when the session starts and
	// after every reset. Empty disables it.
	Greeting string

	// Attachment configures the document manager. Its Logger and OnChange
	// are set by the controller.
	Attachment attachment.Config

	// AutoSaveInterval and Save drive periodic transcript saving.
	AutoSaveInterval time.Duration
	Save             func(Snapshot) error

	Logger *zap.Logger
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		ReplyDelay: 600 * time.Millisecond,
		Greeting:   DefaultGreeting,
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the explicit state of one chat session plus the commands
// that act on it: Send for chat, and Upload/Intake/Remove/CheckAttachment
// for the document slot. State leaves the controller only as copies,
// through Snapshot and the event stream from Subscribe.
//
// At most one message can await a reply; a second Send during that window
// is rejected with ErrReplyPending. Every failure raises the Notice in the
// snapshot; failures never add messages to the conversation.
type Controller struct {
	mu       sync.Mutex
	awaiting bool
	notice   *Notice

	conv      *model.Conversation
	attach    *attachment.Manager
	transport Transport
	activity  *Activity
	cfg       Config
	logger    *zap.Logger

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a controller with an empty conversation (plus the greeting,
// when one is configured) and an absent attachment.
func New(transport Transport, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		conv:      model.NewConversation(),
		transport: transport,
		cfg:       cfg,
		logger:    logger.Named("session"),
		subs:      make(map[int]chan Event),
	}

	attachCfg := cfg.Attachment
	attachCfg.Logger = logger
	attachCfg.OnChange = func(st attachment.State) {
		c.emit(Event{Kind: EventAttachment, Attachment: st})
	}
	c.attach = attachment.NewManager(transport, eventingAppender{c}, attachCfg)

	var save func() error
	if cfg.Save != nil {
		save = func() error { return cfg.Save(c.Snapshot()) }
	}
	c.activity = NewActivity(cfg.AutoSaveInterval, save)

	c.greet()
	return c
}

// Activity returns the session's activity tracker.
func (c *Controller) Activity() *Activity {
	return c.activity
}

// Attachment returns the current attachment state.
func (c *Controller) Attachment() attachment.State {
	return c.attach.State()
}

// Awaiting reports whether a reply is outstanding.
func (c *Controller) Awaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// Snapshot returns a copy of the full session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	awaiting, notice := c.awaiting, c.notice
	c.mu.Unlock()

	return Snapshot{
		SessionID:  c.activity.SessionID(),
		Messages:   c.conv.Messages(),
		Awaiting:   awaiting,
		Attachment: c.attach.State(),
		Notice:     notice,
	}
}

// =============================================================================
// CHAT
// =============================================================================

// Send dispatches one user message. Input that is empty once trimmed is
// ignored. Otherwise the user message is appended and the session awaits
// the reply; the raw text goes to the backend unchanged. A reply is shown
// after the configured delay. A failure clears the awaiting flag, raises
// the notice and is returned; no bot message is added.
func (c *Controller) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.awaiting {
		c.mu.Unlock()
		c.logger.Debug("send rejected, reply pending")
		return ErrReplyPending
	}
	userMsg := model.NewUserMessage(text)
	if err := c.conv.Append(userMsg); err != nil {
		c.mu.Unlock()
		return err
	}
	c.awaiting = true
	c.mu.Unlock()

	c.activity.RecordActivity()
	c.emitMessage(userMsg)
	c.emit(Event{Kind: EventAwaiting, Awaiting: true})
	c.logger.Info("message sent", zap.Int64("id", userMsg.ID), zap.Int("chars", len(text)))

	start := time.Now()
	reply, err := c.transport.Chat(ctx, text)
	if err != nil {
		c.setAwaiting(false)
		c.emit(Event{Kind: EventAwaiting, Awaiting: false})
		c.logger.Error("chat request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		c.raise("send", err)
		return fmt.Errorf("send: %w", err)
	}

	c.pause(ctx, c.cfg.ReplyDelay)

	botMsg := model.NewBotMessage(reply)
	if err := c.conv.Append(botMsg); err != nil {
		c.setAwaiting(false)
		c.emit(Event{Kind: EventAwaiting, Awaiting: false})
		return err
	}
	c.setAwaiting(false)

	c.activity.RecordActivity()
	c.emitMessage(botMsg)
	c.emit(Event{Kind: EventAwaiting, Awaiting: false})
	c.logger.Info("reply received", zap.Int64("id", botMsg.ID), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// pause waits d, returning early if ctx is done.
func (c *Controller) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (c *Controller) setAwaiting(v bool) {
	c.mu.Lock()
	c.awaiting = v
	c.mu.Unlock()
}

// =============================================================================
// ATTACHMENT COMMANDS
// =============================================================================

// CheckAttachment reconciles the attachment slot with the backend.
func (c *Controller) CheckAttachment(ctx context.Context) (attachment.State, error) {
	st, err := c.attach.CheckExisting(ctx)
	if err != nil {
		c.raise("status", err)
	}
	return st, err
}

// Upload attaches f, replacing any current document.
func (c *Controller) Upload(ctx context.Context, f *attachment.File) error {
	err := c.attach.Upload(ctx, f)
	if err != nil {
		c.raise("upload", err)
	}
	return err
}

// Intake attaches the PDF at path. Every input modality (typed path,
// dropped path, inbox watcher) goes through here.
func (c *Controller) Intake(ctx context.Context, path string) error {
	err := c.attach.Intake(ctx, path)
	if err != nil {
		c.raise("upload", err)
	}
	return err
}

// Remove detaches the current document.
func (c *Controller) Remove(ctx context.Context) error {
	err := c.attach.Remove(ctx)
	if err != nil {
		c.raise("remove", err)
	}
	return err
}

// =============================================================================
// NOTICE & RESET
// =============================================================================

// DismissError clears the notice.
func (c *Controller) DismissError() {
	c.mu.Lock()
	had := c.notice != nil
	c.notice = nil
	c.mu.Unlock()

	if had {
		c.emit(Event{Kind: EventError})
	}
}

// Reset clears the conversation and the notice and greets again. The
// attachment is untouched since it lives on the backend.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.notice = nil
	c.mu.Unlock()

	c.conv.Clear()
	c.activity.RecordActivity()
	c.emit(Event{Kind: EventReset})
	c.greet()
	c.logger.Info("conversation reset")
}

func (c *Controller) raise(op string, err error) {
	n := newNotice(op, err)
	c.mu.Lock()
	c.notice = n
	c.mu.Unlock()
	c.emit(Event{Kind: EventError, Notice: n})
}

func (c *Controller) greet() {
	if c.cfg.Greeting == "" {
		return
	}
	msg := model.NewBotMessage(c.cfg.Greeting)
	if err := c.conv.Append(msg); err == nil {
		c.emitMessage(msg)
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel of session events and a function that ends
// the subscription and closes the channel. Events are dropped for a
// subscriber whose buffer is full.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subsMu.Unlock()

	return ch, func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Close flushes unsaved changes and ends all subscriptions.
func (c *Controller) Close() error {
	err := c.activity.Flush()

	c.subsMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()
	return err
}

func (c *Controller) emitMessage(msg *model.Message) {
	cp := *msg
	c.emit(Event{Kind: EventMessage, Message: &cp})
}

func (c *Controller) emit(ev Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Debug("event dropped for slow subscriber", zap.Stringer("kind", ev.Kind))
		}
	}
}

// eventingAppender appends system messages from the attachment manager
// and announces them to subscribers.
type eventingAppender struct {
	c *Controller
}

func (a eventingAppender) Append(msg *model.Message) error {
	if err := a.c.conv.Append(msg); err != nil {
		return err
	}
	a.c.activity.RecordActivity()
	a.c.emitMessage(msg)
	return nil
}
