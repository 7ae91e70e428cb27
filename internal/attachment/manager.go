// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment manages the single PDF a chat session can ground its
// answers in.
package attachment

import (
	"context"
	"fmt"
	"io"
	"mime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/model"
)

// PDFMediaType is the only accepted document type.
const PDFMediaType = "application/pdf"

// =============================================================================
// COLLABORATORS
// =============================================================================

// Transport is the subset of the backend client the manager needs.
type Transport interface {
	Upload(ctx context.Context, filename string, content io.Reader) error
	Remove(ctx context.Context) error
	Status(ctx context.Context) (bool, error)
}

// Appender receives the system messages announcing attachment changes.
type Appender interface {
	Append(msg *model.Message) error
}

// File is a candidate document. Body is read once, during upload.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds manager settings.
type Config struct {
	// MaxSize rejects larger files before upload. Zero means no limit.
	MaxSize int64

	// PlaceholderName names a document discovered through a status check.
	PlaceholderName string

	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger

	// OnChange is called after every state transition, outside the lock.
	OnChange func(State)
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager tracks the session's document slot and mediates upload, replace
// and remove against the backend. All methods are safe for concurrent use;
// overlapping mutations are rejected with ErrBusy rather than queued.
type Manager struct {
	mu        sync.Mutex
	state     State
	transport Transport
	conv      Appender
	cfg       Config
	logger    *zap.Logger

	// gen counts started uploads and removals. A status answer is only
	// applied if no mutation began while it was in flight.
	gen uint64
}

// NewManager creates a manager in the absent state.
func NewManager(transport Transport, conv Appender, cfg Config) *Manager {
	if cfg.PlaceholderName == "" {
		cfg.PlaceholderName = DefaultPlaceholderName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		state:     State{Status: StatusAbsent},
		transport: transport,
		conv:      conv,
		cfg:       cfg,
		logger:    logger.Named("attachment"),
	}
}

// State returns the current attachment state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CheckExisting reconciles the local state with the backend once, usually
// at startup. A backend that holds a document always yields an attached
// state; if the client does not already know the document, a placeholder
// name and zero size are used because the status endpoint does not return
// them. Repeating the call without intervening changes yields the same
// state.
func (m *Manager) CheckExisting(ctx context.Context) (State, error) {
	m.mu.Lock()
	if m.state.Busy() {
		st := m.state
		m.mu.Unlock()
		return st, ErrBusy
	}
	startGen := m.gen
	m.mu.Unlock()

	hasPDF, err := m.transport.Status(ctx)
	if err != nil {
		m.logger.Warn("attachment status check failed", zap.Error(err))
		return m.State(), fmt.Errorf("check attachment: %w", err)
	}

	m.mu.Lock()
	if m.gen != startGen {
		// An upload or removal overtook the check; its outcome is newer
		// than hasPDF.
		st := m.state
		m.mu.Unlock()
		m.logger.Debug("stale attachment status discarded", zap.Bool("has_pdf", hasPDF))
		if st.Busy() {
			return st, ErrBusy
		}
		return st, nil
	}
	changed := false
	switch {
	case hasPDF && !m.state.Attached():
		m.state = State{
			Status:   StatusAttached,
			Document: &Document{Name: m.cfg.PlaceholderName, Placeholder: true},
		}
		changed = true
	case !hasPDF && m.state.Attached():
		m.state = State{Status: StatusAbsent}
		changed = true
	}
	st := m.state
	m.mu.Unlock()

	m.logger.Debug("attachment reconciled", zap.Bool("has_pdf", hasPDF), zap.Bool("changed", changed))
	if changed {
		m.notify(st)
	}
	return st, nil
}

// Upload validates f, sends it to the backend and, on success, records it
// as the attached document and announces it with a system message. Invalid
// files are rejected with a *ValidationError before any network call. On
// transport failure the previous state is restored and no message is
// appended.
func (m *Manager) Upload(ctx context.Context, f *File) error {
	if err := m.validate(f); err != nil {
		m.logger.Info("upload rejected", zap.Error(err))
		return err
	}

	m.mu.Lock()
	if m.state.Busy() {
		m.mu.Unlock()
		return ErrBusy
	}
	prev := m.state
	m.gen++
	m.state = State{Status: StatusUploading, Document: prev.Document, Pending: f.Name}
	uploading := m.state
	m.mu.Unlock()
	m.notify(uploading)

	m.logger.Info("uploading document", zap.String("name", f.Name), zap.Int64("size", f.Size))

	counter := &countingReader{r: f.Body}
	if err := m.transport.Upload(ctx, f.Name, counter); err != nil {
		m.mu.Lock()
		m.state = prev
		m.mu.Unlock()
		m.notify(prev)

		m.logger.Warn("upload failed", zap.String("name", f.Name), zap.Error(err))
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}

	size := f.Size
	if size <= 0 {
		size = counter.n
	}
	doc := &Document{Name: f.Name, Size: size, UploadedAt: time.Now()}

	m.mu.Lock()
	m.state = State{Status: StatusAttached, Document: doc}
	attached := m.state
	m.mu.Unlock()
	m.notify(attached)

	m.announce(fmt.Sprintf("Uploaded %s (%s). Answers will now draw on this document.",
		doc.Name, humanize.Bytes(uint64(doc.Size))))
	return nil
}

// Replace uploads f in place of the current document. The backend keeps a
// single slot per session, so no removal is issued first.
func (m *Manager) Replace(ctx context.Context, f *File) error {
	return m.Upload(ctx, f)
}

// Remove asks the backend to drop the document. Only on success does the
// state become absent and a system message get appended; on failure the
// document stays attached.
func (m *Manager) Remove(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.state.Busy():
		m.mu.Unlock()
		return ErrBusy
	case !m.state.Attached():
		m.mu.Unlock()
		return ErrNoAttachment
	}
	prev := m.state
	m.gen++
	m.state = State{Status: StatusRemoving, Document: prev.Document}
	removing := m.state
	m.mu.Unlock()
	m.notify(removing)

	if err := m.transport.Remove(ctx); err != nil {
		m.mu.Lock()
		m.state = prev
		m.mu.Unlock()
		m.notify(prev)

		m.logger.Warn("remove failed", zap.String("name", prev.Document.Name), zap.Error(err))
		return fmt.Errorf("remove %s: %w", prev.Document.Name, err)
	}

	m.mu.Lock()
	m.state = State{Status: StatusAbsent}
	absent := m.state
	m.mu.Unlock()
	m.notify(absent)

	m.logger.Info("document removed", zap.String("name", prev.Document.Name))
	m.announce(fmt.Sprintf("Removed %s. Answers will no longer use it.", prev.Document.Name))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Manager) validate(f *File) error {
	if f == nil || f.Body == nil {
		return &ValidationError{Field: "file", Reason: "no file selected"}
	}
	if f.Name == "" {
		return &ValidationError{Field: "name", Reason: "file has no name"}
	}
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil || mediaType != PDFMediaType {
		kind := f.ContentType
		if kind == "" {
			kind = "unknown type"
		}
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("%s is %s, only PDF files can be attached", f.Name, kind)}
	}
	if m.cfg.MaxSize > 0 && f.Size > m.cfg.MaxSize {
		return &ValidationError{
			Field: "size",
			Reason: fmt.Sprintf("%s is %s, the limit is %s",
				f.Name, humanize.Bytes(uint64(f.Size)), humanize.Bytes(uint64(m.cfg.MaxSize))),
		}
	}
	return nil
}

func (m *Manager) announce(text string) {
	if m.conv == nil {
		return
	}
	if err := m.conv.Append(model.NewSystemMessage(text)); err != nil {
		m.logger.Error("append system message", zap.Error(err))
	}
}

func (m *Manager) notify(st State) {
	if m.cfg.OnChange != nil {
		m.cfg.OnChange(st)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
