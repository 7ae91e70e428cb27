// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryWindow is how many exchanges a session remembers.
const DefaultHistoryWindow = 10

// Exchange is one question and its reply.
type Exchange struct {
	Message string
	Reply   string
}

// Document is the PDF held in a session's single slot.
type Document struct {
	Name       string
	Size       int64
	Data       []byte
	UploadedAt time.Time
}

// Session is the server-side state behind one session cookie.
type Session struct {
	ID string

	mu       sync.Mutex
	history  []Exchange
	document *Document
	window   int
	lastSeen time.Time
}

// Remember appends an exchange, keeping only the most recent window.
func (s *Session) Remember(message, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Exchange{Message: message, Reply: reply})
	if s.window > 0 && len(s.history) > s.window {
		s.history = append([]Exchange(nil), s.history[len(s.history)-s.window:]...)
	}
}

// History returns a copy of the remembered exchanges.
func (s *Session) History() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange(nil), s.history...)
}

// Document returns the attached document, or nil.
func (s *Session) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// SetDocument replaces the document slot.
func (s *Session) SetDocument(d *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = d
}

// ClearDocument empties the slot and reports whether it held a document.
func (s *Session) ClearDocument() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.document != nil
	s.document = nil
	return had
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore holds sessions in memory, keyed by cookie value.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	window   int
	idleTTL  time.Duration
}

// NewSessionStore creates a store. Sessions idle longer than idleTTL are
// dropped on the next Create; zero keeps them forever.
func NewSessionStore(window int, idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		window:   window,
		idleTTL:  idleTTL,
	}
}

// Get returns the session for id, or nil.
func (st *SessionStore) Get(id string) *Session {
	if id == "" {
		return nil
	}
	st.mu.Lock()
	sess := st.sessions[id]
	st.mu.Unlock()
	if sess != nil {
		sess.touch(time.Now())
	}
	return sess
}

// Create starts a new session with a random ID.
func (st *SessionStore) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:       uuid.NewString(),
		window:   st.window,
		lastSeen: now,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.idleTTL > 0 {
		for id, s := range st.sessions {
			if s.idleSince(now) > st.idleTTL {
				delete(st.sessions, id)
			}
		}
	}
	st.sessions[sess.ID] = sess
	return sess
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
