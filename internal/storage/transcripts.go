// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/util"
)

// =============================================================================
// TRANSCRIPT TYPES
// =============================================================================

// Transcript is a persisted conversation.
type Transcript struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	BaseURL   string    `json:"base_url,omitempty"`
	Document  string    `json:"document,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []model.Message `json:"messages"`
}

// TranscriptMeta contains metadata for listing transcripts.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// NewTranscript builds a transcript for a session from its messages.
func NewTranscript(id string, messages []model.Message) *Transcript {
	t := &Transcript{
		ID:       id,
		Messages: append([]model.Message(nil), messages...),
	}
	if len(messages) > 0 {
		t.CreatedAt = messages[0].CreatedAt
	}
	return t
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore keeps one JSON file per transcript in BaseDir.
type TranscriptStore struct {
	// BaseDir holds <id>.json files
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited)
	MaxTranscripts int

	// OnPrune, if set, is called with the ID of each transcript removed
	// by the limit, so records kept elsewhere under that ID can follow.
	OnPrune func(id string)
}

// NewTranscriptStore creates a store rooted at baseDir, creating it if needed.
func NewTranscriptStore(baseDir string) (*TranscriptStore, error) {
	if baseDir == "" {
		return nil, errors.New("transcript directory cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &TranscriptStore{
		BaseDir:        baseDir,
		MaxTranscripts: 100,
	}, nil
}

// Save persists a transcript and returns its ID. Saving again under the
// same ID replaces the file.
func (s *TranscriptStore) Save(t *Transcript) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if !validID(t.ID) {
		return "", fmt.Errorf("invalid transcript id %q", t.ID)
	}
	if t.Title == "" {
		t.Title = titleOf(t.Messages)
	}

	t.UpdatedAt = time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.UpdatedAt
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}
	if err := util.AtomicWriteFile(s.filePath(t.ID), data, 0600); err != nil {
		return "", err
	}

	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return t.ID, nil
}

// enforceLimit removes the oldest transcripts beyond MaxTranscripts.
func (s *TranscriptStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	// List is newest first.
	for _, m := range metas[s.MaxTranscripts:] {
		if err := s.Delete(m.ID); err != nil {
			continue
		}
		if s.OnPrune != nil {
			s.OnPrune(m.ID)
		}
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a transcript by ID.
func (s *TranscriptStore) Load(id string) (*Transcript, error) {
	if !validID(id) {
		return nil, ErrTranscriptNotFound
	}
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("corrupt transcript %s: %w", id, err)
	}
	return &t, nil
}

// Resolve finds a transcript by 1-based list position, full ID, or unique
// ID prefix.
func (s *TranscriptStore) Resolve(ref string) (*Transcript, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrTranscriptNotFound
	}

	metas, err := s.List()
	if err != nil {
		return nil, err
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(metas) {
			return nil, ErrTranscriptNotFound
		}
		return s.Load(metas[n-1].ID)
	}

	var match string
	for _, m := range metas {
		if m.ID == ref {
			return s.Load(m.ID)
		}
		if strings.HasPrefix(m.ID, ref) {
			if match != "" {
				return nil, fmt.Errorf("transcript reference %q is ambiguous", ref)
			}
			match = m.ID
		}
	}
	if match == "" {
		return nil, ErrTranscriptNotFound
	}
	return s.Load(match)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all saved transcripts, most recent first. Unreadable files
// are skipped.
func (s *TranscriptStore) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	metas := make([]TranscriptMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		t, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, t.Meta())
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search returns transcripts whose title or any message contains query,
// case-insensitively. An empty query lists everything.
func (s *TranscriptStore) Search(query string) ([]TranscriptMeta, error) {
	all, err := s.List()
	if err != nil || query == "" {
		return all, err
	}

	query = strings.ToLower(query)
	var results []TranscriptMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) {
			results = append(results, meta)
			continue
		}
		t, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range t.Messages {
			if strings.Contains(strings.ToLower(msg.Text), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a transcript by ID.
func (s *TranscriptStore) Delete(id string) error {
	if !validID(id) {
		return ErrTranscriptNotFound
	}
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *TranscriptStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// validID rejects ids that could escape BaseDir.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func titleOf(messages []model.Message) string {
	for _, m := range messages {
		if m.Sender == model.SenderUser && strings.TrimSpace(m.Text) != "" {
			return m.Preview(50)
		}
	}
	return "New conversation"
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrTranscriptNotFound is returned when a transcript doesn't exist.
var ErrTranscriptNotFound = errors.New("transcript not found")

// =============================================================================
// TRANSCRIPT METHODS
// =============================================================================

// Meta summarizes the transcript for listings.
func (t *Transcript) Meta() TranscriptMeta {
	return TranscriptMeta{
		ID:           t.ID,
		Title:        t.Title,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		MessageCount: len(t.Messages),
		Preview:      t.Preview(),
	}
}

// Preview returns the first user message, truncated for display.
func (t *Transcript) Preview() string {
	for _, m := range t.Messages {
		if m.Sender == model.SenderUser && m.Text != "" {
			return m.Preview(80)
		}
	}
	return ""
}

// ExportMarkdown renders the transcript as Markdown with one section per
// message.
func (t *Transcript) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + t.Title + "\n\n")
	sb.WriteString("Created: " + t.CreatedAt.Format(time.RFC3339) + "\n\n")
	if t.Document != "" {
		sb.WriteString("Document: " + t.Document + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, m := range t.Messages {
		sb.WriteString("**" + m.Sender.DisplayName() + "** (" + m.Timestamp + "):\n\n")
		sb.WriteString(m.Text)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// FormatList renders transcript metadata as a table.
func FormatList(metas []TranscriptMeta) string {
	if len(metas) == 0 {
		return "No saved conversations."
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("#", 4) + util.PadRight("ID", 10) + util.PadRight("Updated", 18) +
		util.PadRight("Msgs", 6) + "Title\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for i, m := range metas {
		id := m.ID
		if len(id) > 8 {
			id = id[:8]
		}
		sb.WriteString(util.PadRight(strconv.Itoa(i+1), 4) +
			util.PadRight(id, 10) +
			util.PadRight(m.UpdatedAt.Format("2006-01-02 15:04"), 18) +
			util.PadRight(strconv.Itoa(m.MessageCount), 6) +
			util.TruncateWidth(m.Title, 34) + "\n")
	}
	return sb.String()
}
