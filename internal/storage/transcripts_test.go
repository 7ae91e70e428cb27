// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/tensorchat/internal/model"
)

func newStore(t *testing.T) *TranscriptStore {
	t.Helper()
	store, err := NewTranscriptStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func sampleMessages(texts ...string) []model.Message {
	msgs := make([]model.Message, 0, len(texts))
	for i, text := range texts {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderBot
		}
		msgs = append(msgs, *model.NewMessage(sender, text))
	}
	return msgs
}

func TestNewTranscriptStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "transcripts")

	store, err := NewTranscriptStore(dir)
	if err != nil {
		t.Fatalf("NewTranscriptStore() error = %v", err)
	}
	if store.MaxTranscripts != 100 {
		t.Errorf("MaxTranscripts = %d, want 100", store.MaxTranscripts)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}

	if _, err := NewTranscriptStore(""); err == nil {
		t.Error("empty directory should be rejected")
	}
}

func TestTranscriptStore_SaveAndLoad(t *testing.T) {
	store := newStore(t)

	tr := NewTranscript("", sampleMessages("Hello", "Hi there"))
	tr.Document = "report.pdf"

	id, err := store.Save(tr)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected non-empty ID")
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Title != "Hello" {
		t.Errorf("Title = %q, want %q", loaded.Title, "Hello")
	}
	if loaded.Document != "report.pdf" {
		t.Errorf("Document = %q", loaded.Document)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("Messages count = %d, want 2", len(loaded.Messages))
	}
	if loaded.Messages[1].Sender != model.SenderBot || loaded.Messages[1].Text != "Hi there" {
		t.Errorf("second message = %+v", loaded.Messages[1])
	}
	if loaded.Messages[0].ID != tr.Messages[0].ID {
		t.Errorf("message ID not preserved: %d != %d", loaded.Messages[0].ID, tr.Messages[0].ID)
	}
}

func TestTranscriptStore_SaveSameIDOverwrites(t *testing.T) {
	store := newStore(t)

	tr := NewTranscript("session-1", sampleMessages("one"))
	if _, err := store.Save(tr); err != nil {
		t.Fatal(err)
	}
	tr = NewTranscript("session-1", sampleMessages("one", "two", "three"))
	if _, err := store.Save(tr); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].MessageCount != 3 {
		t.Errorf("List() = %+v, want one transcript with 3 messages", metas)
	}
}

func TestTranscriptStore_InvalidIDs(t *testing.T) {
	store := newStore(t)

	for _, id := range []string{"../escape", `a\b`, ".."} {
		if _, err := store.Save(&Transcript{ID: id}); err == nil {
			t.Errorf("Save(%q) should fail", id)
		}
		if _, err := store.Load(id); !errors.Is(err, ErrTranscriptNotFound) {
			t.Errorf("Load(%q) error = %v", id, err)
		}
		if err := store.Delete(id); !errors.Is(err, ErrTranscriptNotFound) {
			t.Errorf("Delete(%q) error = %v", id, err)
		}
	}
}

func TestTranscriptStore_DeleteAndNotFound(t *testing.T) {
	store := newStore(t)

	id, _ := store.Save(NewTranscript("", sampleMessages("Test")))
	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(id); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Load after delete error = %v", err)
	}
	if err := store.Delete(id); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestTranscriptStore_ListSkipsCorrupt(t *testing.T) {
	store := newStore(t)

	if _, err := store.Save(NewTranscript("good", sampleMessages("fine"))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.BaseDir, "bad.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.BaseDir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].ID != "good" {
		t.Errorf("List() = %+v", metas)
	}
}

func TestTranscriptStore_ResolveAndLimit(t *testing.T) {
	store := newStore(t)
	store.MaxTranscripts = 2

	for _, id := range []string{"aaa111", "aab222", "bbb333"} {
		if _, err := store.Save(NewTranscript(id, sampleMessages(id))); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	metas, _ := store.List()
	if len(metas) != 2 {
		t.Fatalf("List() len = %d, want 2 after pruning", len(metas))
	}
	if metas[0].ID != "bbb333" || metas[1].ID != "aab222" {
		t.Errorf("List() order = %s, %s", metas[0].ID, metas[1].ID)
	}

	tests := []struct {
		ref     string
		wantID  string
		wantErr bool
	}{
		{"1", "bbb333", false},
		{"2", "aab222", false},
		{"3", "", true},
		{"0", "", true},
		{"bbb333", "bbb333", false},
		{"aa", "aab222", false},
		{"aaa111", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := store.Resolve(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("Resolve(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if err == nil && got.ID != tt.wantID {
			t.Errorf("Resolve(%q) = %s, want %s", tt.ref, got.ID, tt.wantID)
		}
	}
}

func TestTranscriptStore_LimitReportsPruned(t *testing.T) {
	store := newStore(t)
	store.MaxTranscripts = 1
	var pruned []string
	store.OnPrune = func(id string) { pruned = append(pruned, id) }

	for _, id := range []string{"old111", "new222"} {
		if _, err := store.Save(NewTranscript(id, sampleMessages(id))); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if len(pruned) != 1 || pruned[0] != "old111" {
		t.Errorf("OnPrune got %v, want [old111]", pruned)
	}
	if _, err := store.Load("old111"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Load(old111) error = %v, want ErrTranscriptNotFound", err)
	}
}

func TestTranscriptStore_ResolveAmbiguous(t *testing.T) {
	store := newStore(t)
	store.Save(NewTranscript("abc1", sampleMessages("x")))
	store.Save(NewTranscript("abc2", sampleMessages("y")))

	_, err := store.Resolve("abc")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("Resolve() error = %v, want ambiguous", err)
	}
}

func TestTranscriptStore_Search(t *testing.T) {
	store := newStore(t)
	store.Save(NewTranscript("t1", sampleMessages("Summarize the report", "It covers Q3 revenue")))
	store.Save(NewTranscript("t2", sampleMessages("What is the weather?", "Sunny")))

	tests := []struct {
		query string
		want  int
	}{
		{"REVENUE", 1},
		{"weather", 1},
		{"the", 2},
		{"", 2},
		{"nothing matches", 0},
	}
	for _, tt := range tests {
		got, err := store.Search(tt.query)
		if err != nil {
			t.Fatalf("Search(%q) error = %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("Search(%q) = %d results, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestTranscript_TitleAndPreview(t *testing.T) {
	empty := NewTranscript("x", nil)
	if got := titleOf(empty.Messages); got != "New conversation" {
		t.Errorf("titleOf(nil) = %q", got)
	}
	if got := empty.Preview(); got != "" {
		t.Errorf("Preview() = %q, want empty", got)
	}

	long := strings.Repeat("word ", 40)
	tr := NewTranscript("y", []model.Message{
		*model.NewBotMessage("Hello! How can I help you today?"),
		*model.NewUserMessage("line one\nline two"),
		*model.NewUserMessage(long),
	})
	if got := tr.Preview(); got != "line one" {
		t.Errorf("Preview() = %q, want first line of first user message", got)
	}
	if got := titleOf([]model.Message{*model.NewUserMessage(long)}); len(got) > 50 {
		t.Errorf("title too long: %d", len(got))
	}
}

func TestTranscript_ExportMarkdown(t *testing.T) {
	tr := NewTranscript("md", sampleMessages("Hello", "Hi there"))
	tr.Title = "Greeting"
	tr.Document = "report.pdf"

	md := tr.ExportMarkdown()
	for _, want := range []string{"# Greeting", "Document: report.pdf", "**You**", "**Tensor**", "Hi there"} {
		if !strings.Contains(md, want) {
			t.Errorf("ExportMarkdown() missing %q:\n%s", want, md)
		}
	}
}

func TestFormatList(t *testing.T) {
	if got := FormatList(nil); got != "No saved conversations." {
		t.Errorf("FormatList(nil) = %q", got)
	}

	out := FormatList([]TranscriptMeta{{
		ID:           "0123456789abcdef",
		Title:        "Quarterly numbers",
		UpdatedAt:    time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
		MessageCount: 4,
	}})
	for _, want := range []string{"01234567", "2025-03-04 10:30", "Quarterly numbers"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatList() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789") {
		t.Errorf("ID should be shortened:\n%s", out)
	}
}
