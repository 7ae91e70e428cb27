// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_TakesInDroppedPDF(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := filepath.Join(t.TempDir(), "inbox")
	got := make(chan string, 4)

	w, err := NewWatcher(dir, func(ctx context.Context, path string) error {
		got <- path
		return nil
	}, WatcherOptions{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))
	pdf := filepath.Join(dir, "Report.PDF")
	require.NoError(t, os.WriteFile(pdf, []byte(minimalPDF), 0644))

	select {
	case path := <-got:
		assert.Equal(t, pdf, path)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not pick up the PDF")
	}

	// Debounced: several write events for one copy yield one intake.
	select {
	case path := <-got:
		t.Fatalf("unexpected second intake of %s", path)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, w.Close())
}

func TestWatcher_ReportsIntakeErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	errs := make(chan error, 1)
	boom := errors.New("upload failed")

	w, err := NewWatcher(dir, func(ctx context.Context, path string) error {
		return boom
	}, WatcherOptions{
		Debounce: 20 * time.Millisecond,
		OnError: func(path string, err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte(minimalPDF), 0644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, boom)
	case <-time.After(3 * time.Second):
		t.Fatal("intake error was not reported")
	}
	require.NoError(t, w.Close())
}

func TestNewWatcher_Validation(t *testing.T) {
	_, err := NewWatcher("", func(context.Context, string) error { return nil }, WatcherOptions{})
	assert.Error(t, err)
	_, err = NewWatcher(t.TempDir(), nil, WatcherOptions{})
	assert.Error(t, err)
}
