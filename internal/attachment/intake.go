// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jeranaias/tensorchat/internal/util"
)

// Intake is the single entry point for every way a document reaches the
// session: a path typed after /upload, a path dropped onto the terminal,
// or a file landing in the watched inbox. The file's type is decided by
// its content, not its extension. Taking in the same file again leaves the
// session in the same attached state.
func (m *Manager) Intake(ctx context.Context, path string) error {
	f, closeFn, err := OpenFile(path)
	if err != nil {
		return err
	}
	defer closeFn()
	return m.Upload(ctx, f)
}

// OpenFile prepares a local file for upload. Problems opening the file are
// reported as *ValidationError since no network call has been made.
func OpenFile(path string) (*File, func(), error) {
	p := util.CleanDroppedPath(path)
	if p == "" {
		return nil, nil, &ValidationError{Field: "file", Reason: "no file selected"}
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot read %s: %v", p, unwrapPathError(err))}
	}
	if !info.Mode().IsRegular() {
		return nil, nil, &ValidationError{Field: "file", Reason: p + " is not a regular file"}
	}

	fh, err := os.Open(p)
	if err != nil {
		return nil, nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot open %s: %v", p, unwrapPathError(err))}
	}

	mt, err := mimetype.DetectReader(fh)
	if err != nil {
		fh.Close()
		return nil, nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot read %s: %v", p, err)}
	}
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		fh.Close()
		return nil, nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot rewind %s: %v", p, err)}
	}

	f := &File{
		Name:        filepath.Base(p),
		Size:        info.Size(),
		ContentType: mt.String(),
		Body:        fh,
	}
	return f, func() { fh.Close() }, nil
}

func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
