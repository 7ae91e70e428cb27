// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF is enough for content sniffing to recognise a PDF.
const minimalPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIntake_UploadsPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.pdf", minimalPDF)

	tr := &fakeTransport{}
	mgr, conv := newTestManager(tr)

	require.NoError(t, mgr.Intake(context.Background(), path))

	st := mgr.State()
	require.True(t, st.Attached())
	assert.Equal(t, "report.pdf", st.Document.Name)
	assert.Equal(t, int64(len(minimalPDF)), st.Document.Size)
	assert.Equal(t, minimalPDF, string(tr.uploaded[0]), "body must be rewound after sniffing")
	assert.Equal(t, 1, conv.Len())
}

func TestIntake_QuotedDroppedPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "my report.pdf", minimalPDF)

	tr := &fakeTransport{}
	mgr, _ := newTestManager(tr)

	require.NoError(t, mgr.Intake(context.Background(), "  '"+path+"'\n"))
	assert.Equal(t, "my report.pdf", mgr.State().Document.Name)
}

func TestIntake_RejectsByContentNotExtension(t *testing.T) {
	dir := t.TempDir()
	fake := writeFile(t, dir, "fake.pdf", "just some text pretending to be a pdf")

	tr := &fakeTransport{}
	mgr, conv := newTestManager(tr)

	err := mgr.Intake(context.Background(), fake)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, tr.uploadCount())
	assert.Equal(t, StatusAbsent, mgr.State().Status)
	assert.Equal(t, 0, conv.Len())
}

func TestIntake_MissingAndDirectory(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTransport{}
	mgr, _ := newTestManager(tr)
	ctx := context.Background()

	for _, p := range []string{"", filepath.Join(dir, "nope.pdf"), dir} {
		err := mgr.Intake(ctx, p)
		assert.True(t, IsValidationError(err), "Intake(%q) = %v", p, err)
	}
	assert.Equal(t, 0, tr.uploadCount())
}

func TestIntake_SameFileTwiceIsStable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.pdf", minimalPDF)

	tr := &fakeTransport{}
	mgr, _ := newTestManager(tr)
	ctx := context.Background()

	require.NoError(t, mgr.Intake(ctx, path))
	first := *mgr.State().Document
	require.NoError(t, mgr.Intake(ctx, path))
	second := *mgr.State().Document

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Size, second.Size)
	assert.Equal(t, StatusAttached, mgr.State().Status)
}
