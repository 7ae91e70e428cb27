// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tensorchat/internal/attachment"
	"github.com/jeranaias/tensorchat/internal/backend"
	"github.com/jeranaias/tensorchat/internal/devserver"
	"github.com/jeranaias/tensorchat/internal/model"
	"github.com/jeranaias/tensorchat/internal/session"
)

// pdfOfSize returns a sniffable PDF padded to exactly n bytes.
func pdfOfSize(n int) []byte {
	head := []byte("%PDF-1.4\n")
	out := make([]byte, n)
	copy(out, head)
	for i := len(head); i < n; i++ {
		out[i] = ' '
	}
	return out
}

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := devserver.New(devserver.DefaultConfig(), nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newController(t *testing.T, baseURL string) *session.Controller {
	t.Helper()
	client, err := backend.NewClient(&backend.ClientConfig{BaseURL: baseURL})
	require.NoError(t, err)
	ctrl := session.New(client, session.Config{})
	t.Cleanup(func() { ctrl.Close() })
	return ctrl
}

func TestEndToEnd_ChatAndDocument(t *testing.T) {
	ctx := context.Background()
	ts := startBackend(t)
	ctrl := newController(t, ts.URL)

	require.NoError(t, ctrl.Send(ctx, "Hello"))
	snap := ctrl.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, model.SenderUser, snap.Messages[0].Sender)
	assert.Equal(t, "Hello", snap.Messages[0].Text)
	assert.Equal(t, model.SenderBot, snap.Messages[1].Sender)
	assert.Equal(t, "You said: Hello", snap.Messages[1].Text)

	data := pdfOfSize(1024)
	require.NoError(t, ctrl.Upload(ctx, &attachment.File{
		Name:        "report.pdf",
		Size:        int64(len(data)),
		ContentType: attachment.PDFMediaType,
		Body:        bytes.NewReader(data),
	}))
	st := ctrl.Attachment()
	require.True(t, st.Attached())
	assert.Equal(t, "report.pdf", st.Document.Name)
	assert.Equal(t, int64(1024), st.Document.Size)

	snap = ctrl.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, model.SenderSystem, snap.Messages[2].Sender)
	assert.Contains(t, snap.Messages[2].Text, "report.pdf")

	// The cookie ties follow-up questions to the uploaded document.
	require.NoError(t, ctrl.Send(ctx, "What is it about?"))
	last, _ := ctrl.Snapshot().LastMessage()
	assert.Equal(t, "You asked about report.pdf: What is it about?", last.Text)

	st, err := ctrl.CheckAttachment(ctx)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", st.Document.Name, "a known document keeps its name")

	require.NoError(t, ctrl.Remove(ctx))
	assert.False(t, ctrl.Attachment().Attached())
	st, err = ctrl.CheckAttachment(ctx)
	require.NoError(t, err)
	assert.False(t, st.Attached())
	assert.Nil(t, ctrl.Snapshot().Notice)
}

func TestEndToEnd_RejectedUploadRaisesNotice(t *testing.T) {
	ctx := context.Background()
	ts := startBackend(t)
	ctrl := newController(t, ts.URL)

	// The client declares a PDF but the server sniffs plain text.
	err := ctrl.Upload(ctx, &attachment.File{
		Name:        "notes.pdf",
		ContentType: attachment.PDFMediaType,
		Body:        bytes.NewReader([]byte("plain text pretending")),
	})
	require.Error(t, err)
	assert.Equal(t, 415, backend.StatusCode(err))

	snap := ctrl.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Equal(t, "upload", snap.Notice.Op)
	assert.False(t, snap.Attachment.Attached())
	assert.Empty(t, snap.Messages)
}

func TestEndToEnd_EmptyServerMessageIsTransportError(t *testing.T) {
	ts := startBackend(t)
	client, err := backend.NewClient(&backend.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))
	assert.Equal(t, 400, backend.StatusCode(err))
}

func TestEndToEnd_ReconnectFindsPlaceholder(t *testing.T) {
	ctx := context.Background()
	ts := startBackend(t)

	client, err := backend.NewClient(&backend.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	require.NoError(t, client.Upload(ctx, "old.pdf", bytes.NewReader(pdfOfSize(64))))

	// A fresh controller on the same client (and cookie) sees the document
	// without knowing its name.
	ctrl := session.New(client, session.Config{})
	defer ctrl.Close()
	st, err := ctrl.CheckAttachment(ctx)
	require.NoError(t, err)
	require.True(t, st.Attached())
	assert.True(t, st.Document.Placeholder)
	assert.Equal(t, attachment.DefaultPlaceholderName, st.Document.Name)
}
