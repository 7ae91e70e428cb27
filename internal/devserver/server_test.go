// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF is enough for content sniffing to report application/pdf.
var minimalPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(cfg, nil)
	require.NoError(t, err)
	return srv
}

// client replays the session cookie between requests like a browser.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Handler().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) chat(message string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"message": message})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(field, filename string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(c.t, err)
	_, _ = part.Write(data)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *client) hasPDF() bool {
	rec := c.do(httptest.NewRequest(http.MethodGet, "/pdf-status", nil))
	require.Equal(c.t, http.StatusOK, rec.Code)
	var body struct {
		HasPDF bool `json:"has_pdf"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.HasPDF
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChat(t *testing.T) {
	c := &client{t: t, srv: newServer(t, nil)}

	rec := c.chat("Hello")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You said: Hello", decode(t, rec)["reply"])
	require.NotNil(t, c.cookie, "first request should set the session cookie")
	assert.True(t, c.cookie.HttpOnly)

	rec = c.chat("  again  ")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You said: again (1 earlier in this session)", decode(t, rec)["reply"])
	assert.Equal(t, 1, c.srv.Sessions().Len())
}

func TestChat_BadRequests(t *testing.T) {
	c := &client{t: t, srv: newServer(t, nil)}

	rec := c.chat("   ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Empty message", decode(t, rec)["error"])

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec = c.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_ResponderError(t *testing.T) {
	srv := newServer(t, func(cfg *Config) {
		cfg.Responder = ResponderFunc(func(context.Context, Request) (string, error) {
			return "", errors.New("model unavailable")
		})
	})
	c := &client{t: t, srv: srv}

	rec := c.chat("Hello")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "model unavailable", decode(t, rec)["error"])
}

func TestUploadStatusRemove(t *testing.T) {
	c := &client{t: t, srv: newServer(t, nil)}

	assert.False(t, c.hasPDF())

	rec := c.upload("pdf", "report.pdf", minimalPDF)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "report.pdf", decode(t, rec)["filename"])
	assert.True(t, c.hasPDF())

	rec = c.chat("What is in it?")
	assert.Equal(t, "You asked about report.pdf: What is in it?", decode(t, rec)["reply"])

	// Another browser has its own session.
	other := &client{t: t, srv: c.srv}
	assert.False(t, other.hasPDF())

	rec = c.do(httptest.NewRequest(http.MethodPost, "/remove-pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["removed"])
	assert.False(t, c.hasPDF())

	rec = c.do(httptest.NewRequest(http.MethodPost, "/remove-pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["removed"])
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		data     []byte
		maxSize  int64
		wantCode int
	}{
		{"wrong field", "file", minimalPDF, 0, http.StatusBadRequest},
		{"not a pdf", "pdf", []byte("just some text, not a document"), 0, http.StatusUnsupportedMediaType},
		{"too large", "pdf", minimalPDF, 16, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(cfg *Config) {
				if tt.maxSize > 0 {
					cfg.MaxUploadSize = tt.maxSize
				}
			})
			c := &client{t: t, srv: srv}

			rec := c.upload(tt.field, "report.pdf", tt.data)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.False(t, c.hasPDF())
		})
	}
}

func TestUnknownCookieStartsNewSession(t *testing.T) {
	c := &client{t: t, srv: newServer(t, nil)}
	c.cookie = &http.Cookie{Name: SessionCookie, Value: "forged"}

	c.chat("Hello")
	require.NotNil(t, c.cookie)
	assert.NotEqual(t, "forged", c.cookie.Value)
}

func TestHealth(t *testing.T) {
	srv := newServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.Empty(t, rec.Result().Cookies(), "health checks should not create sessions")
}

func TestCORS(t *testing.T) {
	srv := newServer(t, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	_, err := New(Config{AllowedOrigins: []string{"localhost:3000"}}, nil)
	assert.Error(t, err, "origins need a scheme")
}

func TestSessionStore(t *testing.T) {
	st := NewSessionStore(2, time.Millisecond)

	a := st.Create()
	assert.Same(t, a, st.Get(a.ID))
	assert.Nil(t, st.Get(""))
	assert.Nil(t, st.Get("missing"))

	a.Remember("1", "one")
	a.Remember("2", "two")
	a.Remember("3", "three")
	hist := a.History()
	require.Len(t, hist, 2)
	assert.Equal(t, "2", hist[0].Message)

	time.Sleep(5 * time.Millisecond)
	b := st.Create()
	assert.Equal(t, 1, st.Len(), "idle session should be dropped")
	assert.Same(t, b, st.Get(b.ID))
}

func TestServe_Shutdown(t *testing.T) {
	srv := newServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
