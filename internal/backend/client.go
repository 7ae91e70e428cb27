// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP session transport for the chat backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the address of a locally running backend.
const DefaultBaseURL = "http://localhost:5001"

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:5001)
	BaseURL string

	// Timeout bounds each request. Zero leaves requests unbounded apart
	// from the caller's context.
	Timeout time.Duration

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		UserAgent: "tensorchat",
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// installed if it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client performs single request/response round trips against the chat
// backend. The session credential is an opaque cookie kept in the client's
// jar; callers never see it. No request is retried.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client, err := backend.NewClient(backend.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	reply, err := client.Chat(ctx, "Hello")
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a backend client. A nil config uses DefaultConfig.
func NewClient(config *ClientConfig, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = config
	}

	c := &Client{
		config: *cfg,
		logger: zap.NewNop(),
	}
	if c.config.BaseURL == "" {
		c.config.BaseURL = DefaultBaseURL
	}
	c.config.BaseURL = strings.TrimRight(c.config.BaseURL, "/")
	if c.config.UserAgent == "" {
		c.config.UserAgent = "tensorchat"
	}

	c.httpClient = &http.Client{Timeout: c.config.Timeout}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	if c.config.RequestsPerSecond > 0 {
		burst := int(c.config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(c.config.RequestsPerSecond), burst)
	}

	return c, nil
}

// BaseURL returns the backend base URL in use.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Chat sends one user message and returns the backend's reply text.
func (c *Client) Chat(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(ChatRequest{Message: text})
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: "chat", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, PathChat, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: "chat", Err: err}
	}
	req.Header.Set("Content-Type", jsonMediaType)

	var out ChatResponse
	if err := c.doJSON(req, "chat", &out); err != nil {
		return "", err
	}
	if out.Reply == nil {
		return "", &Error{Kind: KindParse, Op: "chat", Err: errors.New(`response has no "reply" field`)}
	}
	return *out.Reply, nil
}

// Upload submits a PDF as multipart form data in the "pdf" field. The
// backend keeps one document per session and overwrites any previous one.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreatePart(pdfPartHeader(filename))
	if err != nil {
		return &Error{Kind: KindTransport, Op: "upload", Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return &Error{Kind: KindTransport, Op: "upload", Err: fmt.Errorf("read document: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return &Error{Kind: KindTransport, Op: "upload", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, PathUpload, &buf)
	if err != nil {
		return &Error{Kind: KindTransport, Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.doAck(req, "upload")
}

// Remove asks the backend to drop the session's document.
func (c *Client) Remove(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, PathRemove, nil)
	if err != nil {
		return &Error{Kind: KindTransport, Op: "remove", Err: err}
	}
	return c.doAck(req, "remove")
}

// Status reports whether the backend holds a document for this session.
func (c *Client) Status(ctx context.Context) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, PathStatus, nil)
	if err != nil {
		return false, &Error{Kind: KindTransport, Op: "status", Err: err}
	}

	var out StatusResponse
	if err := c.doJSON(req, "status", &out); err != nil {
		return false, err
	}
	if out.HasPDF == nil {
		return false, &Error{Kind: KindParse, Op: "status", Err: errors.New(`response has no "has_pdf" field`)}
	}
	return *out.HasPDF, nil
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	return req, nil
}

// do sends req and returns the response when its status is 2xx. Any other
// outcome is a transport error; the response body is drained and closed.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, &Error{Kind: KindTransport, Op: op, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			zap.String("op", op), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}

	c.logger.Debug("backend request",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Kind:       KindTransport,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, op string, out any) error {
	req.Header.Set("Accept", jsonMediaType)
	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindParse, Op: op, Err: err}
	}
	return nil
}

func (c *Client) doAck(req *http.Request, op string) error {
	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func pdfPartHeader(filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", PDFMediaType)
	return h
}
