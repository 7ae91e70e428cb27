// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/backend"
)

// SessionCookie is the cookie that carries the session ID.
const SessionCookie = "session"

const sessionKey = "tensorchat.session"

// Config configures the reference backend.
type Config struct {
	// AllowedOrigins lists CORS origins; "*" allows any origin.
	AllowedOrigins []string
	// MaxUploadSize bounds an uploaded PDF in bytes.
	MaxUploadSize int64
	// HistoryWindow is how many exchanges each session remembers.
	HistoryWindow int
	// SessionIdleTTL drops sessions idle for longer; zero keeps them.
	SessionIdleTTL time.Duration
	// Responder answers chat messages. Nil uses EchoResponder.
	Responder Responder
}

// DefaultConfig returns the default reference backend configuration.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		MaxUploadSize:  25 << 20,
		HistoryWindow:  DefaultHistoryWindow,
		SessionIdleTTL: 24 * time.Hour,
		Responder:      EchoResponder{},
	}
}

// Server is a small in-memory implementation of the chat backend.
type Server struct {
	cfg      Config
	engine   *gin.Engine
	sessions *SessionStore
	logger   *zap.Logger
}

// New builds the server and its routes.
func New(cfg Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Responder == nil {
		cfg.Responder = EchoResponder{}
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultConfig().MaxUploadSize
	}

	corsConfig, err := corsConfigFor(cfg.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		sessions: NewSessionStore(cfg.HistoryWindow, cfg.SessionIdleTTL),
		logger:   logger.Named("devserver"),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(cors.New(corsConfig))

	router.GET("/health", s.handleHealth)

	api := router.Group("/", s.sessionMiddleware())
	{
		api.POST(backend.PathChat, s.handleChat)
		api.POST(backend.PathUpload, s.handleUpload)
		api.GET(backend.PathStatus, s.handleStatus)
		api.POST(backend.PathRemove, s.handleRemove)
	}

	s.engine = router
	return s, nil
}

func corsConfigFor(origins []string) (cors.Config, error) {
	cc := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}

	all := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			all = true
		}
	}
	if all {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
		cc.AllowCredentials = true
	}

	if err := cc.Validate(); err != nil {
		return cors.Config{}, fmt.Errorf("invalid allowed origins: %w", err)
	}
	return cc, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Sessions returns the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// sessionMiddleware attaches the cookie's session, creating one when the
// cookie is missing or unknown.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(SessionCookie)
		sess := s.sessions.Get(id)
		if sess == nil {
			sess = s.sessions.Create()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func sessionFrom(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}
