// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeranaias/tensorchat/internal/backend"
)

// multipartOverhead is allowed on top of MaxUploadSize for form framing.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"sessions":  s.sessions.Len(),
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req backend.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty message"})
		return
	}

	sess := sessionFrom(c)
	reply, err := s.cfg.Responder.Respond(c.Request.Context(), Request{
		Message:  message,
		History:  sess.History(),
		Document: sess.Document(),
	})
	if err != nil {
		s.logger.Error("responder failed", zap.String("session", sess.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sess.Remember(message, reply)

	c.JSON(http.StatusOK, gin.H{
		"reply":     reply,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadSize+multipartOverhead)

	fh, err := c.FormFile(backend.UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return
	}
	if fh.Size > s.cfg.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, s.cfg.MaxUploadSize+1)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	if int64(buf.Len()) > s.cfg.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}
	if mt := mimetype.Detect(buf.Bytes()); !mt.Is(backend.PDFMediaType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Only PDF files are accepted, got " + mt.String()})
		return
	}

	doc := &Document{
		Name:       filepath.Base(fh.Filename),
		Size:       int64(buf.Len()),
		Data:       buf.Bytes(),
		UploadedAt: time.Now(),
	}
	sess := sessionFrom(c)
	sess.SetDocument(doc)
	s.logger.Info("pdf uploaded",
		zap.String("session", sess.ID),
		zap.String("file", doc.Name),
		zap.Int64("size", doc.Size),
	)

	c.JSON(http.StatusOK, gin.H{
		"message":  "PDF uploaded successfully",
		"filename": doc.Name,
		"size":     doc.Size,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"has_pdf": sessionFrom(c).Document() != nil})
}

func (s *Server) handleRemove(c *gin.Context) {
	sess := sessionFrom(c)
	removed := sess.ClearDocument()
	if removed {
		s.logger.Info("pdf removed", zap.String("session", sess.ID))
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
