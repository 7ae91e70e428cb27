// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

// =============================================================================
// WIRE TYPES
// =============================================================================

// Endpoint paths of the chat backend.
const (
	PathChat      = "/chat"
	PathUpload    = "/upload-pdf"
	PathStatus    = "/pdf-status"
	PathRemove    = "/remove-pdf"
	UploadField   = "pdf"
	PDFMediaType  = "application/pdf"
	jsonMediaType = "application/json"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /chat. Reply is a pointer so
// a missing field can be told apart from an empty reply.
type ChatResponse struct {
	Reply *string `json:"reply"`
}

// StatusResponse is the body returned by GET /pdf-status.
type StatusResponse struct {
	HasPDF *bool `json:"has_pdf"`
}
