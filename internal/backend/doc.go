// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP session transport for the chat backend.
//
// Every operation is a single request/response round trip. The session is
// identified by an opaque cookie that the client's jar stores and replays;
// nothing in this package reads or constructs it.
//
// # Endpoints
//
//   - POST /chat        {"message": text} -> {"reply": text}
//   - POST /upload-pdf  multipart form, field "pdf"
//   - GET  /pdf-status  -> {"has_pdf": bool}
//   - POST /remove-pdf
//
// # Errors
//
// All failures are *Error values. KindTransport covers network failures
// and non-2xx statuses; KindParse covers bodies that are not the expected
// JSON. Use IsTransport and IsParse to branch on them.
//
// # Usage
//
//	client, err := backend.NewClient(&backend.ClientConfig{BaseURL: "http://localhost:5001"})
//	if err != nil {
//	    return err
//	}
//	reply, err := client.Chat(ctx, "What is in the document?")
//	if backend.IsParse(err) {
//	    // the server answered, but not with {"reply": ...}
//	}
package backend
