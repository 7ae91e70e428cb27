// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is an in-memory reference implementation of the chat
// backend HTTP contract, served with gin.
//
// Each browser or client gets a session through an HttpOnly "session"
// cookie. A session remembers its recent exchanges and holds at most one
// PDF. Replies come from a Responder; the default echoes the message and
// names the attached document, which is enough to exercise every client
// path without a language model.
//
// # Key Types
//
//   - Server: gin engine with the /chat, /upload-pdf, /pdf-status and
//     /remove-pdf routes plus /health
//   - SessionStore: cookie-keyed sessions with an idle TTL
//   - Responder: pluggable reply source
//
// # Usage
//
//	srv, err := devserver.New(devserver.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx, ":5001")
package devserver
