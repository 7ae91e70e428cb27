// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope every command prints under --json. Data is
// command specific; Error is null on success.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"` // RFC 3339, UTC
	Command   string      `json:"command,omitempty"`
}

func newEnvelope(command string) *JSONResponse {
	return &JSONResponse{
		Command:   command,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewJSONResponse wraps a successful result.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	r := newEnvelope(command)
	r.Success, r.Data = true, data
	return r
}

// NewJSONErrorResponse wraps a failure in its user-facing wording.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := userMessage(err)
	r := newEnvelope(command)
	r.Error = &msg
	return r
}

// Write prints the envelope as indented JSON.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// OutputJSON runs handler and, in JSON mode, prints its result or error
// as an envelope. Outside JSON mode the handler prints for itself. The
// handler's error is returned either way so the exit code reflects it.
func OutputJSON(w io.Writer, jsonMode bool, command string, handler func() (interface{}, error)) error {
	data, err := handler()
	switch {
	case !jsonMode:
	case err != nil:
		_ = NewJSONErrorResponse(command, err).Write(w)
	default:
		err = NewJSONResponse(command, data).Write(w)
	}
	return err
}
