// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the tensorchat command line.
//
// The root command starts the full-screen chat, or a line-mode chat when
// stdin is not a terminal. Subcommands cover scripting (ask, upload,
// remove, status), saved conversations (history), the reference backend
// (devserver) and configuration (config).
//
// # Key Types
//
//   - App: flags, configuration and logger shared by one invocation
//   - Runtime: the backend client, session controller and storage for one session
//   - ChatCLI: line editing with persistent input history
//   - JSONResponse: the envelope printed by --json
//
// # Usage
//
//	os.Exit(cli.Execute())
//
// Exit codes follow ExitSuccess through ExitTimeoutError; GetExitCode maps
// an error to its code.
package cli
