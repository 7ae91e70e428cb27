// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI
// and the line REPL.
//
// Commands resolve to an Action; each frontend decides how to carry the
// action out against the session controller.
//
// # Key Types
//
//   - Registry: built-in commands and their aliases
//   - Parser: splits input into a command and arguments
//   - Completer: tab completion for command names and PDF paths
//
// # Usage
//
//	parser := commands.NewParser(commands.NewRegistry())
//	res := parser.Parse("/upload ~/Downloads/report.pdf")
//	if res.Error != nil {
//	    return res.Error
//	}
//	switch res.Action() {
//	case commands.ActionUpload:
//	    err = ctrl.Intake(ctx, res.Arg(0))
//	}
package commands
