// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by tensorchat components.
//
// The terminal UI owns stdout, so interactive sessions log to a file under
// the config directory. One-shot commands may log to stderr.
//
// # Usage
//
//	logger, err := logging.New(logging.Options{Level: "info", File: path})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
package logging
