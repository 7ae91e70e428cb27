// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tensorchat.
//
// Configuration is TOML with sensible defaults, a .env file, environment
// variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Where the chat backend lives and how to pace it
//   - AttachmentConfig: Document size limit and inbox directory
//   - StorageConfig: Transcript and archive locations
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TENSORCHAT_*)
//   - .env in the working directory
//   - ~/.tensorchat/config.toml (or $TENSORCHAT_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	limit, _ := cfg.Attachment.MaxSizeBytes()
//	delay := time.Duration(cfg.Chat.ReplyDelayMs) * time.Millisecond
package config
