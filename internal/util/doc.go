// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across tensorchat packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width safe truncation
//   - StringWidth, PadRight: Display-cell measurement via go-runewidth
//   - FirstLine: First non-empty line of a block of text
//
// Path Utilities:
//   - ExpandHome: "~" expansion
//   - CleanDroppedPath: Normalize a path pasted by terminal drag-and-drop
//   - LooksLikePDFPath: Detect a lone path to an existing PDF
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	display := util.TruncateWidth(longText, 50)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
