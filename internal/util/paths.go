// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// CleanDroppedPath normalizes a path pasted into a terminal by a
// drag-and-drop: surrounding whitespace and quotes are removed, a file://
// prefix is stripped, and backslash-escaped spaces are unescaped.
func CleanDroppedPath(raw string) string {
	p := strings.TrimSpace(raw)
	if len(p) >= 2 {
		if (p[0] == '\'' && p[len(p)-1] == '\'') || (p[0] == '"' && p[len(p)-1] == '"') {
			p = p[1 : len(p)-1]
		}
	}
	p = strings.TrimPrefix(p, "file://")
	if filepath.Separator == '/' {
		p = strings.ReplaceAll(p, `\ `, " ")
	}
	return ExpandHome(p)
}

// LooksLikePDFPath reports whether input is a single path to an existing
// regular file with a .pdf extension.
func LooksLikePDFPath(input string) (string, bool) {
	if strings.Contains(strings.TrimSpace(input), "\n") {
		return "", false
	}
	p := CleanDroppedPath(input)
	if !strings.EqualFold(filepath.Ext(p), ".pdf") {
		return "", false
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}
