// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxCompletions caps the number of suggestions returned.
const maxCompletions = 20

// Completer handles tab completion for commands and file arguments.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns full-line candidates for input: command names while the
// name is being typed, then PDF paths and directories for file arguments.
func (c *Completer) Complete(input string) []string {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	name := ExtractCommandName(input)
	if name == input {
		var out []string
		for _, n := range c.registry.Names() {
			if strings.HasPrefix(n, strings.ToLower(input)) {
				out = append(out, n)
			}
		}
		return out
	}

	cmd := c.registry.Get(name)
	if cmd == nil || len(cmd.Args) == 0 || cmd.Args[0].Type != ArgTypeFile {
		return nil
	}

	partial := strings.TrimLeft(input[len(name):], " ")
	paths := completePDFPaths(partial)
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = name + " " + p
	}
	return out
}

// completePDFPaths lists directories and .pdf files matching partial.
func completePDFPaths(partial string) []string {
	dir := filepath.Dir(partial)
	prefix := filepath.Base(partial)
	if partial == "" || strings.HasSuffix(partial, string(os.PathSeparator)) {
		dir = partial
		prefix = ""
	}
	readDir := dir
	if readDir == "" {
		readDir = "."
	}

	entries, err := os.ReadDir(readDir)
	if err != nil {
		return nil
	}

	lowerPrefix := strings.ToLower(prefix)
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		// Skip hidden files unless asked for.
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if !entry.IsDir() && !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}

		path := name
		if dir != "" && dir != "." {
			path = filepath.Join(dir, name)
		} else if dir == "." && strings.HasPrefix(partial, "."+string(os.PathSeparator)) {
			path = "." + string(os.PathSeparator) + name
		}
		if entry.IsDir() {
			path += string(os.PathSeparator)
		}
		out = append(out, path)
	}

	sort.Strings(out)
	if len(out) > maxCompletions {
		out = out[:maxCompletions]
	}
	return out
}
