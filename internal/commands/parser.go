// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	// CommandName is the raw command name (e.g., "/upload")
	CommandName string

	// Args are the parsed arguments
	Args []string

	// RawArgs is the unparsed arguments portion
	RawArgs string

	// Error is set when the command is unknown or misses an argument
	Error error
}

// Action returns the parsed command's action, or ActionNone.
func (r ParseResult) Action() Action {
	if r.Command == nil || r.Error != nil {
		return ActionNone
	}
	return r.Command.Action
}

// Arg returns argument i, or "".
func (r ParseResult) Arg(i int) string {
	if i < 0 || i >= len(r.Args) {
		return ""
	}
	return r.Args[i]
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands and their arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Registry returns the parser's registry.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Parse parses user input. IsCommand is false when the input doesn't start
// with "/".
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)

	var result ParseResult
	if !strings.HasPrefix(input, "/") {
		return result
	}
	result.IsCommand = true

	name := ExtractCommandName(input)
	result.CommandName = name
	result.RawArgs = strings.TrimSpace(input[len(name):])
	result.Args = splitCommandLine(result.RawArgs)

	result.Command = p.registry.Get(name)
	if result.Command == nil {
		result.Error = &UnknownCommandError{Name: name}
		return result
	}
	// A file argument keeps its spaces so unquoted dropped paths work.
	if len(result.Command.Args) == 1 && result.Command.Args[0].Type == ArgTypeFile && result.RawArgs != "" {
		result.Args = []string{result.RawArgs}
	}
	result.Error = ValidateArgs(result.Command, result.Args)
	return result
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits on unquoted whitespace. Quotes group words and
// are dropped; inside quotes a backslash escapes a quote or a backslash.
// An empty quoted string is kept as an empty token.
func splitCommandLine(input string) []string {
	var (
		tokens []string
		tok    strings.Builder
		quote  rune
		open   bool
	)
	flush := func() {
		if open {
			tokens = append(tokens, tok.String())
			tok.Reset()
			open = false
		}
	}

	rs := []rune(input)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case quote != 0 && r == '\\' && i+1 < len(rs) && strings.ContainsRune(`"'\`, rs[i+1]):
			i++
			tok.WriteRune(rs[i])
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote, open = r, true
		case quote == 0 && unicode.IsSpace(r):
			flush()
		default:
			tok.WriteRune(r)
			open = true
		}
	}
	flush()
	return tokens
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName extracts just the command name from input.
// e.g., "/upload report.pdf" -> "/upload"
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		return input
	}
	return input[:end]
}

// ValidateArgs checks that required arguments are present.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}
	for i, argDef := range cmd.Args {
		if argDef.Required && i >= len(args) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      argDef.Name,
				Message:  "required argument missing",
				Expected: argDef.Description,
			}
		}
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// UnknownCommandError is returned for a slash command that doesn't exist.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %s (try /help)", e.Name)
}

// ValidationError represents an argument validation error.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Expected != "" {
		msg += " - expected: " + e.Expected
	}
	return msg
}
