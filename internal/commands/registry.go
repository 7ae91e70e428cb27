// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"

	"github.com/jeranaias/tensorchat/internal/util"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Action identifies what a slash command asks the frontend to do. The TUI
// and the line REPL each map actions onto the session controller.
type Action int

const (
	ActionNone   Action = iota
	ActionUpload        // attach the PDF at Args[0]
	ActionRemove        // detach the current document
	ActionStatus        // reconcile the attachment with the backend
	ActionClear         // reset the conversation
	ActionSave          // save a transcript
	ActionHelp          // show the command list
	ActionQuit          // leave the session
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionUpload:
		return "upload"
	case ActionRemove:
		return "remove"
	case ActionStatus:
		return "status"
	case ActionClear:
		return "clear"
	case ActionSave:
		return "save"
	case ActionHelp:
		return "help"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command.
type Command struct {
	// Name is the primary command name (e.g., "/upload")
	Name string

	// Aliases are alternative names (e.g., "/attach")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/upload <file.pdf>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Action is what the frontend should do
	Action Action
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeFile                  // PDF file path
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry looks commands up by name or alias.
type Registry struct {
	cmds   []*Command
	lookup map[string]*Command // names and aliases, lower case
}

// NewRegistry creates a registry with the built-in commands.
func NewRegistry() *Registry {
	r := &Registry{lookup: make(map[string]*Command)}
	for i := range builtins {
		cmd := builtins[i]
		r.Register(&cmd)
	}
	return r
}

// Register adds cmd, replacing any command of the same name. Aliases
// shadow earlier ones.
func (r *Registry) Register(cmd *Command) {
	if old := r.lookup[strings.ToLower(cmd.Name)]; old != nil && old.Name == cmd.Name {
		for i, c := range r.cmds {
			if c == old {
				r.cmds = append(r.cmds[:i], r.cmds[i+1:]...)
				break
			}
		}
	}
	r.cmds = append(r.cmds, cmd)
	for _, key := range append([]string{cmd.Name}, cmd.Aliases...) {
		r.lookup[strings.ToLower(key)] = cmd
	}
}

// Get finds a command by name or alias, ignoring case. It returns nil for
// unknown names.
func (r *Registry) Get(name string) *Command {
	return r.lookup[strings.ToLower(name)]
}

// All returns the commands sorted by name.
func (r *Registry) All() []*Command {
	out := append([]*Command(nil), r.cmds...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every name and alias, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.lookup))
	for key := range r.lookup {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// HelpText renders the command list, one command per line.
func (r *Registry) HelpText() string {
	var sb strings.Builder
	for _, cmd := range r.All() {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		sb.WriteString("  " + util.PadRight(usage, 20) + " " + cmd.Description + "\n")
	}
	sb.WriteString("\nDrop or paste a path to a .pdf file to attach it.\n")
	return sb.String()
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

var builtins = []Command{
	{
		Name:        "/upload",
		Aliases:     []string{"/attach"},
		Description: "Attach a PDF for answers to draw on",
		Usage:       "/upload <file.pdf>",
		Args:        []ArgDef{{Name: "file", Required: true, Type: ArgTypeFile, Description: "path to a PDF file"}},
		Action:      ActionUpload,
	},
	{Name: "/remove", Aliases: []string{"/detach"}, Description: "Remove the attached document", Action: ActionRemove},
	{Name: "/status", Description: "Check whether the backend holds a document", Action: ActionStatus},
	{Name: "/clear", Aliases: []string{"/new"}, Description: "Start a new conversation", Action: ActionClear},
	{Name: "/save", Aliases: []string{"/s"}, Description: "Save the conversation transcript", Action: ActionSave},
	{Name: "/help", Aliases: []string{"/h", "/?"}, Description: "Show available commands", Action: ActionHelp},
	{Name: "/quit", Aliases: []string{"/q", "/exit"}, Description: "Exit tensorchat", Action: ActionQuit},
}
