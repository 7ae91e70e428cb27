// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRegistry_GetByNameAndAlias(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		input  string
		action Action
	}{
		{"/upload", ActionUpload},
		{"/attach", ActionUpload},
		{"/remove", ActionRemove},
		{"/detach", ActionRemove},
		{"/status", ActionStatus},
		{"/clear", ActionClear},
		{"/new", ActionClear},
		{"/save", ActionSave},
		{"/s", ActionSave},
		{"/help", ActionHelp},
		{"/?", ActionHelp},
		{"/QUIT", ActionQuit},
		{"/exit", ActionQuit},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := r.Get(tt.input)
			if cmd == nil {
				t.Fatalf("Get(%q) = nil", tt.input)
			}
			if cmd.Action != tt.action {
				t.Errorf("Get(%q).Action = %v, want %v", tt.input, cmd.Action, tt.action)
			}
		})
	}

	if r.Get("/nope") != nil {
		t.Error("Get(/nope) should be nil")
	}
}

func TestRegistry_AllSorted(t *testing.T) {
	all := NewRegistry().All()
	if len(all) != 7 {
		t.Fatalf("All() returned %d commands, want 7", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Errorf("All() not sorted: %s before %s", all[i-1].Name, all[i].Name)
		}
	}
}

func TestRegistry_HelpText(t *testing.T) {
	help := NewRegistry().HelpText()
	for _, want := range []string{"/upload <file.pdf>", "/remove", "/quit", ".pdf"} {
		if !strings.Contains(help, want) {
			t.Errorf("HelpText() missing %q", want)
		}
	}
}

func TestAction_String(t *testing.T) {
	if ActionUpload.String() != "upload" || ActionNone.String() != "none" {
		t.Errorf("unexpected action names: %s %s", ActionUpload, ActionNone)
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	tests := []struct {
		name      string
		input     string
		isCommand bool
		action    Action
		args      []string
	}{
		{"plain text", "hello there", false, ActionNone, nil},
		{"bare command", "/status", true, ActionStatus, nil},
		{"padded", "  /remove  ", true, ActionRemove, nil},
		{"upload path", "/upload report.pdf", true, ActionUpload, []string{"report.pdf"}},
		{"upload path with spaces", "/upload My Papers/q3 report.pdf", true, ActionUpload, []string{"My Papers/q3 report.pdf"}},
		{"alias", "/attach a.pdf", true, ActionUpload, []string{"a.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.input)
			if res.IsCommand != tt.isCommand {
				t.Fatalf("IsCommand = %v, want %v", res.IsCommand, tt.isCommand)
			}
			if res.Error != nil {
				t.Fatalf("Error = %v", res.Error)
			}
			if res.Action() != tt.action {
				t.Errorf("Action() = %v, want %v", res.Action(), tt.action)
			}
			if !reflect.DeepEqual(res.Args, tt.args) {
				t.Errorf("Args = %q, want %q", res.Args, tt.args)
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse("/frobnicate now")
	var unknown *UnknownCommandError
	if !errors.As(res.Error, &unknown) {
		t.Fatalf("Error = %v, want UnknownCommandError", res.Error)
	}
	if unknown.Name != "/frobnicate" {
		t.Errorf("Name = %q", unknown.Name)
	}
	if res.Action() != ActionNone {
		t.Errorf("Action() = %v, want none", res.Action())
	}

	res = p.Parse("/upload")
	var verr *ValidationError
	if !errors.As(res.Error, &verr) {
		t.Fatalf("Error = %v, want ValidationError", res.Error)
	}
	if verr.Arg != "file" {
		t.Errorf("Arg = %q, want file", verr.Arg)
	}
	if !strings.Contains(verr.Error(), "/upload") {
		t.Errorf("Error() = %q", verr.Error())
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a b  c", []string{"a", "b", "c"}},
		{`"my file.pdf" other`, []string{"my file.pdf", "other"}},
		{`'single quoted'`, []string{"single quoted"}},
		{`"say \"hi\""`, []string{`say "hi"`}},
	}
	for _, tt := range tests {
		if got := splitCommandLine(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitCommandLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := map[string]string{
		"/upload a.pdf": "/upload",
		"/help":         "/help",
		"hello":         "",
		"  /q  ":        "/q",
	}
	for in, want := range tests {
		if got := ExtractCommandName(in); got != want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompleter_CommandNames(t *testing.T) {
	c := NewCompleter(NewRegistry())

	got := c.Complete("/re")
	if !reflect.DeepEqual(got, []string{"/remove"}) {
		t.Errorf("Complete(/re) = %q", got)
	}
	if got := c.Complete("hello"); got != nil {
		t.Errorf("Complete(hello) = %q, want nil", got)
	}
	if got := c.Complete("/status "); got != nil {
		t.Errorf("Complete(/status ) = %q, want nil", got)
	}
}

func TestCompleter_PDFPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report.pdf", "REPLY.PDF", "notes.txt", ".hidden.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "reports"), 0700); err != nil {
		t.Fatal(err)
	}

	c := NewCompleter(NewRegistry())
	got := c.Complete("/upload " + filepath.Join(dir, "re"))
	want := []string{
		"/upload " + filepath.Join(dir, "REPLY.PDF"),
		"/upload " + filepath.Join(dir, "report.pdf"),
		"/upload " + filepath.Join(dir, "reports") + string(os.PathSeparator),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Complete() = %q, want %q", got, want)
	}

	all := c.Complete("/attach " + dir + string(os.PathSeparator))
	for _, s := range all {
		if strings.HasSuffix(s, ".txt") || strings.Contains(s, ".hidden") {
			t.Errorf("unexpected completion %q", s)
		}
	}
	if len(all) != 3 {
		t.Errorf("Complete(dir/) = %q, want 3 entries", all)
	}
}
