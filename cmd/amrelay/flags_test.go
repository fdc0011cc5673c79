package main

import (
	"slices"
	"strings"
	"testing"
)

func TestVersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.HasPrefix(out, "amrelay ") {
		t.Fatalf("unexpected version output: %s", out)
	}
}

func TestRootRejectsPositionalArgs(t *testing.T) {
	out, err := executeCommand(t, "ሰላም")
	if err == nil {
		t.Fatalf("expected an error for a bare positional argument")
	}
	if !strings.Contains(out, "unknown command") {
		t.Fatalf("expected unknown command, got: %s", out)
	}
}

func TestLogFormatFlag(t *testing.T) {
	if _, err := executeCommand(t, "--log-format", "xml", "languages"); err == nil {
		t.Fatalf("expected invalid log format error")
	}
	out, err := executeCommand(t, "--log-format", "json", "languages")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Amharic") || !strings.Contains(out, "id=3") {
		t.Fatalf("unexpected languages output: %s", out)
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	_, err := executeCommand(t, "ask")
	if err == nil {
		t.Fatalf("expected error without a question")
	}
}

func TestChangedFlags(t *testing.T) {
	root := newRootCmd()
	sub, rest, err := root.Find([]string{"translate", "--debug", "--target", "am", "hello"})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if err := sub.ParseFlags(rest); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := changedFlags(sub)
	slices.Sort(got)
	if !slices.Equal(got, []string{"debug", "target"}) {
		t.Fatalf("changedFlags = %v", got)
	}
}
