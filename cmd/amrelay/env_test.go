package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oukeidos/amrelay/internal/prompt"
)

type keyStubs struct {
	promptCalls int
	saveCalls   []string
	deleteCalls []string
	envCalls    int
}

func withKeyStubs(t *testing.T, terminal bool, status bool, envKey, promptVal string) *keyStubs {
	t.Helper()
	stubs := &keyStubs{}

	prevTerminal := isTerminal
	prevStatus := getStatus
	prevEnv := getEnvKey
	prevPrompt := promptForKey
	prevSave := saveKey
	prevDelete := deleteKey

	isTerminal = func(_ int) bool { return terminal }
	getStatus = func(_ string) bool { return status }
	getEnvKey = func(_ string) (string, bool) {
		stubs.envCalls++
		if envKey == "" {
			return "", false
		}
		return envKey, true
	}
	promptForKey = func(_ string) (string, error) {
		stubs.promptCalls++
		return promptVal, nil
	}
	saveKey = func(service, _ string) error {
		stubs.saveCalls = append(stubs.saveCalls, service)
		return nil
	}
	deleteKey = func(service string) error {
		stubs.deleteCalls = append(stubs.deleteCalls, service)
		return nil
	}

	t.Cleanup(func() {
		isTerminal = prevTerminal
		getStatus = prevStatus
		getEnvKey = prevEnv
		promptForKey = prevPrompt
		saveKey = prevSave
		deleteKey = prevDelete
	})
	return stubs
}

func withConfirmer(t *testing.T, interactive bool, input string) {
	t.Helper()
	prev := newConfirmer
	newConfirmer = func() prompt.Confirmer {
		return prompt.Confirmer{
			In:            strings.NewReader(input),
			Out:           &bytes.Buffer{},
			IsInteractive: func() bool { return interactive },
		}
	}
	t.Cleanup(func() { newConfirmer = prev })
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHandleEnv_StatusKeychain(t *testing.T) {
	withKeyStubs(t, false, true, "", "")

	out, err := executeCommand(t, "env", "status", "--service", "camb")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Found (source=Keychain") {
		t.Fatalf("expected keychain source, got: %s", out)
	}
}

func TestHandleEnv_StatusEnv(t *testing.T) {
	withKeyStubs(t, false, true, "sk-env-secret", "")

	out, err := executeCommand(t, "env", "status", "--service", "openai")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Found (source=Environment Variable OPENAI_API_KEY)") {
		t.Fatalf("expected env source, got: %s", out)
	}
	if strings.Contains(out, "sk-env-secret") {
		t.Fatalf("output leaked env key")
	}
}

func TestHandleEnv_StatusNotFound(t *testing.T) {
	withKeyStubs(t, false, false, "", "")

	out, err := executeCommand(t, "env", "--service", "gemini")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Not Found") {
		t.Fatalf("expected not found, got: %s", out)
	}
}

func TestHandleEnv_InvalidService(t *testing.T) {
	withKeyStubs(t, false, false, "", "")

	_, err := executeCommand(t, "env", "status", "--service", "deepl")
	if err == nil || !strings.Contains(err.Error(), "invalid service") {
		t.Fatalf("expected invalid service error, got %v", err)
	}
}

func TestHandleEnvSetup_RejectsPositionalAPIKey(t *testing.T) {
	out, err := executeCommand(t, "env", "setup", "sk-should-not-be-allowed", "--service", "openai")
	if err == nil {
		t.Fatalf("expected setup to reject positional API key argument")
	}
	if !strings.Contains(out, "unknown command") && !strings.Contains(out, "accepts 0 arg(s)") {
		t.Fatalf("expected positional-argument rejection error, got: %s", out)
	}
}

func TestHandleEnvSetup_Interactive(t *testing.T) {
	stubs := withKeyStubs(t, true, false, "", "camb-key")

	out, err := executeCommand(t, "env", "setup", "--service", "camb")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if stubs.promptCalls != 1 || len(stubs.saveCalls) != 1 || stubs.saveCalls[0] != "camb" {
		t.Fatalf("unexpected calls: %+v", stubs)
	}
	if !strings.Contains(out, "Saved camb API key") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestHandleEnvSetup_NonInteractive(t *testing.T) {
	stubs := withKeyStubs(t, false, false, "", "camb-key")

	_, err := executeCommand(t, "env", "setup", "--service", "camb")
	if err == nil || !strings.Contains(err.Error(), "CAMB_API_KEY") {
		t.Fatalf("expected non-interactive error naming the env var, got %v", err)
	}
	if stubs.promptCalls != 0 {
		t.Fatalf("prompt must not run without a terminal")
	}
}

func TestHandleEnvDelete(t *testing.T) {
	t.Run("forced", func(t *testing.T) {
		stubs := withKeyStubs(t, false, true, "", "")
		withConfirmer(t, false, "")

		out, err := executeCommand(t, "env", "delete", "-y", "--service", "gemini")
		if err != nil {
			t.Fatalf("command failed: %v", err)
		}
		if len(stubs.deleteCalls) != 1 || !strings.Contains(out, "Deleted gemini API key") {
			t.Fatalf("unexpected result: %+v %s", stubs, out)
		}
	})

	t.Run("declined", func(t *testing.T) {
		stubs := withKeyStubs(t, true, true, "", "")
		withConfirmer(t, true, "n\n")

		out, err := executeCommand(t, "env", "delete", "--service", "gemini")
		if err != nil {
			t.Fatalf("command failed: %v", err)
		}
		if len(stubs.deleteCalls) != 0 || !strings.Contains(out, "Aborted.") {
			t.Fatalf("unexpected result: %+v %s", stubs, out)
		}
	})

	t.Run("non-interactive without -y", func(t *testing.T) {
		stubs := withKeyStubs(t, false, true, "", "")
		withConfirmer(t, false, "")

		if _, err := executeCommand(t, "env", "delete", "--service", "gemini"); err == nil {
			t.Fatalf("expected error without -y on a non-interactive stdin")
		}
		if len(stubs.deleteCalls) != 0 {
			t.Fatalf("key must not be deleted")
		}
	})
}
