package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/oukeidos/amrelay/internal/apperrors"
)

// fakeCamb completes every job on the first poll using a fixed dictionary.
func fakeCamb(t *testing.T, dict map[string]string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	jobs := map[string]string{}
	next := 0

	mux := http.NewServeMux()
	mux.HandleFunc("POST /translate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Texts) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		next++
		id := fmt.Sprint(next)
		jobs[id] = req.Texts[0]
		mu.Unlock()
		fmt.Fprintf(w, `{"task_id":%q}`, id)
	})
	mux.HandleFunc("GET /translate/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"SUCCESS","run_id":%s}`, r.PathValue("id"))
	})
	mux.HandleFunc("GET /translation-result/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		text := jobs[r.PathValue("id")]
		mu.Unlock()
		out, ok := dict[text]
		if !ok {
			out = "?" + text
		}
		json.NewEncoder(w).Encode(map[string][]string{"texts": {out}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fakeAnswer(t *testing.T, answers map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if a, ok := answers[req.Question]; ok {
			json.NewEncoder(w).Encode(map[string]string{"answer": a})
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func relayEnv(t *testing.T, cambURL, answerURL string) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("TRANSLATION_PROVIDER", "camb")
	t.Setenv("CAMB_API_KEY", "test-key")
	t.Setenv("CAMB_BASE_URL", cambURL)
	t.Setenv("POLL_INTERVAL", "1ms")
	t.Setenv("POLL_MAX_WAIT", "5s")
	t.Setenv("ANSWER_PROVIDER", "http")
	t.Setenv("ANSWER_URL", answerURL)
	t.Setenv("BREAKER_FAILURES", "0")
}

func TestAsk_RoundTrip(t *testing.T) {
	camb := fakeCamb(t, map[string]string{
		"ሰላም":      "hello",
		"hi there": "ሰላም እንደምን አለህ",
	})
	answers := fakeAnswer(t, map[string]string{"hello": "hi there"})
	relayEnv(t, camb.URL, answers.URL)

	out, err := executeCommand(t, "ask", "ሰላም")
	if err != nil {
		t.Fatalf("command failed: %v (output: %s)", err, out)
	}
	if strings.TrimSpace(out) != "ሰላም እንደምን አለህ" {
		t.Fatalf("unexpected answer: %q", out)
	}
}

func TestAsk_MissingAnswerField(t *testing.T) {
	camb := fakeCamb(t, map[string]string{"ሰላም": "hello"})
	answers := fakeAnswer(t, nil)
	relayEnv(t, camb.URL, answers.URL)

	_, err := executeCommand(t, "ask", "ሰላም")
	if !apperrors.Is(err, apperrors.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestAsk_RequiresAnswerURL(t *testing.T) {
	camb := fakeCamb(t, nil)
	relayEnv(t, camb.URL, "")

	_, err := executeCommand(t, "ask", "ሰላም")
	if err == nil || !strings.Contains(err.Error(), "ANSWER_URL is required") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestTranslateCommand(t *testing.T) {
	camb := fakeCamb(t, map[string]string{"hi there": "ሰላም እንደምን አለህ"})
	relayEnv(t, camb.URL, "")

	out, err := executeCommand(t, "translate", "--source", "en", "--target", "amharic", "hi", "there")
	if err != nil {
		t.Fatalf("command failed: %v (output: %s)", err, out)
	}
	if strings.TrimSpace(out) != "ሰላም እንደምን አለህ" {
		t.Fatalf("unexpected translation: %q", out)
	}
}

func TestTranslateCommand_InvalidLanguage(t *testing.T) {
	_, err := executeCommand(t, "translate", "--source", "klingon", "hi")
	if err == nil || !strings.Contains(err.Error(), "invalid --source") {
		t.Fatalf("expected language error, got %v", err)
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	relayEnv(t, "http://127.0.0.1:1", "")
	t.Setenv("CAMB_API_KEY", "")

	_, err := executeCommand(t, "serve", "--port", "0")
	if err == nil || !strings.Contains(err.Error(), "CAMB_API_KEY is required") {
		t.Fatalf("expected config error, got %v", err)
	}
}
