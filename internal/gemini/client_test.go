package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/amrelay/internal/apperrors"
	"google.golang.org/api/googleapi"
)

type fakeGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	gotParts []genai.Part
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.gotParts = parts
	return f.resp, f.err
}

func newTestClient(gen generator) *Client {
	return &Client{generator: gen, modelName: "test-model", callTimeout: time.Second}
}

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
		UsageMetadata: &genai.UsageMetadata{TotalTokenCount: 5},
	}
}

func TestClient_Answer(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(genai.Text("hi "), genai.Text("there"))}
	c := newTestClient(gen)

	got, err := c.Answer(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi there" {
		t.Fatalf("expected %q, got %q", "hi there", got)
	}
	if len(gen.gotParts) != 1 || gen.gotParts[0] != genai.Text("hello") {
		t.Fatalf("unexpected parts: %v", gen.gotParts)
	}
	if c.Name() != "gemini" {
		t.Fatalf("unexpected name %q", c.Name())
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close without client: %v", err)
	}
}

func TestClient_Answer_NoText(t *testing.T) {
	c := newTestClient(&fakeGenerator{resp: &genai.GenerateContentResponse{}})
	_, err := c.Answer(context.Background(), "hello")
	if !apperrors.Is(err, apperrors.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClient_Answer_APIError(t *testing.T) {
	c := newTestClient(&fakeGenerator{err: &googleapi.Error{Code: 429}})
	_, err := c.Answer(context.Background(), "hello")
	if !apperrors.Is(err, apperrors.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestExtractResponseText(t *testing.T) {
	t.Run("NilResponse", func(t *testing.T) {
		_, err := extractResponseText(nil)
		if err == nil || err.Error() != "no response received from Gemini" {
			t.Fatalf("expected nil response error, got: %v", err)
		}
	})

	t.Run("EmptyCandidates", func(t *testing.T) {
		_, err := extractResponseText(&genai.GenerateContentResponse{})
		if err == nil || err.Error() != "no candidates returned from Gemini" {
			t.Fatalf("expected empty candidates error, got: %v", err)
		}
	})

	t.Run("NoParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: nil}},
			},
		}
		_, err := extractResponseText(resp)
		if err == nil || err.Error() != "no text parts found in Gemini response" {
			t.Fatalf("expected no text parts error, got: %v", err)
		}
	})

	t.Run("NonTextParts", func(t *testing.T) {
		resp := textResponse(genai.Blob{MIMEType: "application/octet-stream", Data: []byte{0x01}})
		_, err := extractResponseText(resp)
		if err == nil || err.Error() != "no text parts found in Gemini response" {
			t.Fatalf("expected no text parts error, got: %v", err)
		}
	})

	t.Run("SecondCandidate", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("two")}}},
			},
		}
		text, err := extractResponseText(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "two" {
			t.Fatalf("expected second candidate text, got: %q", text)
		}
	})
}

// stalledGenerator never answers before its context ends.
type stalledGenerator struct{}

func (stalledGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestClient_Answer_CallTimeout(t *testing.T) {
	c := &Client{generator: stalledGenerator{}, modelName: "test-model", callTimeout: 20 * time.Millisecond}

	_, err := c.Answer(context.Background(), "hello")
	if !apperrors.Is(err, apperrors.KindTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClient_Answer_CallerCanceled(t *testing.T) {
	c := &Client{generator: stalledGenerator{}, modelName: "test-model", callTimeout: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Answer(ctx, "hello")
	if !apperrors.Is(err, apperrors.KindCanceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}
