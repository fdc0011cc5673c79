package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/httpclient"
	"github.com/oukeidos/amrelay/internal/logger"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.0-flash"

// generator is the part of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client answers questions with a Gemini model.
type Client struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	generator   generator
	modelName   string
	// callTimeout bounds one GenerateContent call.
	callTimeout time.Duration
}

// NewClient creates a new Gemini client. A non-positive callTimeout falls
// back to httpclient.DefaultTimeout.
func NewClient(ctx context.Context, apiKey string, modelName string, callTimeout time.Duration) (*Client, error) {
	// option.WithHTTPClient drops the API key header the genai library
	// injects, so the per-call timeout is applied through the context.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if callTimeout <= 0 {
		callTimeout = httpclient.DefaultTimeout
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "text/plain"

	return &Client{
		client:      client,
		model:       model,
		generator:   model,
		modelName:   modelName,
		callTimeout: callTimeout,
	}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// SetSystemInstruction sets the system prompt for the model.
func (c *Client) SetSystemInstruction(prompt string) {
	if c.model == nil || strings.TrimSpace(prompt) == "" {
		return
	}
	c.model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt)},
	}
}

func (c *Client) Name() string {
	return "gemini"
}

// Answer sends the question as a single text part and returns the text of
// the first candidate that has any.
func (c *Client) Answer(ctx context.Context, question string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(callCtx, genai.Text(question))
	if err != nil {
		return "", classifyGeminiError(callCtx, err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return "", apperrors.Upstream(err)
	}

	if resp.UsageMetadata != nil {
		logger.FromContext(ctx).Debug("Gemini response",
			"model", c.modelName, "usage_total", resp.UsageMetadata.TotalTokenCount)
	}
	return text, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined strings.Builder
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined.WriteString(string(text))
		}
		if strings.TrimSpace(combined.String()) != "" {
			return combined.String(), nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
