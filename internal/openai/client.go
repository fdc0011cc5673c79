// Package openai answers questions through an OpenAI-compatible chat
// completion endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/oukeidos/amrelay/internal/answer"
	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/logger"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = gopenai.GPT4oMini
)

type Client struct {
	client       *gopenai.Client
	model        string
	systemPrompt string
}

// NewClient creates a chat client. Empty baseURL and model take the
// defaults; a nil httpClient leaves go-openai's own client in place.
func NewClient(apiKey, baseURL, model string, httpClient *http.Client) *Client {
	cfg := gopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	} else {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: gopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// SetSystemInstruction sets the system message sent before each question.
func (c *Client) SetSystemInstruction(prompt string) {
	c.systemPrompt = strings.TrimSpace(prompt)
}

func (c *Client) Name() string {
	return "openai"
}

func (c *Client) Answer(ctx context.Context, question string) (string, error) {
	messages := make([]gopenai.ChatCompletionMessage, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, gopenai.ChatCompletionMessage{
			Role:    gopenai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	messages = append(messages, gopenai.ChatCompletionMessage{
		Role:    gopenai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", classifyOpenAIError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.Upstream(errors.New("openai: response has no choices"))
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", apperrors.Upstream(fmt.Errorf("openai: empty content (finish_reason=%s)", resp.Choices[0].FinishReason))
	}

	logger.FromContext(ctx).Debug("OpenAI chat completion",
		"model", c.model, "response_id", resp.ID, "usage_total", resp.Usage.TotalTokens)
	return content, nil
}

func classifyOpenAIError(ctx context.Context, err error) error {
	var apiErr *gopenai.APIError
	if errors.As(err, &apiErr) {
		cause := fmt.Errorf("openai status=%d type=%s code=%v message=%s", apiErr.HTTPStatusCode, apiErr.Type, apiErr.Code, apiErr.Message)
		return classifyStatus(apiErr.HTTPStatusCode, isOpenAIModelNotFound(apiErr), cause)
	}
	var reqErr *gopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		cause := fmt.Errorf("openai status=%s: %w", reqErr.HTTPStatus, reqErr.Err)
		return classifyStatus(reqErr.HTTPStatusCode, false, cause)
	}
	return answer.TransportError(ctx, err)
}

func classifyStatus(statusCode int, modelNotFound bool, cause error) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindUpstream,
			"OpenAI API rate limit exceeded (429): please try again later.", cause)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.New(apperrors.KindUpstream,
			fmt.Sprintf("OpenAI API authentication/authorization failed (%d).", statusCode), cause)
	case http.StatusNotFound:
		if modelNotFound {
			return apperrors.New(apperrors.KindUpstream,
				"The model does not exist or you do not have access to it.", cause)
		}
		return apperrors.New(apperrors.KindUpstream, "OpenAI resource not found (404).", cause)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.NewClientCaused(apperrors.KindUpstream,
			fmt.Sprintf("OpenAI API rejected the request (%d).", statusCode), cause)
	default:
		if statusCode >= 500 {
			return apperrors.New(apperrors.KindUpstream,
				fmt.Sprintf("OpenAI server error (%d): please try again later.", statusCode), cause)
		}
		return apperrors.New(apperrors.KindUpstream,
			fmt.Sprintf("OpenAI API error (%d).", statusCode), cause)
	}
}

func isOpenAIModelNotFound(apiErr *gopenai.APIError) bool {
	needle := strings.ToLower(fmt.Sprint(apiErr.Code) + " " + apiErr.Type + " " + apiErr.Message)
	if strings.Contains(needle, "model_not_found") {
		return true
	}
	return strings.Contains(needle, "does not exist or you do not have access to it")
}
