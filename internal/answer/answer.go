// Package answer defines the answer provider contract and the plain HTTP
// provider that posts {question} and expects {answer}.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/httpclient"
	"github.com/oukeidos/amrelay/internal/logger"
)

// Provider answers an English question with English text.
type Provider interface {
	Name() string
	Answer(ctx context.Context, question string) (string, error)
}

type request struct {
	Question string `json:"question"`
}

type response struct {
	Answer *string `json:"answer"`
}

// HTTPProvider calls a single endpoint with POST {"question": ...}.
type HTTPProvider struct {
	url    string
	client *http.Client
}

func NewHTTPProvider(url string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = httpclient.NewClient(httpclient.DefaultTimeout)
	}
	return &HTTPProvider{url: url, client: client}
}

func (p *HTTPProvider) Name() string {
	return "http"
}

func (p *HTTPProvider) Answer(ctx context.Context, question string) (string, error) {
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, p.url, request{Question: question})
	if err != nil {
		return "", apperrors.Upstream(fmt.Errorf("answer: failed to create request: %w", err))
	}
	body, resp, err := httpclient.DoAndRead(p.client, req)
	if err != nil {
		return "", TransportError(ctx, err)
	}
	if !httpclient.IsSuccess(resp) {
		msg := fmt.Sprintf("Answer service returned an error (%d).", resp.StatusCode)
		cause := fmt.Errorf("answer: status %s", resp.Status)
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
			return "", apperrors.NewClientCaused(apperrors.KindUpstream, msg, cause)
		}
		return "", apperrors.New(apperrors.KindUpstream, msg, cause)
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.Upstream(fmt.Errorf("answer: failed to decode response: %w", err))
	}
	if out.Answer == nil {
		return "", apperrors.Upstream(errors.New("answer: response has no answer field"))
	}
	if strings.TrimSpace(*out.Answer) == "" {
		return "", apperrors.Upstream(errors.New("answer: response answer is empty"))
	}

	logger.FromContext(ctx).Debug("Answer received", "provider", p.Name(), "bytes", len(*out.Answer))
	return *out.Answer, nil
}

// TransportError classifies a failed round trip to an answer provider.
func TransportError(ctx context.Context, err error) error {
	wrapped := fmt.Errorf("answer: %w", err)
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Canceled(wrapped)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.New(apperrors.KindTimeout, "Answer service timed out.", wrapped)
	}
	return apperrors.New(apperrors.KindNetwork, "Answer service is unreachable.", wrapped)
}
