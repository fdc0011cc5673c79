// Package cambai talks to the camb.ai translation job API: a job is
// submitted, polled until it reaches a terminal status, and its result is
// fetched by run id.
package cambai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/httpclient"
	"github.com/oukeidos/amrelay/internal/language"
	"github.com/oukeidos/amrelay/internal/logger"
)

const (
	DefaultBaseURL      = "https://client.camb.ai/apis"
	DefaultPollInterval = time.Second
	DefaultMaxWait      = 2 * time.Minute
	DefaultMaxAttempts  = 120
)

// Config configures a Client. Zero durations take the defaults above.
type Config struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	MaxWait      time.Duration
	// MaxAttempts caps the number of status polls. 0 leaves only the
	// MaxWait bound.
	MaxAttempts int
}

type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxWait      time.Duration
	maxAttempts  int
	client       *http.Client
}

// NewClient creates a client. A nil httpClient gets one with the default
// per-call timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = 0
	}
	if httpClient == nil {
		httpClient = httpclient.NewClient(httpclient.DefaultTimeout)
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		maxAttempts:  cfg.MaxAttempts,
		client:       httpClient,
	}
}

func (c *Client) Name() string {
	return "camb"
}

// Translate runs one job for text and returns the first translated text.
func (c *Client) Translate(ctx context.Context, text string, source, target language.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperrors.Validation("Text is required.")
	}

	taskID, err := c.submit(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	runID, err := c.wait(ctx, taskID)
	if err != nil {
		return "", err
	}
	return c.fetch(ctx, runID)
}

func (c *Client) submit(ctx context.Context, text string, source, target language.Language) (JobID, error) {
	payload := submitRequest{
		SourceLanguage: int(source.ID),
		TargetLanguage: int(target.ID),
		Texts:          []string{text},
	}
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, c.baseURL+"/translate", payload)
	if err != nil {
		return "", apperrors.Submission(err)
	}
	body, resp, err := c.do(req)
	if err != nil {
		return "", c.transportError(ctx, "submit", err)
	}
	if !httpclient.IsSuccess(resp) {
		return "", classifySubmitStatus(resp)
	}

	var out submitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.Submission(fmt.Errorf("submit: failed to decode response: %w", err))
	}
	if out.TaskID == "" {
		return "", apperrors.Submission(errors.New("submit: response has no task_id"))
	}

	logger.FromContext(ctx).Debug("Translation job submitted",
		"task_id", string(out.TaskID), "source", source.ID, "target", target.ID)
	return out.TaskID, nil
}

// wait polls the job until it is terminal. The loop is bounded by maxWait
// and, when set, maxAttempts.
func (c *Client) wait(ctx context.Context, taskID JobID) (JobID, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()
	log := logger.FromContext(ctx)
	start := time.Now()

	for attempt := 1; ; attempt++ {
		st, err := c.status(pollCtx, taskID)
		if err != nil {
			return "", err
		}
		log.Debug("Translation job polled", "task_id", string(taskID), "attempt", attempt, "status", string(st.Status))

		if st.Status.Terminal() {
			if st.Status == StatusError {
				return "", apperrors.TranslationFailed(fmt.Errorf("task %s reported ERROR after %d polls", taskID, attempt))
			}
			if st.RunID == "" {
				return "", apperrors.ResultFetch(fmt.Errorf("task %s: SUCCESS without run_id", taskID))
			}
			return st.RunID, nil
		}

		if c.maxAttempts > 0 && attempt >= c.maxAttempts {
			return "", apperrors.Timeout(fmt.Errorf("task %s still %q after %d polls", taskID, st.Status, attempt))
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			if ctx.Err() == nil {
				return "", apperrors.Timeout(fmt.Errorf("task %s not finished after %s (%d polls)", taskID, time.Since(start).Round(time.Millisecond), attempt))
			}
			return "", c.transportError(ctx, "poll", ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) status(ctx context.Context, taskID JobID) (statusResponse, error) {
	req, err := httpclient.NewJSONRequest(ctx, http.MethodGet, c.baseURL+"/translate/"+url.PathEscape(string(taskID)), nil)
	if err != nil {
		return statusResponse{}, apperrors.New(apperrors.KindUpstream, "Translation status check failed.", err)
	}
	body, resp, err := c.do(req)
	if err != nil {
		return statusResponse{}, c.transportError(ctx, "poll", err)
	}
	if !httpclient.IsSuccess(resp) {
		return statusResponse{}, apperrors.New(apperrors.KindUpstream, "Translation status check failed.",
			fmt.Errorf("poll task %s: status %s", taskID, resp.Status))
	}

	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return statusResponse{}, apperrors.New(apperrors.KindUpstream, "Translation status check failed.",
			fmt.Errorf("poll task %s: failed to decode response: %w", taskID, err))
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, runID JobID) (string, error) {
	req, err := httpclient.NewJSONRequest(ctx, http.MethodGet, c.baseURL+"/translation-result/"+url.PathEscape(string(runID)), nil)
	if err != nil {
		return "", apperrors.ResultFetch(err)
	}
	body, resp, err := c.do(req)
	if err != nil {
		return "", c.transportError(ctx, "fetch result", err)
	}
	if !httpclient.IsSuccess(resp) {
		return "", apperrors.ResultFetch(fmt.Errorf("fetch run %s: status %s", runID, resp.Status))
	}

	var out resultResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.ResultFetch(fmt.Errorf("fetch run %s: failed to decode response: %w", runID, err))
	}
	if len(out.Texts) == 0 || strings.TrimSpace(out.Texts[0]) == "" {
		return "", apperrors.ResultFetch(fmt.Errorf("fetch run %s: response has no texts", runID))
	}
	return out.Texts[0], nil
}

func (c *Client) do(req *http.Request) ([]byte, *http.Response, error) {
	req.Header.Set("x-api-key", c.apiKey)
	return httpclient.DoAndRead(c.client, req)
}

// transportError classifies a failed round trip. Context errors win over
// the transport error because they explain it.
func (c *Client) transportError(ctx context.Context, step string, err error) error {
	wrapped := fmt.Errorf("%s: %w", step, err)
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Canceled(wrapped)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.Timeout(wrapped)
	}
	return apperrors.New(apperrors.KindNetwork, "Translation service is unreachable.", wrapped)
}

func classifySubmitStatus(resp *http.Response) error {
	cause := fmt.Errorf("submit: status %s", resp.Status)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.New(apperrors.KindSubmission,
			fmt.Sprintf("Translation provider rejected the API key (%d).", resp.StatusCode), cause)
	case http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindSubmission,
			"Translation provider rate limit exceeded (429).", cause)
	}
	msg := fmt.Sprintf("Translation request was rejected by the provider (%d).", resp.StatusCode)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return apperrors.Rejected(msg, cause)
	}
	return apperrors.New(apperrors.KindSubmission, msg, cause)
}
