package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	ModeDemo     = "demo"
	ModeWorkflow = "workflow"

	runPath       = "/v1/workflow/run"
	noReplyText   = "No usable reply content"
	maxReplyBytes = 1 << 20
)

// RetryConfig configures exponential backoff for workflow calls.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      int
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxRetries:      2,
	}
}

type WorkflowOptions struct {
	URL        string
	APIKey     string
	WorkflowID string
	Timeout    time.Duration
	Retry      RetryConfig
	HTTPClient *http.Client
}

// WorkflowClient calls the external assistant workflow and falls back to
// canned demo replies when it is not configured or unavailable.
type WorkflowClient struct {
	opts    WorkflowOptions
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewWorkflowClient(opts WorkflowOptions, log *zap.Logger) *WorkflowClient {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	if opts.Retry.InitialInterval <= 0 {
		opts.Retry = DefaultRetryConfig()
	}
	return &WorkflowClient{
		opts: opts,
		http: hc,
		log:  log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "coze-workflow",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
		}),
	}
}

func (c *WorkflowClient) configured() bool {
	return strings.TrimSpace(c.opts.URL) != "" && strings.TrimSpace(c.opts.APIKey) != ""
}

func (c *WorkflowClient) Mode() string {
	if c.configured() {
		return ModeWorkflow
	}
	return ModeDemo
}

// Run returns the assistant's reply to input. Workflow failures are logged
// and answered in demo mode; only a cancelled ctx is returned as an error.
func (c *WorkflowClient) Run(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.configured() {
		reply, err := c.callWithRetry(ctx, input)
		if err == nil {
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warn("workflow call failed, using demo reply", zap.Error(err))
	}
	return DemoReply(input), nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("workflow returned status %d", e.code) }

func (c *WorkflowClient) callWithRetry(ctx context.Context, input string) (string, error) {
	var reply string
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.call(ctx, input)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			var se *statusError
			if errors.As(err, &se) && se.code < 500 && se.code != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		reply = result.(string)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.Retry.InitialInterval
	policy.MaxInterval = c.opts.Retry.MaxInterval
	var b backoff.BackOff = policy
	if c.opts.Retry.MaxRetries >= 0 {
		b = backoff.WithMaxRetries(policy, uint64(c.opts.Retry.MaxRetries))
	}
	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return reply, err
}

func (c *WorkflowClient) call(ctx context.Context, input string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"workflow_id": c.opts.WorkflowID,
		"parameters":  map[string]string{"input": input},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.runURL(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode}
	}
	return parseReply(raw)
}

func (c *WorkflowClient) runURL() string {
	u := strings.TrimRight(c.opts.URL, "/")
	if strings.Contains(u, runPath) {
		return u
	}
	return u + runPath
}

// parseReply extracts the reply from a workflow response. The reply is in
// "data" (or "msg"), and "data" may itself be a JSON object string whose
// "output" field holds the text.
func parseReply(raw []byte) (string, error) {
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode workflow response: %w", err)
	}
	v, ok := result["data"]
	if !ok || v == nil {
		v = result["msg"]
	}
	if v == nil {
		return noReplyText, nil
	}
	text := stringify(v)

	if strings.HasPrefix(text, "{") {
		var inner map[string]any
		if err := json.Unmarshal([]byte(text), &inner); err == nil {
			if out, ok := inner["output"]; ok && out != nil {
				text = stringify(out)
			}
		}
	}
	return text, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
