package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fastRetry() RetryConfig {
	return RetryConfig{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxRetries: 2}
}

func newTestClient(t *testing.T, url string) *WorkflowClient {
	t.Helper()
	return NewWorkflowClient(WorkflowOptions{
		URL:        url,
		APIKey:     "secret-key",
		WorkflowID: "wf-1",
		Timeout:    2 * time.Second,
		Retry:      fastRetry(),
	}, zaptest.NewLogger(t))
}

func TestWorkflowClientSendsRequest(t *testing.T) {
	var got struct {
		WorkflowID string            `json:"workflow_id"`
		Parameters map[string]string `json:"parameters"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, runPath, r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"code":0,"data":"{\"output\":\"draft ready\"}"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	assert.Equal(t, ModeWorkflow, c.Mode())

	reply, err := c.Run(context.Background(), "generate")
	require.NoError(t, err)
	assert.Equal(t, "draft ready", reply)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, "generate", got.Parameters["input"])
}

func TestWorkflowClientURLWithRunPath(t *testing.T) {
	c := newTestClient(t, "https://api.example.test/v1/workflow/run")
	assert.Equal(t, "https://api.example.test/v1/workflow/run", c.runURL())

	c = newTestClient(t, "https://api.example.test/")
	assert.Equal(t, "https://api.example.test/v1/workflow/run", c.runURL())
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain data", `{"data":"hello"}`, "hello"},
		{"output inside data", `{"data":"{\"output\":\"hi\"}"}`, "hi"},
		{"data object without output", `{"data":"{\"other\":1}"}`, `{"other":1}`},
		{"msg fallback", `{"code":4000,"msg":"bad workflow"}`, "bad workflow"},
		{"null data uses msg", `{"data":null,"msg":"m"}`, "m"},
		{"nothing usable", `{"code":0}`, noReplyText},
		{"non string data", `{"data":{"a":1}}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseReply([]byte("not json"))
	assert.Error(t, err)
}

func TestWorkflowClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":"third time lucky"}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(t, srv.URL).Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", reply)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWorkflowClientFallsBackOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	reply, err := newTestClient(t, srv.URL).Run(context.Background(), "help")
	require.NoError(t, err)
	assert.Equal(t, replyHelp, reply)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are not retried")
}

func TestWorkflowClientFallsBackWhenRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	reply, err := newTestClient(t, srv.URL).Run(context.Background(), "sync")
	require.NoError(t, err)
	assert.Equal(t, replySync, reply)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWorkflowClientDemoMode(t *testing.T) {
	c := NewWorkflowClient(WorkflowOptions{WorkflowID: "wf-1"}, zaptest.NewLogger(t))
	assert.Equal(t, ModeDemo, c.Mode())

	reply, err := c.Run(context.Background(), "validate")
	require.NoError(t, err)
	assert.Equal(t, replyValidate, reply)
}

func TestWorkflowClientCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, "http://127.0.0.1:1").Run(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}
