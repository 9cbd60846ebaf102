package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ormasoftchile/ollama-mcp/pkg/backend"
	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
	"github.com/ormasoftchile/ollama-mcp/pkg/chat"
	"github.com/ormasoftchile/ollama-mcp/pkg/dispatch"
	"github.com/ormasoftchile/ollama-mcp/pkg/metrics"
)

type staticExecutor struct {
	result *backend.CommandResult
}

func (s staticExecutor) Execute(ctx context.Context, command string, args []string) (*backend.CommandResult, error) {
	return s.result, nil
}

func newHandler(t *testing.T, daemon http.HandlerFunc, cli *backend.CommandResult) *Handler {
	t.Helper()
	srv := httptest.NewServer(daemon)
	t.Cleanup(srv.Close)
	web := backend.NewHTTPInvoker(srv.URL, 0)
	if cli == nil {
		cli = &backend.CommandResult{}
	}
	return &Handler{Dispatcher: &dispatch.Dispatcher{
		Catalog: catalog.MustNew(),
		Process: &backend.ProcessInvoker{Executor: staticExecutor{result: cli}},
		HTTP:    web,
		Chat:    chat.New(web),
	}}
}

func call(t *testing.T, h *Handler, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := h.Handle(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("content blocks = %d, want 1", len(result.Content))
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestHandle_MissingArgument(t *testing.T) {
	h := newHandler(t, http.NotFound, nil)
	result := call(t, h, "pull", map[string]any{})
	if !result.IsError {
		t.Error("expected error for missing name")
	}
	if got := text(t, result); !strings.HasPrefix(got, "invalid-argument:") {
		t.Errorf("text = %q", got)
	}
}

func TestHandle_UnknownTool(t *testing.T) {
	h := newHandler(t, http.NotFound, nil)
	result := call(t, h, "nope", nil)
	if !result.IsError || !strings.HasPrefix(text(t, result), "not-found:") {
		t.Errorf("result = %+v", result)
	}
}

func TestHandle_ProcessFailure(t *testing.T) {
	h := newHandler(t, http.NotFound, &backend.CommandResult{Stderr: []byte("Error: model not found"), ExitCode: 1})
	result := call(t, h, "rm", map[string]any{"name": "ghost"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	got := text(t, result)
	if !strings.HasPrefix(got, "backend-error:") || !strings.Contains(got, "model not found") {
		t.Errorf("text = %q", got)
	}
}

func TestHandle_List(t *testing.T) {
	h := newHandler(t, http.NotFound, &backend.CommandResult{Stdout: []byte("NAME  ID\n")})
	result := call(t, h, "list", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", text(t, result))
	}
	if got := text(t, result); got != "NAME  ID\n" {
		t.Errorf("text = %q", got)
	}
}

func TestHandle_RunStreamIsCollected(t *testing.T) {
	h := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"He","done":false}`)
		fmt.Fprintln(w, `{"response":"llo","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}, nil)
	result := call(t, h, "run", map[string]any{"name": "m", "prompt": "p", "stream": true})
	if result.IsError {
		t.Fatalf("unexpected error: %s", text(t, result))
	}
	if got := text(t, result); got != "Hello" {
		t.Errorf("text = %q", got)
	}
}

func TestHandle_RunStreamFailureHasNoPartialText(t *testing.T) {
	h := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"He","done":false}`)
		fmt.Fprintln(w, `not json`)
	}, nil)
	result := call(t, h, "run", map[string]any{"name": "m", "prompt": "p", "stream": true})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := text(t, result); !strings.HasPrefix(got, "backend-error:") || !strings.Contains(got, "decode stream fragment") {
		t.Errorf("text = %q", got)
	}
}

func TestHandle_RunStreamFailureCountedAsBackendError(t *testing.T) {
	h := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"He"}`)
		fmt.Fprintln(w, `not json`)
	}, nil)
	m := metrics.New(prometheus.NewRegistry())
	h.Metrics = m
	h.Dispatcher.Metrics = m

	result := call(t, h, "run", map[string]any{"name": "m", "prompt": "p", "stream": true})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := testutil.ToFloat64(m.CallCount.WithLabelValues("run", "backend-error")); got != 1 {
		t.Errorf("run backend-error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CallCount.WithLabelValues("run", "ok")); got != 0 {
		t.Errorf("run ok = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.StreamFragments.WithLabelValues("run")); got != 1 {
		t.Errorf("fragments = %v, want 1", got)
	}
}

func TestHandle_DaemonErrorStatus(t *testing.T) {
	h := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"out of memory"}`)
	}, nil)
	result := call(t, h, "run", map[string]any{"name": "m", "prompt": "p"})
	if !result.IsError || !strings.Contains(text(t, result), "out of memory") {
		t.Errorf("result = %+v", result)
	}
}

func TestHandle_ChatCompletion(t *testing.T) {
	h := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"4","done":true}`)
	}, nil)
	result := call(t, h, "chat_completion", map[string]any{
		"model":    "llama3",
		"messages": []any{map[string]any{"role": "user", "content": "2+2?"}},
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", text(t, result))
	}
	var c chat.Completion
	if err := json.Unmarshal([]byte(text(t, result)), &c); err != nil {
		t.Fatal(err)
	}
	if c.Choices[0].Message.Content != "4" || c.Choices[0].FinishReason != "stop" {
		t.Errorf("completion = %+v", c)
	}
}
