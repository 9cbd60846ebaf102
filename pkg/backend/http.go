package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

const (
	// DefaultTimeout bounds every daemon call unless the caller overrides it.
	DefaultTimeout = 60 * time.Second
	// MaxTimeout caps a per-call override.
	MaxTimeout = 24 * time.Hour
)

// GenerateRequest is the /api/generate request body.
type GenerateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Raw     bool     `json:"raw,omitempty"`
	Think   *bool    `json:"think,omitempty"`
	Options *Options `json:"options,omitempty"`
}

// Options carries sampling parameters. Values are forwarded as given;
// NumPredict -1 means generate until the context is exhausted.
type Options struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
}

// GenerateResponse is one /api/generate response object: the whole answer
// in buffered mode, or one fragment in streaming mode.
type GenerateResponse struct {
	Model           string `json:"model"`
	CreatedAt       string `json:"created_at"`
	Response        string `json:"response"`
	Thinking        string `json:"thinking,omitempty"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// HTTPInvoker talks to the ollama daemon.
type HTTPInvoker struct {
	BaseURL        string // e.g. http://127.0.0.1:11434
	DefaultTimeout time.Duration
	HTTPClient     *http.Client
}

// NewHTTPInvoker creates an invoker for the daemon at baseURL.
func NewHTTPInvoker(baseURL string, defaultTimeout time.Duration) *HTTPInvoker {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &HTTPInvoker{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		DefaultTimeout: defaultTimeout,
		HTTPClient:     &http.Client{},
	}
}

// Execute handles the run operation. Stream selects the streaming mode.
func (h *HTTPInvoker) Execute(ctx context.Context, args catalog.Args) (response.Result, error) {
	run, ok := args.(catalog.RunArgs)
	if !ok {
		return nil, response.Internal(nil, "operation %s is not HTTP-backed", opName(args))
	}
	req := GenerateRequest{
		Model:   run.Name,
		Prompt:  run.Prompt,
		Stream:  run.Stream,
		Raw:     run.Raw,
		Think:   run.Think,
		Options: NewOptions(run.Temperature, run.NumPredict),
	}
	timeout := h.timeout(run.Timeout)

	if run.Stream {
		st, err := h.GenerateStream(ctx, req, timeout)
		if err != nil {
			return nil, err
		}
		return response.Streamed{Stream: st}, nil
	}

	resp, err := h.Generate(ctx, req, timeout)
	if err != nil {
		return nil, err
	}
	return response.Buffered{Text: resp.Response}, nil
}

// Generate sends a non-streaming generate request and returns the decoded
// answer.
func (h *HTTPInvoker) Generate(ctx context.Context, req GenerateRequest, timeout time.Duration) (*GenerateResponse, error) {
	req.Stream = false
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := h.post(ctx, "/api/generate", req, timeout)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, h.classify(ctx, err, timeout, "read response")
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, response.Backend(err, "decode generate response: %s", err)
	}
	if out.Error != "" {
		return nil, response.Backend(nil, "ollama error: %s", out.Error)
	}
	return &out, nil
}

// GenerateStream sends a streaming generate request. The deadline covers
// the whole stream; the returned stream owns the connection.
func (h *HTTPInvoker) GenerateStream(ctx context.Context, req GenerateRequest, timeout time.Duration) (response.Stream, error) {
	req.Stream = true
	ctx, cancel := context.WithTimeout(ctx, timeout)

	resp, err := h.post(ctx, "/api/generate", req, timeout)
	if err != nil {
		cancel()
		return nil, err
	}
	return newNDJSONStream(ctx, cancel, resp.Body, func(err error, what string) error {
		return h.classify(ctx, err, timeout, what)
	}), nil
}

// post issues the request and returns the response for 2xx statuses only.
func (h *HTTPInvoker) post(ctx context.Context, path string, payload any, timeout time.Duration) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, response.Internal(err, "marshal request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, response.Internal(err, "create request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, h.classify(ctx, err, timeout, "request")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, response.Backend(nil, "ollama returned %d: %s", resp.StatusCode, errorDetail(respBody))
	}
	return resp, nil
}

// classify maps a transport error to a Fault, separating deadline expiry
// from other network failures.
func (h *HTTPInvoker) classify(ctx context.Context, err error, timeout time.Duration, what string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return response.TimedOut(err, timeout.Milliseconds())
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return response.Backend(err, "%s cancelled: %s", what, err)
	}
	return response.Backend(err, "ollama daemon unreachable at %s (%s): %s", h.BaseURL, what, err)
}

func (h *HTTPInvoker) timeout(ms *int64) time.Duration {
	if ms != nil && *ms > 0 {
		if *ms >= MaxTimeout.Milliseconds() {
			return MaxTimeout
		}
		return time.Duration(*ms) * time.Millisecond
	}
	if h.DefaultTimeout > 0 {
		return h.DefaultTimeout
	}
	return DefaultTimeout
}

// TimeoutFor exposes the effective timeout for a per-call override.
func (h *HTTPInvoker) TimeoutFor(ms *int64) time.Duration {
	return h.timeout(ms)
}

// NewOptions returns nil when neither parameter is set.
func NewOptions(temperature *float64, numPredict *int) *Options {
	if temperature == nil && numPredict == nil {
		return nil
	}
	return &Options{Temperature: temperature, NumPredict: numPredict}
}

// errorDetail extracts {"error": "..."} from a daemon error body, falling
// back to the raw text.
func errorDetail(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "(empty body)"
	}
	return s
}
