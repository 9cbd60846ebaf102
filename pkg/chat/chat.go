// Package chat turns a message list into a single raw prompt for the
// generate endpoint and shapes the answer as an OpenAI chat completion.
package chat

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ormasoftchile/ollama-mcp/pkg/backend"
	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
)

// Generator is the part of the HTTP invoker the adapter needs.
type Generator interface {
	Generate(ctx context.Context, req backend.GenerateRequest, timeout time.Duration) (*backend.GenerateResponse, error)
	TimeoutFor(ms *int64) time.Duration
}

// Completion is an OpenAI-compatible chat.completion object.
type Completion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one generated alternative. The adapter always produces one.
type Choice struct {
	Index        int             `json:"index"`
	Message      catalog.Message `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// Usage reports token counts when the daemon returns them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

var roleLabels = map[string]string{
	"system":    "System",
	"user":      "User",
	"assistant": "Assistant",
}

// Flatten renders messages as "<Role>: <content>\n" lines. Messages with an
// unrecognized role contribute nothing.
func Flatten(messages []catalog.Message) string {
	var b strings.Builder
	for _, m := range messages {
		label, ok := roleLabels[m.Role]
		if !ok {
			continue
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Adapter runs chat completions against a Generator.
type Adapter struct {
	Generator Generator
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// New creates an Adapter.
func New(g Generator) *Adapter {
	return &Adapter{Generator: g}
}

// Complete flattens the conversation, runs a buffered raw generate and wraps
// the text. Generator errors are returned unchanged.
func (a *Adapter) Complete(ctx context.Context, args catalog.ChatCompletionArgs) (*Completion, error) {
	req := backend.GenerateRequest{
		Model:   args.Model,
		Prompt:  Flatten(args.Messages),
		Stream:  false,
		Raw:     true,
		Options: backend.NewOptions(args.Temperature, args.NumPredict),
	}
	resp, err := a.Generator.Generate(ctx, req, a.Generator.TimeoutFor(args.Timeout))
	if err != nil {
		return nil, err
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	t := now()

	c := &Completion{
		ID:      "chatcmpl-" + strconv.FormatInt(t.UnixMilli(), 10),
		Object:  "chat.completion",
		Created: t.Unix(),
		Model:   args.Model,
		Choices: []Choice{{
			Index:        0,
			Message:      catalog.Message{Role: "assistant", Content: resp.Response},
			FinishReason: "stop",
		}},
	}
	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		c.Usage = &Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}
	return c, nil
}
