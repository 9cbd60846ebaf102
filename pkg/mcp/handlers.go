package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ormasoftchile/ollama-mcp/pkg/dispatch"
	"github.com/ormasoftchile/ollama-mcp/pkg/metrics"
	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

// Handler adapts the dispatcher to mcp-go tool calls.
type Handler struct {
	Dispatcher *dispatch.Dispatcher
	Metrics    *metrics.Metrics
	Log        *zap.SugaredLogger
}

// Handle implements every registered tool. The envelope is drained here:
// each stream fragment is forwarded as a progress notification when the
// client asked for progress, and the collected text is returned as one
// content block. Faults become error results, never protocol errors.
func (h *Handler) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.Params.Name
	env, err := h.Dispatcher.Call(ctx, name, req.GetArguments())
	if err != nil {
		return faultResult(response.FromError(err)), nil
	}

	text, err := env.Drain(ctx, h.progress(ctx, req))
	if err != nil {
		f := response.FromError(err)
		h.logger().Warnw("stream failed", "tool", name, "code", f.Code, "error", f.Message)
		return faultResult(f), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}, nil
}

// progress returns the per-fragment callback for a call.
func (h *Handler) progress(ctx context.Context, req mcp.CallToolRequest) func(string) {
	name := req.Params.Name
	var token mcp.ProgressToken
	if req.Params.Meta != nil {
		token = req.Params.Meta.ProgressToken
	}
	srv := server.ServerFromContext(ctx)

	n := 0
	return func(fragment string) {
		n++
		h.Metrics.Fragment(name)
		if token == nil || srv == nil {
			return
		}
		err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      n,
			"message":       fragment,
		})
		if err != nil {
			h.logger().Debugw("progress notification dropped", "tool", name, "error", err)
		}
	}
}

func (h *Handler) logger() *zap.SugaredLogger {
	if h.Log == nil {
		return zap.NewNop().Sugar()
	}
	return h.Log
}

func faultResult(f *response.Fault) *mcp.CallToolResult {
	msg := f.Error()
	if f.Timeout && !strings.Contains(msg, "timed out") {
		msg += " (timed out)"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
