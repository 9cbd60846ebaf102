// Package dispatch routes a named operation call to the backend that serves
// it and guarantees that every failure leaves as a single response.Fault.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aidarkhanov/nanoid"
	"go.uber.org/zap"

	"github.com/ormasoftchile/ollama-mcp/pkg/backend"
	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
	"github.com/ormasoftchile/ollama-mcp/pkg/chat"
	"github.com/ormasoftchile/ollama-mcp/pkg/metrics"
	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ChatCompleter produces chat completions. Implemented by *chat.Adapter.
type ChatCompleter interface {
	Complete(ctx context.Context, args catalog.ChatCompletionArgs) (*chat.Completion, error)
}

// Dispatcher is safe for concurrent use; it holds no per-call state. A nil
// Log discards output; nil Metrics records nothing.
type Dispatcher struct {
	Catalog *catalog.Catalog
	Process backend.Invoker
	HTTP    backend.Invoker
	Chat    ChatCompleter
	Log     *zap.SugaredLogger
	Metrics *metrics.Metrics
}

func (d *Dispatcher) logger() *zap.SugaredLogger {
	if d.Log == nil {
		return zap.NewNop().Sugar()
	}
	return d.Log
}

// Call validates raw against the named operation's schema and runs it.
// On failure the error is always a *response.Fault.
func (d *Dispatcher) Call(ctx context.Context, name string, raw map[string]any) (env *response.Envelope, err error) {
	start := time.Now()
	log := d.logger().With("request_id", "call_"+requestID(), "tool", name)

	finish := func(err error) {
		code := "ok"
		if err != nil {
			f := response.FromError(err)
			code = string(f.Code)
			log.Warnw("tool call failed", "code", code, "error", f.Message, "duration", time.Since(start).String())
		} else {
			log.Infow("tool call finished", "code", code, "duration", time.Since(start).String())
		}
		d.Metrics.Observe(name, code, time.Since(start))
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("tool call panicked", "panic", fmt.Sprint(r))
			env, err = nil, response.Internal(nil, "%s: unexpected failure: %v", name, r)
		}
		if err != nil {
			err = response.FromError(err)
			finish(err)
			return
		}
		// Streamed calls are recorded once the consumer is done with them.
		if !observeStreams(env, finish) {
			finish(nil)
		}
	}()

	desc, ok := d.Catalog.Lookup(name)
	if !ok {
		return nil, response.NotFound("unknown operation %q", name)
	}
	args, err := desc.Decode(raw)
	if err != nil {
		return nil, err
	}
	log.Debugw("tool call started", "args", raw)

	return d.route(ctx, args)
}

func (d *Dispatcher) route(ctx context.Context, args catalog.Args) (*response.Envelope, error) {
	switch a := args.(type) {
	case catalog.ChatCompletionArgs:
		if d.Chat == nil {
			return nil, response.Internal(nil, "chat completion is not configured")
		}
		c, err := d.Chat.Complete(ctx, a)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, response.Internal(err, "marshal completion: %s", err)
		}
		return response.Text(string(data)), nil

	case catalog.RunArgs:
		return d.invoke(ctx, d.HTTP, args)

	default:
		return d.invoke(ctx, d.Process, args)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, inv backend.Invoker, args catalog.Args) (*response.Envelope, error) {
	if inv == nil {
		return nil, response.Internal(nil, "no backend configured for %s", args.Operation())
	}
	res, err := inv.Execute(ctx, args)
	if err != nil {
		return nil, err
	}
	return response.Wrap(res)
}

func requestID() string {
	id, err := nanoid.Generate(requestIDAlphabet, 12)
	if err != nil {
		return "unknown"
	}
	return id
}
