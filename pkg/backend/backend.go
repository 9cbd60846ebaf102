// Package backend implements the two ways the bridge reaches ollama: the
// command-line tool as a subprocess, and the daemon's HTTP API.
package backend

import (
	"context"

	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

// Invoker executes one validated operation against a backend.
// Implementations: ProcessInvoker, HTTPInvoker.
//
// Errors returned are *response.Fault.
type Invoker interface {
	Execute(ctx context.Context, args catalog.Args) (response.Result, error)
}
