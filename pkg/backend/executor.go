package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrBinaryNotFound is returned when the configured CLI cannot be located.
var ErrBinaryNotFound = errors.New("executable not found")

// CommandResult is the captured outcome of one CLI invocation.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandExecutor abstracts process creation so tests can replay output.
type CommandExecutor interface {
	Execute(ctx context.Context, command string, args []string) (*CommandResult, error)
}

// RealExecutor spawns the command directly from an argv vector. No shell
// sees the arguments.
type RealExecutor struct{}

// Execute waits for the command to exit. A non-zero exit is a result, not an
// error; the error is set only when the process never ran to completion.
func (r *RealExecutor) Execute(ctx context.Context, command string, args []string) (*CommandResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr):
	case errors.Is(err, exec.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", command, ErrBinaryNotFound)
	default:
		return nil, fmt.Errorf("run %s: %w", command, err)
	}

	return &CommandResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}
