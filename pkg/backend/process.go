package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

// shellMeta lists characters rejected in interpolated arguments. The argv
// API never reaches a shell, but a value that looks like shell syntax is
// never a valid model name or Modelfile path for this bridge.
const shellMeta = ";&|$`<>\"'*?!"

// ProcessInvoker runs `<Binary> <subcommand> [args...]`.
type ProcessInvoker struct {
	// Binary is the ollama executable (default: "ollama").
	Binary   string
	Executor CommandExecutor
}

// NewProcessInvoker creates a ProcessInvoker backed by the real executor.
func NewProcessInvoker(binary string) *ProcessInvoker {
	if binary == "" {
		binary = "ollama"
	}
	return &ProcessInvoker{Binary: binary, Executor: &RealExecutor{}}
}

// Execute builds the command line for args and runs it to completion.
// Subprocesses are not cancelled when ctx is; they block until exit.
func (p *ProcessInvoker) Execute(ctx context.Context, args catalog.Args) (response.Result, error) {
	argv, err := Argv(args)
	if err != nil {
		return nil, err
	}

	binary := p.Binary
	if binary == "" {
		binary = "ollama"
	}
	exe := p.Executor
	if exe == nil {
		exe = &RealExecutor{}
	}

	res, err := exe.Execute(context.WithoutCancel(ctx), binary, argv)
	if err != nil {
		if errors.Is(err, ErrBinaryNotFound) {
			return nil, response.Backend(err, "%s %s: executable not found: %s", binary, argv[0], err)
		}
		return nil, response.Backend(err, "%s %s: %s", binary, argv[0], err)
	}

	stdout := string(res.Stdout)
	stderr := string(res.Stderr)
	if res.ExitCode != 0 {
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = strings.TrimSpace(stdout)
		}
		if detail == "" {
			detail = "(no output)"
		}
		return nil, response.Backend(nil, "%s %s exited with code %d: %s", binary, argv[0], res.ExitCode, detail)
	}

	if stdout != "" {
		return response.Buffered{Text: stdout}, nil
	}
	return response.Buffered{Text: stderr}, nil
}

// Argv returns the subcommand and arguments for a process-backed operation.
func Argv(args catalog.Args) ([]string, error) {
	var argv []string
	switch a := args.(type) {
	case catalog.ServeArgs:
		argv = []string{"serve"}
	case catalog.CreateArgs:
		argv = []string{"create", a.Name, "-f", a.Modelfile}
		if err := checkArgs(a.Name, a.Modelfile); err != nil {
			return nil, err
		}
	case catalog.ShowArgs:
		if err := checkArg(a.Name); err != nil {
			return nil, err
		}
		argv = []string{"show", a.Name}
		if a.Verbose {
			argv = append(argv, "--verbose")
		}
		if a.Section != "" {
			switch a.Section {
			case "license", "modelfile", "parameters", "system", "template":
				argv = append(argv, "--"+a.Section)
			default:
				return nil, response.Invalid(nil, "show: unknown section %q", a.Section)
			}
		}
	case catalog.PullArgs:
		if err := checkArg(a.Name); err != nil {
			return nil, err
		}
		argv = []string{"pull", a.Name}
	case catalog.PushArgs:
		if err := checkArg(a.Name); err != nil {
			return nil, err
		}
		argv = []string{"push", a.Name}
	case catalog.ListArgs:
		argv = []string{"list"}
	case catalog.CopyArgs:
		if err := checkArgs(a.Source, a.Destination); err != nil {
			return nil, err
		}
		argv = []string{"cp", a.Source, a.Destination}
	case catalog.RemoveArgs:
		if err := checkArg(a.Name); err != nil {
			return nil, err
		}
		argv = []string{"rm", a.Name}
	default:
		return nil, response.Internal(nil, "operation %s is not process-backed", opName(args))
	}
	return argv, nil
}

func checkArgs(values ...string) error {
	for _, v := range values {
		if err := checkArg(v); err != nil {
			return err
		}
	}
	return nil
}

// checkArg rejects values that could be read as flags or shell syntax.
func checkArg(v string) error {
	if v == "" {
		return response.Invalid(nil, "empty argument")
	}
	if strings.HasPrefix(v, "-") {
		return response.Invalid(nil, "argument %q must not start with '-'", v)
	}
	if i := strings.IndexAny(v, shellMeta); i >= 0 {
		return response.Invalid(nil, "argument %q contains forbidden character %q", v, v[i])
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return response.Invalid(nil, "argument %q contains a control character", v)
		}
	}
	return nil
}

func opName(args catalog.Args) string {
	if args == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q", args.Operation())
}
