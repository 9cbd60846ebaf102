package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

func compileSchema(name string, schemaJSON []byte) (*sjsonschema.Schema, error) {
	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource(schemaURL(name), schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile(schemaURL(name))
}

// Decode validates a raw argument bag against the descriptor's schema and
// decodes it into the operation's Args type. Any failure is an
// invalid-argument Fault.
func (d *Descriptor) Decode(raw map[string]any) (Args, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	// Round-trip through JSON so that values built in Go (ints, typed
	// slices) validate the same way as decoded wire values.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, response.Invalid(err, "%s: arguments are not JSON-encodable: %s", d.Name, err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, response.Invalid(err, "%s: %s", d.Name, err)
	}
	if err := d.compiled.Validate(doc); err != nil {
		return nil, response.Invalid(err, "%s: %s", d.Name, formatValidation(err))
	}

	args := d.newArgs()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(args); err != nil {
		return nil, response.Invalid(err, "%s: %s", d.Name, err)
	}
	return derefArgs(args), nil
}

// derefArgs turns the pointer built by newArgs back into the value type
// the dispatcher switches on.
func derefArgs(a Args) Args {
	switch v := a.(type) {
	case *ServeArgs:
		return *v
	case *CreateArgs:
		return *v
	case *ShowArgs:
		return *v
	case *PullArgs:
		return *v
	case *PushArgs:
		return *v
	case *ListArgs:
		return *v
	case *CopyArgs:
		return *v
	case *RemoveArgs:
		return *v
	case *RunArgs:
		return *v
	case *ChatCompletionArgs:
		return *v
	}
	return a
}

// formatValidation flattens a schema validation error into one line.
func formatValidation(err error) string {
	var msgs []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line == "" || strings.HasPrefix(line, "jsonschema validation failed") {
			continue
		}
		msgs = append(msgs, line)
	}
	if len(msgs) == 0 {
		return err.Error()
	}
	return strings.Join(msgs, "; ")
}
