// Package catalog declares the fixed set of operations the bridge exposes,
// their JSON Schemas, and the decoding of raw argument bags into typed Args.
package catalog

import (
	"encoding/json"
	"fmt"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Descriptor describes one operation. Descriptors are built once and never
// modified.
type Descriptor struct {
	Name        string
	Description string
	// Schema is the JSON Schema (Draft 2020-12) of the argument object.
	Schema json.RawMessage

	newArgs  func() Args
	compiled *sjsonschema.Schema
}

// Catalog is an ordered, read-only set of descriptors.
type Catalog struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

type entry struct {
	name        string
	description string
	newArgs     func() Args
}

var entries = []entry{
	{OpServe, "Start the ollama server", func() Args { return &ServeArgs{} }},
	{OpCreate, "Create a model from a Modelfile", func() Args { return &CreateArgs{} }},
	{OpShow, "Show information for a model", func() Args { return &ShowArgs{} }},
	{OpRun, "Run a model with a prompt through the ollama daemon", func() Args { return &RunArgs{} }},
	{OpPull, "Pull a model from a registry", func() Args { return &PullArgs{} }},
	{OpPush, "Push a model to a registry", func() Args { return &PushArgs{} }},
	{OpList, "List local models", func() Args { return &ListArgs{} }},
	{OpCopy, "Copy a model", func() Args { return &CopyArgs{} }},
	{OpRemove, "Remove a model", func() Args { return &RemoveArgs{} }},
	{OpChatCompletion, "OpenAI-compatible chat completion", func() Args { return &ChatCompletionArgs{} }},
}

// New reflects and compiles a schema for every operation.
func New() (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Descriptor, len(entries))}
	for _, e := range entries {
		schemaJSON, err := reflectSchema(e.newArgs(), e.name, e.description)
		if err != nil {
			return nil, fmt.Errorf("reflect %s schema: %w", e.name, err)
		}
		compiled, err := compileSchema(e.name, schemaJSON)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", e.name, err)
		}
		d := &Descriptor{
			Name:        e.name,
			Description: e.description,
			Schema:      schemaJSON,
			newArgs:     e.newArgs,
			compiled:    compiled,
		}
		c.ordered = append(c.ordered, d)
		c.byName[d.Name] = d
	}
	return c, nil
}

// MustNew is New for process start, where a broken catalog is a programming
// error.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Descriptors returns the descriptors in advertisement order.
func (c *Catalog) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Lookup finds a descriptor by operation name.
func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// ExportJSON renders the whole catalog as one JSON document, keyed by
// operation name, in the shape MCP clients see in tools/list.
func (c *Catalog) ExportJSON() ([]byte, error) {
	type tool struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"inputSchema"`
	}
	tools := make([]tool, 0, len(c.ordered))
	for _, d := range c.ordered {
		tools = append(tools, tool{Name: d.Name, Description: d.Description, InputSchema: d.Schema})
	}
	data, err := json.MarshalIndent(map[string]any{"tools": tools}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return data, nil
}
