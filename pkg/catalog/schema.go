package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// reflectSchema produces the closed JSON Schema for one Args type. Fields are
// required only when tagged so; undeclared properties are rejected.
func reflectSchema(args Args, name, description string) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(args)
	s.ID = jsonschema.ID(schemaURL(name))
	s.Title = name
	s.Description = description

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

func schemaURL(name string) string {
	return "https://github.com/ormasoftchile/ollama-mcp/schemas/" + name + ".json"
}
