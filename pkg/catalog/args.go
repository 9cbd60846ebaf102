package catalog

// Args is the decoded, validated argument set of one operation. Each
// operation has exactly one concrete Args type; the dispatcher switches on it.
type Args interface {
	Operation() string
}

// Operation names as advertised to MCP clients.
const (
	OpServe          = "serve"
	OpCreate         = "create"
	OpShow           = "show"
	OpPull           = "pull"
	OpPush           = "push"
	OpList           = "list"
	OpCopy           = "cp"
	OpRemove         = "rm"
	OpRun            = "run"
	OpChatCompletion = "chat_completion"
)

// ServeArgs starts the ollama daemon.
type ServeArgs struct{}

// CreateArgs builds a model from a Modelfile.
type CreateArgs struct {
	Name      string `json:"name" jsonschema:"required,pattern=^[A-Za-z0-9][A-Za-z0-9._:/@+-]*$" jsonschema_description:"Name for the model to create"`
	Modelfile string `json:"modelfile" jsonschema:"required,minLength=1" jsonschema_description:"Path to the Modelfile"`
}

// ShowArgs prints model information. Section selects a single part of it.
type ShowArgs struct {
	Name    string `json:"name" jsonschema:"required,pattern=^[A-Za-z0-9][A-Za-z0-9._:/@+-]*$" jsonschema_description:"Name of the model to show"`
	Verbose bool   `json:"verbose,omitempty" jsonschema_description:"Show detailed model information"`
	Section string `json:"section,omitempty" jsonschema:"enum=license,enum=modelfile,enum=parameters,enum=system,enum=template" jsonschema_description:"Show only this part of the model information"`
}

// PullArgs downloads a model from a registry.
type PullArgs struct {
	Name string `json:"name" jsonschema:"required,pattern=^[A-Za-z0-9][A-Za-z0-9._:/@+-]*$" jsonschema_description:"Name of the model to pull"`
}

// PushArgs uploads a model to a registry.
type PushArgs struct {
	Name string `json:"name" jsonschema:"required,pattern=^[A-Za-z0-9][A-Za-z0-9._:/@+-]*$" jsonschema_description:"Name of the model to push"`
}

// ListArgs lists local models.
type ListArgs struct{}

// CopyArgs duplicates a local model under a new name.
type CopyArgs struct {
	Source      string `json:"source" jsonschema:"required,pattern=^[A-Za-z0-9][A-Za-z0-9._:/@+-]*$" jsonschema_description:"Source model name"`
	Destination string `json:"destination" jsonschema:"required,pattern=^[A-Za-z0-9][A-Za-z0-9._:/@+-]*$" jsonschema_description:"Destination model name"`
}

// RemoveArgs deletes a local model.
type RemoveArgs struct {
	Name string `json:"name" jsonschema:"required,pattern=^[A-Za-z0-9][A-Za-z0-9._:/@+-]*$" jsonschema_description:"Name of the model to remove"`
}

// RunArgs generates text from a prompt through the daemon's generate endpoint.
type RunArgs struct {
	Name        string   `json:"name" jsonschema:"required,minLength=1" jsonschema_description:"Name of the model to run"`
	Prompt      string   `json:"prompt" jsonschema:"required" jsonschema_description:"Prompt to send to the model"`
	Timeout     *int64   `json:"timeout,omitempty" jsonschema:"minimum=1000,maximum=86400000" jsonschema_description:"Timeout in milliseconds (default 60000, at most 24h)"`
	Stream      bool     `json:"stream,omitempty" jsonschema_description:"Stream the output fragment by fragment"`
	Temperature *float64 `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2" jsonschema_description:"Sampling temperature"`
	NumPredict  *int     `json:"num_predict,omitempty" jsonschema:"minimum=-1" jsonschema_description:"Maximum tokens to generate; -1 generates until the context is full"`
	Think       *bool    `json:"think,omitempty" jsonschema_description:"Enable the model's thinking mode when supported"`
	Raw         bool     `json:"raw,omitempty" jsonschema_description:"Send the prompt verbatim without the model's chat template"`
}

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role" jsonschema:"required,enum=system,enum=user,enum=assistant"`
	Content string `json:"content" jsonschema:"required"`
}

// ChatCompletionArgs asks for an OpenAI-compatible chat completion.
type ChatCompletionArgs struct {
	Model       string    `json:"model" jsonschema:"required,minLength=1" jsonschema_description:"Name of the model to use"`
	Messages    []Message `json:"messages" jsonschema:"required,minItems=1" jsonschema_description:"Conversation so far in order"`
	Temperature *float64  `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2" jsonschema_description:"Sampling temperature"`
	Timeout     *int64    `json:"timeout,omitempty" jsonschema:"minimum=1000,maximum=86400000" jsonschema_description:"Timeout in milliseconds (default 60000, at most 24h)"`
	NumPredict  *int      `json:"num_predict,omitempty" jsonschema:"minimum=-1" jsonschema_description:"Maximum tokens to generate; -1 generates until the context is full"`
}

func (ServeArgs) Operation() string          { return OpServe }
func (CreateArgs) Operation() string         { return OpCreate }
func (ShowArgs) Operation() string           { return OpShow }
func (PullArgs) Operation() string           { return OpPull }
func (PushArgs) Operation() string           { return OpPush }
func (ListArgs) Operation() string           { return OpList }
func (CopyArgs) Operation() string           { return OpCopy }
func (RemoveArgs) Operation() string         { return OpRemove }
func (RunArgs) Operation() string            { return OpRun }
func (ChatCompletionArgs) Operation() string { return OpChatCompletion }
