// Package tools provides the tool registry and the built-in tools the agent
// can call: workspace file operations, CSV inspection and web fetching.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"agentui/config"
)

// Tool is one capability exposed to the model. The set of tools is fixed
// when the registry is built.
type Tool interface {
	Descriptor() mcp.Tool
	Validate(args Args) error
	Execute(ctx context.Context, args Args) (string, error)
}

// ErrToolUnavailable is returned when the model asks for a tool that is not
// in the registry.
type ErrToolUnavailable struct {
	ToolName string
}

func (e *ErrToolUnavailable) Error() string {
	return fmt.Sprintf("tool %q is not available", e.ToolName)
}

// Args are the arguments of one call. When the model's JSON does not parse,
// Values is nil and ParseErr is set so that validation fails with the raw
// input attached.
type Args struct {
	Raw      string
	Values   map[string]any
	ParseErr error
}

func ParseArgs(raw string) Args {
	args := Args{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		args.Values = map[string]any{}
		return args
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		args.ParseErr = err
		return args
	}
	if values == nil {
		values = map[string]any{}
	}
	args.Values = values
	return args
}

// String returns a string argument.
func (a Args) String(key string) string {
	if v, ok := a.Values[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an integer argument or def when it is absent.
func (a Args) Int(key string, def int) int {
	switch v := a.Values[key].(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

// ValidateSchema checks args against the descriptor: JSON must have parsed,
// required keys must be present and typed values must match.
func ValidateSchema(desc mcp.Tool, args Args) error {
	if args.ParseErr != nil {
		return fmt.Errorf("invalid arguments for %s: %v (raw input: %q)", desc.Name, args.ParseErr, truncate(args.Raw, 200))
	}
	for _, key := range desc.InputSchema.Required {
		v, ok := args.Values[key]
		if !ok || v == nil {
			return fmt.Errorf("%s: missing required argument %q", desc.Name, key)
		}
	}
	for key, v := range args.Values {
		prop, ok := desc.InputSchema.Properties[key].(map[string]any)
		if !ok {
			continue
		}
		want, _ := prop["type"].(string)
		if err := checkType(key, want, v); err != nil {
			return fmt.Errorf("%s: %w", desc.Name, err)
		}
	}
	return nil
}

func checkType(key, want string, v any) error {
	switch want {
	case "string":
		if _, ok := v.(string); !ok {
			return fmt.Errorf("argument %q must be a string", key)
		}
	case "number", "integer":
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("argument %q must be a number", key)
		}
		if want == "integer" && f != math.Trunc(f) {
			return fmt.Errorf("argument %q must be an integer", key)
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", key)
		}
	}
	return nil
}

// Registry holds available tools.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDefaultRegistry registers every built-in tool, confined to workspace.
func NewDefaultRegistry(workspace string, fetcher *Fetcher) (*Registry, error) {
	files := NewFileTools(workspace)
	csvTools := NewCSVTools(files)
	if fetcher == nil {
		fetcher = NewFetcher()
	}

	r := NewRegistry()
	for _, t := range []Tool{
		&readFileTool{files},
		&writeFileTool{files},
		&editFileTool{files},
		&listDirectoryTool{files},
		&globFilesTool{files},
		&csvReadTool{csvTools},
		&csvFilterTool{csvTools},
		&csvDescribeTool{csvTools},
		&fetchURLTool{fetcher},
	} {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	name := t.Descriptor().Name
	if name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns every descriptor sorted by name.
func (r *Registry) Tools() []mcp.Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name].Descriptor())
	}
	return out
}

// Execute looks up, validates and runs a tool.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", &ErrToolUnavailable{ToolName: name}
	}

	args := ParseArgs(rawArgs)
	if err := t.Validate(args); err != nil {
		return "", err
	}

	if config.DebugLog != nil {
		config.DebugLog.Debug("executing tool", "tool", name, "args", truncate(rawArgs, 200))
	}
	return t.Execute(ctx, args)
}

func jsonResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

func truncate(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n]) + "…"
	}
	return s
}
