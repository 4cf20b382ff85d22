package provider

import (
	"strings"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"agentui/tools"
)

func defaultTools(t *testing.T) []mcptypes.Tool {
	t.Helper()
	registry, err := tools.NewDefaultRegistry(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	return registry.Tools()
}

func TestConvertToolsToOllama(t *testing.T) {
	if ConvertToolsToOllama(nil) != nil {
		t.Error("nil tools should give nil")
	}

	descriptors := defaultTools(t)
	result := ConvertToolsToOllama(descriptors)
	if len(result) != len(descriptors) {
		t.Fatalf("len = %d, want %d", len(result), len(descriptors))
	}

	for i, tool := range result {
		if tool.Type != "function" {
			t.Errorf("%s type = %q", tool.Function.Name, tool.Type)
		}
		if tool.Function.Name != descriptors[i].Name {
			t.Errorf("name = %q, want %q", tool.Function.Name, descriptors[i].Name)
		}
		if tool.Function.Parameters.Type != "object" {
			t.Errorf("%s parameters type = %q", tool.Function.Name, tool.Function.Parameters.Type)
		}
		if len(tool.Function.Parameters.Properties) != len(descriptors[i].InputSchema.Properties) {
			t.Errorf("%s properties = %d, want %d", tool.Function.Name,
				len(tool.Function.Parameters.Properties), len(descriptors[i].InputSchema.Properties))
		}
	}
}

func TestConvertPropertyValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		validate func(t *testing.T, result api.ToolProperty)
	}{
		{
			name:  "string type",
			input: map[string]any{"type": "string", "description": "A string property"},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 1 || result.Type[0] != "string" {
					t.Errorf("type = %v", result.Type)
				}
				if result.Description != "A string property" {
					t.Errorf("description = %q", result.Description)
				}
			},
		},
		{
			name:  "multiple types",
			input: map[string]any{"type": []any{"string", "number"}},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 2 {
					t.Errorf("type = %v", result.Type)
				}
			},
		},
		{
			name:  "enum",
			input: map[string]any{"type": "string", "enum": []any{"a", "b", "c"}},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Enum) != 3 {
					t.Errorf("enum = %v", result.Enum)
				}
			},
		},
		{
			name:  "array items",
			input: map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			validate: func(t *testing.T, result api.ToolProperty) {
				if result.Items == nil {
					t.Error("items not set")
				}
			},
		},
		{
			name: "anyOf",
			input: map[string]any{"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "number"},
			}},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.AnyOf) != 2 {
					t.Errorf("anyOf = %v", result.AnyOf)
				}
			},
		},
		{
			name: "struct value goes through JSON",
			input: struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}{"integer", "count"},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 1 || result.Type[0] != "integer" || result.Description != "count" {
					t.Errorf("result = %+v", result)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, convertPropertyValue(tt.input))
		})
	}
}

func TestConvertToolsToOpenAI(t *testing.T) {
	if ConvertToolsToOpenAI(nil) != nil {
		t.Error("nil tools should give nil")
	}

	descriptors := defaultTools(t)
	result := ConvertToolsToOpenAI(descriptors)
	if len(result) != len(descriptors) {
		t.Fatalf("len = %d, want %d", len(result), len(descriptors))
	}

	for i, tool := range result {
		fn := tool.OfFunction
		if fn == nil {
			t.Fatalf("tool %d is not a function tool", i)
		}
		if fn.Function.Name != descriptors[i].Name {
			t.Errorf("name = %q, want %q", fn.Function.Name, descriptors[i].Name)
		}
		if fn.Function.Parameters["type"] != "object" {
			t.Errorf("%s parameters = %v", fn.Function.Name, fn.Function.Parameters)
		}
		_, hasRequired := fn.Function.Parameters["required"]
		if hasRequired != (len(descriptors[i].InputSchema.Required) > 0) {
			t.Errorf("%s required = %v", fn.Function.Name, fn.Function.Parameters["required"])
		}
	}
}

func TestConvertToolsToAnthropic(t *testing.T) {
	if ConvertToolsToAnthropic(nil) != nil {
		t.Error("nil tools should give nil")
	}

	descriptors := defaultTools(t)
	result := ConvertToolsToAnthropic(descriptors)
	if len(result) != len(descriptors) {
		t.Fatalf("len = %d, want %d", len(result), len(descriptors))
	}

	for i, tool := range result {
		if tool.OfTool == nil {
			t.Fatalf("tool %d is not a custom tool", i)
		}
		if tool.OfTool.Name != descriptors[i].Name {
			t.Errorf("name = %q, want %q", tool.OfTool.Name, descriptors[i].Name)
		}
		if tool.OfTool.Description.Value != descriptors[i].Description {
			t.Errorf("%s description = %q", tool.OfTool.Name, tool.OfTool.Description.Value)
		}
		if len(tool.OfTool.InputSchema.Required) != len(descriptors[i].InputSchema.Required) {
			t.Errorf("%s required = %v", tool.OfTool.Name, tool.OfTool.InputSchema.Required)
		}
	}
}

func TestSystemWithTools(t *testing.T) {
	descriptors := defaultTools(t)

	if got := systemWithTools("be brief", nil); got != "be brief" {
		t.Errorf("no tools: %q", got)
	}

	got := systemWithTools("be brief", descriptors)
	if !strings.HasPrefix(got, "TOOLS: csv_describe, ") {
		t.Errorf("instructions should come first: %q", got)
	}
	if !strings.HasSuffix(got, "\n\nbe brief") {
		t.Errorf("system prompt should come last: %q", got)
	}

	if got := systemWithTools("", descriptors); strings.HasSuffix(got, "\n\n") {
		t.Errorf("empty system prompt left a trailing separator: %q", got)
	}
}
