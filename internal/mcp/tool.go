package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// FuncTool adapts a function over typed parameters to the Tool interface.
// The function's result is returned as indented JSON.
type FuncTool[P any] struct {
	name        string
	description string
	schema      json.RawMessage
	run         func(ctx context.Context, params P) (any, error)
}

// NewTool creates a FuncTool.
func NewTool[P any](name, description string, schema json.RawMessage, run func(ctx context.Context, params P) (any, error)) *FuncTool[P] {
	return &FuncTool[P]{name: name, description: description, schema: schema, run: run}
}

func (t *FuncTool[P]) Name() string                 { return t.name }
func (t *FuncTool[P]) Description() string          { return t.description }
func (t *FuncTool[P]) InputSchema() json.RawMessage { return t.schema }

// Execute decodes params into P and runs the function. Undecodable
// parameters produce an error result rather than an error.
func (t *FuncTool[P]) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p P
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &p); err != nil {
			return ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
		}
	}
	v, err := t.run(ctx, p)
	if err != nil {
		return nil, err
	}
	return JSONResult(v)
}
