package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Tool is the interface every MCP tool implements.
type Tool interface {
	// Name returns the tool name (e.g. "om_collection_get").
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// InputSchema returns the JSON Schema for the tool's parameters.
	InputSchema() json.RawMessage

	// Execute runs the tool with the given parameters and returns the result.
	Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error)
}

// Annotated tools supply their own hints instead of the ones derived from the name.
type Annotated interface {
	Annotations() *ToolAnnotations
}

// Prompt is the interface for MCP prompts.
type Prompt interface {
	Definition() PromptDefinition
	// Get returns the prompt messages, optionally customized by arguments.
	Get(arguments map[string]string) (*PromptsGetResult, error)
}

// Resource is the interface for MCP resources.
type Resource interface {
	Definition() ResourceDefinition
	Read() (*ResourcesReadResult, error)
}

// ordered is a keyed set that remembers insertion order.
type ordered[T any] struct {
	kind  string
	items map[string]T
	order []string
}

func newOrdered[T any](kind string) ordered[T] {
	return ordered[T]{kind: kind, items: make(map[string]T)}
}

// add panics on a duplicate key; registration happens once at startup.
func (o *ordered[T]) add(key string, v T) {
	if _, exists := o.items[key]; exists {
		panic(fmt.Sprintf("%s %q already registered", o.kind, key))
	}
	o.items[key] = v
	o.order = append(o.order, key)
}

func (o *ordered[T]) values() []T {
	out := make([]T, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, o.items[k])
	}
	return out
}

// Registry holds all registered tools, prompts, and resources.
type Registry struct {
	mu        sync.RWMutex
	tools     ordered[Tool]
	prompts   ordered[Prompt]
	resources ordered[Resource] // keyed by URI
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     newOrdered[Tool]("tool"),
		prompts:   newOrdered[Prompt]("prompt"),
		resources: newOrdered[Resource]("resource"),
	}
}

// Register adds a tool. It panics if the name is taken.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools.add(t.Name(), t)
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools.items[name]
}

// List returns all tool definitions in registration order.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := r.tools.values()
	defs := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		ann := annotationsFor(t.Name())
		if a, ok := t.(Annotated); ok {
			ann = a.Annotations()
		}
		defs = append(defs, ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
			Annotations: ann,
		})
	}
	return defs
}

// Verbs that end an om_<kind>_<verb> tool name.
var (
	readVerbs        = []string{"get", "find", "graph"}
	destructiveVerbs = []string{"delete", "remove", "detach", "unlink", "unwire", "sweep"}
)

// annotationsFor derives hints from a tool name. Reads are read-only;
// deletes and unlinks are destructive; everything else adds or updates.
func annotationsFor(name string) *ToolAnnotations {
	yes, no := true, false
	words := strings.Split(name, "_")
	for _, w := range words[1:] {
		for _, v := range readVerbs {
			if w == v {
				return &ToolAnnotations{ReadOnlyHint: &yes, OpenWorldHint: &no}
			}
		}
		for _, v := range destructiveVerbs {
			if w == v {
				return &ToolAnnotations{ReadOnlyHint: &no, DestructiveHint: &yes, OpenWorldHint: &no}
			}
		}
	}
	return &ToolAnnotations{ReadOnlyHint: &no, DestructiveHint: &no, OpenWorldHint: &no}
}

// RegisterPrompt adds a prompt. It panics if the name is taken.
func (r *Registry) RegisterPrompt(p Prompt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts.add(p.Definition().Name, p)
}

// GetPrompt returns a prompt by name, or nil if not found.
func (r *Registry) GetPrompt(name string) Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts.items[name]
}

// ListPrompts returns all prompt definitions in registration order.
func (r *Registry) ListPrompts() []PromptDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]PromptDefinition, 0, len(r.prompts.order))
	for _, p := range r.prompts.values() {
		defs = append(defs, p.Definition())
	}
	return defs
}

// HasPrompts returns true if any prompts are registered.
func (r *Registry) HasPrompts() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts.order) > 0
}

// RegisterResource adds a resource. It panics if the URI is taken.
func (r *Registry) RegisterResource(res Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources.add(res.Definition().URI, res)
}

// GetResource returns a resource by URI, or nil if not found.
func (r *Registry) GetResource(uri string) Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources.items[uri]
}

// ListResources returns all resource definitions in registration order.
func (r *Registry) ListResources() []ResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ResourceDefinition, 0, len(r.resources.order))
	for _, res := range r.resources.values() {
		defs = append(defs, res.Definition())
	}
	return defs
}

// HasResources returns true if any resources are registered.
func (r *Registry) HasResources() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources.order) > 0
}
