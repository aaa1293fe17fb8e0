package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Protocol revisions this server speaks, newest first.
var protocolVersions = []string{"2025-03-26", "2024-11-05"}

// negotiateVersion echoes the client's revision when supported and
// otherwise offers the newest one.
func negotiateVersion(requested string) string {
	for _, v := range protocolVersions {
		if v == requested {
			return v
		}
	}
	return protocolVersions[0]
}

// --- Handshake ---

// InitializeParams is sent by the client during handshake.
type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    any        `json:"capabilities"`
	ClientInfo      ClientInfo `json:"clientInfo"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is returned to the client.
type InitializeResult struct {
	ProtocolVersion string           `json:"protocolVersion"`
	Capabilities    ServerCapability `json:"capabilities"`
	ServerInfo      ServerInfo       `json:"serverInfo"`
	Instructions    string           `json:"instructions,omitempty"`
}

// ServerCapability advertises the feature groups the server offers.
// A nil group is not offered.
type ServerCapability struct {
	Tools     *ListCapability `json:"tools,omitempty"`
	Prompts   *ListCapability `json:"prompts,omitempty"`
	Resources *ListCapability `json:"resources,omitempty"`
}

// ListCapability is the common shape of the tools, prompts and resources groups.
type ListCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// --- Tools ---

type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

type ToolDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema json.RawMessage  `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// ToolAnnotations are behaviour hints for clients. Nil hints are unknown.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    *bool  `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool  `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty"`
}

type ToolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolsCallResult is returned for tools/call. StructuredContent repeats
// an object result as JSON for clients that read it directly.
type ToolsCallResult struct {
	Content           []ContentBlock  `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent creates a text content block.
func TextContent(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ErrorResult creates an error tool result.
func ErrorResult(msg string) *ToolsCallResult {
	return &ToolsCallResult{
		Content: []ContentBlock{TextContent(msg)},
		IsError: true,
	}
}

// JSONResult marshals v as indented JSON text. Objects are also attached
// as structured content; lists and scalars are text only.
func JSONResult(v any) (*ToolsCallResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	res := &ToolsCallResult{Content: []ContentBlock{TextContent(string(b))}}
	if bytes.HasPrefix(b, []byte("{")) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, b); err == nil {
			res.StructuredContent = compact.Bytes()
		}
	}
	return res, nil
}

// --- Prompts ---

type PromptsListResult struct {
	Prompts []PromptDefinition `json:"prompts"`
}

type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type PromptsGetParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type PromptsGetResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

type PromptMessage struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// UserMessage is the single-message body every omviews prompt returns.
func UserMessage(description, text string) *PromptsGetResult {
	return &PromptsGetResult{
		Description: description,
		Messages:    []PromptMessage{{Role: "user", Content: TextContent(text)}},
	}
}

// --- Resources ---

type ResourcesListResult struct {
	Resources []ResourceDefinition `json:"resources"`
}

type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

type ResourcesReadParams struct {
	URI string `json:"uri"`
}

type ResourcesReadResult struct {
	Contents []ResourceContent `json:"contents"`
}

type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}
