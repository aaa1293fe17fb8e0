package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/faults"
)

type echoParams struct {
	Text string `json:"text"`
	Fail string `json:"fail,omitempty"`
}

func testServer(t *testing.T) *Server {
	t.Helper()
	reg := NewRegistry()
	reg.Register(NewTool("echo", "Echo the text back.", json.RawMessage(`{"type":"object"}`),
		func(_ context.Context, p echoParams) (any, error) {
			switch p.Fail {
			case "notfound":
				return nil, faults.NotFoundf("element %s not found", p.Text)
			case "server":
				return nil, errors.New("store unreachable")
			}
			return map[string]string{"echo": p.Text}, nil
		}))
	return NewServer(reg, ServerInfo{Name: "omviews", Version: "test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func call(t *testing.T, s *Server, msg string) *Response {
	t.Helper()
	resp := s.HandleMessage(context.Background(), []byte(msg))
	require.NotNil(t, resp)
	return resp
}

func toolResult(t *testing.T, resp *Response) *ToolsCallResult {
	t.Helper()
	require.Nil(t, resp.Error)
	res, ok := resp.Result.(*ToolsCallResult)
	require.True(t, ok, "result is %T", resp.Result)
	return res
}

func TestInitializeAndList(t *testing.T) {
	s := testServer(t)

	resp := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"t"}}}`)
	require.Nil(t, resp.Error)
	ir, ok := resp.Result.(*InitializeResult)
	require.True(t, ok)
	assert.Equal(t, "omviews", ir.ServerInfo.Name)
	assert.NotNil(t, ir.Capabilities.Tools)
	assert.Nil(t, ir.Capabilities.Prompts)

	resp = call(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	list, ok := resp.Result.(*ToolsListResult)
	require.True(t, ok)
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "echo", list.Tools[0].Name)

	assert.Nil(t, s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))

	resp = call(t, s, `{"jsonrpc":"2.0","id":3,"method":"bogus"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)

	resp = call(t, s, `not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)
}

func TestToolCallResults(t *testing.T) {
	s := testServer(t)

	res := toolResult(t, call(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`))
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.JSONEq(t, `{"echo":"hi"}`, res.Content[0].Text)

	res = toolResult(t, call(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"x","fail":"notfound"}}}`))
	assert.True(t, res.IsError)
	assert.Equal(t, "element x not found", res.Content[0].Text)

	res = toolResult(t, call(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"fail":"server"}}}`))
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(res.Content[0].Text, "tool execution failed: "))

	res = toolResult(t, call(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"echo","arguments":{"text":7}}}`))
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "invalid parameters")

	resp := call(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"missing"}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
}

func TestServeLineProtocol(t *testing.T) {
	s := testServer(t)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n\n" +
		`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"a"}}}` + "\n")
	var out bytes.Buffer

	require.NoError(t, s.Serve(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var first struct {
		ID json.RawMessage `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "1", string(first.ID))
	assert.Contains(t, lines[1], `\"echo\": \"a\"`)
}

func TestProtocolNegotiation(t *testing.T) {
	s := testServer(t)
	for requested, want := range map[string]string{
		"2024-11-05": "2024-11-05",
		"2025-03-26": "2025-03-26",
		"1999-01-01": "2025-03-26",
		"":           "2025-03-26",
	} {
		resp := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"`+requested+`"}}`)
		require.Nil(t, resp.Error)
		assert.Equal(t, want, resp.Result.(*InitializeResult).ProtocolVersion, requested)
	}

	resp := call(t, s, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)
}

func TestStructuredContent(t *testing.T) {
	res, err := JSONResult(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(res.StructuredContent))

	res, err = JSONResult([]string{"a"})
	require.NoError(t, err)
	assert.Nil(t, res.StructuredContent)
	assert.JSONEq(t, `["a"]`, res.Content[0].Text)
}

func TestAnnotationsFromName(t *testing.T) {
	tests := []struct {
		name                  string
		readOnly, destructive bool
	}{
		{"om_collection_get_by_name", true, false},
		{"om_collection_graph", true, false},
		{"om_contact_find", true, false},
		{"om_collection_delete", false, true},
		{"om_solution_component_unwire", false, true},
		{"om_collection_remove_member", false, true},
		{"om_anchor_sweep", false, true},
		{"om_collection_create", false, false},
		{"om_supply_chain_segment_link", false, false},
	}
	for _, tt := range tests {
		a := annotationsFor(tt.name)
		require.NotNil(t, a.ReadOnlyHint, tt.name)
		assert.Equal(t, tt.readOnly, *a.ReadOnlyHint, tt.name)
		destructive := a.DestructiveHint != nil && *a.DestructiveHint
		assert.Equal(t, tt.destructive, destructive, tt.name)
	}
}

type fixedPrompt struct{}

func (fixedPrompt) Definition() PromptDefinition { return PromptDefinition{Name: "p"} }
func (fixedPrompt) Get(args map[string]string) (*PromptsGetResult, error) {
	if args["bad"] != "" {
		return nil, errors.New("bad argument")
	}
	return UserMessage("d", "hello"), nil
}

func TestRegistryPrompts(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterPrompt(fixedPrompt{})
	assert.Panics(t, func() { reg.RegisterPrompt(fixedPrompt{}) })
	s := NewServer(reg, ServerInfo{Name: "omviews"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	resp := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"prompts/get","params":{"name":"p"}}`)
	require.Nil(t, resp.Error)
	got := resp.Result.(*PromptsGetResult)
	assert.Equal(t, "hello", got.Messages[0].Content.Text)
	assert.Equal(t, "user", got.Messages[0].Role)

	resp = call(t, s, `{"jsonrpc":"2.0","id":2,"method":"prompts/get","params":{"name":"p","arguments":{"bad":"x"}}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidParams, resp.Error.Code)

	resp = call(t, s, `{"jsonrpc":"2.0","id":3,"method":"resources/list"}`)
	require.Nil(t, resp.Error)
	assert.Empty(t, resp.Result.(*ResourcesListResult).Resources)
}
