package mcp

import "encoding/json"

const jsonrpcVersion = "2.0"

// Request is a JSON-RPC 2.0 request or, without an ID, a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // string, number or null
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response. A null
// ID counts as absent.
func (r *Request) IsNotification() bool { return r.ID == nil || string(r.ID) == "null" }

// Response carries either Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a protocol-level failure. Tool failures are reported as
// error results instead.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

func invalidParams(what string, err error) *RPCError {
	return &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid " + what + " params", Data: err.Error()}
}

func reply(id json.RawMessage, result any, rpcErr *RPCError) *Response {
	resp := &Response{JSONRPC: jsonrpcVersion, ID: id}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}
