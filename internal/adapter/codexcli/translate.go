package codexcli

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Prompt string `json:"prompt"`
	System string `json:"system"`
}

type rpcResponse struct {
	Result *rpcResult `json:"result"`
	Error  *rpcError  `json:"error"`
}

type rpcResult struct {
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	ToolEvent *toolEvent `json:"tool_event"`
}

type toolEvent struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Patch   string `json:"patch"`
	Query   string `json:"query"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// translate maps one JSON-RPC response object to a normalized event.
func translate(raw json.RawMessage) (agentbackend.Event, bool) {
	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return agentbackend.Event{
			Type: agentbackend.EventError,
			Err:  &agentbackend.ParseError{Line: string(raw), Err: err},
		}, true
	}

	if resp.Error != nil {
		return agentbackend.Event{
			Type: agentbackend.EventError,
			Err:  fmt.Errorf("codex rpc error (code %d): %s", resp.Error.Code, resp.Error.Message),
		}, true
	}

	if resp.Result == nil {
		return agentbackend.Event{}, false
	}

	switch resp.Result.Type {
	case "message":
		if resp.Result.Content != "" {
			return agentbackend.Event{
				Type: agentbackend.EventMessageChunk,
				Text: resp.Result.Content,
			}, true
		}

	case "tool_event":
		if resp.Result.ToolEvent != nil {
			return agentbackend.Event{
				Type: agentbackend.EventToolCall,
				Text: describeTool(resp.Result.ToolEvent),
			}, true
		}

	case "done", "completed":
		return agentbackend.Event{Type: agentbackend.EventCompleted}, true
	}

	return agentbackend.Event{}, false
}

func describeTool(te *toolEvent) string {
	var desc map[string]string
	switch te.Type {
	case "exec_command":
		desc = map[string]string{"type": te.Type, "command": te.Command}
	case "patch_apply":
		desc = map[string]string{"type": te.Type, "patch": te.Patch}
	case "web_search":
		desc = map[string]string{"type": te.Type, "query": te.Query}
	case "mcp_tool_call":
		desc = map[string]string{"type": te.Type}
	default:
		desc = map[string]string{"type": "unknown", "tool_type": te.Type}
	}

	data, err := json.Marshal(desc)
	if err != nil {
		return te.Type
	}
	return string(data)
}
