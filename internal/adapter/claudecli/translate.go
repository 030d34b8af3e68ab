package claudecli

import (
	"encoding/json"

	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

// message is the subset of the claude CLI wire format the translator
// recognizes.
type message struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Content   []contentBlock `json:"content"`
	IsError   bool           `json:"is_error"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// translate maps one parsed CLI object to a normalized event. Bookkeeping
// objects (system handshake, echoed user input, tool results) produce no
// event; their session ids are still recorded for continuation.
func (b *Backend) translate(workDir string, raw json.RawMessage) (agentbackend.Event, bool) {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return agentbackend.Event{
			Type: agentbackend.EventError,
			Err:  &agentbackend.ParseError{Line: string(raw), Err: err},
		}, true
	}

	switch msg.Type {
	case "system":
		b.sessions.Set(workDir, msg.SessionID)
		return agentbackend.Event{}, false

	case "assistant":
		return translateContent(msg.Content)

	case "result":
		// The result object carries the authoritative session id.
		b.sessions.Set(workDir, msg.SessionID)
		return agentbackend.Event{Type: agentbackend.EventCompleted}, true
	}

	// User echoes and unknown object types are not surfaced.
	return agentbackend.Event{}, false
}

// translateContent surfaces the first meaningful block of an assistant
// message.
func translateContent(blocks []contentBlock) (agentbackend.Event, bool) {
	for _, block := range blocks {
		switch block.Type {
		case "text":
			if block.Text != "" {
				return agentbackend.Event{
					Type: agentbackend.EventMessageChunk,
					Text: block.Text,
				}, true
			}
		case "tool_use":
			desc, err := json.Marshal(map[string]any{
				"name":  block.Name,
				"input": block.Input,
			})
			if err != nil {
				desc = []byte(`{"name":"` + block.Name + `"}`)
			}
			return agentbackend.Event{
				Type: agentbackend.EventToolCall,
				Text: string(desc),
			}, true
		}
		// tool_result blocks are not surfaced.
	}
	return agentbackend.Event{}, false
}
