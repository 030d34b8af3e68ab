// Package geminicli implements the agent backend for the Gemini CLI.
package geminicli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Strob0t/PipeKit/internal/adapter/cliexec"
	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

const binary = "gemini"

func init() {
	agentbackend.Register(agentbackend.KindGemini, func(def agent.Definition) (agentbackend.Backend, error) {
		return New(def), nil
	})
}

// Backend runs agent steps through the gemini CLI, parsing its NDJSON
// output.
type Backend struct {
	name         string
	model        string
	systemPrompt string
	sessions     *cliexec.SessionStore
}

// New creates a Gemini backend from an agent definition.
func New(def agent.Definition) *Backend {
	return &Backend{
		name:         def.Name,
		model:        def.Model,
		systemPrompt: def.SystemPrompt,
		sessions:     cliexec.NewSessionStore(),
	}
}

// Name returns the agent definition name.
func (b *Backend) Name() string { return b.name }

// CheckAvailability requires both the gemini CLI and an API key in the
// environment.
func (b *Backend) CheckAvailability(ctx context.Context) bool {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return false
	}
	return cliexec.Probe(ctx, binary, "--version")
}

// Execute spawns the gemini CLI for one step and translates its output.
func (b *Backend) Execute(ctx context.Context, ec *agentbackend.ExecutionContext) (<-chan agentbackend.Event, error) {
	args := []string{
		"--model", b.model,
		"--system-instruction", b.systemPrompt,
		"--output-format", "ndjson",
		"--yolo",
	}
	if sessionID, ok := b.sessions.Get(ec.WorkDir); ok {
		args = append(args, "--resume", sessionID)
	}
	args = append(args, "--prompt", cliexec.PromptWithAttachments(ec.Instruction, ec.Attachments))

	lines, err := cliexec.Stream(ctx, cliexec.Command{
		Program: binary,
		Args:    args,
		WorkDir: ec.WorkDir,
	})
	if err != nil {
		return nil, fmt.Errorf("geminicli: %w", err)
	}

	out := make(chan agentbackend.Event)
	go func() {
		defer close(out)

		for line := range lines {
			var ev agentbackend.Event
			if line.Err != nil {
				ev = agentbackend.Event{Type: agentbackend.EventError, Err: line.Err}
			} else {
				translated, ok := b.translate(ec.WorkDir, line.Data)
				if !ok {
					continue
				}
				ev = translated
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// message is the subset of the gemini CLI wire format the translator
// recognizes.
type message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Content   string          `json:"content"`
	Thought   string          `json:"thought"`
	Tool      json.RawMessage `json:"tool"`
	Status    string          `json:"status"`
}

// translate maps one parsed NDJSON object to a normalized event.
func (b *Backend) translate(workDir string, raw json.RawMessage) (agentbackend.Event, bool) {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return agentbackend.Event{
			Type: agentbackend.EventError,
			Err:  &agentbackend.ParseError{Line: string(raw), Err: err},
		}, true
	}

	switch msg.Type {
	case "init":
		b.sessions.Set(workDir, msg.SessionID)
		return agentbackend.Event{}, false

	case "thought":
		if msg.Thought != "" {
			return agentbackend.Event{Type: agentbackend.EventThought, Text: msg.Thought}, true
		}

	case "content":
		if msg.Content != "" {
			return agentbackend.Event{Type: agentbackend.EventMessageChunk, Text: msg.Content}, true
		}

	case "tool":
		return agentbackend.Event{Type: agentbackend.EventToolCall, Text: string(msg.Tool)}, true

	case "result":
		b.sessions.Set(workDir, msg.SessionID)
		if msg.Status != "" && msg.Status != "success" {
			return agentbackend.Event{
				Type: agentbackend.EventError,
				Err:  fmt.Errorf("gemini run ended with status %q", msg.Status),
			}, true
		}
		return agentbackend.Event{Type: agentbackend.EventCompleted}, true
	}

	return agentbackend.Event{}, false
}
