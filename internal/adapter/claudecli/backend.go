// Package claudecli implements the agent backend for the Claude CLI.
package claudecli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Strob0t/PipeKit/internal/adapter/cliexec"
	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

const binary = "claude"

// The initial prompt runs without TodoWrite; follow-up prompts allow it.
const (
	initialTools    = "Read,Write,Edit,MultiEdit,Bash,Glob,Grep,LS,WebFetch,WebSearch"
	subsequentTools = initialTools + ",TodoWrite"
)

func init() {
	agentbackend.Register(agentbackend.KindClaude, func(def agent.Definition) (agentbackend.Backend, error) {
		return New(def), nil
	})
}

// Backend runs agent steps through the claude CLI, parsing its JSON Lines
// output.
type Backend struct {
	name         string
	model        string
	systemPrompt string
	sessions     *cliexec.SessionStore
}

// New creates a Claude backend from an agent definition.
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

// CheckAvailability probes the claude CLI with its help flag.
func (b *Backend) CheckAvailability(ctx context.Context) bool {
	return cliexec.Probe(ctx, binary, "-h")
}

// Execute spawns the claude CLI for one step and translates its output.
func (b *Backend) Execute(ctx context.Context, ec *agentbackend.ExecutionContext) (<-chan agentbackend.Event, error) {
	settingsPath, cleanup, err := b.writeSettings()
	if err != nil {
		return nil, err
	}

	sessionID, _ := b.sessions.Get(ec.WorkDir)

	lines, err := cliexec.Stream(ctx, cliexec.Command{
		Program: binary,
		Args:    b.buildArgs(settingsPath, sessionID, ec),
		WorkDir: ec.WorkDir,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("claudecli: %w", err)
	}

	out := make(chan agentbackend.Event)
	go func() {
		defer close(out)
		defer cleanup()

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

// writeSettings materialises the system prompt as a temporary settings
// file for the CLI. The returned cleanup removes it.
func (b *Backend) writeSettings() (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "claude-settings-*.json")
	if err != nil {
		return "", nil, fmt.Errorf("claudecli: settings file: %w", err)
	}

	settings := map[string]string{"customSystemPrompt": b.systemPrompt}
	if err := json.NewEncoder(f).Encode(settings); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("claudecli: write settings: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("claudecli: close settings: %w", err)
	}

	return f.Name(), func() { _ = os.Remove(f.Name()) }, nil
}

func (b *Backend) buildArgs(settingsPath, sessionID string, ec *agentbackend.ExecutionContext) []string {
	args := []string{
		"--settings", settingsPath,
		"--model", b.model,
		"--permission-mode", "bypassPermissions",
		"--continue-conversation",
	}

	if ec.FirstInvocation {
		args = append(args,
			"--allowed-tools", initialTools,
			"--disallowed-tools", "TodoWrite",
		)
	} else {
		args = append(args, "--allowed-tools", subsequentTools)
	}

	if sessionID != "" {
		args = append(args, "--resume-session-id", sessionID)
	}

	return append(args, "--prompt", cliexec.PromptWithAttachments(ec.Instruction, ec.Attachments))
}
