// Package codexcli implements the agent backend for the Codex CLI, which
// speaks JSON-RPC over stdin/stdout.
package codexcli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Strob0t/PipeKit/internal/adapter/cliexec"
	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

const binary = "codex"

// rolloutDir holds per-project session rollout files, relative to the
// working directory.
const rolloutDir = ".pipekit/codex_rollouts"

func init() {
	agentbackend.Register(agentbackend.KindCodex, func(def agent.Definition) (agentbackend.Backend, error) {
		return New(def), nil
	})
}

// Backend runs agent steps through the codex CLI.
type Backend struct {
	name         string
	model        string
	systemPrompt string
}

// New creates a Codex backend from an agent definition.
func New(def agent.Definition) *Backend {
	return &Backend{
		name:         def.Name,
		model:        def.Model,
		systemPrompt: def.SystemPrompt,
	}
}

// Name returns the agent definition name.
func (b *Backend) Name() string { return b.name }

// CheckAvailability requires both the codex CLI and an API key in the
// environment.
func (b *Backend) CheckAvailability(ctx context.Context) bool {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return false
	}
	return cliexec.Probe(ctx, binary, "--version")
}

// Execute spawns the codex CLI, sends one execute request on stdin and
// translates the JSON-RPC responses.
func (b *Backend) Execute(ctx context.Context, ec *agentbackend.ExecutionContext) (<-chan agentbackend.Event, error) {
	if err := b.ensureAgentsFile(ec.WorkDir); err != nil {
		return nil, err
	}

	rollout, err := rolloutPath(ec.WorkDir)
	if err != nil {
		return nil, err
	}

	request, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "execute",
		Params: rpcParams{
			Prompt: cliexec.PromptWithAttachments(ec.Instruction, ec.Attachments),
			System: b.systemPrompt,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("codexcli: marshal request: %w", err)
	}

	lines, err := cliexec.Stream(ctx, cliexec.Command{
		Program: binary,
		Args: []string{
			"--model", b.model,
			"--approval-policy", "allow-all",
			"--rollout", rollout,
			"--output-format", "jsonrpc",
		},
		WorkDir: ec.WorkDir,
		Stdin:   string(request) + "\n",
	})
	if err != nil {
		return nil, fmt.Errorf("codexcli: %w", err)
	}

	out := make(chan agentbackend.Event)
	go func() {
		defer close(out)

		for line := range lines {
			var ev agentbackend.Event
			if line.Err != nil {
				ev = agentbackend.Event{Type: agentbackend.EventError, Err: line.Err}
			} else {
				translated, ok := translate(line.Data)
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

// ensureAgentsFile materialises the system prompt as AGENTS.md in the
// project root; the codex CLI reads its instructions from there.
func (b *Backend) ensureAgentsFile(workDir string) error {
	path := filepath.Join(workDir, "AGENTS.md")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(b.systemPrompt), 0o644); err != nil { //nolint:gosec // G306: instructions file, not a secret
		return fmt.Errorf("codexcli: write AGENTS.md: %w", err)
	}
	return nil
}

// rolloutPath returns the per-project session rollout file, creating its
// directory on first use.
func rolloutPath(workDir string) (string, error) {
	dir := filepath.Join(workDir, rolloutDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("codexcli: rollout directory: %w", err)
	}
	return filepath.Join(dir, cliexec.ProjectKey(workDir)+".yaml"), nil
}
