// Package cliexec provides the shared subprocess layer for CLI agent
// backends: spawn a tool, parse its stdout as line-delimited JSON, and
// remember session ids per working directory. Backend adapters only supply
// the translation from their native object shapes to agent events.
package cliexec

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

// maxLineBytes bounds a single output line. Agent CLIs emit whole JSON
// objects per line, which can carry large embedded file contents.
const maxLineBytes = 4 * 1024 * 1024

// Command describes one subprocess invocation.
type Command struct {
	Program string
	Args    []string
	WorkDir string
	// Env entries are appended to the parent environment.
	Env []string
	// Stdin, when non-empty, is written to the subprocess and then closed.
	Stdin string
}

// Line is one item of the parsed output stream: Data holds a raw JSON
// object, or Err the reason this line could not be parsed. A parse error
// does not end the stream.
type Line struct {
	Data json.RawMessage
	Err  error
}

// Stream spawns the command and returns a channel of parsed stdout lines.
// Empty lines are skipped. The channel closes when the subprocess exits or
// ctx is cancelled; cancellation kills the subprocess.
func Stream(ctx context.Context, cmd Command) (<-chan Line, error) {
	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...) //nolint:gosec // G204: program comes from backend configuration
	c.Dir = cmd.WorkDir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("cliexec: stdout pipe: %w", err)
	}
	c.Stderr = nil

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("cliexec: spawn %s: %w", cmd.Program, err)
	}

	out := make(chan Line)
	go func() {
		defer close(out)
		// Wait reaps the subprocess after the read loop ends, including
		// the kill-on-cancel path.
		defer func() { _ = c.Wait() }()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			var raw json.RawMessage
			line := Line{}
			if err := json.Unmarshal([]byte(text), &raw); err != nil {
				line.Err = &agentbackend.ParseError{Line: text, Err: err}
			} else {
				line.Data = raw
			}

			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Probe runs the program with the given arguments and reports whether it
// exited successfully. Used for availability checks.
func Probe(ctx context.Context, program string, args ...string) bool {
	c := exec.CommandContext(ctx, program, args...) //nolint:gosec // G204: program comes from backend configuration
	c.Stdout = nil
	c.Stderr = nil
	return c.Run() == nil
}
