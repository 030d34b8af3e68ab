// Package agentbackend defines the agent backend port and the normalized
// event vocabulary every backend's native output is translated into.
package agentbackend

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBackendNotFound indicates no backend is registered under the
	// requested name.
	ErrBackendNotFound = errors.New("backend not found")

	// ErrNotAvailable indicates neither the requested backend nor its
	// fallback passed the availability check.
	ErrNotAvailable = errors.New("no suitable backend available")
)

// ParseError reports a line of subprocess output that could not be parsed.
// It is a diagnostic: the stream continues past it.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EventType discriminates normalized agent events.
type EventType string

const (
	// EventThought carries intermediate reasoning text.
	EventThought EventType = "thought"
	// EventToolCall carries a description of a tool invocation.
	EventToolCall EventType = "tool_call"
	// EventMessageChunk carries a chunk of assistant output.
	EventMessageChunk EventType = "message_chunk"
	// EventCompleted marks successful completion of the invocation.
	EventCompleted EventType = "completed"
	// EventError carries a non-fatal diagnostic or a terminal failure.
	EventError EventType = "error"
)

// Event is one normalized agent event. Text holds the chunk, thought or
// tool description; Err is set only for EventError.
type Event struct {
	Type EventType
	Text string
	Err  error
}

// ExecutionContext is the input to one backend invocation.
type ExecutionContext struct {
	// Instruction is the prompt text for this step.
	Instruction string
	// WorkDir is the working directory the subprocess runs in. It also
	// keys session continuation.
	WorkDir string
	// FirstInvocation marks the first call for a process; backends may
	// restrict capabilities on the initial prompt.
	FirstInvocation bool
	// Attachments holds optional file or image references.
	Attachments []string
}

// Backend is the port interface wrapping one external AI command-line tool.
type Backend interface {
	// Name returns the unique identifier for this backend instance,
	// matching the agent definition name.
	Name() string

	// CheckAvailability reports whether the underlying tool is installed
	// and authenticated. It must be cheap and side-effect free.
	CheckAvailability(ctx context.Context) bool

	// Execute spawns the tool and returns its normalized event stream.
	// The channel closes when the subprocess finishes or ctx is
	// cancelled; cancellation terminates the subprocess.
	Execute(ctx context.Context, ec *ExecutionContext) (<-chan Event, error)
}
