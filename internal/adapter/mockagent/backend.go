// Package mockagent implements a scripted agent backend used by tests and
// by unknown model identifiers.
package mockagent

import (
	"context"
	"errors"

	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

// Models selecting the built-in scripts.
const (
	ModelSuccess     = "test-success"
	ModelUnavailable = "test-unavailable"
	ModelFailing     = "test-failing"
)

func init() {
	agentbackend.Register(agentbackend.KindMock, func(def agent.Definition) (agentbackend.Backend, error) {
		return New(def), nil
	})
}

// Backend replays a fixed event sequence instead of spawning a subprocess.
type Backend struct {
	name      string
	available bool
	events    []agentbackend.Event
}

// New selects a script by model identifier. Unknown models behave like
// ModelSuccess.
func New(def agent.Definition) *Backend {
	switch def.Model {
	case ModelUnavailable:
		return Unavailable(def.Name)
	case ModelFailing:
		return Failing(def.Name)
	default:
		return Success(def.Name)
	}
}

// Success returns a backend that emits a thought, a message chunk and a
// completion.
func Success(name string) *Backend {
	return NewScripted(name, true, []agentbackend.Event{
		{Type: agentbackend.EventThought, Text: "Mock agent thinking"},
		{Type: agentbackend.EventMessageChunk, Text: "Mock response"},
		{Type: agentbackend.EventCompleted},
	})
}

// Unavailable returns a backend whose availability check always fails.
func Unavailable(name string) *Backend {
	return NewScripted(name, false, nil)
}

// Failing returns a backend that starts and then surfaces an execution
// error without completing.
func Failing(name string) *Backend {
	return NewScripted(name, true, []agentbackend.Event{
		{Type: agentbackend.EventThought, Text: "Starting..."},
		{Type: agentbackend.EventError, Err: errors.New("mock failure")},
	})
}

// NewScripted builds a backend replaying an arbitrary event sequence.
func NewScripted(name string, available bool, events []agentbackend.Event) *Backend {
	return &Backend{name: name, available: available, events: events}
}

// Name returns the agent definition name.
func (b *Backend) Name() string { return b.name }

// CheckAvailability reports the scripted availability.
func (b *Backend) CheckAvailability(context.Context) bool { return b.available }

// Execute replays the scripted events.
func (b *Backend) Execute(ctx context.Context, _ *agentbackend.ExecutionContext) (<-chan agentbackend.Event, error) {
	if !b.available {
		return nil, agentbackend.ErrNotAvailable
	}

	out := make(chan agentbackend.Event)
	go func() {
		defer close(out)
		for _, ev := range b.events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
