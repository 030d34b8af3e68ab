package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/PipeKit/internal/domain/pipeline"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

// fakeBackend is a scripted backend with call counters. When gate is
// non-nil, Execute waits for it to close before streaming.
type fakeBackend struct {
	name      string
	available bool
	gate      chan struct{}
	events    []agentbackend.Event

	probeCalls atomic.Int32
	execCalls  atomic.Int32

	mu     sync.Mutex
	lastEC *agentbackend.ExecutionContext
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) CheckAvailability(context.Context) bool {
	b.probeCalls.Add(1)
	return b.available
}

func (b *fakeBackend) Execute(ctx context.Context, ec *agentbackend.ExecutionContext) (<-chan agentbackend.Event, error) {
	b.execCalls.Add(1)
	b.mu.Lock()
	b.lastEC = ec
	b.mu.Unlock()

	out := make(chan agentbackend.Event)
	go func() {
		defer close(out)
		if b.gate != nil {
			select {
			case <-b.gate:
			case <-ctx.Done():
				return
			}
		}
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

func (b *fakeBackend) execContext() *agentbackend.ExecutionContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastEC
}

func successEvents() []agentbackend.Event {
	return []agentbackend.Event{
		{Type: agentbackend.EventThought, Text: "thinking"},
		{Type: agentbackend.EventMessageChunk, Text: "done"},
		{Type: agentbackend.EventCompleted},
	}
}

// newAgents wires fake backends directly, bypassing the factory registry.
func newAgents(backends map[string]agentbackend.Backend, fallback string) *AgentService {
	return &AgentService{backends: backends, fallback: fallback}
}

// recorder captures broadcast events in order.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Type    string
	Payload any
}

func (r *recorder) BroadcastEvent(_ context.Context, eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Payload: payload})
}

func (r *recorder) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) countType(eventType string) int {
	n := 0
	for _, ev := range r.snapshot() {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// memCache is an in-memory cache.Cache that ignores TTLs.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.items[key]
	return val, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func agentStep(name string) pipeline.Step { return pipeline.Step{Agent: name} }

func reviewStep() pipeline.Step { return pipeline.Step{HumanReview: true} }

func testPipeline(name string, steps ...pipeline.Step) pipeline.Pipeline {
	var subs []string
	for _, s := range steps {
		if !s.HumanReview {
			subs = append(subs, s.Agent)
		}
	}
	return pipeline.Pipeline{
		Name:      name,
		Master:    pipeline.Master{Model: "test-success", Process: steps},
		SubAgents: subs,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
