package mockagent

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

func drain(t *testing.T, ch <-chan agentbackend.Event) []agentbackend.Event {
	t.Helper()
	var events []agentbackend.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestSuccessScript(t *testing.T) {
	b := New(agent.Definition{Name: "mock", Model: ModelSuccess})

	if !b.CheckAvailability(context.Background()) {
		t.Fatal("expected available")
	}

	ch, err := b.Execute(context.Background(), &agentbackend.ExecutionContext{Instruction: "go"})
	if err != nil {
		t.Fatal(err)
	}

	events := drain(t, ch)
	want := []agentbackend.EventType{
		agentbackend.EventThought,
		agentbackend.EventMessageChunk,
		agentbackend.EventCompleted,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], ev.Type)
		}
	}
}

func TestUnavailableScript(t *testing.T) {
	b := New(agent.Definition{Name: "mock", Model: ModelUnavailable})

	if b.CheckAvailability(context.Background()) {
		t.Fatal("expected unavailable")
	}

	_, err := b.Execute(context.Background(), &agentbackend.ExecutionContext{})
	if !errors.Is(err, agentbackend.ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}

func TestFailingScript(t *testing.T) {
	b := New(agent.Definition{Name: "mock", Model: ModelFailing})

	ch, err := b.Execute(context.Background(), &agentbackend.ExecutionContext{})
	if err != nil {
		t.Fatal(err)
	}

	events := drain(t, ch)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Type != agentbackend.EventError || last.Err == nil {
		t.Errorf("expected trailing error event, got %+v", last)
	}
}

func TestExecuteStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := Success("mock")
	ch, err := b.Execute(ctx, &agentbackend.ExecutionContext{})
	if err != nil {
		t.Fatal(err)
	}

	// The channel must close even though nothing reads the events.
	events := drain(t, ch)
	if len(events) == len(Success("mock").events) {
		// Either zero or a prefix is fine, full delivery is not required,
		// but the channel closing is.
		t.Log("all events delivered before cancellation took effect")
	}
}
