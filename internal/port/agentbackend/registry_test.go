package agentbackend_test

import (
	"context"
	"testing"

	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
)

type testBackend struct {
	name string
}

func (b *testBackend) Name() string                           { return b.name }
func (b *testBackend) CheckAvailability(context.Context) bool { return true }
func (b *testBackend) Execute(_ context.Context, _ *agentbackend.ExecutionContext) (<-chan agentbackend.Event, error) {
	ch := make(chan agentbackend.Event)
	close(ch)
	return ch, nil
}

func init() {
	// The adapter packages are not linked into this test binary, so the
	// mock kind slot is free for a test factory.
	agentbackend.Register(agentbackend.KindMock, func(def agent.Definition) (agentbackend.Backend, error) {
		return &testBackend{name: def.Name}, nil
	})
}

func TestRegisterAndNew(t *testing.T) {
	def := agent.Definition{Name: "reviewer", Model: "test-model"}

	b, err := agentbackend.New(def)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "reviewer" {
		t.Fatalf("expected reviewer, got %s", b.Name())
	}
}

func TestNewUnknownKind(t *testing.T) {
	// claude is never registered in this binary.
	_, err := agentbackend.New(agent.Definition{Name: "x", Model: "claude-sonnet-4"})
	if err == nil {
		t.Fatal("expected error for unregistered kind")
	}
}

func TestKindFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4.5", agentbackend.KindClaude},
		{"Claude-Haiku-3.5", agentbackend.KindClaude},
		{"gpt-5", agentbackend.KindCodex},
		{"codex-mini", agentbackend.KindCodex},
		{"gemini-2.5-pro", agentbackend.KindGemini},
		{"test-success", agentbackend.KindMock},
		{"unknown-model", agentbackend.KindMock},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := agentbackend.KindFromModel(tt.model); got != tt.want {
				t.Errorf("KindFromModel(%q) = %s, want %s", tt.model, got, tt.want)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	found := false
	for _, k := range agentbackend.Available() {
		if k == agentbackend.KindMock {
			found = true
		}
	}
	if !found {
		t.Fatal("expected mock kind in available factories")
	}
}
