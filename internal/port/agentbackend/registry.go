package agentbackend

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Strob0t/PipeKit/internal/domain/agent"
)

// Backend kinds, selected by model identifier.
const (
	KindClaude = "claude"
	KindCodex  = "codex"
	KindGemini = "gemini"
	KindMock   = "mock"
)

// Factory is a constructor function that creates a Backend from an agent
// definition.
type Factory func(def agent.Definition) (Backend, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a backend factory available under a kind.
// It is typically called from an init() function in the adapter package.
func Register(kind string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("agentbackend: duplicate registration for %q", kind))
	}
	factories[kind] = factory
}

// New creates a Backend for the definition using the factory registered
// for the kind derived from its model identifier.
func New(def agent.Definition) (Backend, error) {
	kind := KindFromModel(def.Model)

	mu.RLock()
	factory, ok := factories[kind]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("agentbackend: no factory for kind %q (model %q)", kind, def.Model)
	}
	return factory(def)
}

// Available returns the kinds of all registered factories.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	return kinds
}

// KindFromModel infers the backend kind from a model identifier.
// Unknown models map to the mock backend.
func KindFromModel(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "claude"):
		return KindClaude
	case strings.HasPrefix(m, "gpt"), strings.Contains(m, "codex"):
		return KindCodex
	case strings.Contains(m, "gemini"):
		return KindGemini
	default:
		return KindMock
	}
}
