// Package service implements the PipeKit use cases: the backend registry,
// the pipeline step engine and the process state registry.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/PipeKit/internal/adapter/otel"
	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
	"github.com/Strob0t/PipeKit/internal/port/cache"
)

// AgentService is the backend registry: it resolves agent names to
// backends and implements availability-checked execution with single-level
// fallback. The backend map is read-only after construction.
type AgentService struct {
	backends map[string]agentbackend.Backend
	// fallback names the backend tried when the requested one is
	// unavailable. Empty disables fallback.
	fallback string

	probes   cache.Cache
	probeTTL time.Duration
	group    singleflight.Group
	metrics  *otel.Metrics
}

// NewAgentService builds one backend per agent definition. The probe
// cache is optional; without it every execution re-probes the backend.
func NewAgentService(defs []agent.Definition, fallback string, probes cache.Cache, probeTTL time.Duration) (*AgentService, error) {
	backends := make(map[string]agentbackend.Backend, len(defs))
	for _, def := range defs {
		b, err := agentbackend.New(def)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", def.Name, err)
		}
		backends[def.Name] = b
	}

	return &AgentService{
		backends: backends,
		fallback: fallback,
		probes:   probes,
		probeTTL: probeTTL,
	}, nil
}

// SetMetrics attaches metric instruments. Optional.
func (s *AgentService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// Backends returns the configured backend names.
func (s *AgentService) Backends() []string {
	names := make([]string, 0, len(s.backends))
	for name := range s.backends {
		names = append(names, name)
	}
	return names
}

// Execute resolves name and runs the execution context against it. If the
// backend is unavailable and a distinct fallback is configured, the
// fallback is tried once; the requested backend's Execute is never called
// when its probe fails. Fallback never chains.
func (s *AgentService) Execute(ctx context.Context, name string, ec *agentbackend.ExecutionContext) (<-chan agentbackend.Event, error) {
	b, ok := s.backends[name]
	if !ok {
		return nil, fmt.Errorf("backend %q: %w", name, agentbackend.ErrBackendNotFound)
	}

	if s.available(ctx, b) {
		return b.Execute(ctx, ec)
	}

	if s.fallback != "" && s.fallback != name {
		if fb, ok := s.backends[s.fallback]; ok && s.available(ctx, fb) {
			slog.Warn("backend unavailable, using fallback",
				"backend", name,
				"fallback", s.fallback,
			)
			if s.metrics != nil {
				s.metrics.FallbacksUsed.Add(ctx, 1)
			}
			return fb.Execute(ctx, ec)
		}
	}

	return nil, fmt.Errorf("backend %q: %w", name, agentbackend.ErrNotAvailable)
}

// available runs the backend's availability probe through the TTL cache.
// Concurrent probes for the same backend are collapsed.
func (s *AgentService) available(ctx context.Context, b agentbackend.Backend) bool {
	if s.probes == nil {
		return b.CheckAvailability(ctx)
	}

	key := "probe:" + b.Name()
	if val, ok, err := s.probes.Get(ctx, key); err == nil && ok {
		return string(val) == "1"
	}

	result, _, _ := s.group.Do(key, func() (any, error) {
		ok := b.CheckAvailability(ctx)
		val := []byte("0")
		if ok {
			val = []byte("1")
		}
		if err := s.probes.Set(ctx, key, val, s.probeTTL); err != nil {
			slog.Debug("probe cache set failed", "backend", b.Name(), "error", err)
		}
		return ok, nil
	})

	ok, _ := result.(bool)
	return ok
}
