package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/PipeKit/internal/adapter/otel"
	"github.com/Strob0t/PipeKit/internal/adapter/ws"
	"github.com/Strob0t/PipeKit/internal/domain"
	"github.com/Strob0t/PipeKit/internal/domain/pipeline"
	"github.com/Strob0t/PipeKit/internal/domain/process"
	"github.com/Strob0t/PipeKit/internal/port/broadcast"
)

// StateService is the instance registry: it owns all live processes and
// their cancellation handles, and exposes the pause/resume/kill control
// surface. The map-level lock is never held across engine work or
// subprocess I/O.
type StateService struct {
	engine *Engine
	events broadcast.Broadcaster

	mu      sync.RWMutex
	procs   map[string]*process.Process
	cancels map[string]context.CancelFunc

	wg      sync.WaitGroup
	metrics *otel.Metrics
}

// NewStateService creates the process registry.
func NewStateService(engine *Engine, events broadcast.Broadcaster) *StateService {
	return &StateService{
		engine:  engine,
		events:  events,
		procs:   make(map[string]*process.Process),
		cancels: make(map[string]context.CancelFunc),
	}
}

// SetMetrics attaches metric instruments. Optional.
func (s *StateService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// Start registers a new process for the pipeline and schedules its
// execution. The returned id is resolvable via Get before any background
// work runs. Never blocks on pipeline completion.
func (s *StateService) Start(ctx context.Context, def pipeline.Pipeline) (string, error) {
	if err := def.Validate(); err != nil {
		return "", fmt.Errorf("pipeline %q: %w", def.Name, err)
	}

	id := uuid.NewString()
	proc := process.New(id, def.Name)

	// The run outlives the request that started it; only Kill or
	// Shutdown cancel it.
	runCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.procs[id] = proc
	s.cancels[id] = cancel
	s.mu.Unlock()

	s.events.BroadcastEvent(ctx, ws.EventProcessStarted, ws.ProcessStartedEvent{
		ProcessID:    id,
		PipelineName: def.Name,
	})
	if s.metrics != nil {
		s.metrics.ProcessesStarted.Add(ctx, 1)
	}
	slog.Info("process started", "process_id", id, "pipeline", def.Name)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.dropCancel(id)
		s.engine.Run(runCtx, def, proc)
	}()

	return id, nil
}

// Pause suspends a running process at its next safe point.
func (s *StateService) Pause(ctx context.Context, id string) error {
	proc, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("process %q: %w", id, domain.ErrNotFound)
	}

	if proc.SetStatus(process.StatusPaused) {
		s.broadcastStatus(ctx, proc)
		slog.Info("process paused", "process_id", id)
	}
	return nil
}

// Resume wakes a paused or review-blocked process. The status transition
// happens before the wake-up signal so the engine observes Running when
// it unblocks.
func (s *StateService) Resume(ctx context.Context, id string) error {
	proc, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("process %q: %w", id, domain.ErrNotFound)
	}

	if proc.SetStatus(process.StatusRunning) {
		proc.SignalResume()
		s.broadcastStatus(ctx, proc)
		s.events.BroadcastEvent(ctx, ws.EventProcessResumed, ws.ProcessResumedEvent{
			ProcessID: id,
		})
		slog.Info("process resumed", "process_id", id)
	}
	return nil
}

// Kill forcefully cancels a process's background work and any live
// subprocess. Always succeeds for a known id, whatever the process was
// doing. The process stays queryable in its terminal state.
func (s *StateService) Kill(ctx context.Context, id string) error {
	s.mu.Lock()
	proc, ok := s.procs[id]
	cancel := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("process %q: %w", id, domain.ErrNotFound)
	}

	if cancel != nil {
		cancel()
	}

	if proc.SetStatus(process.StatusKilled) {
		s.broadcastStatus(ctx, proc)
		s.events.BroadcastEvent(ctx, ws.EventProcessKilled, ws.ProcessKilledEvent{
			ProcessID: id,
		})
		if s.metrics != nil {
			s.metrics.ProcessesKilled.Add(ctx, 1)
		}
		slog.Info("process killed", "process_id", id)
	}
	return nil
}

// Get returns a read-only snapshot of one process.
func (s *StateService) Get(id string) (process.Snapshot, error) {
	proc, ok := s.lookup(id)
	if !ok {
		return process.Snapshot{}, fmt.Errorf("process %q: %w", id, domain.ErrNotFound)
	}
	return proc.Snapshot(), nil
}

// List returns snapshots of all processes, live and terminal.
func (s *StateService) List() []process.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := make([]process.Snapshot, 0, len(s.procs))
	for _, proc := range s.procs {
		snaps = append(snaps, proc.Snapshot())
	}
	return snaps
}

// Shutdown kills all live processes and waits for their goroutines up to
// the timeout.
func (s *StateService) Shutdown(ctx context.Context, timeout time.Duration) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.Kill(ctx, id); err != nil {
			slog.Warn("shutdown kill failed", "process_id", id, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("shutdown timed out waiting for process goroutines")
	}
}

func (s *StateService) lookup(id string) (*process.Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proc, ok := s.procs[id]
	return proc, ok
}

func (s *StateService) dropCancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
}

func (s *StateService) broadcastStatus(ctx context.Context, proc *process.Process) {
	snap := proc.Snapshot()
	s.events.BroadcastEvent(ctx, ws.EventProcessStatusUpdate, ws.ProcessStatusUpdateEvent{
		ProcessID: snap.ID,
		Status:    string(snap.Status),
		StepIndex: snap.StepIndex,
	})
}
