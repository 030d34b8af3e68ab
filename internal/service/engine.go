package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/PipeKit/internal/adapter/otel"
	"github.com/Strob0t/PipeKit/internal/adapter/ws"
	"github.com/Strob0t/PipeKit/internal/domain/pipeline"
	"github.com/Strob0t/PipeKit/internal/domain/process"
	"github.com/Strob0t/PipeKit/internal/port/agentbackend"
	"github.com/Strob0t/PipeKit/internal/port/broadcast"
)

// Engine executes a pipeline's process list against one Process. It is
// stateless; one Run per process goroutine.
type Engine struct {
	agents  *AgentService
	events  broadcast.Broadcaster
	workDir string
	metrics *otel.Metrics
}

// NewEngine creates a step engine.
func NewEngine(agents *AgentService, events broadcast.Broadcaster, workDir string) *Engine {
	return &Engine{agents: agents, events: events, workDir: workDir}
}

// SetMetrics attaches metric instruments. Optional.
func (e *Engine) SetMetrics(m *otel.Metrics) { e.metrics = m }

// Run walks the pipeline's steps starting at the process's current step
// index and returns the terminal status. Cancellation of ctx stops the
// run promptly without further events; the kill operation owns the
// Killed transition.
func (e *Engine) Run(ctx context.Context, def pipeline.Pipeline, proc *process.Process) process.Status {
	start := time.Now()

	if proc.SetStatus(process.StatusRunning) {
		e.broadcastStatus(ctx, proc)
	}

	steps := def.Master.Process
	for i := proc.StepIndex(); i < len(steps); i++ {
		if ctx.Err() != nil {
			return proc.Status()
		}

		// A pause requested mid-step takes effect here, at the next
		// step boundary. Spurious wake-ups re-enter the wait.
		for proc.Status() == process.StatusPaused {
			if !e.waitResume(ctx, proc) {
				return proc.Status()
			}
		}
		if proc.Status().Terminal() {
			return proc.Status()
		}

		proc.SetStepIndex(i)

		step := steps[i]
		if step.HumanReview {
			if proc.SetStatus(process.StatusHumanReview) {
				e.broadcastStatus(ctx, proc)
			}
			for proc.Status() == process.StatusHumanReview {
				if !e.waitResume(ctx, proc) {
					return proc.Status()
				}
			}
			continue
		}

		if err := e.runAgentStep(ctx, def, proc, i, step.Agent); err != nil {
			if ctx.Err() != nil {
				return proc.Status()
			}
			if proc.SetStatus(process.StatusFailed) {
				e.broadcastStatus(ctx, proc)
				e.events.BroadcastEvent(ctx, ws.EventProcessError, ws.ProcessErrorEvent{
					ProcessID: proc.ID(),
					Error:     err.Error(),
				})
			}
			if e.metrics != nil {
				e.metrics.ProcessesFailed.Add(ctx, 1)
			}
			slog.Error("pipeline step failed",
				"process_id", proc.ID(),
				"pipeline", def.Name,
				"step", i,
				"error", err,
			)
			return proc.Status()
		}

		if e.metrics != nil {
			e.metrics.StepsExecuted.Add(ctx, 1)
		}
	}

	if proc.SetStatus(process.StatusCompleted) {
		e.events.BroadcastEvent(ctx, ws.EventProcessCompleted, ws.ProcessCompletedEvent{
			ProcessID: proc.ID(),
		})
		if e.metrics != nil {
			e.metrics.ProcessesCompleted.Add(ctx, 1)
			e.metrics.ProcessDuration.Record(ctx, time.Since(start).Seconds())
		}
	}
	return proc.Status()
}

// runAgentStep resolves the step's agent through the backend registry and
// forwards its event stream as log chunks.
func (e *Engine) runAgentStep(ctx context.Context, def pipeline.Pipeline, proc *process.Process, idx int, name string) error {
	e.emitLog(ctx, proc, fmt.Sprintf("Starting step %d: %s", idx+1, name))

	ec := &agentbackend.ExecutionContext{
		Instruction:     fmt.Sprintf("Execute step for pipeline: %s", def.Name),
		WorkDir:         e.workDir,
		FirstInvocation: idx == 0,
	}
	// Reference and output files are keyed by 1-based step index.
	if ref, ok := def.RequiredReferenceFile[uint32(idx)+1]; ok {
		ec.Attachments = append(ec.Attachments, ref)
	}
	if out, ok := def.OutputFile[uint32(idx)+1]; ok {
		ec.Instruction += fmt.Sprintf("\nWrite your result to: %s", out)
	}

	events, err := e.agents.Execute(ctx, name, ec)
	if err != nil {
		return fmt.Errorf("execute agent %q: %w", name, err)
	}

	completed := false
	for ev := range events {
		if ctx.Err() != nil || proc.Status().Terminal() {
			go drain(events)
			return ctx.Err()
		}

		switch ev.Type {
		case agentbackend.EventThought, agentbackend.EventMessageChunk:
			e.emitLog(ctx, proc, ev.Text)

		case agentbackend.EventToolCall:
			e.emitLog(ctx, proc, "Tool: "+ev.Text)

		case agentbackend.EventCompleted:
			completed = true

		case agentbackend.EventError:
			var parseErr *agentbackend.ParseError
			if errors.As(ev.Err, &parseErr) {
				// Malformed output lines are diagnostics, not failures.
				e.emitLog(ctx, proc, "Unparseable output: "+parseErr.Line)
				continue
			}
			go drain(events)
			return ev.Err
		}
	}

	if !completed {
		return fmt.Errorf("agent %q stream ended without completion", name)
	}
	return nil
}

// emitLog appends a chunk to the process log and forwards it immediately.
func (e *Engine) emitLog(ctx context.Context, proc *process.Process, text string) {
	proc.AppendLog(text)
	e.events.BroadcastEvent(ctx, ws.EventProcessLogChunk, ws.ProcessLogChunkEvent{
		ProcessID: proc.ID(),
		Content:   text,
	})
}

// waitResume blocks until the process is woken or ctx is cancelled.
func (e *Engine) waitResume(ctx context.Context, proc *process.Process) bool {
	select {
	case <-proc.ResumeCh():
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) broadcastStatus(ctx context.Context, proc *process.Process) {
	snap := proc.Snapshot()
	e.events.BroadcastEvent(ctx, ws.EventProcessStatusUpdate, ws.ProcessStatusUpdateEvent{
		ProcessID: snap.ID,
		Status:    string(snap.Status),
		StepIndex: snap.StepIndex,
	})
}

// drain consumes a leftover event stream so its producer goroutine can
// finish.
func drain(ch <-chan agentbackend.Event) {
	for range ch {
	}
}
