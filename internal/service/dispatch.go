package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Strob0t/PipeKit/internal/adapter/ws"
	"github.com/Strob0t/PipeKit/internal/port/broadcast"
)

// Dispatcher routes inbound {type, payload} control messages to the
// services. It is installed as the hub's op handler and mirrors the HTTP
// control surface.
type Dispatcher struct {
	pipelines *PipelineService
	state     *StateService
	events    broadcast.Broadcaster

	// shutdown requests a server-wide graceful stop. Optional.
	shutdown func()
}

// NewDispatcher creates a control message dispatcher.
func NewDispatcher(pipelines *PipelineService, state *StateService, events broadcast.Broadcaster, shutdown func()) *Dispatcher {
	return &Dispatcher{
		pipelines: pipelines,
		state:     state,
		events:    events,
		shutdown:  shutdown,
	}
}

// Handle consumes one control message. Errors are reported back to clients
// as processError events; a malformed message never tears down the
// connection.
func (d *Dispatcher) Handle(ctx context.Context, msg ws.Message) {
	var err error
	switch msg.Type {
	case ws.OpStartPipeline:
		err = d.handleStart(ctx, msg.Payload)
	case ws.OpPauseProcess:
		err = d.handleProcessOp(msg.Payload, func(op ws.ProcessOp) error {
			return d.state.Pause(ctx, op.ProcessID)
		})
	case ws.OpResumeProcess:
		err = d.handleProcessOp(msg.Payload, func(op ws.ProcessOp) error {
			return d.state.Resume(ctx, op.ProcessID)
		})
	case ws.OpKillProcess:
		err = d.handleProcessOp(msg.Payload, func(op ws.ProcessOp) error {
			return d.state.Kill(ctx, op.ProcessID)
		})
	case ws.OpGetDashboardState:
		d.events.BroadcastEvent(ctx, ws.EventDashboardState, d.dashboardState())
	case ws.OpGetProcessDetail:
		err = d.handleProcessOp(msg.Payload, func(op ws.ProcessOp) error {
			snap, err := d.state.Get(op.ProcessID)
			if err != nil {
				return err
			}
			d.events.BroadcastEvent(ctx, ws.EventProcessDetail, ws.ProcessDetailEvent{Process: snap})
			return nil
		})
	case ws.OpShutdown:
		slog.Info("shutdown requested via control channel")
		if d.shutdown != nil {
			d.shutdown()
		}
	default:
		err = fmt.Errorf("unknown op %q", msg.Type)
	}

	if err != nil {
		slog.Warn("control op failed", "op", msg.Type, "error", err)
		d.events.BroadcastEvent(ctx, ws.EventProcessError, ws.ProcessErrorEvent{
			Error: err.Error(),
		})
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, payload json.RawMessage) error {
	var op ws.StartPipelineOp
	if err := json.Unmarshal(payload, &op); err != nil {
		return fmt.Errorf("decode startPipeline: %w", err)
	}

	def, err := d.pipelines.Resolve(op.Name, op.ReferenceFile)
	if err != nil {
		return err
	}

	_, err = d.state.Start(ctx, def)
	return err
}

func (d *Dispatcher) handleProcessOp(payload json.RawMessage, fn func(ws.ProcessOp) error) error {
	var op ws.ProcessOp
	if err := json.Unmarshal(payload, &op); err != nil {
		return fmt.Errorf("decode process op: %w", err)
	}
	if op.ProcessID == "" {
		return fmt.Errorf("process_id is required")
	}
	return fn(op)
}

func (d *Dispatcher) dashboardState() ws.DashboardStateEvent {
	snaps := d.state.List()
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CreatedAt.Before(snaps[j].CreatedAt) })

	return ws.DashboardStateEvent{
		Processes: snaps,
		Pipelines: d.pipelines.List(),
	}
}
