package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event types broadcast to clients. Type tags are camelCase for
// cross-language consumers.
const (
	EventProcessStarted      = "processStarted"
	EventProcessStatusUpdate = "processStatusUpdate"
	EventProcessLogChunk     = "processLogChunk"
	EventProcessCompleted    = "processCompleted"
	EventProcessError        = "processError"
	EventProcessKilled       = "processKilled"
	EventProcessResumed      = "processResumed"
)

// ProcessStartedEvent is broadcast when a new process is registered.
type ProcessStartedEvent struct {
	ProcessID    string `json:"process_id"`
	PipelineName string `json:"pipeline_name"`
}

// ProcessStatusUpdateEvent is broadcast on every status transition.
type ProcessStatusUpdateEvent struct {
	ProcessID string `json:"process_id"`
	Status    string `json:"status"`
	StepIndex int    `json:"step_index"`
}

// ProcessLogChunkEvent is broadcast for each log chunk a process emits.
type ProcessLogChunkEvent struct {
	ProcessID string `json:"process_id"`
	Content   string `json:"content"`
}

// ProcessCompletedEvent is broadcast when a process finishes successfully.
type ProcessCompletedEvent struct {
	ProcessID string `json:"process_id"`
}

// ProcessErrorEvent is broadcast when a process fails.
type ProcessErrorEvent struct {
	ProcessID string `json:"process_id"`
	Error     string `json:"error"`
}

// ProcessKilledEvent is broadcast when a process is killed by request.
type ProcessKilledEvent struct {
	ProcessID string `json:"process_id"`
}

// ProcessResumedEvent is broadcast when a paused process resumes.
type ProcessResumedEvent struct {
	ProcessID string `json:"process_id"`
}

// BroadcastEvent marshals a typed event payload and broadcasts it under
// the {type, payload} envelope. Implements broadcast.Broadcaster.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
