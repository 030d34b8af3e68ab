package ws

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("expected non-nil hub")
	}
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub()

	// Broadcast with no connections should not panic.
	hub.Broadcast(context.Background(), Message{
		Type:    "test",
		Payload: []byte(`{"key":"value"}`),
	})
}

func TestHubBroadcastEventNoConnections(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent(context.Background(), EventProcessStatusUpdate, ProcessStatusUpdateEvent{
		ProcessID: "p1",
		Status:    "running",
		StepIndex: 1,
	})
}

func TestHubBroadcastEventMarshalError(t *testing.T) {
	hub := NewHub()

	// A channel cannot be marshaled to JSON — should log error, not panic.
	hub.BroadcastEvent(context.Background(), "bad", make(chan int))
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub()

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &conn{ws: nil, cancel: cancel}
	hub.remove(c)
}

func TestMessageEnvelope(t *testing.T) {
	payload, _ := json.Marshal(StartPipelineOp{Name: "review"})
	msg := Message{Type: OpStartPipeline, Payload: payload}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != OpStartPipeline {
		t.Errorf("expected %s, got %s", OpStartPipeline, decoded.Type)
	}

	var op StartPipelineOp
	if err := json.Unmarshal(decoded.Payload, &op); err != nil {
		t.Fatal(err)
	}
	if op.Name != "review" {
		t.Errorf("expected review, got %s", op.Name)
	}
}
