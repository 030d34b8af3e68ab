// Package nats implements the broadcast port over NATS JetStream, giving
// external observers the same process event feed WebSocket clients get.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const streamName = "PIPEKIT"

// subjectRoot prefixes all process event subjects, e.g.
// processes.processStatusUpdate.
const subjectRoot = "processes"

// Broadcaster publishes process events to JetStream subjects.
type Broadcaster struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream
// stream exists.
func Connect(ctx context.Context, url string) (*Broadcaster, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectRoot + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Broadcaster{nc: nc, js: js}, nil
}

// BroadcastEvent publishes one event under processes.<eventType>. Publish
// failures are logged, never propagated: event fan-out must not disturb
// pipeline execution.
func (b *Broadcaster) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal nats event payload", "type", eventType, "error", err)
		return
	}

	subject := subjectRoot + "." + eventType
	if _, err := b.js.Publish(ctx, subject, data); err != nil {
		slog.Error("nats publish failed", "subject", subject, "error", err)
	}
}

// Close shuts down the NATS connection.
func (b *Broadcaster) Close() error {
	b.nc.Close()
	return nil
}
