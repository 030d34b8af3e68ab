// Package broadcast defines the port for broadcasting real-time process
// events to observers.
package broadcast

import "context"

// Broadcaster sends a typed event to all connected observers.
type Broadcaster interface {
	// BroadcastEvent sends a typed event. Implementations must not block
	// on slow consumers.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Multi fans one event out to several broadcasters.
type Multi []Broadcaster

// BroadcastEvent forwards the event to every broadcaster in order.
func (m Multi) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	for _, b := range m {
		b.BroadcastEvent(ctx, eventType, payload)
	}
}

// Nop discards all events. Used when no observer transport is configured.
type Nop struct{}

func (Nop) BroadcastEvent(context.Context, string, any) {}
