// Package broadcast defines the port for pushing real-time run events to
// connected clients.
package broadcast

import "context"

// Broadcaster sends typed events to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
