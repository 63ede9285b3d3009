package sse

import (
	"time"

	"github.com/starford/tessera/internal/status"
)

// Notifier publishes status messages through the broker. Progress
// carries the operation's estimated duration so clients can auto-resolve
// the message to done; errors clear client-side after a fixed delay.
type Notifier struct {
	broker *Broker
}

// NewNotifier wraps a broker as a status.Notifier.
func NewNotifier(b *Broker) *Notifier {
	return &Notifier{broker: b}
}

// Progress broadcasts a status.progress event.
func (n *Notifier) Progress(message string, estimate time.Duration) {
	n.broker.Publish(Event{Type: "status.progress", Data: map[string]any{
		"message":    message,
		"estimateMs": estimate.Milliseconds(),
	}})
}

// Error broadcasts a status.error event.
func (n *Notifier) Error(message string) {
	n.broker.Publish(Event{Type: "status.error", Data: map[string]any{
		"message": message,
	}})
}

var _ status.Notifier = (*Notifier)(nil)
