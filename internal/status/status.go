// Package status defines the notification side-channel used by mutating
// operations to report progress and errors to the operator. Calls are
// fire-and-forget; the core never consumes a return value.
package status

import "time"

// Notifier receives transient operator-facing messages.
type Notifier interface {
	// Progress reports an operation in flight and roughly how long it is
	// expected to take.
	Progress(message string, estimate time.Duration)
	// Error reports a failed operation.
	Error(message string)
}

// Nop discards all notifications. Useful in tests and the MCP path.
type Nop struct{}

func (Nop) Progress(string, time.Duration) {}
func (Nop) Error(string)                   {}
