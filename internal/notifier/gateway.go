package notifier

import "context"

// Gateway is the messaging capability the engine dispatches through.
// Implementations talk to a real provider; tests use fakes.
type Gateway interface {
	// TestConnection probes gateway health. Used as a pre-flight check
	// before each batch.
	TestConnection(ctx context.Context) bool

	// Send delivers a single message to a phone number or group
	// destination and returns the provider message id.
	Send(ctx context.Context, to string, body string) (string, error)
}
