package notify

import "context"

// Handle identifies a displayed notification so it can be closed later.
// Its concrete type belongs to the Sink that produced it.
type Handle any

// Notification is the payload the scheduler hands to a Sink.
type Notification struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
	Sound              bool
	Vibrate            []int // pattern in milliseconds, nil when disabled
	Data               map[string]string
}

// Sink displays platform notifications. Show may return a nil Handle
// without an error when the platform suppressed the notification
// (permission denied, unsupported); callers must treat that as success.
type Sink interface {
	Show(ctx context.Context, n Notification) (Handle, error)
	Close(ctx context.Context, h Handle) error
}
