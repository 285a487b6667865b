package notification

import "context"

// Dispatcher is the fire-and-forget surface the settlement core emits events
// through. Dispatch must not block the caller; delivery failure is the
// dispatcher's concern.
type Dispatcher interface {
	Dispatch(event Event)
}

type Service interface {
	Dispatcher

	List(ctx context.Context, recipientID string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	Shutdown()
}
