package notification

import "context"

type Repository interface {
	CreateBatch(ctx context.Context, notifications []*Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}
