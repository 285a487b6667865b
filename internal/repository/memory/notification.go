package memory

import (
	"context"
	"time"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/notification"
)

type notificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) notification.Repository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) CreateBatch(_ context.Context, notifications []*notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, n := range notifications {
		copied := *n
		r.store.notifications[n.RecipientID] = append([]*notification.Notification{&copied}, r.store.notifications[n.RecipientID]...)
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(_ context.Context, recipientID string, limit int) ([]*notification.Notification, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	stored := r.store.notifications[recipientID]
	if len(stored) > limit {
		stored = stored[:limit]
	}

	result := make([]*notification.Notification, 0, len(stored))
	for _, n := range stored {
		copied := *n
		result = append(result, &copied)
	}
	return result, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id, recipientID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, n := range r.store.notifications[recipientID] {
		if n.ID == id && !n.IsRead {
			now := time.Now()
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}
