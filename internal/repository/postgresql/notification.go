package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/notification"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO notifications (id, recipient_id, type, title, message, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, n := range notifications {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		if _, err := q.Exec(ctx, query,
			n.ID, n.RecipientID, n.Type, n.Title, n.Message, data, n.IsRead, n.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*notification.Notification, error) {
	q := GetQuerier(ctx, r.db)

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, recipient_id, type, title, message, data, is_read, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		var n notification.Notification
		var data []byte
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND is_read = false
	`

	if _, err := q.Exec(ctx, query, id, recipientID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
