package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/notification"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/sse"
)

// Config holds notification dispatcher configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	logger *slog.Logger
	config Config

	queue  chan notification.Event
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewNotificationService starts background workers that batch-insert queued
// events and fan them out over the SSE hub. Dispatch never blocks producers:
// when the queue is full the event is dropped, which is acceptable for a
// fire-and-forget channel whose source of truth stays in the audit trail.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, logger *slog.Logger, cfg Config) notification.Service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		logger: logger,
		config: cfg,
		queue:  make(chan notification.Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	return s
}

func (s *service) Dispatch(event notification.Event) {
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("notification queue full, event dropped",
			slog.String("type", string(event.Type)),
			slog.String("recipient_id", event.RecipientID),
		)
	}
}

func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.Event, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, event := range batch {
			notifications[i] = &notification.Notification{
				ID:          uuid.New().String(),
				RecipientID: event.RecipientID,
				Type:        event.Type,
				Title:       event.Title,
				Message:     event.Message,
				Data:        event.Data,
				IsRead:      false,
				CreatedAt:   time.Now(),
			}
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			s.logger.Error("failed to batch insert notifications",
				slog.Int("worker", id),
				slog.Any("error", err),
			)
		} else {
			for _, n := range notifications {
				s.hub.Publish(n.RecipientID, sse.Event{
					ActorID: n.RecipientID,
					Event:   "notification",
					Data:    n,
				})
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case event := <-s.queue:
			batch = append(batch, event)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case event := <-s.queue:
					batch = append(batch, event)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *service) List(ctx context.Context, recipientID string, limit int) ([]*notification.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, limit)
}

func (s *service) MarkRead(ctx context.Context, id, recipientID string) error {
	return s.repo.MarkRead(ctx, id, recipientID)
}

func (s *service) Shutdown() {
	close(s.stopCh)
	s.wg.Wait()
}
