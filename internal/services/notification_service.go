package services

import (
	"context"
	"fmt"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/log"
)

// NotificationService persists alerts and pushes them to the owner's
// real-time channel. Persistence is the system of record; the push is
// best effort and never rolls back a stored alert.
type NotificationService struct {
	repo      core.NotificationRepository
	publisher core.AlertPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewNotificationService(repo core.NotificationRepository, publisher core.AlertPublisher, logger *log.Logger) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentNotification),
		now:       time.Now,
	}
}

// Dispatch stores the alert and pushes it. The creation timestamp is set
// here; caller-supplied timestamps are ignored.
func (s *NotificationService) Dispatch(ctx context.Context, n *core.Notification) (*core.Notification, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	n.CreatedAt = s.now()
	n.Read = false
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAlert(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "alert push failed",
				log.FieldAlertID, n.ID,
				log.FieldUserID, n.UserID,
				log.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "alert dispatched",
		log.FieldAlertID, n.ID,
		log.FieldUserID, n.UserID,
		log.FieldOperation, log.OpDispatch)
	return n, nil
}

// List returns the owner's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]core.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead flips the read flag on an owned notification.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) (*core.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, core.ErrUnauthorized
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	n.Read = true
	return n, nil
}
