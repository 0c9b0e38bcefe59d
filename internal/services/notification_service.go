package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error)
	MarkNotificationsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, id uuid.UUID) error
}

// NotificationService persists engine notifications and serves them back to
// their recipient.
type NotificationService struct {
	store NotificationStore
}

var _ matching.Notifier = (*NotificationService)(nil)

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// Notify stores the notification. A failure is logged and dropped so the
// transition that triggered it still succeeds.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, payload map[string]string) {
	data := make(datatypes.JSONMap, len(payload))
	for k, v := range payload {
		data[k] = v
	}
	n := models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Body:    body,
		Payload: data,
	}
	if err := s.store.CreateNotification(ctx, &n); err != nil {
		slog.Error("failed to store notification", "action", "notify", "user_id", userID, "type", kind, "error", err)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	items, total, err := s.store.ListNotifications(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	_, total, err := s.store.ListNotifications(ctx, userID, true, 1, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return total, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.store.MarkNotificationsRead(ctx, userID, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.store.MarkNotificationsRead(ctx, userID, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteNotification(ctx, id)
}

func (s *NotificationService) owned(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, matching.ErrUnauthorized
	}
	return n, nil
}
