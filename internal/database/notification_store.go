package database

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return translate(s.conn(ctx).Create(n).Error)
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	if err := s.conn(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	query := s.conn(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []models.Notification
	if err := query.Order("created_at DESC").Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, translate(err)
	}
	return out, total, nil
}

// MarkNotificationsRead flags the user's notifications as read; with no ids
// every unread notification of the user is flagged.
func (s *Store) MarkNotificationsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := s.conn(ctx).Model(&models.Notification{}).Where("user_id = ? AND read = ?", userID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	result := query.Update("read", true)
	return result.RowsAffected, translate(result.Error)
}

func (s *Store) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	result := s.conn(ctx).Delete(&models.Notification{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return matching.ErrNotFound
	}
	return nil
}
