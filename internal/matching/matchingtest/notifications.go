package matchingtest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"
	"github.com/google/uuid"
)

// NotificationStore keeps notifications in a map, mirroring the database
// store's notification methods.
type NotificationStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.Notification
	seq   time.Time
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		items: make(map[uuid.UUID]models.Notification),
		seq:   time.Now(),
	}
}

func (s *NotificationStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		// strictly increasing so newest-first ordering is stable
		s.seq = s.seq.Add(time.Millisecond)
		n.CreatedAt = s.seq
	}
	s.items[n.ID] = *n
	return nil
}

func (s *NotificationStore) GetNotification(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return nil, matching.ErrNotFound
	}
	return &n, nil
}

func (s *NotificationStore) ListNotifications(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Notification
	for _, n := range s.items {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *NotificationStore) MarkNotificationsRead(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, item := range s.items {
		if item.UserID != userID || item.Read {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, id) {
			continue
		}
		item.Read = true
		s.items[id] = item
		n++
	}
	return n, nil
}

func (s *NotificationStore) DeleteNotification(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return matching.ErrNotFound
	}
	delete(s.items, id)
	return nil
}
