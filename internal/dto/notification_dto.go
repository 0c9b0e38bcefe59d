package dto

import "github.com/ahmetcoskunkizilkaya/reunite-backend/internal/models"

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Unread        int64                 `json:"unread"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
