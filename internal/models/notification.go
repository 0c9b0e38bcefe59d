package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification types emitted by the matching engine.
const (
	NotificationMatchFound          = "match_found"
	NotificationClaimReceived       = "claim_received"
	NotificationConfirmationPending = "match_confirmation_pending"
	NotificationMatchConfirmed      = "match_confirmed"
	NotificationMatchRejected       = "match_rejected"
)

// Notification is owned by its recipient, who may only read or delete it.
type Notification struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type      string            `gorm:"size:50;not null" json:"type"`
	Title     string            `gorm:"size:200;not null" json:"title"`
	Body      string            `gorm:"type:text" json:"body"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"payload"`
	Read      bool              `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"read"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
