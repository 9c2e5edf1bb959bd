package models

import "time"

// Notification is one row of the append-only event log shown in the
// dashboard notification bell.
type Notification struct {
	NotificationID int       `json:"notification_id" db:"notification_id"`
	Message        string    `json:"message" db:"message"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	IsRead         bool      `json:"is_read" db:"is_read"`
}
