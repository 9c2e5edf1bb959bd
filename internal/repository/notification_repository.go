package repository

import (
	"context"
	"fmt"

	"loyalty-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// NotificationRepository is the append-only event log behind the dashboard
// notification bell.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, message string) error {
	query := `INSERT INTO notifications (message) VALUES ($1)`
	if _, err := r.db.ExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// InsertTx appends a notification inside a caller-owned transaction, so the
// log entry commits atomically with the change it describes.
func (r *NotificationRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, message string) error {
	query := `INSERT INTO notifications (message) VALUES ($1)`
	if _, err := tx.ExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("failed to insert notification in transaction: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Recent(ctx context.Context, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := `
		SELECT notification_id, message, created_at, is_read
		FROM notifications
		ORDER BY created_at DESC, notification_id DESC
		LIMIT $1`
	if err := r.db.SelectContext(ctx, &notifications, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE is_read = false`); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
