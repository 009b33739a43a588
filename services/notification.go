package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/db"
)

// NotificationQueueKey is the Redis list the delivery worker consumes.
const NotificationQueueKey = "notifications:queue"

type NotificationService struct {
	PG    *sql.DB
	Redis *redis.Client
}

func NewNotificationService(pg *sql.DB, rdb *redis.Client) *NotificationService {
	return &NotificationService{PG: pg, Redis: rdb}
}

// Create inserts a notification row and enqueues it for push delivery.
// The enqueue is best effort: a Redis failure leaves the row in place
// and is only logged, delivery catches up when the worker polls.
func (s *NotificationService) Create(ctx context.Context, recipientID, message string) (*db.Notification, error) {
	n := &db.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Message:     message,
	}

	err := s.PG.QueryRowContext(ctx, `
		INSERT INTO notifications (id, recipient_id, message)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, n.ID, n.RecipientID, n.Message).Scan(&n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.Redis != nil {
		if err := s.Redis.RPush(ctx, NotificationQueueKey, n.ID).Err(); err != nil {
			log.Printf("Failed to enqueue notification %s: %v", n.ID, err)
		}
	}

	return n, nil
}

// ListForRecipient returns the recipient's notifications, newest first.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string) ([]db.Notification, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT id, recipient_id, message, is_read, delivered_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []db.Notification
	for rows.Next() {
		var n db.Notification
		var deliveredAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.IsRead, &deliveredAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if deliveredAt.Valid {
			n.DeliveredAt = &deliveredAt.Time
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks a notification read. Only the recipient may do so;
// someone else's notification reads as not found.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	res, err := s.PG.ExecContext(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND recipient_id = $2
	`, notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := s.PG.ExecContext(ctx, `
		UPDATE notifications SET is_read = true
		WHERE recipient_id = $1 AND is_read = false
	`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Get loads a single notification by id, used by the delivery worker.
func (s *NotificationService) Get(ctx context.Context, id string) (*db.Notification, error) {
	var n db.Notification
	var deliveredAt sql.NullTime
	err := s.PG.QueryRowContext(ctx, `
		SELECT id, recipient_id, message, is_read, delivered_at, created_at
		FROM notifications WHERE id = $1
	`, id).Scan(&n.ID, &n.RecipientID, &n.Message, &n.IsRead, &deliveredAt, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("notification")
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	if deliveredAt.Valid {
		n.DeliveredAt = &deliveredAt.Time
	}
	return &n, nil
}

// MarkDelivered records successful push delivery.
func (s *NotificationService) MarkDelivered(ctx context.Context, id string) error {
	_, err := s.PG.ExecContext(ctx, `
		UPDATE notifications SET delivered_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}
	return nil
}
