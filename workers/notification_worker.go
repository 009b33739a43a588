package workers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/campusgrid/grievance/services"
)

// NotificationWorker drains the Redis notification queue and pushes
// each entry out through FCM. Delivery is best effort: a failed push is
// logged and the row stays undelivered so a later sweep can retry it.
type NotificationWorker struct {
	PG            *sql.DB
	Redis         *redis.Client
	FCMService    *services.FCMService
	Notifications *services.NotificationService
}

func NewNotificationWorker(pg *sql.DB, rdb *redis.Client, fcmService *services.FCMService, notifications *services.NotificationService) *NotificationWorker {
	return &NotificationWorker{
		PG:            pg,
		Redis:         rdb,
		FCMService:    fcmService,
		Notifications: notifications,
	}
}

// Start blocks on the queue until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	log.Printf("Notification worker started, waiting on %s", services.NotificationQueueKey)

	for {
		select {
		case <-ctx.Done():
			log.Println("Notification worker stopping")
			return
		default:
		}

		result, err := w.Redis.BLPop(ctx, 5*time.Second, services.NotificationQueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("Failed to read notification queue: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		w.deliver(ctx, result[1])
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, notificationID string) {
	notification, err := w.Notifications.Get(ctx, notificationID)
	if err != nil {
		log.Printf("Skipping notification %s: %v", notificationID, err)
		return
	}
	if notification.DeliveredAt != nil {
		return
	}

	if err := w.FCMService.SendNotification(ctx, notification); err != nil {
		log.Printf("Failed to push notification %s: %v", notification.ID, err)
		return
	}

	if err := w.Notifications.MarkDelivered(ctx, notification.ID); err != nil {
		log.Printf("Failed to mark notification %s delivered: %v", notification.ID, err)
	}
}

// SweepUndelivered re-queues notifications that were created but never
// pushed, e.g. because the worker was down when they were enqueued.
func (w *NotificationWorker) SweepUndelivered(ctx context.Context) {
	rows, err := w.PG.QueryContext(ctx, `
		SELECT id FROM notifications
		WHERE delivered_at IS NULL AND created_at < NOW() - INTERVAL '1 minute'
		ORDER BY created_at ASC
		LIMIT 100`)
	if err != nil {
		log.Printf("Failed to sweep undelivered notifications: %v", err)
		return
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			log.Printf("Failed to scan notification id: %v", err)
			return
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		if err := w.Redis.RPush(ctx, services.NotificationQueueKey, id).Err(); err != nil {
			log.Printf("Failed to requeue notification %s: %v", id, err)
			return
		}
	}
	if len(ids) > 0 {
		log.Printf("Requeued %d undelivered notifications", len(ids))
	}
}

// StartSweeper runs SweepUndelivered on a fixed interval until ctx is
// cancelled.
func (w *NotificationWorker) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.SweepUndelivered(ctx)
		}
	}
}
