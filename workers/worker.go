package workers

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// MaintenanceWorker runs periodic database housekeeping.
type MaintenanceWorker struct {
	PG *sql.DB
}

func NewMaintenanceWorker(pg *sql.DB) *MaintenanceWorker {
	return &MaintenanceWorker{PG: pg}
}

// Start runs housekeeping on a fixed interval until ctx is cancelled.
func (w *MaintenanceWorker) Start(ctx context.Context, interval time.Duration) {
	log.Println("Maintenance worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Maintenance worker stopping")
			return
		case <-ticker.C:
			w.purgeExpiredRefreshTokens(ctx)
			w.purgeReadNotifications(ctx)
		}
	}
}

func (w *MaintenanceWorker) purgeExpiredRefreshTokens(ctx context.Context) {
	result, err := w.PG.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW() OR revoked_at IS NOT NULL`)
	if err != nil {
		log.Printf("Failed to purge refresh tokens: %v", err)
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		log.Printf("Purged %d stale refresh tokens", n)
	}
}

// Read notifications older than 90 days are no longer useful.
func (w *MaintenanceWorker) purgeReadNotifications(ctx context.Context) {
	result, err := w.PG.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE is_read = true AND created_at < NOW() - INTERVAL '90 days'`)
	if err != nil {
		log.Printf("Failed to purge notifications: %v", err)
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		log.Printf("Purged %d read notifications", n)
	}
}
