package workers

import (
	"context"
	"log"
	"time"

	"orgconsole-backend/internal/cache"
	"orgconsole-backend/internal/storage"
)

// StartUnreadReconciler periodically recomputes the unread
// notification count into the cache, repairing any drift left by
// failed invalidations.
func StartUnreadReconciler(ctx context.Context, cacheClient cache.Client, store *storage.Storage) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reconcileOnce(ctx, cacheClient, store)
			}
		}
	}()
	log.Println("INFO Unread-count reconciler started")
}

func reconcileOnce(ctx context.Context, cacheClient cache.Client, store *storage.Storage) {
	count, err := store.CountUnreadNotifications(ctx)
	if err != nil {
		log.Printf("WARN Unread reconciler count error: %v", err)
		return
	}

	if err := cacheClient.SetUnreadCount(count); err != nil {
		log.Printf("WARN Unread reconciler cache error: %v", err)
	}
}
