package events

import (
	"log"

	"orgconsole-backend/internal/cache"
	"orgconsole-backend/internal/hub"
	"orgconsole-backend/internal/models"
)

// Fanout pushes freshly written notifications to every out-of-band
// channel. All of it is best-effort: the notification row has already
// been committed, so failures here are logged and dropped.
type Fanout struct {
	hub   *hub.Hub
	bus   *Bus
	cache cache.Client
}

func NewFanout(h *hub.Hub, b *Bus, c cache.Client) *Fanout {
	return &Fanout{hub: h, bus: b, cache: c}
}

func (f *Fanout) NotificationCreated(n models.Notification) {
	if f.hub != nil {
		f.hub.BroadcastNotification(n)
	}
	if f.bus != nil {
		if err := f.bus.PublishNotification(n); err != nil {
			log.Printf("WARN Failed to publish notification %s to bus: %v", n.ID, err)
		}
	}
	if f.cache != nil {
		if err := f.cache.InvalidateUnreadCount(); err != nil {
			log.Printf("WARN Failed to invalidate unread count cache: %v", err)
		}
	}
}
