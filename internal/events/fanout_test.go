package events

import (
	"testing"

	"orgconsole-backend/internal/models"
)

func TestFanoutToleratesMissingChannels(t *testing.T) {
	// Deployments can run without NATS, Redis or connected consoles;
	// fan-out must degrade to a no-op rather than panic.
	f := NewFanout(nil, nil, nil)
	f.NotificationCreated(models.Notification{ID: "n-1", Type: "approval"})
}
