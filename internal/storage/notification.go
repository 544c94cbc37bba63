package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"orgconsole-backend/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// CreateNotification appends an event to the notification log and
// fills in the generated id and timestamp.
func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	payload := n.PayloadJSON
	if payload == nil {
		if n.Payload != nil {
			data, err := json.Marshal(n.Payload)
			if err != nil {
				return err
			}
			payload = data
		} else {
			payload = []byte("{}")
		}
	}
	n.PayloadJSON = payload

	query := `
		INSERT INTO notifications (id, type, actor_id, payload, read)
		VALUES ($1, $2, $3, $4::jsonb, false)
		RETURNING id, created_at
	`

	return s.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		n.Type,
		nullIfEmpty(n.ActorID),
		payload,
	).Scan(&n.ID, &n.CreatedAt)
}

func (s *Storage) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, type, actor_id, payload, read, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []models.Notification
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	result := make([]models.Notification, 0, len(rows))
	for _, n := range rows {
		if len(n.PayloadJSON) > 0 {
			if err := json.Unmarshal(n.PayloadJSON, &n.Payload); err != nil {
				return nil, err
			}
		}
		result = append(result, n)
	}

	return result, nil
}

func (s *Storage) CountUnreadNotifications(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE read = false`)
	return count, err
}

func (s *Storage) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
