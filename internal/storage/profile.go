package storage

import (
	"context"
	"database/sql"
	"errors"

	"orgconsole-backend/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// UpsertProfile creates or replaces the mutable identity fields of a
// profile. Approval status and the suspension flag are never touched
// here: a re-upserted profile keeps whatever state the approval
// workflow has put it in.
func (s *Storage) UpsertProfile(ctx context.Context, input models.UpsertProfileInput) error {
	query := `
		INSERT INTO profiles (id, full_name, role, organization_id, status, suspended)
		VALUES ($1, $2, $3, $4, 'pending', false)
		ON CONFLICT (id)
		DO UPDATE SET full_name = EXCLUDED.full_name, role = EXCLUDED.role, organization_id = EXCLUDED.organization_id
	`

	_, err := s.db.ExecContext(ctx, query,
		input.ID,
		nullIfEmpty(input.FullName),
		input.Role,
		nullIfEmpty(input.OrganizationID),
	)
	return err
}

func (s *Storage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, full_name, role, organization_id, status, suspended, created_at
		FROM profiles
		WHERE id = $1
	`

	var profile models.Profile
	err := s.db.GetContext(ctx, &profile, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (s *Storage) SetProfileStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *Storage) SetProfileSuspended(ctx context.Context, id string, suspended bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET suspended = $1 WHERE id = $2`, suspended, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
