package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"orgconsole-backend/internal/models"
)

var ErrOrgNotFound = errors.New("organization not found")

func (s *Storage) CreateOrganization(ctx context.Context, input models.CreateOrganizationInput) (*models.Organization, error) {
	query := `
		INSERT INTO organizations (id, name, contact_email, contact_phone, address, services, notes)
		VALUES ($1, $2, $3, $4, $5, $6, '')
		RETURNING id, name, contact_email, contact_phone, address, services, notes, created_at, updated_at
	`

	services := input.Services
	if services == nil {
		services = []string{}
	}

	var org models.Organization
	err := s.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		input.Name,
		input.ContactEmail,
		nullIfEmpty(input.ContactPhone),
		nullIfEmpty(input.Address),
		pq.Array(services),
	).Scan(
		&org.ID,
		&org.Name,
		&org.ContactEmail,
		&org.ContactPhone,
		&org.Address,
		&org.Services,
		&org.Notes,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (s *Storage) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT id, name, contact_email, contact_phone, address, services, notes, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	var org models.Organization
	err := s.db.GetContext(ctx, &org, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (s *Storage) UpdateOrganizationNotes(ctx context.Context, id, notes string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE organizations
		SET notes = $1, updated_at = NOW()
		WHERE id = $2
	`, notes, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrgNotFound
	}
	return nil
}
