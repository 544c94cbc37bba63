package models

import (
	"time"

	"github.com/lib/pq"
)

type Organization struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	ContactEmail string         `json:"contact_email" db:"contact_email"`
	ContactPhone *string        `json:"contact_phone" db:"contact_phone"`
	Address      *string        `json:"address" db:"address"`
	Services     pq.StringArray `json:"services" db:"services"`
	Notes        string         `json:"notes" db:"notes"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

type CreateOrganizationInput struct {
	Name         string
	ContactEmail string
	ContactPhone *string
	Address      *string
	Services     []string
}
