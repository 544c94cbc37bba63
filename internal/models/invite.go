package models

import "time"

// AccessInvite grants account signups membership in an organization.
// Only the bcrypt hash of the token is stored; the full token is
// returned once, at creation.
type AccessInvite struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organization_id" db:"organization_id"`
	TokenPrefix    string     `json:"token_prefix" db:"token_prefix"`
	TokenHash      string     `json:"-" db:"token_hash"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	MaxUses        *int       `json:"max_uses,omitempty" db:"max_uses"`
	UseCount       int        `json:"use_count" db:"use_count"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}
