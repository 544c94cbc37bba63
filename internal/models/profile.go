package models

import "time"

// Role tiers, ordered from most to least privileged.
const (
	RoleSuperAdmin   = "super_admin"
	RoleAdmin        = "admin"
	RoleSecurityTeam = "security_team"
	RoleClient       = "client"
)

// Approval states. A profile starts pending and only ever moves to approved.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

type Profile struct {
	ID             string    `json:"id" db:"id"`
	FullName       *string   `json:"full_name" db:"full_name"`
	Role           string    `json:"role" db:"role"`
	OrganizationID *string   `json:"organization_id" db:"organization_id"`
	Status         string    `json:"status" db:"status"`
	Suspended      bool      `json:"suspended" db:"suspended"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type UpsertProfileInput struct {
	ID             string
	FullName       *string
	Role           string
	OrganizationID *string
}

func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleSecurityTeam, RoleClient:
		return true
	}
	return false
}

// AdminTier reports whether a role may use the admin API surface.
func AdminTier(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleSecurityTeam:
		return true
	}
	return false
}
