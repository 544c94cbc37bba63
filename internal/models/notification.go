package models

import "time"

// Notification types are open-ended tags; these are the ones the
// console itself produces.
const (
	NotificationOrganizationSignup = "organization_signup"
	NotificationEmailAccessRequest = "email_access_request"
	NotificationApproval           = "approval"
)

type Notification struct {
	ID          string                 `json:"id" db:"id"`
	Type        string                 `json:"type" db:"type"`
	ActorID     *string                `json:"actor_id,omitempty" db:"actor_id"`
	Payload     map[string]interface{} `json:"payload,omitempty" db:"-"`
	PayloadJSON []byte                 `json:"-" db:"payload"`
	Read        bool                   `json:"read" db:"read"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}
