package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"orgconsole-backend/internal/auth"
	"orgconsole-backend/internal/httpx"
	"orgconsole-backend/internal/models"
	"orgconsole-backend/internal/services"
	"orgconsole-backend/internal/storage"
)

const (
	inviteLifetime = 14 * 24 * time.Hour
)

// Store is the slice of the storage layer the public handlers use.
type Store interface {
	CreateOrganization(ctx context.Context, input models.CreateOrganizationInput) (*models.Organization, error)
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	CreateAccessInvite(ctx context.Context, orgID string, expiresAt *time.Time, maxUses *int) (*models.AccessInvite, string, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	UpsertProfile(ctx context.Context, input models.UpsertProfileInput) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Notifier receives committed notifications for out-of-band fan-out.
type Notifier interface {
	NotificationCreated(n models.Notification)
}

type Handler struct {
	store    Store
	notifier Notifier
	slack    *services.SlackClient
}

func New(store Store, notifier Notifier, slack *services.SlackClient) *Handler {
	return &Handler{
		store:    store,
		notifier: notifier,
		slack:    slack,
	}
}

// RegisterRoutes mounts the public surface. signupLimiter is applied
// to organization creation only.
func (h *Handler) RegisterRoutes(r chi.Router, signupLimiter func(http.Handler) http.Handler) {
	r.With(signupLimiter).Post("/api/org-create", h.CreateOrganization)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/api/upsert-profile", h.UpsertOwnProfile)
	})
}

type createOrganizationRequest struct {
	Name         string   `json:"name"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	Address      *string  `json:"address,omitempty"`
	Services     []string `json:"services,omitempty"`
	Users        []string `json:"users,omitempty"`
}

// CreateOrganization registers an organization, issues an access
// invite for the requested user accounts, and appends the two signup
// notifications. The notification writes are part of the operation's
// contract: if either fails the request fails, although the rows
// written before the failure are not compensated.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if req.Name == "" {
		httpx.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ContactEmail == "" || !strings.Contains(req.ContactEmail, "@") {
		httpx.Error(w, http.StatusBadRequest, "a valid contact_email is required")
		return
	}

	org, err := h.store.CreateOrganization(r.Context(), models.CreateOrganizationInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		Services:     req.Services,
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	expiresAt := time.Now().Add(inviteLifetime)
	var maxUses *int
	if len(req.Users) > 0 {
		uses := len(req.Users)
		maxUses = &uses
	}
	invite, inviteToken, err := h.store.CreateAccessInvite(r.Context(), org.ID, &expiresAt, maxUses)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	signup := models.Notification{
		Type: models.NotificationOrganizationSignup,
		Payload: map[string]interface{}{
			"organization_id": org.ID,
			"name":            org.Name,
		},
	}
	if err := h.store.CreateNotification(r.Context(), &signup); err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.notifier.NotificationCreated(signup)

	users := req.Users
	if users == nil {
		users = []string{}
	}
	accessRequest := models.Notification{
		Type: models.NotificationEmailAccessRequest,
		Payload: map[string]interface{}{
			"organization_id":     org.ID,
			"users":               users,
			"invite_token_prefix": invite.TokenPrefix,
		},
	}
	if err := h.store.CreateNotification(r.Context(), &accessRequest); err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.notifier.NotificationCreated(accessRequest)

	if h.slack != nil {
		if err := h.slack.SendSignupAlert(org.Name, org.ContactEmail, req.Users); err != nil {
			log.Printf("WARN Slack signup alert failed: %v", err)
		}
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"organizationId": org.ID,
		"inviteToken":    inviteToken,
	})
}

type upsertOwnProfileRequest struct {
	Role           string  `json:"role,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// UpsertOwnProfile writes a profile keyed to the calling session's
// identity only; the target id never comes from the request body.
func (h *Handler) UpsertOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req upsertOwnProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleClient
	}
	if !models.ValidRole(role) {
		httpx.Error(w, http.StatusBadRequest, "role must be one of super_admin, admin, security_team, client")
		return
	}

	if req.OrganizationID != nil && *req.OrganizationID != "" {
		if _, err := h.store.GetOrganization(r.Context(), *req.OrganizationID); err != nil {
			if errors.Is(err, storage.ErrOrgNotFound) {
				httpx.Error(w, http.StatusBadRequest, "organization not found")
				return
			}
			httpx.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	input := models.UpsertProfileInput{
		ID:             userID,
		FullName:       req.FullName,
		Role:           role,
		OrganizationID: req.OrganizationID,
	}
	if err := h.store.UpsertProfile(r.Context(), input); err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	profile, err := h.store.GetProfile(r.Context(), userID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"profile": profile})
}
