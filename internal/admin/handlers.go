package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"orgconsole-backend/internal/auth"
	"orgconsole-backend/internal/cache"
	"orgconsole-backend/internal/httpx"
	"orgconsole-backend/internal/hub"
	"orgconsole-backend/internal/models"
	"orgconsole-backend/internal/storage"
)

// Store is the slice of the storage layer the admin handlers use.
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, input models.UpsertProfileInput) error
	SetProfileStatus(ctx context.Context, id, status string) error
	SetProfileSuspended(ctx context.Context, id string, suspended bool) error
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	UpdateOrganizationNotes(ctx context.Context, id, notes string) error
	GetAccountEmail(ctx context.Context, id string) (string, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// Notifier receives committed notifications for out-of-band fan-out.
type Notifier interface {
	NotificationCreated(n models.Notification)
}

// FeedIssuer mints NATS credentials for dashboards subscribing to the
// event stream. Nil when the deployment has no issuer configured.
type FeedIssuer interface {
	IssueFeedCredentials(consoleID string, expiresIn time.Duration) (string, time.Time, error)
}

type Handler struct {
	store    Store
	notifier Notifier
	cache    cache.Client
	hub      *hub.Hub
	issuer   FeedIssuer
}

func New(store Store, notifier Notifier, cacheClient cache.Client, h *hub.Hub, issuer FeedIssuer) *Handler {
	return &Handler{
		store:    store,
		notifier: notifier,
		cache:    cacheClient,
		hub:      h,
		issuer:   issuer,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(RequireServiceRole)
		r.Use(h.RequireAdminTier)

		r.Post("/approve-user", h.ApproveUser)
		r.Post("/suspend-user", h.SuspendUser)
		r.Post("/update-organization", h.UpdateOrganization)
		r.Post("/upsert-profile", h.UpsertProfile)
		r.Post("/user-emails", h.LookupUserEmails)

		r.Get("/notifications", h.ListNotifications)
		r.Get("/notifications/unread-count", h.UnreadCount)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		r.Post("/feed-credentials", h.IssueFeedCredentials)
	})

	r.Route("/api/ws", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(h.RequireAdminTier)
		r.Get("/notifications", h.NotificationsFeed)
	})
}

// RequireServiceRole rejects every admin call while the elevated
// store credential is missing from the environment. This is a
// deployment error, surfaced on each request rather than at startup.
func RequireServiceRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if os.Getenv("SERVICE_ROLE_KEY") == "" {
			httpx.Error(w, http.StatusInternalServerError, "SERVICE_ROLE_KEY is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminTier restricts the admin surface to super-admin, admin
// and security-team profiles. Suspended admins are locked out too.
func (h *Handler) RequireAdminTier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		profile, err := h.store.GetProfile(r.Context(), userID)
		if errors.Is(err, storage.ErrProfileNotFound) {
			httpx.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, err.Error())
			return
		}

		if !models.AdminTier(profile.Role) || profile.Suspended {
			httpx.Error(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type approveUserRequest struct {
	UserID     string `json:"user_id"`
	ApproverID string `json:"approver_id,omitempty"`
}

// ApproveUser flips a profile to approved and appends an approval
// notification. Re-approving an approved profile is allowed: the
// status write is idempotent, the notification is appended again.
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	var req approveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		httpx.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.store.SetProfileStatus(r.Context(), req.UserID, models.StatusApproved); err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			httpx.Error(w, http.StatusBadRequest, "profile not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	notification := models.Notification{
		Type:    models.NotificationApproval,
		Payload: map[string]interface{}{"user_id": req.UserID},
	}
	if req.ApproverID != "" {
		notification.ActorID = &req.ApproverID
	}
	if err := h.store.CreateNotification(r.Context(), &notification); err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.notifier.NotificationCreated(notification)

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

type suspendUserRequest struct {
	UserID    string `json:"user_id"`
	Suspended *bool  `json:"suspended"`
}

// SuspendUser sets the suspension flag exactly as given. The flag
// must be a genuine JSON boolean; a missing or wrongly-typed value is
// rejected, never coerced.
func (h *Handler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	var req suspendUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "suspended must be a boolean")
		return
	}

	if req.UserID == "" {
		httpx.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Suspended == nil {
		httpx.Error(w, http.StatusBadRequest, "suspended must be a boolean")
		return
	}

	if err := h.store.SetProfileSuspended(r.Context(), req.UserID, *req.Suspended); err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			httpx.Error(w, http.StatusBadRequest, "profile not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "suspended": *req.Suspended})
}

type updateOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
	Notes          string `json:"notes"`
}

func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req updateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OrganizationID == "" {
		httpx.Error(w, http.StatusBadRequest, "organization_id is required")
		return
	}

	if err := h.store.UpdateOrganizationNotes(r.Context(), req.OrganizationID, req.Notes); err != nil {
		if errors.Is(err, storage.ErrOrgNotFound) {
			httpx.Error(w, http.StatusBadRequest, "organization not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

type upsertProfileRequest struct {
	UserID         string  `json:"user_id"`
	Role           string  `json:"role,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// UpsertProfile creates or replaces identity, role, display name and
// organization linkage for an arbitrary account. The resulting row is
// re-read after the write rather than assumed from it.
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req upsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		httpx.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	profile, err := upsertProfile(r.Context(), h.store, req.UserID, req.Role, req.FullName, req.OrganizationID)
	if err != nil {
		writeUpsertError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"profile": profile})
}

type userEmailsRequest struct {
	UserIDs []string `json:"user_ids"`
}

// LookupUserEmails resolves each id independently; individual lookup
// failures are skipped, so the result can be smaller than the input.
func (h *Handler) LookupUserEmails(w http.ResponseWriter, r *http.Request) {
	var req userEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserIDs == nil {
		httpx.Error(w, http.StatusBadRequest, "user_ids is required")
		return
	}

	emails := make(map[string]string, len(req.UserIDs))
	for _, id := range req.UserIDs {
		email, err := h.store.GetAccountEmail(r.Context(), id)
		if err != nil {
			continue
		}
		emails[id] = email
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"emails": emails})
}

// upsertProfile is the shared write path behind both the admin and
// the self-service profile endpoints: default the role, probe the
// organization reference, write, then read the row back.
func upsertProfile(ctx context.Context, store Store, userID, role string, fullName, organizationID *string) (*models.Profile, error) {
	if role == "" {
		role = models.RoleClient
	}
	if !models.ValidRole(role) {
		return nil, errInvalidRole
	}

	if organizationID != nil && *organizationID != "" {
		if _, err := store.GetOrganization(ctx, *organizationID); err != nil {
			return nil, err
		}
	}

	input := models.UpsertProfileInput{
		ID:             userID,
		FullName:       fullName,
		Role:           role,
		OrganizationID: organizationID,
	}
	if err := store.UpsertProfile(ctx, input); err != nil {
		return nil, err
	}

	return store.GetProfile(ctx, userID)
}

var errInvalidRole = errors.New("role must be one of super_admin, admin, security_team, client")

func writeUpsertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errInvalidRole):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrOrgNotFound):
		httpx.Error(w, http.StatusBadRequest, "organization not found")
	default:
		httpx.Error(w, http.StatusInternalServerError, err.Error())
	}
}
