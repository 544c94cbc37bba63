package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"orgconsole-backend/internal/httpx"
	"orgconsole-backend/internal/models"
	"orgconsole-backend/internal/storage"
)

// Store is the slice of the storage layer the auth handlers use.
type Store interface {
	CreateAccount(ctx context.Context, email, passwordHash string) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpsertProfile(ctx context.Context, input models.UpsertProfileInput) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	ValidateAccessInvite(ctx context.Context, token string) (*models.AccessInvite, error)
	IncrementInviteUsage(ctx context.Context, id string) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the auth endpoints under /api/auth.
// loginLimiter is applied to the login route only.
func (h *Handler) RegisterRoutes(r chi.Router, loginLimiter func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", h.Login)
		r.Post("/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(Middleware)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FullName    *string `json:"full_name,omitempty"`
	InviteToken string  `json:"invite_token,omitempty"`
}

// Login authenticates an account and returns a JWT token
// @Summary Account login
// @Description Authenticates an account with email and password, returns JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Token, account and profile data"
// @Failure 400 {object} httpx.ErrorResponse "Invalid request body or missing credentials"
// @Failure 401 {object} httpx.ErrorResponse "Invalid credentials"
// @Failure 500 {object} httpx.ErrorResponse "Failed to generate token"
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "email and password required")
		return
	}

	account, err := h.store.GetAccountByEmail(r.Context(), req.Email)
	if errors.Is(err, storage.ErrAccountNotFound) {
		httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := GenerateToken(account.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	resp := map[string]any{
		"token": token,
		"user": map[string]any{
			"id":         account.ID,
			"email":      account.Email,
			"created_at": account.CreatedAt,
		},
	}
	if profile, err := h.store.GetProfile(r.Context(), account.ID); err == nil {
		resp["profile"] = profile
	}

	httpx.JSON(w, http.StatusOK, resp)
}

// Register creates an account and its initial pending profile
// @Summary Account registration
// @Description Creates an account, hashes the password, and writes the initial pending profile. An invite token attaches the profile to the inviting organization.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body registerRequest true "Registration details"
// @Success 201 {object} map[string]interface{} "Token, account and profile data"
// @Failure 400 {object} httpx.ErrorResponse "Invalid request"
// @Failure 500 {object} httpx.ErrorResponse "Store error"
// @Router /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httpx.Error(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		httpx.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	var invite *models.AccessInvite
	if req.InviteToken != "" {
		var err error
		invite, err = h.store.ValidateAccessInvite(r.Context(), req.InviteToken)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrInviteNotFound),
				errors.Is(err, storage.ErrInviteRevoked),
				errors.Is(err, storage.ErrInviteExpired),
				errors.Is(err, storage.ErrInviteUsageLimitReached):
				httpx.Error(w, http.StatusBadRequest, err.Error())
			default:
				httpx.Error(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	account, err := h.store.CreateAccount(r.Context(), req.Email, string(hash))
	if errors.Is(err, storage.ErrEmailTaken) {
		httpx.Error(w, http.StatusBadRequest, "email already registered")
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	input := models.UpsertProfileInput{
		ID:       account.ID,
		FullName: req.FullName,
		Role:     models.RoleClient,
	}
	if invite != nil {
		input.OrganizationID = &invite.OrganizationID
	}
	if err := h.store.UpsertProfile(r.Context(), input); err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if invite != nil {
		if err := h.store.IncrementInviteUsage(r.Context(), invite.ID); err != nil {
			log.Printf("WARN Failed to record invite usage for %s: %v", invite.ID, err)
		}
	}

	token, err := GenerateToken(account.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	profile, err := h.store.GetProfile(r.Context(), account.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":         account.ID,
			"email":      account.Email,
			"created_at": account.CreatedAt,
		},
		"profile": profile,
	})
}

// Logout clears the session on the client side
// @Summary Account logout
// @Description Sessions are stateless JWTs; logout is acknowledged so clients drop the token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool "Success response"
// @Security BearerAuth
// @Router /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me returns the current authenticated account and its profile
// @Summary Get current account
// @Description Returns the currently authenticated account and profile
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Account and profile data"
// @Failure 401 {object} httpx.ErrorResponse "Unauthorized"
// @Failure 404 {object} httpx.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /api/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	account, err := h.store.GetAccount(r.Context(), userID)
	if errors.Is(err, storage.ErrAccountNotFound) {
		httpx.Error(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"user": map[string]any{
			"id":         account.ID,
			"email":      account.Email,
			"created_at": account.CreatedAt,
		},
	}
	if profile, err := h.store.GetProfile(r.Context(), account.ID); err == nil {
		resp["profile"] = profile
	}

	httpx.JSON(w, http.StatusOK, resp)
}
