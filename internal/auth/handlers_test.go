package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"orgconsole-backend/internal/models"
	"orgconsole-backend/internal/storage"
)

type fakeStore struct {
	accounts   map[string]*models.Account
	byEmail    map[string]*models.Account
	profiles   map[string]*models.Profile
	invites    map[string]*models.AccessInvite
	inviteUses map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:   make(map[string]*models.Account),
		byEmail:    make(map[string]*models.Account),
		profiles:   make(map[string]*models.Profile),
		invites:    make(map[string]*models.AccessInvite),
		inviteUses: make(map[string]int),
	}
}

func (f *fakeStore) CreateAccount(_ context.Context, email, passwordHash string) (*models.Account, error) {
	if _, taken := f.byEmail[email]; taken {
		return nil, storage.ErrEmailTaken
	}
	account := &models.Account{
		ID:           fmt.Sprintf("acc-%d", len(f.accounts)+1),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.accounts[account.ID] = account
	f.byEmail[email] = account
	return account, nil
}

func (f *fakeStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeStore) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	account, ok := f.byEmail[email]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeStore) UpsertProfile(_ context.Context, input models.UpsertProfileInput) error {
	f.profiles[input.ID] = &models.Profile{
		ID:             input.ID,
		FullName:       input.FullName,
		Role:           input.Role,
		OrganizationID: input.OrganizationID,
		Status:         models.StatusPending,
		CreatedAt:      time.Now(),
	}
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, storage.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeStore) ValidateAccessInvite(_ context.Context, token string) (*models.AccessInvite, error) {
	invite, ok := f.invites[token]
	if !ok {
		return nil, storage.ErrInviteNotFound
	}
	if invite.RevokedAt != nil {
		return nil, storage.ErrInviteRevoked
	}
	return invite, nil
}

func (f *fakeStore) IncrementInviteUsage(_ context.Context, id string) error {
	f.inviteUses[id]++
	return nil
}

func newTestRouter(t *testing.T) (*fakeStore, chi.Router) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	store := newFakeStore()
	h := NewHandler(store)

	r := chi.NewRouter()
	h.RegisterRoutes(r, func(next http.Handler) http.Handler { return next })
	return store, r
}

func postJSON(r chi.Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	store, r := newTestRouter(t)

	rec := postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"hunter2hunter2","full_name":"Jo"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var registered struct {
		Token   string         `json:"token"`
		Profile models.Profile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.Token)
	require.Equal(t, models.RoleClient, registered.Profile.Role)
	require.Equal(t, models.StatusPending, registered.Profile.Status)
	require.Nil(t, registered.Profile.OrganizationID)

	// Password is stored hashed, never verbatim.
	account := store.byEmail["jo@example.com"]
	require.NotEqual(t, "hunter2hunter2", account.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("hunter2hunter2")))

	rec = postJSON(r, "/api/auth/login", `{"email":"jo@example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(r, "/api/auth/login", `{"email":"jo@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(r, "/api/auth/login", `{"email":"ghost@example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	_, r := newTestRouter(t)

	rec := postJSON(r, "/api/auth/register", `{"email":"not-an-email","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	_, r := newTestRouter(t)

	rec := postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterWithInvite(t *testing.T) {
	store, r := newTestRouter(t)
	store.invites["oc_inv_good"] = &models.AccessInvite{ID: "inv-1", OrganizationID: "org-1"}

	rec := postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"hunter2hunter2","invite_token":"oc_inv_good"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var registered struct {
		Profile models.Profile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	require.NotNil(t, registered.Profile.OrganizationID)
	require.Equal(t, "org-1", *registered.Profile.OrganizationID)
	require.Equal(t, 1, store.inviteUses["inv-1"])
}

func TestRegisterWithBadInvite(t *testing.T) {
	store, r := newTestRouter(t)

	rec := postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"hunter2hunter2","invite_token":"oc_inv_missing"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, store.accounts)

	revoked := time.Now()
	store.invites["oc_inv_dead"] = &models.AccessInvite{ID: "inv-2", OrganizationID: "org-1", RevokedAt: &revoked}
	rec = postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"hunter2hunter2","invite_token":"oc_inv_dead"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, store.accounts)
}

func TestMe(t *testing.T) {
	store, r := newTestRouter(t)

	rec := postJSON(r, "/api/auth/register", `{"email":"jo@example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "jo@example.com", me.User.Email)
	require.Len(t, store.accounts, 1)

	// Without a token the endpoint refuses.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
