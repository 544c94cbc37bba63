package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"orgconsole-backend/internal/models"
)

var (
	ErrInviteNotFound          = errors.New("access invite not found")
	ErrInviteRevoked           = errors.New("access invite revoked")
	ErrInviteExpired           = errors.New("access invite expired")
	ErrInviteUsageLimitReached = errors.New("access invite usage limit reached")
)

const (
	InvitePrefix       = "oc_inv_"
	inviteTokenLength  = 32
	invitePrefixLength = 12
)

// GenerateInviteToken mints a random invite token. Only the bcrypt
// hash is ever stored; the prefix is kept alongside it so lookups
// don't have to compare every hash in the table.
func GenerateInviteToken() (token string, prefix string, hash string, err error) {
	bytes := make([]byte, inviteTokenLength)
	if _, err = rand.Read(bytes); err != nil {
		return "", "", "", err
	}

	token = InvitePrefix + hex.EncodeToString(bytes)
	prefix = token[:invitePrefixLength]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", err
	}

	return token, prefix, string(hashBytes), nil
}

func ValidateInviteHash(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// CreateAccessInvite issues an invite for an organization and returns
// the stored row together with the plaintext token.
func (s *Storage) CreateAccessInvite(ctx context.Context, orgID string, expiresAt *time.Time, maxUses *int) (*models.AccessInvite, string, error) {
	token, prefix, hash, err := GenerateInviteToken()
	if err != nil {
		return nil, "", err
	}

	query := `
		INSERT INTO access_invites (id, organization_id, token_prefix, token_hash, expires_at, max_uses, use_count)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id, organization_id, token_prefix, token_hash, expires_at, max_uses, use_count, created_at, last_used_at, revoked_at
	`

	var invite models.AccessInvite
	err = s.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		orgID,
		prefix,
		hash,
		expiresAt,
		maxUses,
	).Scan(
		&invite.ID,
		&invite.OrganizationID,
		&invite.TokenPrefix,
		&invite.TokenHash,
		&invite.ExpiresAt,
		&invite.MaxUses,
		&invite.UseCount,
		&invite.CreatedAt,
		&invite.LastUsedAt,
		&invite.RevokedAt,
	)
	if err != nil {
		return nil, "", err
	}

	return &invite, token, nil
}

// ValidateAccessInvite resolves a plaintext token to a usable invite.
func (s *Storage) ValidateAccessInvite(ctx context.Context, token string) (*models.AccessInvite, error) {
	if len(token) < invitePrefixLength {
		return nil, ErrInviteNotFound
	}

	query := `
		SELECT id, organization_id, token_prefix, token_hash, expires_at, max_uses, use_count, created_at, last_used_at, revoked_at
		FROM access_invites
		WHERE token_prefix = $1
	`

	var invites []models.AccessInvite
	if err := s.db.SelectContext(ctx, &invites, query, token[:invitePrefixLength]); err != nil {
		return nil, err
	}

	for i := range invites {
		invite := invites[i]
		if !ValidateInviteHash(token, invite.TokenHash) {
			continue
		}

		if invite.RevokedAt != nil {
			return nil, ErrInviteRevoked
		}
		if invite.ExpiresAt != nil && invite.ExpiresAt.Before(time.Now()) {
			return nil, ErrInviteExpired
		}
		if invite.MaxUses != nil && invite.UseCount >= *invite.MaxUses {
			return nil, ErrInviteUsageLimitReached
		}

		return &invite, nil
	}

	return nil, ErrInviteNotFound
}

func (s *Storage) IncrementInviteUsage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE access_invites
		SET use_count = use_count + 1, last_used_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (s *Storage) RevokeAccessInvite(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE access_invites
		SET revoked_at = NOW()
		WHERE id = $1
	`, id)
	return err
}
