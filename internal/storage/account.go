package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"orgconsole-backend/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)

func (s *Storage) CreateAccount(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, created_at
	`

	var account models.Account
	err := s.db.QueryRowContext(ctx, query, uuid.New().String(), email, passwordHash).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &account, nil
}

func (s *Storage) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, email, password_hash, created_at FROM accounts WHERE id = $1`

	var account models.Account
	err := s.db.GetContext(ctx, &account, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT id, email, password_hash, created_at FROM accounts WHERE email = $1`

	var account models.Account
	err := s.db.GetContext(ctx, &account, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// GetAccountEmail resolves a single account id to its email. Batch
// email lookups call this once per id and skip individual failures.
func (s *Storage) GetAccountEmail(ctx context.Context, id string) (string, error) {
	var email string
	err := s.db.GetContext(ctx, &email, `SELECT email FROM accounts WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", err
	}
	return email, nil
}
