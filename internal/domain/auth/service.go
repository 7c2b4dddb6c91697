package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Store  *Store
	secret string
	ttl    time.Duration
}

func NewService(store *Store, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{Store: store, secret: secret, ttl: ttl}
}

// Login checks the password and issues a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, Account, error) {
	account, err := s.Store.FindByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return "", Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Account{}, err
	}
	if err := CheckPassword(account.PasswordHash, password); err != nil {
		return "", Account{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.secret, Claims{UserID: account.ID, Email: account.Email, Role: account.Role}, s.ttl)
	if err != nil {
		return "", Account{}, fmt.Errorf("issue token: %w", err)
	}
	return token, account, nil
}

// EnsureAccount creates the account when the email is not registered yet.
// Existing accounts are returned untouched.
func (s *Service) EnsureAccount(ctx context.Context, email, password, role string) (Account, bool, error) {
	if !ValidRole(role) {
		return Account{}, false, ErrInvalidRole
	}
	existing, err := s.Store.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return Account{}, false, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Account{}, false, err
	}
	account := Account{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.Save(ctx, account); err != nil {
		return Account{}, false, err
	}
	return account, true, nil
}

// HasPermission satisfies the permission middleware's store.
func (s *Service) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return HasPermission(role, permission), nil
}
