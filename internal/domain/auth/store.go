package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"solvo/internal/platform/kv"
)

// Store keeps one account per normalized email in the key-value backend.
type Store struct {
	backend kv.Backend
	prefix  string
}

func NewStore(backend kv.Backend, prefix string) *Store {
	return &Store{backend: backend, prefix: prefix}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) key(email string) string {
	return fmt.Sprintf("%s-account-%s", s.prefix, NormalizeEmail(email))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (Account, error) {
	data, err := s.backend.Get(ctx, s.key(email))
	if errors.Is(err, kv.ErrNotFound) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	var account Account
	if err := json.Unmarshal(data, &account); err != nil {
		return Account{}, fmt.Errorf("decode account: %w", err)
	}
	return account, nil
}

func (s *Store) Save(ctx context.Context, account Account) error {
	account.Email = NormalizeEmail(account.Email)
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, s.key(account.Email), data)
}

func (s *Store) List(ctx context.Context) ([]Account, error) {
	keys, err := s.backend.Keys(ctx, s.key(""))
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(keys))
	for _, key := range keys {
		email := strings.TrimPrefix(key, s.key(""))
		account, err := s.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}
