package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solvo/internal/platform/kv"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyStore remembers the response of a keyed request so a retry
// with the same key and body gets the same answer without re-running it.
type IdempotencyStore struct {
	store  kv.Backend
	prefix string
}

type idempotencyRecord struct {
	RequestHash string          `json:"requestHash"`
	Response    json.RawMessage `json:"response"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func NewIdempotencyStore(store kv.Backend, prefix string) *IdempotencyStore {
	return &IdempotencyStore{store: store, prefix: prefix}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) key(userID, endpoint, key string) string {
	return fmt.Sprintf("%s-idempotency-%s-%s-%s", s.prefix, userID, endpoint, key)
}

func (s *IdempotencyStore) read(ctx context.Context, k string) (idempotencyRecord, bool, error) {
	data, err := s.store.Get(ctx, k)
	if errors.Is(err, kv.ErrNotFound) {
		return idempotencyRecord{}, false, nil
	}
	if err != nil {
		return idempotencyRecord{}, false, err
	}
	var rec idempotencyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return idempotencyRecord{}, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.store == nil {
		return nil, false, nil
	}
	rec, ok, err := s.read(ctx, s.key(userID, endpoint, key))
	if err != nil || !ok {
		return nil, false, err
	}
	if rec.RequestHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return rec.Response, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.store == nil {
		return nil
	}
	k := s.key(userID, endpoint, key)
	existing, ok, err := s.read(ctx, k)
	if err != nil {
		return err
	}
	if ok && existing.RequestHash != requestHash {
		return ErrIdempotencyConflict
	}
	data, err := json.Marshal(idempotencyRecord{RequestHash: requestHash, Response: response, CreatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.store.Put(ctx, k, data)
}
