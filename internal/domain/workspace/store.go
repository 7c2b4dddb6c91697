package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"solvo/internal/platform/kv"
)

// Store maps each collection of a user's workspace to one key,
// "<prefix>-<collection>-<userId>", holding a JSON array.
type Store struct {
	backend kv.Backend
	prefix  string
}

func NewStore(backend kv.Backend, prefix string) *Store {
	if prefix == "" {
		prefix = "solvo"
	}
	return &Store{backend: backend, prefix: prefix}
}

func (s *Store) Key(c Collection, userID string) string {
	return fmt.Sprintf("%s-%s-%s", s.prefix, c, userID)
}

// Load reads every collection. Missing keys load as empty collections.
func (s *Store) Load(ctx context.Context, userID string) (State, error) {
	var state State
	for _, c := range Collections {
		data, err := s.backend.Get(ctx, s.Key(c, userID))
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return State{}, fmt.Errorf("load %s: %w", c, err)
		}
		if err := state.decode(c, data); err != nil {
			return State{}, fmt.Errorf("decode %s: %w", c, err)
		}
	}
	return state.Normalized(), nil
}

// Save rewrites the named collections. Every collection is attempted; the
// returned error joins all failures.
func (s *Store) Save(ctx context.Context, userID string, state State, collections ...Collection) error {
	var errs []error
	for _, c := range collections {
		data, err := state.encode(c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.backend.Put(ctx, s.Key(c, userID), data); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

// Users lists user ids that have a stored team roster.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	prefix := s.Key(CollectionTeamMembers, "")
	keys, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(keys))
	for _, key := range keys {
		if id := strings.TrimPrefix(key, prefix); id != "" {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users, nil
}
