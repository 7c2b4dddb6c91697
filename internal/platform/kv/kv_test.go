package kv_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solvo/internal/platform/kv"
)

func exerciseBackend(t *testing.T, backend kv.Backend, prefix string) {
	t.Helper()
	ctx := context.Background()

	_, err := backend.Get(ctx, prefix+"missing")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, backend.Put(ctx, prefix+"clients-u1", []byte(`[{"id":"c1"}]`)))
	require.NoError(t, backend.Put(ctx, prefix+"tasks-u1", []byte(`[]`)))
	require.NoError(t, backend.Put(ctx, prefix+"clients-u2", []byte(`[]`)))

	got, err := backend.Get(ctx, prefix+"clients-u1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1"}]`, string(got))

	require.NoError(t, backend.Put(ctx, prefix+"clients-u1", []byte(`[]`)))
	got, err = backend.Get(ctx, prefix+"clients-u1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	keys, err := backend.Keys(ctx, prefix+"clients-")
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "clients-u1", prefix + "clients-u2"}, keys)

	require.NoError(t, backend.Delete(ctx, prefix+"clients-u1"))
	_, err = backend.Get(ctx, prefix+"clients-u1")
	require.ErrorIs(t, err, kv.ErrNotFound)
	require.NoError(t, backend.Delete(ctx, prefix+"clients-u1"))

	for _, key := range []string{"tasks-u1", "clients-u2"} {
		require.NoError(t, backend.Delete(ctx, prefix+key))
	}
	require.NoError(t, backend.Ping(ctx))
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, kv.NewMemory(), "test-")
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryKeysTreatsPrefixLiterally(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	require.NoError(t, m.Put(ctx, "a_b", nil))
	require.NoError(t, m.Put(ctx, "axb", nil))

	keys, err := m.Keys(ctx, "a_")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b"}, keys)
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv_entries (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	require.NoError(t, err)

	exerciseBackend(t, kv.NewPostgres(pool), "kvtest_pg-")
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	backend := kv.NewRedis(addr, os.Getenv("TEST_REDIS_PASSWORD"))
	t.Cleanup(func() { _ = backend.Close() })

	exerciseBackend(t, backend, "kvtest*redis-")
}
