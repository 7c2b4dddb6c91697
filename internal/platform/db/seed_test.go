package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/kpi"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/config"
	"solvo/internal/platform/kv"
)

func TestLoadDefaultCatalog(t *testing.T) {
	groups, err := LoadCatalog("")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.Equal(t, 100.0, g.TotalPoints(), g.Name)
	}
	assert.Equal(t, kpi.TypePercentage, groups[0].KPIs[1].Type)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groups:\n  - name: Support\n    kpis:\n      - name: Tickets\n        goal: 10\n        points: 100\n"), 0o600))

	groups, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Tickets", groups[0].KPIs[0].Name)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	accounts := auth.NewService(auth.NewStore(backend, "test"), "secret", time.Hour)
	ws := workspace.NewService(backend, "test", nil, nil)
	cfg := config.Config{SeedAdminEmail: "admin@example.com", SeedAdminPassword: "changeme"}

	require.NoError(t, Seed(ctx, cfg, accounts, ws, zap.NewNop()))
	require.NoError(t, Seed(ctx, cfg, accounts, ws, zap.NewNop()))

	admin, err := accounts.Store.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	state, err := ws.State(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, state.KpiGroups, 2)
	for _, g := range state.KpiGroups {
		for _, d := range g.KPIs {
			assert.NotEmpty(t, d.ID)
		}
	}
}

func TestMigrate(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, Migrate(ctx, pool))

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('kv_entries') IS NOT NULL`).Scan(&exists))
	assert.True(t, exists)
}
