package db

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"solvo/internal/domain/auth"
	"solvo/internal/domain/kpi"
	"solvo/internal/domain/workspace"
	"solvo/internal/platform/config"
)

//go:embed catalog/default.yaml
var defaultCatalog []byte

type catalogFile struct {
	Groups []catalogGroup `yaml:"groups"`
}

type catalogGroup struct {
	ID   string          `yaml:"id"`
	Name string          `yaml:"name"`
	Role string          `yaml:"role"`
	KPIs []catalogMetric `yaml:"kpis"`
}

type catalogMetric struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Type   string  `yaml:"type"`
	Goal   float64 `yaml:"goal"`
	Points float64 `yaml:"points"`
}

// LoadCatalog reads KPI groups from path, or the built-in catalog when path
// is empty.
func LoadCatalog(path string) ([]kpi.Group, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read kpi catalog: %w", err)
		}
		data = raw
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse kpi catalog: %w", err)
	}
	groups := make([]kpi.Group, 0, len(file.Groups))
	for _, g := range file.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("kpi catalog: group without name")
		}
		group := kpi.Group{ID: g.ID, Name: g.Name, Role: g.Role}
		for _, m := range g.KPIs {
			group.KPIs = append(group.KPIs, kpi.Definition{
				ID:     m.ID,
				Name:   m.Name,
				Type:   kpi.Type(m.Type),
				Goal:   m.Goal,
				Points: m.Points,
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// Seed creates the configured admin account and, when the admin's
// workspace has no KPI groups yet, installs the catalog there.
func Seed(ctx context.Context, cfg config.Config, accounts *auth.Service, ws *workspace.Service, logger *zap.Logger) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}
	admin, created, err := accounts.EnsureAccount(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Info("seeded admin account", zap.String("email", admin.Email))
	}

	state, err := ws.State(ctx, admin.ID)
	if err != nil {
		return err
	}
	if len(state.KpiGroups) > 0 {
		return nil
	}
	groups, err := LoadCatalog(cfg.SeedKpiCatalog)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := ws.Dispatch(ctx, admin.ID, workspace.UpsertKpiGroup{Group: g}); err != nil {
			return fmt.Errorf("seed kpi group %q: %w", g.Name, err)
		}
	}
	logger.Info("seeded kpi catalog", zap.Int("groups", len(groups)))
	return nil
}
