package database

import (
	"context"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/teleclinic_backend/config"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo/migrate"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo/postgres"
)

// NewDriver opens a pooled Postgres connection wrapped in an ent driver.
func NewDriver(cfg Config) (dialect.Driver, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	var drv dialect.Driver = entsql.OpenDB(dialect.Postgres, db)
	if cfg.EnableLogging {
		drv = dialect.DebugWithContext(drv, queryLogger(cfg))
	}
	return drv, nil
}

// NewRepoClient creates the Postgres-backed repositories from central config.
func NewRepoClient(cfg config.DatabaseConfig) (*repo.Client, dialect.Driver, error) {
	drv, err := NewDriver(FromCentralConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return postgres.New(drv), drv, nil
}

func Migrate(ctx context.Context, drv dialect.Driver) error {
	return migrate.Create(ctx, drv)
}
