package gateway

import (
	"context"
	"database/sql"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-vendorgate/core"
	vendormigrations "github.com/goliatone/go-vendorgate/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// OpenDatabase opens the configured database and registers the migrations
// for its dialect. Migrations are not applied.
func OpenDatabase(ctx context.Context, cfg core.DatabaseConfig) (*persistence.Client, error) {
	driver := strings.TrimSpace(cfg.Driver)
	dialect, err := vendormigrations.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, core.BadRequestError("database dsn is required", nil)
	}

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, core.InternalError("open database", err)
	}
	if driver == core.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	var client *persistence.Client
	if driver == core.DriverSQLite {
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
	} else {
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, core.InternalError("create persistence client", err)
	}

	_, err = vendormigrations.Register(ctx, dialect, func(_ context.Context, source vendormigrations.Source) error {
		client.RegisterSQLMigrations(source.FS)
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, core.InternalError("register migrations", err)
	}
	return client, nil
}
