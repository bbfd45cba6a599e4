// Package migrations exposes the embedded saved-record and activity schema
// per SQL dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	vendorgate "github.com/goliatone/go-vendorgate"
	"github.com/goliatone/go-vendorgate/core"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const rootPath = "data/sql/migrations"

// Source is one dialect's migration tree.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type RegisterFunc func(ctx context.Context, source Source) error

// DialectForDriver maps a configured database driver to its dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(driver) {
	case core.DriverSQLite:
		return DialectSQLite, nil
	case core.DriverPostgres:
		return DialectPostgres, nil
	default:
		return "", core.BadRequestError(fmt.Sprintf("database driver %q is not supported", driver), nil)
	}
}

// Sources returns the postgres tree and its sqlite variant. root defaults to
// the embedded filesystem. Each tree must hold at least one *.up.sql file.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = vendorgate.GetMigrationsFS()
	}
	base, err := fs.Sub(root, rootPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootPath, err)
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: rootPath, FS: base},
		{Dialect: DialectSQLite, Path: rootPath + "/sqlite", FS: sqliteFS},
	}
	for _, source := range sources {
		matches, err := fs.Glob(source.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s: %w", source.Path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: %s has no *.up.sql files", source.Path)
		}
	}
	return sources, nil
}

// Register hands the embedded tree for dialect to registerFn.
func Register(ctx context.Context, dialect string, registerFn RegisterFunc) (Source, error) {
	if registerFn == nil {
		return Source{}, fmt.Errorf("migrations: register function is required")
	}
	dialect = strings.TrimSpace(strings.ToLower(dialect))
	sources, err := Sources(nil)
	if err != nil {
		return Source{}, err
	}
	for _, source := range sources {
		if source.Dialect != dialect {
			continue
		}
		if err := registerFn(ctx, source); err != nil {
			return source, fmt.Errorf("migrations: register %s: %w", source.Path, err)
		}
		return source, nil
	}
	return Source{}, fmt.Errorf("migrations: dialect %q has no migrations", dialect)
}
