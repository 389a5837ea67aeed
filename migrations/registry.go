// Package migrations resolves the embedded lazymint schema trees. Postgres
// migrations sit at data/sql/migrations and the sqlite variant under its
// sqlite/ subdirectory.
package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	lazymint "github.com/goliatone/go-lazymint"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	rootPath  = "data/sql/migrations"
	sqliteDir = "sqlite"
)

// Tree is the migration set for one dialect.
type Tree struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// Trees returns the postgres and sqlite trees, in that order.
func Trees() ([]Tree, error) {
	postgres, err := ForDialect(DialectPostgres)
	if err != nil {
		return nil, err
	}
	sqlite, err := ForDialect(DialectSQLite)
	if err != nil {
		return nil, err
	}
	return []Tree{postgres, sqlite}, nil
}

// ForDialect returns the tree for dialect. The tree must hold at least one
// *.up.sql file.
func ForDialect(dialect string) (Tree, error) {
	path := rootPath
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectPostgres:
		dialect = DialectPostgres
	case DialectSQLite:
		dialect = DialectSQLite
		path = rootPath + "/" + sqliteDir
	default:
		return Tree{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	sub, err := fs.Sub(lazymint.GetMigrationsFS(), path)
	if err != nil {
		return Tree{}, fmt.Errorf("migrations: resolve %s tree: %w", dialect, err)
	}
	matches, err := fs.Glob(sub, "*.up.sql")
	if err != nil {
		return Tree{}, fmt.Errorf("migrations: glob %s: %w", path, err)
	}
	if len(matches) == 0 {
		return Tree{}, fmt.Errorf("migrations: %s tree %q has no *.up.sql files", dialect, path)
	}
	return Tree{Dialect: dialect, Path: path, FS: sub}, nil
}

// Register hands the tree for dialect to registerFn.
func Register(dialect string, registerFn func(fs.FS)) (Tree, error) {
	if registerFn == nil {
		return Tree{}, fmt.Errorf("migrations: register function is required")
	}
	tree, err := ForDialect(dialect)
	if err != nil {
		return Tree{}, err
	}
	registerFn(tree.FS)
	return tree, nil
}
