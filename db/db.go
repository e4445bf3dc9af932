// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

//go:embed migrations
var migrations embed.FS

// Open connects to a database of the given type and checks it is reachable.
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	driver, dsn, err := driverDSN(dbType, url)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// Migrate applies all pending migrations. It uses its own connection and
// closes it when done.
func Migrate(ctx context.Context, dbType, url string) error {
	conn, err := Open(ctx, dbType, url)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrations, "migrations/"+dbType)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var target database.Driver
	switch dbType {
	case TypePostgres:
		target, err = postgres.WithInstance(conn, &postgres.Config{})
	case TypeSQLite:
		target, err = sqlite.WithInstance(conn, &sqlite.Config{})
	}
	if err != nil {
		src.Close()
		conn.Close()
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbType, target)
	if err != nil {
		src.Close()
		target.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// driverDSN maps a database type to its database/sql driver name. SQLite
// connections always enforce foreign keys so deletes cascade.
func driverDSN(dbType, url string) (string, string, error) {
	switch dbType {
	case TypePostgres:
		return "postgres", url, nil
	case TypeSQLite:
		return "sqlite", sqliteDSN(url), nil
	default:
		return "", "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

func sqliteDSN(url string) string {
	params := []string{}
	if !strings.Contains(url, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(url, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(url, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return url
	}

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + strings.Join(params, "&")
}
